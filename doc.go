// Package tooluse provides a type-safe engine for registering, describing, and safely
// executing tools (functions) called by LLM agents.
//
// # Overview
//
// LLMs produce tool calls as JSON. This package turns that JSON into concrete Go
// function calls: unmarshal → validate (against the same JSON Schema shown to the
// LLM) → execute → marshal result or return a clear error for self-correction.
//
// Pipeline: Go function + argument struct → NewTool (reflection + schema) → Tool →
// Registry → Execute (unmarshal, validate, call, marshal) → ToolResult.
//
// # Key concepts
//
//   - Single Source of Truth: one set of struct tags drives both the schema sent to
//     the LLM and the validation of incoming JSON.
//   - Partial Success: ExecuteBatch collects all results; one failure does not cancel others.
//   - Self-Correction: ClientError carries human-readable messages back to the LLM.
//   - Serial tools: a tool built with WithSerial runs one call at a time, in call order,
//     through a serial.Queue owned by the Registry. Use it for backends that must not see
//     concurrent requests.
//
// # Example
//
//	type Args struct { ID string `json:"id" description:"Data ID"` }
//	type Out  struct { Data string `json:"data"` }
//	tool, err := tooluse.NewTool("get_data", "Fetch data (not parallel-safe)", fetch, tooluse.WithSerial())
//	if err != nil { ... }
//	reg := tooluse.NewRegistry()
//	reg.Register(tool)
//	results := reg.ExecuteBatch(ctx, calls) // get_data calls run one at a time
package tooluse
