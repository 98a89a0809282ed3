// Package testutil provides test helpers for tooluse (e.g. MockTool, NewTestRegistry).
package testutil

import (
	"context"
	"time"

	"github.com/skosovsky/tooluse"
)

// MockTool is a configurable Tool implementation for tests.
// Set SerialVal to have a Registry route its calls through a serial queue.
type MockTool struct {
	NameVal   string
	DescVal   string
	ParamsVal map[string]any
	SerialVal bool
	ExecuteFn func(ctx context.Context, args []byte) ([]byte, error)
}

// Name returns the tool name.
func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

// Description returns the tool description.
func (m *MockTool) Description() string {
	return m.DescVal
}

// Parameters returns the parameters schema (or empty map).
func (m *MockTool) Parameters() map[string]any {
	if m.ParamsVal != nil {
		return m.ParamsVal
	}
	return map[string]any{}
}

// Execute runs ExecuteFn if set, otherwise returns an empty JSON object.
func (m *MockTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, args)
	}
	return []byte(`{}`), nil
}

func (m *MockTool) Timeout() time.Duration { return 0 }
func (m *MockTool) Tags() []string         { return nil }
func (m *MockTool) Version() string        { return "" }
func (m *MockTool) IsDangerous() bool      { return false }
func (m *MockTool) IsSerial() bool         { return m.SerialVal }

var (
	_ tooluse.Tool         = (*MockTool)(nil)
	_ tooluse.ToolMetadata = (*MockTool)(nil)
)
