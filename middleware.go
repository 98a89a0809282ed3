package tooluse

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/skosovsky/tooluse/serial"
)

// Middleware wraps a Tool with cross-cutting behavior (logging, recovery, timeout, serialization).
type Middleware func(Tool) Tool

// WithLogging returns a middleware that logs start, end, duration, and errors.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Tool) Tool {
		return &loggingTool{toolBase: toolBase{next: next}, logger: logger}
	}
}

// WithRecovery returns a middleware that recovers panics and returns SystemError.
func WithRecovery() Middleware {
	return func(next Tool) Tool {
		return &recoveryTool{toolBase{next: next}}
	}
}

// WithTimeoutMiddleware returns a middleware that enforces a per-tool timeout (overrides registry default for this tool).
// Named with "Middleware" suffix to avoid collision with ToolOption WithTimeout. When both registry default timeout
// and this middleware apply, the effective timeout is the minimum of the two (inner context cancels first).
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next Tool) Tool {
		return &timeoutTool{toolBase: toolBase{next: next}, timeout: d}
	}
}

// WithSerialExecution returns a middleware that runs every execution of the wrapped tool through q.
// Executions run one at a time in call order. Wrapping several tools with the same q serializes
// them against each other. If ctx ends while the call is still queued, Execute returns ctx.Err();
// the call is not withdrawn and still runs in its turn, with the expired ctx.
func WithSerialExecution(q *serial.Queue) Middleware {
	return func(next Tool) Tool {
		return &serialTool{toolBase: toolBase{next: next}, queue: q}
	}
}

// toolBase delegates Tool and ToolMetadata to the wrapped Tool; used by middleware wrappers.
type toolBase struct{ next Tool }

func (b *toolBase) Name() string               { return b.next.Name() }
func (b *toolBase) Description() string        { return b.next.Description() }
func (b *toolBase) Parameters() map[string]any { return b.next.Parameters() }

func (b *toolBase) Timeout() time.Duration {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.Timeout()
	}
	return 0
}
func (b *toolBase) Tags() []string {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.Tags()
	}
	return nil
}
func (b *toolBase) Version() string {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.Version()
	}
	return ""
}
func (b *toolBase) IsDangerous() bool {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.IsDangerous()
	}
	return false
}
func (b *toolBase) IsSerial() bool {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.IsSerial()
	}
	return false
}

type loggingTool struct {
	toolBase
	logger *slog.Logger
}

func (m *loggingTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	m.logger.InfoContext(ctx, "tool start", "tool", m.next.Name())
	start := time.Now()
	res, err := m.next.Execute(ctx, args)
	dur := time.Since(start)
	if err != nil {
		m.logger.ErrorContext(ctx, "tool error", "tool", m.next.Name(), "duration", dur, "error", err)
		return nil, err
	}
	m.logger.InfoContext(ctx, "tool end", "tool", m.next.Name(), "duration", dur)
	return res, nil
}

type recoveryTool struct{ toolBase }

func (r *recoveryTool) Execute(ctx context.Context, args []byte) (res []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = &SystemError{Err: &panicError{p: p}}
		}
	}()
	return r.next.Execute(ctx, args)
}

type timeoutTool struct {
	toolBase
	timeout time.Duration
}

func (t *timeoutTool) Timeout() time.Duration {
	if t.timeout > 0 {
		return t.timeout
	}
	return t.toolBase.Timeout()
}

func (t *timeoutTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	if t.timeout <= 0 {
		return t.next.Execute(ctx, args)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Execute(ctx, args)
}

// serialTool runs next through queue. When acquire is set (tools the Registry serializes),
// the concurrency slot is taken inside the queued task, so calls waiting in the queue hold none.
type serialTool struct {
	toolBase
	queue   *serial.Queue
	acquire func(context.Context) error
	release func()
}

func (s *serialTool) IsSerial() bool { return true }

func (s *serialTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	res, err := serial.Do(ctx, s.queue, func(qctx context.Context) ([]byte, error) {
		if s.acquire != nil {
			if err := s.acquire(qctx); err != nil {
				return nil, err
			}
			defer s.release()
		}
		return s.next.Execute(ctx, args)
	})
	var pe *serial.PanicError
	if errors.As(err, &pe) {
		return nil, &SystemError{Err: &panicError{p: pe.Value}}
	}
	return res, err
}

// Use stores the given middlewares and reapplies them from scratch to all registered tools (onion order:
// first middleware is outermost). Tools registered after Use will also get these middlewares applied.
// Calling Use multiple times replaces the middleware chain and rewraps from raw tools, avoiding double-wrapping.
// The serial queue of a serial tool is always the innermost layer.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
	for name, raw := range r.rawTools {
		r.tools[name] = r.wrapLocked(raw)
	}
}
