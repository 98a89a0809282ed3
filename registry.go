package tooluse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/skosovsky/tooluse/serial"
)

// Registry holds tools and executes them with timeout, semaphore, and optional panic recovery.
// Serial tools (WithSerial) get a serial.Queue per tool name, created on first Register.
type Registry struct {
	tools       map[string]Tool // wrapped with middlewares, used by Execute
	rawTools    map[string]Tool // unwrapped, used by Use() to re-apply middlewares from scratch
	queues      map[string]*serial.Queue
	serialized  map[string]bool // tools whose queue task takes the semaphore itself
	sem         chan struct{}
	opts        registryOptions
	done        chan struct{}
	running     sync.WaitGroup
	mu          sync.Mutex
	middlewares []Middleware
}

// NewRegistry creates a Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		timeout:        5 * time.Second,
		maxConcurrency: 10,
		recoverPanics:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	var sem chan struct{}
	if o.maxConcurrency > 0 {
		sem = make(chan struct{}, o.maxConcurrency)
	}
	return &Registry{
		tools:      make(map[string]Tool),
		rawTools:   make(map[string]Tool),
		queues:     make(map[string]*serial.Queue),
		serialized: make(map[string]bool),
		sem:        sem,
		opts:       o,
		done:       make(chan struct{}),
	}
}

// Register adds a tool. Stored middlewares (see Use) are applied to the tool before registration.
// If a tool with the same name already exists, it is replaced; a serial tool keeps the queue of
// its name so calls still in flight stay ordered against new ones.
// Safe for concurrent use with Execute and other Register calls.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	r.rawTools[name] = t
	r.tools[name] = r.wrapLocked(t)
}

// wrapLocked applies the serial queue (innermost) and the middleware chain to raw. Caller holds r.mu.
func (r *Registry) wrapLocked(raw Tool) Tool {
	t := raw
	name := raw.Name()
	tm, ok := raw.(ToolMetadata)
	r.serialized[name] = ok && tm.IsSerial()
	if r.serialized[name] {
		t = &serialTool{
			toolBase: toolBase{next: raw},
			queue:    r.queueLocked(name),
			acquire:  r.acquireSemaphore,
			release:  r.releaseSemaphore,
		}
	}
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		t = r.middlewares[i](t)
	}
	return t
}

func (r *Registry) queueLocked(name string) *serial.Queue {
	if q, ok := r.queues[name]; ok {
		return q
	}
	opts := append([]serial.Option{serial.WithLogger(r.opts.logger)}, r.opts.queueOpts...)
	opts = append(opts, serial.WithName(name))
	q := serial.New(opts...)
	r.queues[name] = q
	return q
}

// Queue returns the serial queue of a serial tool, or (nil, false) if name has none.
func (r *Registry) Queue(name string) (*serial.Queue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[name]
	return q, ok
}

// GetAllTools returns all registered tools (e.g. for exporting to LLM providers), sorted by name for deterministic order.
func (r *Registry) GetAllTools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// GetTool returns the tool with the given name (after middlewares are applied), or (nil, false) if not found.
func (r *Registry) GetTool(name string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[name]
	return t, ok
}

// Execute runs one tool call. The after-execution hook (WithOnAfterExecute) is invoked with
// the final result, including on panic when recovery is enabled.
func (r *Registry) Execute(ctx context.Context, call ToolCall) (result ToolResult) {
	result = ToolResult{CallID: call.ID, ToolName: call.ToolName}
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		result.Error = ErrShutdown
		return result
	default:
	}
	tool, ok := r.tools[call.ToolName]
	if !ok {
		r.mu.Unlock()
		result.Error = ErrToolNotFound
		return result
	}
	queued := r.serialized[call.ToolName]
	r.running.Add(1)
	r.mu.Unlock()
	defer r.running.Done()

	timeout := r.opts.timeout
	if tm, ok := tool.(ToolMetadata); ok && tm.Timeout() > 0 {
		timeout = tm.Timeout()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Serial tools take their slot inside the queue task, once their turn has come.
	if !queued {
		if err := r.acquireSemaphore(ctx); err != nil {
			result.Error = timeoutError(err)
			return result
		}
		defer r.releaseSemaphore()
	}

	start := time.Now()
	// Recover defer is registered after onAfter so it runs first on panic and sets result.Error before the hook runs.
	defer func() {
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, call, result, time.Since(start))
		}
	}()
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				r.opts.logger.ErrorContext(ctx, "tool panic recovered", "tool", call.ToolName, "call_id", call.ID, "panic", p)
				result.Result = nil
				result.Error = &SystemError{Err: &panicError{p: p}}
			}
		}()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}

	res, err := tool.Execute(ctx, call.Args)
	if err != nil {
		result.Error = timeoutError(err)
		return result
	}
	result.Result = res
	return result
}

// timeoutError marks deadline errors with ErrTimeout while keeping the original chain.
func timeoutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func (r *Registry) acquireSemaphore(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) releaseSemaphore() {
	if r.sem != nil {
		<-r.sem
	}
}

// ExecuteBatch runs all calls in parallel and returns one ToolResult per call, in input order.
// One failure does not cancel the others (partial success). Calls to the same serial tool still
// run one at a time.
func (r *Registry) ExecuteBatch(ctx context.Context, calls []ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Go(func() {
			results[i] = r.Execute(ctx, call)
		})
	}
	wg.Wait()
	return results
}

// Shutdown closes the registry for new calls and waits for in-flight executions or ctx to cancel.
// It also waits for serial queues to drain calls whose callers stopped waiting.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		return nil
	default:
		close(r.done)
	}
	queues := make([]*serial.Queue, 0, len(r.queues))
	for _, q := range r.queues {
		queues = append(queues, q)
	}
	r.mu.Unlock()
	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	for _, q := range queues {
		if err := q.WaitIdle(ctx); err != nil {
			return err
		}
	}
	return nil
}
