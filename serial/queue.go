package serial

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Queue runs submitted tasks one at a time in submission order.
// The zero value is not usable; create queues with New. A Queue has no terminal state
// and needs no shutdown: once the pending sequence drains, no goroutine is left behind.
type Queue struct {
	mu      sync.Mutex
	busy    bool
	pending []entry
	idle    chan struct{} // closed while the queue is idle
	opts    options
}

// entry is one pending task bound to its completion handle. run executes the task and
// returns settle, which hands the result to the Future. drain calls settle only after the
// queue state reflects the finished task.
type entry struct {
	run      func(ctx context.Context) (settle func(), err error)
	enqueued time.Time
}

// New creates an idle Queue.
func New(opts ...Option) *Queue {
	o := options{
		name:    "serial",
		metrics: NilMetrics{},
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = NilMetrics{}
	}
	if o.baseCtx == nil {
		o.baseCtx = context.Background()
	}
	idle := make(chan struct{})
	close(idle)
	return &Queue{idle: idle, opts: o}
}

// Name returns the queue name (see WithName).
func (q *Queue) Name() string { return q.opts.name }

// Submit hands task to q and returns the Future for its result. It never blocks.
// If q is idle the task starts immediately; otherwise it is appended to the tail of the
// pending sequence and runs after every task submitted before it.
func Submit[T any](q *Queue, task func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	q.enqueue(func(ctx context.Context) (func(), error) {
		v, err := runTask(ctx, task)
		return func() { f.complete(v, err) }, err
	})
	return f
}

// Do submits task and waits for its result. If ctx ends first Do returns ctx.Err(),
// but the task still runs in its turn.
func Do[T any](ctx context.Context, q *Queue, task func(ctx context.Context) (T, error)) (T, error) {
	return Submit(q, task).Wait(ctx)
}

// SubmitFunc is Submit for tasks that produce no value.
func (q *Queue) SubmitFunc(task func(ctx context.Context) error) *Future[struct{}] {
	return Submit(q, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, task(ctx)
	})
}

// Busy reports whether a task is running.
func (q *Queue) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.busy
}

// Len returns the number of tasks waiting to start. The running task is not counted.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// WaitIdle blocks until no task is running and the pending sequence is empty, or ctx ends.
// Tasks submitted after WaitIdle returns are not covered.
func (q *Queue) WaitIdle(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) enqueue(run func(ctx context.Context) (func(), error)) {
	e := entry{run: run, enqueued: time.Now()}
	q.mu.Lock()
	if q.busy {
		q.pending = append(q.pending, e)
		depth := len(q.pending)
		q.mu.Unlock()
		q.opts.metrics.RecordQueueDepth(q.opts.name, depth)
		return
	}
	q.busy = true
	q.idle = make(chan struct{})
	q.mu.Unlock()
	go q.drain(e)
}

// drain runs first and then every pending entry until the sequence is empty.
// Only one drain goroutine exists while the queue is busy. A Future resolves only after
// the queue has gone idle or moved on to the next entry, so a caller whose Wait returned
// never observes its own task as still running.
func (q *Queue) drain(first entry) {
	next := first
	for {
		settle := q.execute(next)

		q.mu.Lock()
		if len(q.pending) == 0 {
			q.pending = nil
			q.busy = false
			close(q.idle)
			q.mu.Unlock()
			settle()
			return
		}
		next = q.pending[0]
		q.pending[0] = entry{}
		q.pending = q.pending[1:]
		depth := len(q.pending)
		q.mu.Unlock()
		q.opts.metrics.RecordQueueDepth(q.opts.name, depth)
		settle()
	}
}

func (q *Queue) execute(e entry) (settle func()) {
	name := q.opts.name
	start := time.Now()
	q.opts.metrics.RecordQueueWait(name, start.Sub(e.enqueued))
	q.opts.logger.Debug("task start", "queue", name, "waited", start.Sub(e.enqueued))

	settle, err := e.run(q.opts.baseCtx)

	dur := time.Since(start)
	q.opts.metrics.RecordTaskDuration(name, dur)
	if err == nil {
		q.opts.logger.Debug("task end", "queue", name, "duration", dur)
		return settle
	}
	var pe *PanicError
	panicked := errors.As(err, &pe)
	q.opts.metrics.RecordTaskFailure(name, panicked)
	if panicked {
		q.opts.logger.Error("task panic", "queue", name, "duration", dur, "panic", pe.Value, "stack", string(pe.Stack))
		return settle
	}
	q.opts.logger.Warn("task error", "queue", name, "duration", dur, "error", err)
	return settle
}

// runTask calls task, turning a panic into *PanicError.
func runTask[T any](ctx context.Context, task func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero T
			v = zero
			err = &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()
	return task(ctx)
}
