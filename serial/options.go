package serial

import (
	"context"
	"log/slog"
	"time"
)

// Metrics receives queue events. Implementations must be safe for concurrent use.
// See observability/prometheus for a Prometheus-backed implementation.
type Metrics interface {
	// RecordTaskDuration records how long a task body ran.
	RecordTaskDuration(queue string, d time.Duration)
	// RecordQueueWait records how long a task sat in the pending sequence before it started.
	RecordQueueWait(queue string, d time.Duration)
	// RecordTaskFailure records a task that returned an error or panicked.
	RecordTaskFailure(queue string, panicked bool)
	// RecordQueueDepth records the pending sequence length after it changed.
	RecordQueueDepth(queue string, depth int)
}

// NilMetrics is a no-op Metrics.
type NilMetrics struct{}

func (NilMetrics) RecordTaskDuration(string, time.Duration) {}
func (NilMetrics) RecordQueueWait(string, time.Duration)    {}
func (NilMetrics) RecordTaskFailure(string, bool)           {}
func (NilMetrics) RecordQueueDepth(string, int)             {}

// Option configures a Queue.
type Option func(*options)

type options struct {
	name    string
	logger  *slog.Logger
	metrics Metrics
	baseCtx context.Context
}

// WithName sets the queue name used in log records and metric labels.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger. Task start/finish is logged at debug level, failures at warn
// and panics at error level. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink. Nil restores the no-op sink.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithBaseContext sets the context passed to every task. Submitters' contexts never reach
// a task, so a queued task cannot be cancelled by the caller that submitted it.
func WithBaseContext(ctx context.Context) Option {
	return func(o *options) {
		o.baseCtx = ctx
	}
}
