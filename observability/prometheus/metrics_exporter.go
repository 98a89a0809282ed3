// Package prometheus exports serial.Queue metrics as Prometheus collectors.
package prometheus

import (
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/skosovsky/tooluse/serial"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts serial.Metrics to Prometheus collectors.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	queueWaitSeconds    *prom.HistogramVec
	taskFailureTotal    *prom.CounterVec
	queueDepth          *prom.GaugeVec
}

var _ serial.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers the collectors. An empty namespace defaults to
// "tooluse", a nil registerer to prom.DefaultRegisterer. Registering twice on the same
// registerer reuses the existing collectors.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "tooluse"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"queue"})
	waitVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "queue_wait_seconds",
		Help:      "Time a task spent pending before it started, in seconds.",
		Buckets:   buckets,
	}, []string{"queue"})
	failureVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_failure_total",
		Help:      "Total number of failed tasks.",
	}, []string{"queue", "kind"})
	depthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current number of pending tasks.",
	}, []string{"queue"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if waitVec, err = registerCollector(reg, waitVec); err != nil {
		return nil, err
	}
	if failureVec, err = registerCollector(reg, failureVec); err != nil {
		return nil, err
	}
	if depthVec, err = registerCollector(reg, depthVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		queueWaitSeconds:    waitVec,
		taskFailureTotal:    failureVec,
		queueDepth:          depthVec,
	}, nil
}

// RecordTaskDuration records task execution duration.
func (m *MetricsExporter) RecordTaskDuration(queue string, d time.Duration) {
	if m == nil {
		return
	}
	m.taskDurationSeconds.WithLabelValues(normalizeLabel(queue, "unknown")).Observe(d.Seconds())
}

// RecordQueueWait records how long a task waited in the pending sequence.
func (m *MetricsExporter) RecordQueueWait(queue string, d time.Duration) {
	if m == nil {
		return
	}
	m.queueWaitSeconds.WithLabelValues(normalizeLabel(queue, "unknown")).Observe(d.Seconds())
}

// RecordTaskFailure counts a failed task, labelled "error" or "panic".
func (m *MetricsExporter) RecordTaskFailure(queue string, panicked bool) {
	if m == nil {
		return
	}
	kind := "error"
	if panicked {
		kind = "panic"
	}
	m.taskFailureTotal.WithLabelValues(normalizeLabel(queue, "unknown"), kind).Inc()
}

// RecordQueueDepth records the pending sequence length.
func (m *MetricsExporter) RecordQueueDepth(queue string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(queue, "unknown")).Set(float64(depth))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
