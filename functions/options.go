package functions

import (
	"math/rand/v2"
	"time"
)

const (
	defaultMinDelay = 500 * time.Millisecond
	defaultMaxDelay = 2 * time.Second
)

type options struct {
	minDelay    time.Duration
	maxDelay    time.Duration
	failureRate float64
	rand        func() float64
	now         func() time.Time
}

// Option configures a Set.
type Option func(*options)

// WithDelayRange sets the simulated processing delay of get_data. Each call sleeps for a
// uniformly random duration in [minDelay, maxDelay]. Zero for both disables the delay.
func WithDelayRange(minDelay, maxDelay time.Duration) Option {
	return func(o *options) {
		o.minDelay = minDelay
		o.maxDelay = maxDelay
	}
}

// WithWeatherFailureRate makes get_weather fail with ErrWeatherUnavailable with probability p.
// p is clamped to [0, 1].
func WithWeatherFailureRate(p float64) Option {
	return func(o *options) {
		o.failureRate = min(max(p, 0), 1)
	}
}

// WithRand replaces the random source. fn must return values in [0, 1) and be safe for concurrent use.
func WithRand(fn func() float64) Option {
	return func(o *options) {
		o.rand = fn
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func defaultOptions() options {
	return options{
		minDelay: defaultMinDelay,
		maxDelay: defaultMaxDelay,
		rand:     rand.Float64,
		now:      time.Now,
	}
}
