// Package functions holds the local tools the model can call: get_data, get_location,
// get_weather and format_user_data.
//
// get_data stands in for an API that must not be called concurrently, so it is built with
// tooluse.WithSerial and a Registry runs its calls one at a time in call order.
package functions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skosovsky/tooluse"
)

// Tool names.
const (
	GetDataName        = "get_data"
	GetLocationName    = "get_location"
	GetWeatherName     = "get_weather"
	FormatUserDataName = "format_user_data"
)

// dataTimeout bounds a get_data call including the time it waits behind earlier calls.
const dataTimeout = 30 * time.Second

// ErrWeatherUnavailable is returned by get_weather when the simulated upstream fails.
var ErrWeatherUnavailable = errors.New("weather API call failed")

var (
	cities          = []string{"Tokyo", "Osaka", "Nagoya", "Fukuoka", "Sapporo", "Sendai"}
	weatherPatterns = []string{"sunny", "cloudy", "rainy", "snowy"}
)

// Set holds the configuration shared by the tool handlers.
type Set struct {
	opts options
}

// New creates a Set.
func New(opts ...Option) *Set {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = defaultOptions().rand
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.maxDelay < o.minDelay {
		o.maxDelay = o.minDelay
	}
	return &Set{opts: o}
}

// DataArgs is the input of get_data.
type DataArgs struct {
	ID string `json:"id" description:"Data ID"`
}

// DataResult is the output of get_data.
type DataResult struct {
	ID        string `json:"id"`
	Data      string `json:"data"`
	Timestamp string `json:"timestamp"`
}

// GetData simulates a slow fetch and returns the record for args.ID.
// It returns ctx.Err() if ctx ends during the delay.
func (s *Set) GetData(ctx context.Context, args DataArgs) (DataResult, error) {
	if err := sleep(ctx, s.delay()); err != nil {
		return DataResult{}, err
	}
	return DataResult{
		ID:        args.ID,
		Data:      "Data for ID: " + args.ID,
		Timestamp: s.opts.now().UTC().Format(time.RFC3339Nano),
	}, nil
}

func (s *Set) delay() time.Duration {
	span := s.opts.maxDelay - s.opts.minDelay
	return s.opts.minDelay + time.Duration(s.opts.rand()*float64(span))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LocationArgs is the (empty) input of get_location.
type LocationArgs struct{}

// LocationResult is the output of get_location.
type LocationResult struct {
	Location string `json:"location"`
}

// GetLocation returns one of a fixed set of major cities.
func (s *Set) GetLocation(_ context.Context, _ LocationArgs) (LocationResult, error) {
	return LocationResult{Location: pick(s.opts.rand, cities)}, nil
}

// WeatherArgs is the input of get_weather.
type WeatherArgs struct {
	Location string `json:"location" description:"Location (e.g. Tokyo)"`
}

// WeatherResult is the output of get_weather.
type WeatherResult struct {
	Weather string `json:"weather"`
}

// GetWeather returns a random weather pattern for args.Location.
func (s *Set) GetWeather(_ context.Context, args WeatherArgs) (WeatherResult, error) {
	if s.opts.failureRate > 0 && s.opts.rand() < s.opts.failureRate {
		return WeatherResult{}, fmt.Errorf("get weather for %q: %w", args.Location, ErrWeatherUnavailable)
	}
	return WeatherResult{Weather: pick(s.opts.rand, weatherPatterns)}, nil
}

func pick(r func() float64, from []string) string {
	i := int(r() * float64(len(from)))
	return from[min(max(i, 0), len(from)-1)]
}

// DataTool builds get_data. It is a serial tool: a Registry runs its calls one at a time.
func (s *Set) DataTool() (tooluse.Tool, error) {
	return tooluse.NewTool(GetDataName, "Fetch data for an ID (must not run in parallel)", s.GetData,
		tooluse.WithSerial(), tooluse.WithTimeout(dataTimeout), tooluse.WithTags("data"))
}

// LocationTool builds get_location.
func (s *Set) LocationTool() (tooluse.Tool, error) {
	return tooluse.NewTool(GetLocationName, "Get the current location", s.GetLocation,
		tooluse.WithTags("location"))
}

// WeatherTool builds get_weather.
func (s *Set) WeatherTool() (tooluse.Tool, error) {
	return tooluse.NewTool(GetWeatherName, "Get the weather for a location", s.GetWeather,
		tooluse.WithTags("weather"))
}

// FormatUserTool builds format_user_data.
func (s *Set) FormatUserTool() (tooluse.Tool, error) {
	return tooluse.NewTool(FormatUserDataName, "Validate and normalise user data", FormatUserData,
		tooluse.WithTags("user"))
}

// Tools builds the four tools backed by s.
func (s *Set) Tools() ([]tooluse.Tool, error) {
	builders := []struct {
		name  string
		build func() (tooluse.Tool, error)
	}{
		{GetDataName, s.DataTool},
		{GetLocationName, s.LocationTool},
		{GetWeatherName, s.WeatherTool},
		{FormatUserDataName, s.FormatUserTool},
	}
	tools := make([]tooluse.Tool, 0, len(builders))
	for _, b := range builders {
		t, err := b.build()
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", b.name, err)
		}
		tools = append(tools, t)
	}
	return tools, nil
}

// Register builds the tools with opts and adds them to reg.
func Register(reg *tooluse.Registry, opts ...Option) error {
	tools, err := New(opts...).Tools()
	if err != nil {
		return err
	}
	for _, t := range tools {
		reg.Register(t)
	}
	return nil
}
