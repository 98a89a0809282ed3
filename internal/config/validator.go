package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError is a single invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted log.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the accepted log.format values.
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate checks c and returns all problems found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{"log.level", c.Log.Level, "must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Log.Format)) {
		errs = append(errs, ValidationError{"log.format", c.Log.Format, "must be one of " + strings.Join(ValidLogFormats(), ", ")})
	}
	if c.Registry.DefaultTimeout < 0 {
		errs = append(errs, ValidationError{"registry.default_timeout", c.Registry.DefaultTimeout, "must not be negative"})
	}
	if c.Registry.MaxConcurrency < 0 {
		errs = append(errs, ValidationError{"registry.max_concurrency", c.Registry.MaxConcurrency, "must not be negative (0 disables the limit)"})
	}
	gd := c.Functions.GetData
	if gd.MinDelay < 0 {
		errs = append(errs, ValidationError{"functions.get_data.min_delay", gd.MinDelay, "must not be negative"})
	}
	if gd.MaxDelay < gd.MinDelay {
		errs = append(errs, ValidationError{"functions.get_data.max_delay", gd.MaxDelay, "must not be less than min_delay"})
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		errs = append(errs, ValidationError{"metrics.namespace", c.Metrics.Namespace, "must be set when metrics are enabled"})
	}
	return errs
}
