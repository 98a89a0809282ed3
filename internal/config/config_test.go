package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, cfgFile string) (*Config, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	v := viper.New()
	if err := Init(v, cfgFile); err != nil {
		return nil, err
	}
	return Load(v)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 5*time.Second, cfg.Registry.DefaultTimeout)
	assert.Equal(t, 10, cfg.Registry.MaxConcurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.Functions.GetData.MinDelay)
	assert.Equal(t, 2*time.Second, cfg.Functions.GetData.MaxDelay)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "tooluse", cfg.Metrics.Namespace)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := load(t, "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TOOLUSE_LOG_LEVEL", "debug")
	t.Setenv("TOOLUSE_REGISTRY_DEFAULT_TIMEOUT", "90s")
	t.Setenv("TOOLUSE_REGISTRY_MAX_CONCURRENCY", "3")
	t.Setenv("TOOLUSE_FUNCTIONS_GET_DATA_MAX_DELAY", "5s")
	t.Setenv("TOOLUSE_METRICS_ENABLED", "true")

	cfg, err := load(t, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 90*time.Second, cfg.Registry.DefaultTimeout)
	assert.Equal(t, 3, cfg.Registry.MaxConcurrency)
	assert.Equal(t, 5*time.Second, cfg.Functions.GetData.MaxDelay)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tooluse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  format: json
functions:
  get_data:
    min_delay: 10ms
    max_delay: 20ms
`), 0o600))

	cfg, err := load(t, path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10*time.Millisecond, cfg.Functions.GetData.MinDelay)
	assert.Equal(t, 20*time.Millisecond, cfg.Functions.GetData.MaxDelay)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := load(t, filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("TOOLUSE_LOG_LEVEL", "loud")
	t.Setenv("TOOLUSE_FUNCTIONS_GET_DATA_MIN_DELAY", "3s")

	_, err := load(t, "")
	require.Error(t, err)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	assert.Equal(t, "log.level", verrs[0].Field)
	assert.Equal(t, "functions.get_data.max_delay", verrs[1].Field)
	assert.Contains(t, err.Error(), "2 validation errors")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative timeout", func(c *Config) { c.Registry.DefaultTimeout = -time.Second }, "registry.default_timeout"},
		{"negative concurrency", func(c *Config) { c.Registry.MaxConcurrency = -1 }, "registry.max_concurrency"},
		{"negative min delay", func(c *Config) { c.Functions.GetData.MinDelay = -time.Second }, "functions.get_data.min_delay"},
		{"metrics without namespace", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Namespace = ""
		}, "metrics.namespace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Contains(t, errs[0].Error(), tt.field)
		})
	}
}

func TestValidate_UppercaseLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "DEBUG"
	assert.Empty(t, cfg.Validate())
}
