// Package config loads tooluse CLI settings from defaults, an optional config file and
// TOOLUSE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. TOOLUSE_LOG_LEVEL for log.level.
const EnvPrefix = "TOOLUSE"

// Config is the complete CLI configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Functions FunctionsConfig `mapstructure:"functions"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// RegistryConfig maps onto tooluse.RegistryOption values.
type RegistryConfig struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
}

// FunctionsConfig configures the demo tools.
type FunctionsConfig struct {
	GetData GetDataConfig `mapstructure:"get_data"`
}

// GetDataConfig is the simulated processing delay range of get_data.
type GetDataConfig struct {
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
}

// MetricsConfig controls the Prometheus exporter for serial queues.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Default returns a Config with the default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Registry: RegistryConfig{
			DefaultTimeout: 5 * time.Second,
			MaxConcurrency: 10,
		},
		Functions: FunctionsConfig{
			GetData: GetDataConfig{
				MinDelay: 500 * time.Millisecond,
				MaxDelay: 2 * time.Second,
			},
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "tooluse",
		},
	}
}

// SetDefaults registers every key of Default on v, so env overrides apply even without a file.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("registry.default_timeout", d.Registry.DefaultTimeout)
	v.SetDefault("registry.max_concurrency", d.Registry.MaxConcurrency)

	v.SetDefault("functions.get_data.min_delay", d.Functions.GetData.MinDelay)
	v.SetDefault("functions.get_data.max_delay", d.Functions.GetData.MaxDelay)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
}

// Init prepares v: defaults, env overrides and the config file. cfgFile may be empty, in
// which case config.yaml is looked up in Dir() and the working directory; a missing file
// is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(Dir())
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// Dir returns the user config directory for tooluse.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tooluse")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tooluse"
	}
	return filepath.Join(home, ".config", "tooluse")
}
