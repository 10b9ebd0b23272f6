package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config represents the runtime configuration of a catalog.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Hierarchy HierarchyConfig `mapstructure:"hierarchy"`
}

// LogConfig represents logger configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	Encoding    string `mapstructure:"encoding"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// HierarchyConfig represents type hierarchy configuration
type HierarchyConfig struct {
	Cache bool `mapstructure:"cache"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Log:       LogConfig{Level: "info"},
		Metrics:   MetricsConfig{Namespace: "compose"},
		Hierarchy: HierarchyConfig{Cache: true},
	}
}

// LoadConfig loads the configuration from path, or from compose.yaml in the
// working directory when path is empty. Environment variables prefixed with
// COMPOSE_ override file values, e.g. COMPOSE_LOG_LEVEL.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.development", defaults.Log.Development)
	v.SetDefault("log.encoding", defaults.Log.Encoding)
	v.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	v.SetDefault("metrics.namespace", defaults.Metrics.Namespace)
	v.SetDefault("hierarchy.cache", defaults.Hierarchy.Cache)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("compose")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("COMPOSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values that cannot be used.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log encoding %q", c.Log.Encoding)
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("metrics namespace is required when metrics are enabled")
	}
	return nil
}

// Build constructs the zap logger described by c.
func (c LogConfig) Build() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if c.Encoding != "" {
		zc.Encoding = c.Encoding
	}
	return zc.Build()
}

// Options turns cfg into catalog options. Metrics are registered with reg
// when enabled.
func Options(cfg *Config, reg prometheus.Registerer) ([]Option, error) {
	logger, err := cfg.Log.Build()
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithLogger(logger),
		WithHierarchyCache(cfg.Hierarchy.Cache),
	}
	if cfg.Metrics.Enabled {
		m, err := NewMetrics(cfg.Metrics.Namespace, reg)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		opts = append(opts, WithMetrics(m))
	}
	return opts, nil
}
