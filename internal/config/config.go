// Package config loads service configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/crucible-ai/crucible/internal/tracing"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port            int `mapstructure:"port"`
	MetricsPort     int `mapstructure:"metrics_port"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout_seconds"`
}

// WorkflowConfig holds refinement loop settings.
type WorkflowConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // "redis" or "sql"
	TTL     string `mapstructure:"ttl"`     // Go duration, e.g. "24h"
	Redis   struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	SQL struct {
		Driver string `mapstructure:"driver"` // "postgres" or "sqlite3"
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"sql"`
}

// RateLimitConfig throttles the public API per client IP.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig    `mapstructure:"server"`
	Workflow   WorkflowConfig  `mapstructure:"workflow"`
	Store      StoreConfig     `mapstructure:"store"`
	AgentsPath string          `mapstructure:"agents_path"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Tracing    tracing.Config  `mapstructure:"tracing"`
	Logging    LoggingConfig   `mapstructure:"logging"`
}

// StoreTTL parses the configured TTL, falling back to zero (which selects
// the store default) when unset or malformed.
func (c *Config) StoreTTL() time.Duration {
	if c.Store.TTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Store.TTL)
	if err != nil {
		return 0
	}
	return d
}

// Load reads configuration from CONFIG_PATH (or ./config/crucible.yaml),
// applies CRUCIBLE_* environment overrides, and fills defaults. A missing
// config file is not an error; defaults apply.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.metrics_port", 2112)
	v.SetDefault("server.shutdown_timeout_seconds", 15)
	v.SetDefault("workflow.max_iterations", 3)
	v.SetDefault("store.backend", "redis")
	v.SetDefault("store.ttl", "24h")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.sql.driver", "postgres")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 60)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "crucible-orchestrator")
	v.SetDefault("logging.level", "info")

	v.SetEnvPrefix("CRUCIBLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./config/crucible.yaml"
	}
	v.SetConfigFile(cfgPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
