// Package config defines the configuration of PatentSentry. This file holds
// plain data types and validation only; loading lives in loader.go.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`

	// RateLimitPerMinute is the per-client request budget; 0 disables it.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
}

// LogConfig mirrors logging.LogConfig.
type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// CacheConfig selects and tunes the analysis result cache.
type CacheConfig struct {
	Backend    string        `mapstructure:"backend"` // "memory" | "redis"
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
}

// RedisConfig holds Redis connection parameters, used when cache.backend is redis.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// PatentsViewConfig configures the patent data source client.
type PatentsViewConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryWait     time.Duration `mapstructure:"retry_wait"`
	RatePerMinute int           `mapstructure:"rate_per_minute"`
}

// EnrichmentConfig only records whether a web enrichment key is present.
type EnrichmentConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Redis       RedisConfig       `mapstructure:"redis"`
	PatentsView PatentsViewConfig `mapstructure:"patentsview"`
	Enrichment  EnrichmentConfig  `mapstructure:"enrichment"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// Validate returns the first semantic problem found in c.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("config: server read/write timeouts must be positive")
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("config: server.rate_limit_per_minute must be ≥ 0, got %d", c.Server.RateLimitPerMinute)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	switch c.Cache.Backend {
	case CacheBackendMemory:
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("config: cache.max_entries must be ≥ 1, got %d", c.Cache.MaxEntries)
		}
	case CacheBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when cache.backend is redis")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	default:
		return fmt.Errorf("config: cache.backend %q is invalid; expected memory|redis", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("config: cache.ttl must be positive")
	}

	u, err := url.Parse(c.PatentsView.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: patentsview.base_url %q is not an http(s) URL", c.PatentsView.BaseURL)
	}
	if c.PatentsView.MaxRetries < 0 {
		return fmt.Errorf("config: patentsview.max_retries must be ≥ 0, got %d", c.PatentsView.MaxRetries)
	}
	if c.PatentsView.RatePerMinute < 0 {
		return fmt.Errorf("config: patentsview.rate_per_minute must be ≥ 0, got %d", c.PatentsView.RatePerMinute)
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}
	return nil
}

// PatentsViewConfigured reports whether an API key for the data source is set.
func (c *Config) PatentsViewConfigured() bool {
	return c.PatentsView.APIKey != ""
}

// EnrichmentConfigured reports whether a web enrichment key is set.
func (c *Config) EnrichmentConfigured() bool {
	return c.Enrichment.APIKey != ""
}
