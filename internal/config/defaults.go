package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

const (
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 60 * time.Second
	DefaultServerShutdownTimeout = 15 * time.Second
	DefaultServerMaxBodySize     = 1 << 20
	DefaultServerRateLimit       = 120

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultCacheBackend    = CacheBackendMemory
	DefaultCacheTTL        = 24 * time.Hour
	DefaultCacheMaxEntries = 10000
	DefaultCacheKeyPrefix  = "patentsentry:"

	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisPoolSize     = 10
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second

	DefaultPatentsViewBaseURL = "https://search.patentsview.org/api/v1"
	DefaultPatentsViewTimeout = 30 * time.Second
	DefaultPatentsViewRetries = 3
	DefaultPatentsViewWait    = 500 * time.Millisecond
	DefaultPatentsViewRate    = 45

	DefaultMetricsNamespace = "patentsentry"
	DefaultMetricsPath      = "/metrics"
)

// DefaultCORSOrigins are the browser origins allowed when none are configured.
var DefaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// ApplyDefaults fills zero-value fields of cfg. Explicit values always win.
// Booleans are left alone; their defaults come from registerDefaults.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = append([]string(nil), DefaultCORSOrigins...)
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stdout"}
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = DefaultRedisReadTimeout
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = DefaultRedisWriteTimeout
	}

	if cfg.PatentsView.BaseURL == "" {
		cfg.PatentsView.BaseURL = DefaultPatentsViewBaseURL
	}
	if cfg.PatentsView.Timeout == 0 {
		cfg.PatentsView.Timeout = DefaultPatentsViewTimeout
	}
	if cfg.PatentsView.RetryWait == 0 {
		cfg.PatentsView.RetryWait = DefaultPatentsViewWait
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

// DefaultConfig returns a Config with every default applied and metrics on.
func DefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{RateLimitPerMinute: DefaultServerRateLimit},
		PatentsView: PatentsViewConfig{
			MaxRetries:    DefaultPatentsViewRetries,
			RatePerMinute: DefaultPatentsViewRate,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
	ApplyDefaults(cfg)
	return cfg
}

// registerDefaults seeds viper so that every key is known to AutomaticEnv
// and can be overridden from the environment without a config file.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.mode", DefaultServerMode)
	v.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	v.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	v.SetDefault("server.max_body_size", DefaultServerMaxBodySize)
	v.SetDefault("server.cors_origins", DefaultCORSOrigins)
	v.SetDefault("server.rate_limit_per_minute", DefaultServerRateLimit)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.output_paths", []string{"stdout"})

	v.SetDefault("cache.backend", DefaultCacheBackend)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.max_entries", DefaultCacheMaxEntries)
	v.SetDefault("cache.key_prefix", DefaultCacheKeyPrefix)

	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", DefaultRedisPoolSize)
	v.SetDefault("redis.min_idle_conns", 0)
	v.SetDefault("redis.dial_timeout", DefaultRedisDialTimeout)
	v.SetDefault("redis.read_timeout", DefaultRedisReadTimeout)
	v.SetDefault("redis.write_timeout", DefaultRedisWriteTimeout)

	v.SetDefault("patentsview.base_url", DefaultPatentsViewBaseURL)
	v.SetDefault("patentsview.api_key", "")
	v.SetDefault("patentsview.timeout", DefaultPatentsViewTimeout)
	v.SetDefault("patentsview.max_retries", DefaultPatentsViewRetries)
	v.SetDefault("patentsview.retry_wait", DefaultPatentsViewWait)
	v.SetDefault("patentsview.rate_per_minute", DefaultPatentsViewRate)

	v.SetDefault("enrichment.api_key", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)
	v.SetDefault("metrics.path", DefaultMetricsPath)
}
