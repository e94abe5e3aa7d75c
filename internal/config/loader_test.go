package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 9090
  mode: debug
  cors_origins: ["https://app.example.com"]
log:
  level: debug
  format: console
cache:
  backend: redis
  ttl: 12h
redis:
  addr: "cache.internal:6379"
  db: 2
patentsview:
  base_url: "https://search.patentsview.org/api/v1"
  api_key: "pv-key"
  max_retries: 5
  rate_per_minute: 30
metrics:
  enabled: false
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 12*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "cache.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "pv-key", cfg.PatentsView.APIKey)
	assert.Equal(t, 5, cfg.PatentsView.MaxRetries)
	assert.Equal(t, 30, cfg.PatentsView.RatePerMinute)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.PatentsViewConfigured())
	assert.False(t, cfg.EnrichmentConfigured())

	// untouched keys keep their defaults
	assert.Equal(t, DefaultServerReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, DefaultCacheKeyPrefix, cfg.Cache.KeyPrefix)
	assert.Equal(t, DefaultPatentsViewTimeout, cfg.PatentsView.Timeout)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "server: [port: 1"))
	assert.Error(t, err)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "cache:\n  backend: memcached\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.backend")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SENTRY_SERVER_PORT", "7070")
	t.Setenv("SENTRY_CACHE_TTL", "1h")

	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, DefaultPatentsViewBaseURL, cfg.PatentsView.BaseURL)
	assert.Equal(t, DefaultPatentsViewRetries, cfg.PatentsView.MaxRetries)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, DefaultCORSOrigins, cfg.Server.CORSOrigins)
}

func TestLoadFromEnv_PrefixedAndLegacyNames(t *testing.T) {
	t.Setenv("PATENTSVIEW_API_KEY", "legacy-key")
	t.Setenv("EXA_API_KEY", "exa-key")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("SENTRY_CACHE_BACKEND", "redis")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.PatentsView.APIKey)
	assert.True(t, cfg.EnrichmentConfigured())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)

	t.Setenv("SENTRY_PATENTSVIEW_API_KEY", "prefixed-key")
	cfg, err = LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "prefixed-key", cfg.PatentsView.APIKey)
}

func TestLoadOrEnv(t *testing.T) {
	cfg, err := LoadOrEnv("")
	require.NoError(t, err)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)

	cfg, err = LoadOrEnv(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestMustLoad(t *testing.T) {
	assert.NotPanics(t, func() { MustLoad(createTempConfigFile(t, validConfigYAML)) })
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "nope.yaml")) })
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "nope.yaml"), func(*Config) {}, nil)
	assert.Error(t, err)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	changed := make(chan *Config, 16)
	require.NoError(t, Watch(path, func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	}, nil))

	updated := strings.Replace(validConfigYAML, "level: debug", "level: warn", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	// a truncating write may surface an intermediate event first
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if cfg.Log.Level == "warn" {
				return
			}
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
}
