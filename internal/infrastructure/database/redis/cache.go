package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentry/pkg/errors"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New(errors.ErrCodeCacheMiss, "cache miss")

// Cache stores JSON documents under a key prefix.
type Cache struct {
	client *Client
	logger logging.Logger
	prefix string
	jitter float64
}

type CacheOption func(*Cache)

// WithPrefix sets the key prefix. The default is "patentsentry:".
func WithPrefix(prefix string) CacheOption {
	return func(c *Cache) { c.prefix = prefix }
}

// WithTTLJitter spreads expirations by ±fraction of the TTL, e.g. 0.1.
func WithTTLJitter(fraction float64) CacheOption {
	return func(c *Cache) { c.jitter = fraction }
}

func NewCache(client *Client, log logging.Logger, opts ...CacheOption) *Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &Cache{
		client: client,
		logger: log,
		prefix: "patentsentry:",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name is the label used for cache metrics.
func (c *Cache) Name() string { return "redis" }

func (c *Cache) fullKey(key string) string {
	return c.prefix + key
}

func (c *Cache) effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || c.jitter <= 0 {
		return ttl
	}
	delta := float64(ttl) * c.jitter * (rand.Float64()*2 - 1)
	return ttl + time.Duration(delta)
}

// Get decodes the document stored at key into dest.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache").WithDetail(key)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode cached value").WithDetail(key)
	}
	return nil
}

// Set stores value as JSON. A non-positive ttl keeps the key until deleted.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode cache value").WithDetail(key)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.effectiveTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to write cache").WithDetail(key)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete cache keys")
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}
