// Package memory is the in-process backend of the analysis result cache,
// built on an expirable LRU. Values are stored JSON-encoded so callers never
// share mutable state with the cache.
package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/turtacn/PatentSentry/pkg/errors"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New(errors.ErrCodeCacheMiss, "cache miss")

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Cache is a bounded TTL cache. The LRU evicts entries after maxTTL at the
// latest; a shorter per-entry ttl passed to Set is enforced on read.
type Cache struct {
	lru    *expirable.LRU[string, entry]
	maxTTL time.Duration
	now    func() time.Time
}

// New creates a cache holding at most size entries for at most maxTTL.
func New(size int, maxTTL time.Duration) *Cache {
	if size <= 0 {
		size = 1
	}
	return &Cache{
		lru:    expirable.NewLRU[string, entry](size, nil, maxTTL),
		maxTTL: maxTTL,
		now:    time.Now,
	}
}

// Name is the label used for cache metrics.
func (c *Cache) Name() string { return "memory" }

func (c *Cache) Get(_ context.Context, key string, dest interface{}) error {
	e, ok := c.lru.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return ErrCacheMiss
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode cached value").WithDetail(key)
	}
	return nil
}

// Set stores value. ttl is capped at the cache's maxTTL; a non-positive ttl
// means maxTTL.
func (c *Cache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode cache value").WithDetail(key)
	}
	if ttl <= 0 || (c.maxTTL > 0 && ttl > c.maxTTL) {
		ttl = c.maxTTL
	}
	e := entry{data: data}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.lru.Remove(k)
	}
	return nil
}

// Len reports the number of live entries.
func (c *Cache) Len() int { return c.lru.Len() }

func (c *Cache) Ping(context.Context) error { return nil }
