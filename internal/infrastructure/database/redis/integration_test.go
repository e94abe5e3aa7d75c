//go:build integration

// Integration tests against a real Redis server. They require Docker and run
// only with -tags integration.
package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestIntegration_CacheRoundTrip(t *testing.T) {
	addr := startRedis(t)

	client, err := NewClient(&RedisConfig{Addrs: []string{addr}}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cache := NewCache(client, nil, WithPrefix("it:"), WithTTLJitter(0.1))
	ctx := context.Background()

	type doc struct {
		Expiry string `json:"expiry"`
	}
	require.NoError(t, cache.Set(ctx, "analyze:10000000", doc{Expiry: "2035-06-19"}, time.Hour))

	var got doc
	require.NoError(t, cache.Get(ctx, "analyze:10000000", &got))
	assert.Equal(t, "2035-06-19", got.Expiry)

	ttl, err := client.rdb.TTL(ctx, "it:analyze:10000000").Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 0.1*time.Hour.Seconds()+1)

	require.NoError(t, cache.Delete(ctx, "analyze:10000000"))
	assert.Equal(t, ErrCacheMiss, cache.Get(ctx, "analyze:10000000", &got))
}
