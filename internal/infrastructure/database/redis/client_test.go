package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/PatentSentry/pkg/errors"
)

func TestNewClient_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(&RedisConfig{Addrs: []string{mr.Addr()}}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := NewClient(&RedisConfig{Addrs: []string{addr}}, nil)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeServiceUnavailable))
}

func TestCache_AgainstMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addrs: []string{mr.Addr()}}, nil)
	require.NoError(t, err)
	defer client.Close()

	cache := NewCache(client, nil, WithPrefix("ps:"))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "analyze:1", map[string]string{"reason": "20 years from filing"}, 24*time.Hour))
	assert.True(t, mr.Exists("ps:analyze:1"))
	assert.Equal(t, 24*time.Hour, mr.TTL("ps:analyze:1"))

	var got map[string]string
	require.NoError(t, cache.Get(ctx, "analyze:1", &got))
	assert.Equal(t, "20 years from filing", got["reason"])

	mr.FastForward(24*time.Hour + time.Second)
	assert.Equal(t, ErrCacheMiss, cache.Get(ctx, "analyze:1", &got))
}

func TestClient_Close(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&RedisConfig{Addrs: []string{mr.Addr()}}, nil)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	assert.Equal(t, ErrClientClosed, client.Get(context.Background(), "foo").Err())
	assert.Equal(t, ErrClientClosed, client.Set(context.Background(), "foo", "bar", 0).Err())
	assert.Equal(t, ErrClientClosed, client.Del(context.Background(), "foo").Err())
	assert.Equal(t, ErrClientClosed, client.Ping(context.Background()))
}
