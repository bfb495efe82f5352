//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fastygo/todoboard/domain"
	redisRepo "github.com/fastygo/todoboard/repository/redis"
)

func startRedis(t *testing.T) *redislib.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redislib.NewClient(&redislib.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCacheRepository(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	cache := redisRepo.NewCacheRepository(client, "todoboard:", time.Minute)

	_, err := cache.Get(ctx, "analytics:completion-stats")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "analytics:completion-stats", []byte(`{"a":1}`), 0))
	require.NoError(t, cache.Set(ctx, "analytics:activity-heatmap", []byte(`{"b":2}`), time.Minute))
	require.NoError(t, cache.Set(ctx, "other:key", []byte(`x`), time.Minute))

	raw, err := cache.Get(ctx, "analytics:completion-stats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))

	ttl, err := client.TTL(ctx, "todoboard:analytics:completion-stats").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.DeletePrefix(ctx, "analytics:"))
	_, err = cache.Get(ctx, "analytics:activity-heatmap")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	raw, err = cache.Get(ctx, "other:key")
	require.NoError(t, err)
	assert.Equal(t, "x", string(raw))
}
