package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/gitsumitsinghpw/auth-app/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("redis integration test skipped in short mode")
	}

	client := startRedis(t)
	store := ratelimit.NewRedisStore(client, "test:rl:")
	ctx := context.Background()
	now := time.UnixMilli(time.Now().UnixMilli())

	require.NoError(t, store.Ping(ctx))

	t.Run("hit counts within a window", func(t *testing.T) {
		e, err := store.Hit(ctx, "k1", time.Minute, now)
		require.NoError(t, err)
		require.Equal(t, 1, e.Count)
		require.True(t, e.ResetAt.Equal(now.Add(time.Minute)))
		require.True(t, e.FirstAttempt.Equal(now))

		e, err = store.Hit(ctx, "k1", time.Minute, now.Add(time.Second))
		require.NoError(t, err)
		require.Equal(t, 2, e.Count)
		require.True(t, e.FirstAttempt.Equal(now))
	})

	t.Run("expired window restarts", func(t *testing.T) {
		later := now.Add(2 * time.Minute)
		e, err := store.Hit(ctx, "k1", time.Minute, later)
		require.NoError(t, err)
		require.Equal(t, 1, e.Count)
		require.True(t, e.ResetAt.Equal(later.Add(time.Minute)))
	})

	t.Run("peek and decrement", func(t *testing.T) {
		_, ok, err := store.Peek(ctx, "missing")
		require.NoError(t, err)
		require.False(t, ok)

		e, ok, err := store.Peek(ctx, "k1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 1, e.Count)

		require.NoError(t, store.Decrement(ctx, "k1"))
		require.NoError(t, store.Decrement(ctx, "k1"))
		require.NoError(t, store.Decrement(ctx, "missing"))

		e, _, err = store.Peek(ctx, "k1")
		require.NoError(t, err)
		require.Zero(t, e.Count)
	})

	t.Run("delete and clear", func(t *testing.T) {
		_, err := store.Hit(ctx, "k2", time.Minute, now)
		require.NoError(t, err)
		_, err = store.Hit(ctx, "k3", time.Minute, now)
		require.NoError(t, err)
		require.NoError(t, client.Set(ctx, "unrelated", "1", 0).Err())

		require.NoError(t, store.Delete(ctx, "k2"))
		_, ok, err := store.Peek(ctx, "k2")
		require.NoError(t, err)
		require.False(t, ok)

		require.NoError(t, store.Clear(ctx))
		_, ok, _ = store.Peek(ctx, "k3")
		require.False(t, ok)
		require.Equal(t, "1", client.Get(ctx, "unrelated").Val())
	})

	t.Run("limiter on redis", func(t *testing.T) {
		l := ratelimit.New(store, ratelimit.Policies{
			ratelimit.ActionDefault: {MaxAttempts: 2, Window: time.Minute},
		})
		require.True(t, l.Check(ctx, ratelimit.ActionDefault, fp).Allowed)
		require.True(t, l.Check(ctx, ratelimit.ActionDefault, fp).Allowed)
		require.False(t, l.Check(ctx, ratelimit.ActionDefault, fp).Allowed)
	})
}
