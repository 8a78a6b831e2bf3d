package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisWindowAllow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := RedisWindow{Client: client, Prefix: "test:"}

	ctx := context.Background()
	window := 2 * time.Second
	max := 2

	for i := 0; i < max; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "key", window, max)
		require.NoError(t, err)
		require.True(t, allowed, "request %d", i)
		require.Equal(t, max-(i+1), remaining)
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "key", window, max)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)
	require.True(t, mr.Exists("test:key"))

	mr.FastForward(window)

	allowed, _, _, err = limiter.Allow(ctx, "key", window, max)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestRedisWindowDefaultPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, _, _, err := RedisWindow{Client: client}.Allow(context.Background(), "k", time.Minute, 5)
	require.NoError(t, err)
	require.True(t, mr.Exists("outreach:ratelimit:k"))
}

func TestMemoryLimiterAllow(t *testing.T) {
	l := NewMemory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, reset, err := l.Allow(ctx, "sender", time.Minute, 3)
		require.NoError(t, err)
		require.True(t, allowed)
		require.Equal(t, 3-(i+1), remaining)
		require.True(t, reset.After(time.Now()))
	}
	allowed, remaining, _, err := l.Allow(ctx, "sender", time.Minute, 3)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)

	// a different rate gets its own counter
	allowed, _, _, err = l.Allow(ctx, "sender", time.Hour, 10)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestMemoryLimiterDisabledForZeroMax(t *testing.T) {
	allowed, _, _, err := NewMemory().Allow(context.Background(), "k", time.Minute, 0)
	require.NoError(t, err)
	require.True(t, allowed)
}
