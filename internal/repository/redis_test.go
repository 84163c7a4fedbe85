package repository

import (
	"context"
	"testing"
	"time"

	"fitbook/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisAttemptLimiter(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	limiter := NewRedisAttemptLimiter(client)
	ctx := context.Background()

	t.Run("RateLimit", func(t *testing.T) {
		key := "riya@example.com"
		limit := 2
		window := time.Second

		allowed, err := limiter.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = limiter.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = limiter.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		assert.True(t, s.Exists(attemptKeyPrefix+key))
		assert.Equal(t, window, s.TTL(attemptKeyPrefix+key))

		s.FastForward(window + time.Millisecond)

		allowed, err = limiter.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("WindowNotExtendedByLaterAttempts", func(t *testing.T) {
		key := "window@example.com"
		window := 10 * time.Second

		_, err := limiter.CheckRateLimit(ctx, key, 5, window)
		require.NoError(t, err)
		s.FastForward(4 * time.Second)

		_, err = limiter.CheckRateLimit(ctx, key, 5, window)
		require.NoError(t, err)
		assert.Equal(t, 6*time.Second, s.TTL(attemptKeyPrefix+key))
	})

	t.Run("CounterWithoutTTLGetsOne", func(t *testing.T) {
		key := "stuck@example.com"
		require.NoError(t, s.Set(attemptKeyPrefix+key, "7"))
		assert.Zero(t, s.TTL(attemptKeyPrefix+key))

		allowed, err := limiter.CheckRateLimit(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, time.Minute, s.TTL(attemptKeyPrefix+key))

		s.FastForward(time.Minute + time.Millisecond)

		allowed, err = limiter.CheckRateLimit(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		allowed, err := limiter.CheckRateLimit(ctx, "a@x.io", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = limiter.CheckRateLimit(ctx, "b@x.io", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		_, err := NewRedisAttemptLimiter(nil).CheckRateLimit(ctx, "k", 1, time.Second)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("ServerDown", func(t *testing.T) {
		down := redis.NewClient(&redis.Options{Addr: s.Addr()})
		s.Close()
		defer down.Close()

		_, err := NewRedisAttemptLimiter(down).CheckRateLimit(ctx, "k", 1, time.Second)
		assert.Error(t, err)
		assert.Error(t, Ping(ctx, down))
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, Close(nil))
	})
}
