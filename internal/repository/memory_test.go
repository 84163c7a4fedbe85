package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAttemptLimiter(t *testing.T) {
	limiter := NewMemoryAttemptLimiter()
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.CheckRateLimit(ctx, "a@x.io", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d", i+1)
	}

	allowed, err := limiter.CheckRateLimit(ctx, "a@x.io", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = limiter.CheckRateLimit(ctx, "b@x.io", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	now = now.Add(time.Minute)
	allowed, err = limiter.CheckRateLimit(ctx, "a@x.io", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryAttemptLimiter_Concurrent(t *testing.T) {
	limiter := NewMemoryAttemptLimiter()
	ctx := context.Background()

	const attempts = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := limiter.CheckRateLimit(ctx, "shared", 10, time.Hour)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

func TestMemoryAttemptLimiter_Eviction(t *testing.T) {
	limiter := NewMemoryAttemptLimiter()
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1100; i++ {
		_, err := limiter.CheckRateLimit(ctx, time.Duration(i).String(), 1, time.Second)
		require.NoError(t, err)
	}

	now = now.Add(2 * time.Second)
	_, err := limiter.CheckRateLimit(ctx, "fresh", 1, time.Second)
	require.NoError(t, err)

	assert.Len(t, limiter.entries, 1)
}
