package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_WaitsWhenBucketEmpty(t *testing.T) {
	rl := New(10, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, rl.Wait(ctx), "token %d", i+1)
	}

	start := time.Now()
	require.NoError(t, rl.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestRateLimiter_TryAcquire(t *testing.T) {
	rl := New(10, 2)

	assert.True(t, rl.TryAcquire())
	assert.True(t, rl.TryAcquire())
	assert.False(t, rl.TryAcquire(), "third token should not be available")

	stats := rl.Stats()
	assert.Equal(t, 2, stats.Capacity)
	assert.Equal(t, 100*time.Millisecond, stats.Rate)
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	rl := New(1, 1)
	require.True(t, rl.TryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx))
}

func TestPool_SeparateBucketsPerEndpoint(t *testing.T) {
	p := NewPool(10, 1)

	assert.True(t, p.TryAcquire("https://api.devnet.solana.com"))
	assert.True(t, p.TryAcquire("https://api.mainnet-beta.solana.com"))

	assert.False(t, p.TryAcquire("https://api.devnet.solana.com"))
	assert.False(t, p.TryAcquire("https://api.mainnet-beta.solana.com"))
	assert.Len(t, p.Stats(), 2)
}
