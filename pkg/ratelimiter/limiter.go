package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Stats is a point-in-time view of a limiter's bucket.
type Stats struct {
	AvailableTokens int
	Capacity        int
	Rate            time.Duration
}

// RateLimiter is a token bucket throttling calls to a single RPC endpoint.
type RateLimiter struct {
	limiter *rate.Limiter
	burst   int
	rps     int
}

// New creates a limiter allowing rps requests per second with the given burst.
func New(rps int, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		burst:   burst,
		rps:     rps,
	}
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// TryAcquire takes a token without blocking.
func (rl *RateLimiter) TryAcquire() bool {
	return rl.limiter.Allow()
}

func (rl *RateLimiter) Stats() Stats {
	available := int(rl.limiter.Tokens())
	if available < 0 {
		available = 0
	}
	return Stats{
		AvailableTokens: available,
		Capacity:        rl.burst,
		Rate:            time.Second / time.Duration(rl.rps),
	}
}
