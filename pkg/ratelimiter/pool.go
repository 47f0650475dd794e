package ratelimiter

import (
	"context"
	"sync"
)

// Pool hands out one limiter per endpoint URL, so switching networks
// never shares a bucket between clusters.
type Pool struct {
	mu       sync.RWMutex
	limiters map[string]*RateLimiter
	rps      int
	burst    int
}

func NewPool(rps, burst int) *Pool {
	return &Pool{
		limiters: make(map[string]*RateLimiter),
		rps:      rps,
		burst:    burst,
	}
}

func (p *Pool) Wait(ctx context.Context, endpoint string) error {
	return p.get(endpoint).Wait(ctx)
}

func (p *Pool) TryAcquire(endpoint string) bool {
	return p.get(endpoint).TryAcquire()
}

func (p *Pool) get(endpoint string) *RateLimiter {
	p.mu.RLock()
	l, ok := p.limiters[endpoint]
	p.mu.RUnlock()
	if ok {
		return l
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Double-check in case another goroutine created it
	if l, ok := p.limiters[endpoint]; ok {
		return l
	}
	l = New(p.rps, p.burst)
	p.limiters[endpoint] = l
	return l
}

func (p *Pool) Stats() map[string]Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := make(map[string]Stats, len(p.limiters))
	for endpoint, l := range p.limiters {
		stats[endpoint] = l.Stats()
	}
	return stats
}
