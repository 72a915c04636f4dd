package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether one more call for key is allowed right now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	tokens float64
	last   time.Time
}

// TokenBucket is an in-process limiter with one bucket per key.
type TokenBucket struct {
	mu         sync.Mutex
	m          map[string]*bucket
	capacity   float64
	refillRate float64 // tokens per second
	now        func() time.Time
}

// NewTokenBucket creates a limiter allowing bursts of capacity, refilled at refillPerSec.
func NewTokenBucket(capacity, refillPerSec float64) *TokenBucket {
	return &TokenBucket{
		m:          make(map[string]*bucket),
		capacity:   capacity,
		refillRate: refillPerSec,
		now:        time.Now,
	}
}

// Allow returns true if one token can be consumed for key. It never errors.
func (l *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	// refill
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * l.refillRate
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

var _ Limiter = (*TokenBucket)(nil)
