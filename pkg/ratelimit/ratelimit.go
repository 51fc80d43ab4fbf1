// Package ratelimit provides a token bucket limiter used to pace outbound
// calls to each monitoring service.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter implements a token bucket. One limiter is shared per service
// client, so every call to that service draws from the same bucket.
type Limiter struct {
	rate   float64 // tokens added per second
	burst  float64 // bucket capacity
	tokens float64
	last   time.Time
	mu     sync.Mutex
}

// New creates a limiter that refills at rate tokens per second up to burst.
func New(rate, burst float64) *Limiter {
	return &Limiter{
		rate:   rate,
		burst:  burst,
		tokens: burst,
		last:   time.Now(),
	}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(l.last).Seconds()
	l.tokens = min(l.burst, l.tokens+elapsed*l.rate)
	l.last = now

	if l.tokens >= 1 {
		l.tokens--
		return nil
	}

	wait := time.Duration((1 - l.tokens) / l.rate * float64(time.Second))
	select {
	case <-time.After(wait):
		l.tokens = 0
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
