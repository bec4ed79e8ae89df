package util

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter to provide a simpler interface.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a new token bucket limiter.
// r: tokens per second.
// b: burst size.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Wait blocks until n tokens are available.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.inner.WaitN(ctx, n)
}

// SetRate applies a new rate and burst to the running limiter. Used by config
// hot reload; callers blocked in Wait pick up the new rate.
func (l *Limiter) SetRate(r float64, b int) {
	l.inner.SetLimit(rate.Limit(r))
	l.inner.SetBurst(b)
}
