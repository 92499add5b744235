// Package ratelimit provides the worker loop's token-bucket rate limiter.
// golang.org/x/time/rate is an in-family addition to the module's
// golang.org/x/... dependencies (golang.org/x/sys is already required
// indirectly), so the worker loop's cooperative wait is built on it
// rather than a hand-rolled bucket.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter gates the worker loop's attempt cadence.
type Limiter struct {
	l *rate.Limiter
}

// New constructs a limiter allowing ratePerSecond tokens per second, with a
// burst of one (the loop consumes exactly one token per attempt).
func New(ratePerSecond float64) *Limiter {
	return &Limiter{l: rate.NewLimiter(rate.Limit(ratePerSecond), 1)}
}

// Wait blocks cooperatively until a token is available or ctx is canceled.
func (r *Limiter) Wait(ctx context.Context) error {
	return r.l.Wait(ctx)
}
