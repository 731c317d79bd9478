// Package ratelimit throttles requests to the NetGeo server.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// jitterFactor is the maximum fraction by which a wait is lengthened or shortened.
const jitterFactor = 0.20

// Limiter wraps a token-bucket rate limiter and adds ±20% jitter to wait intervals.
type Limiter struct {
	inner *rate.Limiter
}

// New creates a Limiter with the given requests-per-second rate and burst capacity.
// A non-positive rps disables limiting; Wait then only reports context cancellation.
func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &Limiter{inner: rate.NewLimiter(limit, burst)}
}

// Unlimited reports whether the limiter never delays.
func (l *Limiter) Unlimited() bool {
	return l.inner.Limit() == rate.Inf
}

// Wait reserves a token from the limiter and waits for the token to become available,
// adding random jitter to the wait duration. Returns ctx.Err() if the context
// is cancelled before the token is granted.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := l.inner.Reserve()
	if !res.OK() {
		return ctx.Err()
	}

	delay := res.Delay()
	if delay <= 0 {
		return nil
	}

	jitter := time.Duration(float64(delay) * jitterFactor * (rand.Float64()*2 - 1)) //nolint:gosec // non-cryptographic random is fine for jitter
	delay = max(0, delay+jitter)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
