package ai

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// RequestLimiter bounds both the number of in-flight provider requests and
// the rate at which new ones start.
type RequestLimiter struct {
	sem  *semaphore.Weighted
	rate *rate.Limiter
}

// NewRequestLimiter allows maxConcurrent parallel requests started at most
// perSecond times per second. maxConcurrent below 1 means 1; perSecond of 0
// or less disables rate limiting.
func NewRequestLimiter(maxConcurrent int64, perSecond float64) *RequestLimiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	limit := rate.Inf
	burst := int(maxConcurrent)
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &RequestLimiter{
		sem:  semaphore.NewWeighted(maxConcurrent),
		rate: rate.NewLimiter(limit, burst),
	}
}

// Acquire blocks until a request may start. The returned release function
// must be called once the request has finished.
func (l *RequestLimiter) Acquire(ctx context.Context) (func(), error) {
	if err := l.rate.Wait(ctx); err != nil {
		return nil, err
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { l.sem.Release(1) }, nil
}
