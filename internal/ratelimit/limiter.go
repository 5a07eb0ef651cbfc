// Package ratelimit guards outbound calls with one token bucket per source.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrAcquireTimeout means no permit became available within the caller's
// timeout. It is a retryable condition, not a fatal one.
var ErrAcquireTimeout = errors.New("rate limit permit not acquired in time")

// Bucket configures one source's token bucket.
type Bucket struct {
	PerSec float64
	Burst  int
}

// SourceLimiter holds one rate.Limiter per source id. Buckets are shared
// read/write by every worker of a source; rate.Limiter handles the atomic
// token accounting.
type SourceLimiter struct {
	mu       sync.Mutex
	m        map[string]*rate.Limiter
	fallback Bucket
}

func New(buckets map[string]Bucket, fallback Bucket) *SourceLimiter {
	if fallback.PerSec <= 0 {
		fallback = Bucket{PerSec: 1, Burst: 1}
	}
	sl := &SourceLimiter{
		m:        make(map[string]*rate.Limiter, len(buckets)),
		fallback: fallback,
	}
	for id, b := range buckets {
		sl.m[id] = rate.NewLimiter(rate.Limit(b.PerSec), max(b.Burst, 1))
	}
	return sl
}

func (sl *SourceLimiter) limiterFor(sourceID string) *rate.Limiter {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if lim, ok := sl.m[sourceID]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(sl.fallback.PerSec), max(sl.fallback.Burst, 1))
	sl.m[sourceID] = lim
	return lim
}

// Acquire blocks until a permit for sourceID is available, the timeout
// elapses, or ctx is cancelled. A timeout comes back as ErrAcquireTimeout;
// ctx cancellation is returned as-is.
func (sl *SourceLimiter) Acquire(ctx context.Context, sourceID string, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := sl.limiterFor(sourceID).Wait(wctx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return ErrAcquireTimeout
}
