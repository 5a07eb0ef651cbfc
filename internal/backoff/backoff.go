// Package backoff centralizes the retry policy shared by all source
// workers: capped exponential delay with jitter and a hard attempt ceiling.
package backoff

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrMaxAttempts is returned when every attempt failed with a retryable
// error. The last underlying error is wrapped alongside it.
var ErrMaxAttempts = errors.New("max retry attempts exceeded")

// Policy describes how to retry a transient failure.
type Policy struct {
	MaxAttempts int           // total attempts including the first
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // cap on the backoff curve
	Jitter      float64       // 0..1 fraction of the delay randomized away

	// Retryable reports whether err is worth another attempt.
	// Nil means retry everything.
	Retryable func(error) bool

	// sleep is swapped out in tests.
	sleep func(context.Context, time.Duration) error
}

// Default mirrors the tuning the engine ships with: 3 attempts,
// 500ms base, doubling, capped at 30s.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Jitter:      0.2,
	}
}

// Delay returns the backoff delay before attempt n (0-based: Delay(0) is
// the wait between the first and second attempt). The curve is
// base * 2^n, capped, with up to Jitter fraction subtracted at random.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		d -= time.Duration(rand.Float64() * p.Jitter * float64(d))
	}
	return d
}

// Do runs fn until it succeeds, fails non-retryably, exhausts MaxAttempts,
// or ctx is cancelled.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		if err := sleep(ctx, p.Delay(i)); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttempts, attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WithSleep returns a copy of the policy using a custom sleeper. Tests use
// this to retry without waiting.
func (p Policy) WithSleep(fn func(context.Context, time.Duration) error) Policy {
	p.sleep = fn
	return p
}
