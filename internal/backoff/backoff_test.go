package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(p Policy) Policy {
	return p.WithSleep(func(context.Context, time.Duration) error { return nil })
}

func TestDelay_Curve(t *testing.T) {
	p := Policy{BaseDelay: 500 * time.Millisecond, MaxDelay: 30 * time.Second}

	assert.Equal(t, 500*time.Millisecond, p.Delay(0))
	assert.Equal(t, 1*time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 16*time.Second, p.Delay(5))
	// capped
	assert.Equal(t, 30*time.Second, p.Delay(10))
	assert.Equal(t, 30*time.Second, p.Delay(100))
}

func TestDelay_JitterOnlyShrinks(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 30 * time.Second, Jitter: 0.2}
	for i := 0; i < 50; i++ {
		d := p.Delay(2)
		assert.LessOrEqual(t, d, 4*time.Second)
		assert.GreaterOrEqual(t, d, 3200*time.Millisecond)
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	p := noSleep(Default())

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	p := noSleep(Default())
	boom := errors.New("still down")

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, ErrMaxAttempts)
	assert.ErrorIs(t, err, boom)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("bad credentials")
	p := noSleep(Default())
	p.Retryable = func(err error) bool { return !errors.Is(err, fatal) }

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})
	require.ErrorIs(t, err, fatal)
	assert.NotErrorIs(t, err, ErrMaxAttempts)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := noSleep(Default())
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		return errors.New("nope")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestDo_CancelDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := Default().WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	})

	err := p.Do(ctx, func(context.Context) error { return errors.New("flaky") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	p := noSleep(Policy{})
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
