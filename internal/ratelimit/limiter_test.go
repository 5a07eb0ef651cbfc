package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_Immediate(t *testing.T) {
	sl := New(map[string]Bucket{"a": {PerSec: 100, Burst: 10}}, Bucket{})

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, sl.Acquire(context.Background(), "a", time.Second))
	}
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestAcquire_Timeout(t *testing.T) {
	// one token per 10s, burst 1: the second acquire cannot succeed in time
	sl := New(map[string]Bucket{"slow": {PerSec: 0.1, Burst: 1}}, Bucket{})

	require.NoError(t, sl.Acquire(context.Background(), "slow", time.Second))
	err := sl.Acquire(context.Background(), "slow", 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrAcquireTimeout)
}

func TestAcquire_ContextCancelPassesThrough(t *testing.T) {
	sl := New(map[string]Bucket{"slow": {PerSec: 0.1, Burst: 1}}, Bucket{})
	require.NoError(t, sl.Acquire(context.Background(), "slow", time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := sl.Acquire(ctx, "slow", 10*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAcquire_UnknownSourceUsesFallback(t *testing.T) {
	sl := New(nil, Bucket{PerSec: 100, Burst: 5})
	require.NoError(t, sl.Acquire(context.Background(), "never-configured", time.Second))
}

func TestLimitersAreIndependent(t *testing.T) {
	sl := New(map[string]Bucket{
		"busy": {PerSec: 0.1, Burst: 1},
		"free": {PerSec: 100, Burst: 10},
	}, Bucket{})

	// exhaust busy
	require.NoError(t, sl.Acquire(context.Background(), "busy", time.Second))
	assert.ErrorIs(t, sl.Acquire(context.Background(), "busy", 30*time.Millisecond), ErrAcquireTimeout)

	// free is unaffected
	require.NoError(t, sl.Acquire(context.Background(), "free", time.Second))
}
