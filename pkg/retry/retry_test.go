package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var errFlaky = errors.New("flaky")

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      4 * time.Millisecond,
		BackoffFactor: 2,
		Jitter:        0.2,
	}
}

func TestRunSucceedsAfterRetries(t *testing.T) {
	var calls int32
	err := Run(context.Background(), fastConfig(3), func(ctx context.Context, attempt int) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errFlaky
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls)
}

func TestRunStopsOnNonRetriable(t *testing.T) {
	permanent := errors.New("permanent")
	var calls int
	err := Run(context.Background(), fastConfig(5), func(ctx context.Context, attempt int) error {
		calls++
		return permanent
	}, WithRetryIf(func(err error) bool { return !errors.Is(err, permanent) }))

	assert.ErrorIs(t, err, permanent)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, calls)
}

func TestRunExhaustsBudget(t *testing.T) {
	var calls int
	var delays []time.Duration
	err := Run(context.Background(), fastConfig(3), func(ctx context.Context, attempt int) error {
		calls++
		return errFlaky
	}, WithOnRetry(func(attempt int, err error, next time.Duration) {
		delays = append(delays, next)
	}))

	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
	assert.Len(t, delays, 2)
}

func TestRunCancelledDuringSleep(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffFactor: 2}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg, func(ctx context.Context, attempt int) error { return errFlaky })
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, errFlaky)
	case <-time.After(time.Second):
		t.Fatal("pending backoff sleep did not return on cancellation")
	}
}

func TestRunStopsWhenDeadlineLeavesNoRoom(t *testing.T) {
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: time.Second, BackoffFactor: 2}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var calls int
	start := time.Now()
	err := Run(ctx, cfg, func(ctx context.Context, attempt int) error {
		calls++
		return errFlaky
	})

	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestCappedDelay(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Second, cfg.CappedDelay(1))
	assert.Equal(t, 2*time.Second, cfg.CappedDelay(2))
	assert.Equal(t, 16*time.Second, cfg.CappedDelay(5))
	assert.Equal(t, 30*time.Second, cfg.CappedDelay(6))
	assert.Equal(t, 30*time.Second, cfg.CappedDelay(20))
}

func TestRunAttemptAndWallTimeBound(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		attempts := rapid.IntRange(1, 4).Draw(rt, "attempts")
		failures := rapid.IntRange(0, 6).Draw(rt, "failures")
		cfg := fastConfig(attempts)

		var calls int
		start := time.Now()
		_ = Run(context.Background(), cfg, func(ctx context.Context, attempt int) error {
			calls++
			if calls <= failures {
				return errFlaky
			}
			return nil
		})
		elapsed := time.Since(start)

		if calls > attempts {
			rt.Fatalf("attempted %d times with budget %d", calls, attempts)
		}
		// scheduler slack on top of the jittered ceiling sum
		if limit := cfg.MaxWait() + 50*time.Millisecond; elapsed > limit {
			rt.Fatalf("elapsed %v exceeds bound %v", elapsed, limit)
		}
	})
}
