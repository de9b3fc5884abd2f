package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// Jitter is the randomization factor applied to each delay (0.2 = ±20%)
	Jitter          float64
	MaxTotalTimeout time.Duration
}

// DefaultConfig returns the per-call provider budget: 3 attempts, 1s base, x2, 30s ceiling, ±20% jitter
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        0.2,
	}
}

// ConnectConfig returns the budget used when dialing infrastructure at boot
func ConnectConfig() Config {
	return Config{
		MaxAttempts:     10,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffFactor:   2.0,
		Jitter:          0.2,
		MaxTotalTimeout: 60 * time.Second,
	}
}

// ErrExhausted is wrapped into the error returned once the attempt budget is spent
var ErrExhausted = errors.New("retry budget exhausted")

// CappedDelay returns min(base*factor^(attempt-1), ceiling) before jitter.
func (c Config) CappedDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(c.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= c.BackoffFactor
		if c.MaxDelay > 0 && delay >= float64(c.MaxDelay) {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && time.Duration(delay) > c.MaxDelay {
		return c.MaxDelay
	}
	return time.Duration(delay)
}

// MaxWait returns the upper bound of total sleeping across all retries of one call.
func (c Config) MaxWait() time.Duration {
	var total time.Duration
	for attempt := 1; attempt < c.MaxAttempts; attempt++ {
		total += time.Duration(float64(c.CappedDelay(attempt)) * (1 + c.Jitter))
	}
	return total
}

// NewBackOff builds the jittered exponential schedule for cfg
func NewBackOff(cfg Config) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	b.Multiplier = cfg.BackoffFactor
	b.RandomizationFactor = cfg.Jitter
	b.MaxInterval = cfg.MaxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

type options struct {
	retryIf func(error) bool
	onRetry func(attempt int, err error, nextDelay time.Duration)
}

// Option customises Run
type Option func(*options)

// WithRetryIf limits retries to errors accepted by fn; other errors return immediately
func WithRetryIf(fn func(error) bool) Option {
	return func(o *options) { o.retryIf = fn }
}

// WithOnRetry registers a callback invoked before each backoff sleep
func WithOnRetry(fn func(attempt int, err error, nextDelay time.Duration)) Option {
	return func(o *options) { o.onRetry = fn }
}

// Run executes fn until it succeeds, returns a non-retriable error, the attempt
// budget is spent or the context deadline leaves no room for the next sleep.
// Pending sleeps return as soon as ctx is cancelled.
func Run(ctx context.Context, cfg Config, fn func(ctx context.Context, attempt int) error, opts ...Option) error {
	o := options{retryIf: func(error) bool { return true }}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxTotalTimeout)
		defer cancel()
	}

	schedule := NewBackOff(cfg)
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("retry aborted after %d attempts: %w (last error: %w)", attempt-1, err, lastErr)
			}
			return fmt.Errorf("retry aborted: %w", err)
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !o.retryIf(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			return fmt.Errorf("max retry attempts (%d) exceeded: %w: %w", cfg.MaxAttempts, ErrExhausted, lastErr)
		}

		delay := schedule.NextBackOff()
		if delay == backoff.Stop {
			return fmt.Errorf("backoff stopped after %d attempts: %w: %w", attempt, ErrExhausted, lastErr)
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
			return fmt.Errorf("deadline leaves no room for attempt %d: %w: %w", attempt+1, ErrExhausted, lastErr)
		}

		if o.onRetry != nil {
			o.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted after %d attempts: %w (last error: %w)", attempt, ctx.Err(), lastErr)
		case <-timer.C:
		}
	}

	return fmt.Errorf("max retry attempts exceeded: %w: %w", ErrExhausted, lastErr)
}

// Do executes the given function with exponential backoff retry logic
func Do(ctx context.Context, cfg Config, fn func() error) error {
	return Run(ctx, cfg, func(context.Context, int) error { return fn() })
}

// DoWithLog executes the function with retry and logs each attempt
func DoWithLog(ctx context.Context, cfg Config, serviceName string, fn func() error, logFn func(attempt int, err error, nextDelay time.Duration)) error {
	err := Run(ctx, cfg, func(context.Context, int) error { return fn() }, WithOnRetry(logFn))
	if err != nil {
		return fmt.Errorf("%s: %w", serviceName, err)
	}
	return nil
}
