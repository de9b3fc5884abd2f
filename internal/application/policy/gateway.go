package policy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	"github.com/zatekoja/articleforge/pkg/config"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
	"github.com/zatekoja/articleforge/pkg/retry"
)

// Options configures a Gateway
type Options struct {
	Retry retry.Config
	Mode  config.Mode
	Live  providers.Adapters
	// Mocks are substituted for terminal failures in development mode; nil disables fallback
	Mocks           *providers.Adapters
	BreakerFailures uint32
	BreakerCooldown time.Duration
	Metrics         *observability.Metrics
}

// Gateway applies retry, circuit breaking and the degradation mode to every adapter call
type Gateway struct {
	retry           retry.Config
	mode            config.Mode
	live            providers.Adapters
	mocks           *providers.Adapters
	breakerFailures uint32
	breakerCooldown time.Duration
	metrics         *observability.Metrics

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewGateway builds a gateway
func NewGateway(opts Options) *Gateway {
	if opts.Mode == "" {
		opts.Mode = config.ModeStrict
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	return &Gateway{
		retry:           opts.Retry,
		mode:            opts.Mode,
		live:            opts.Live,
		mocks:           opts.Mocks,
		breakerFailures: opts.BreakerFailures,
		breakerCooldown: opts.BreakerCooldown,
		metrics:         opts.Metrics,
		breakers:        make(map[string]*gobreaker.CircuitBreaker),
	}
}

// RetryConfigFrom converts the configured budget
func RetryConfigFrom(cfg config.RetryConfig) retry.Config {
	return retry.Config{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.BaseDelay,
		MaxDelay:      cfg.MaxDelay,
		BackoffFactor: cfg.Multiplier,
		Jitter:        cfg.Jitter,
	}
}

// Mode returns the degradation mode
func (g *Gateway) Mode() config.Mode {
	return g.mode
}

// Live returns the live adapter bundle
func (g *Gateway) Live() providers.Adapters {
	return g.live
}

// HasPublisher reports whether a CMS target is wired
func (g *Gateway) HasPublisher() bool {
	return g.live.Publisher != nil
}

func (g *Gateway) breaker(name string) *gobreaker.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cb, ok := g.breakers[name]; ok {
		return cb
	}
	threshold := g.breakerFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     g.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GetLogger().Warn().
				Str("endpoint", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	g.breakers[name] = cb
	return cb
}

// Call runs fn against the live adapters under the retry budget. On a terminal
// failure it either returns the mapped error or, in development mode, runs fn
// against the mock adapters and tags the result as mocked.
func Call[T any](ctx context.Context, g *Gateway, ep Endpoint, fn func(ctx context.Context, a providers.Adapters) providers.Result[T]) (providers.Result[T], error) {
	ctx, span := observability.StartSpan(ctx, "provider."+ep.Name,
		attribute.String("provider.endpoint", ep.Name),
		attribute.Bool("provider.mandatory", ep.Mandatory),
	)
	defer span.End()
	logger := observability.LoggerFromContext(ctx)
	cb := g.breaker(ep.Name)

	var last providers.Result[T]
	attempts := 0
	err := retry.Run(ctx, g.retry, func(ctx context.Context, attempt int) error {
		attempts = attempt
		start := time.Now()

		_, cbErr := cb.Execute(func() (interface{}, error) {
			last = fn(ctx, g.live)
			if last.Err != nil && last.Err.Retriable {
				return nil, last.Err
			}
			return nil, nil
		})
		if errors.Is(cbErr, gobreaker.ErrOpenState) || errors.Is(cbErr, gobreaker.ErrTooManyRequests) {
			last = providers.Fail[T](&providers.ProviderError{
				Kind:      providers.ErrTransport,
				Retriable: false,
				Detail:    "circuit open for " + ep.Name,
			})
		}

		outcome := "ok"
		if last.Err != nil {
			outcome = string(last.Err.Kind)
		}
		observability.RecordProviderCall(ctx, g.metrics, ep.Name, outcome, time.Since(start))

		if last.Err != nil {
			return last.Err
		}
		return nil
	},
		retry.WithRetryIf(func(err error) bool {
			var perr *providers.ProviderError
			return errors.As(err, &perr) && perr.Retriable
		}),
		retry.WithOnRetry(func(attempt int, err error, next time.Duration) {
			var perr *providers.ProviderError
			kind := ""
			if errors.As(err, &perr) {
				kind = string(perr.Kind)
			}
			logger.Warn().
				Str("endpoint", ep.Name).
				Int("attempt", attempt).
				Str("kind", kind).
				Dur("next_delay", next).
				Msg("provider call failed, retrying")
		}),
	)

	if err == nil {
		last.Meta.Attempts = attempts
		if last.Meta.Endpoint == "" {
			last.Meta.Endpoint = ep.Name
		}
		observability.SetSpanAttributes(span, attribute.Int("provider.attempts", attempts))
		return last, nil
	}

	exhausted := errors.Is(err, retry.ErrExhausted)
	if (!exhausted && apperrors.IsContextError(err)) || errors.Is(ctx.Err(), context.Canceled) {
		observability.RecordError(span, err)
		perr := &providers.ProviderError{Kind: providers.ErrTimeout, Detail: err.Error()}
		return providers.Fail[T](perr), apperrors.NewCancelledError(ep.Name+" cancelled", err)
	}

	perr := last.Err
	if perr == nil {
		perr = providers.NewProviderError(providers.ErrTransport, err.Error())
	}
	observability.RecordError(span, perr)

	if g.mode == config.ModeDevelopment && g.mocks != nil {
		mocked := fn(ctx, *g.mocks)
		if mocked.Err == nil {
			mocked.Meta.Mock = true
			mocked.Meta.Degraded = string(perr.Kind)
			mocked.Meta.Attempts = attempts
			if mocked.Meta.Endpoint == "" {
				mocked.Meta.Endpoint = ep.Name
			}
			event := logger.Warn()
			if perr.Kind == providers.ErrAuthMissing && ep.Mandatory {
				event = logger.Error()
			}
			event.
				Str("endpoint", ep.Name).
				Str("kind", string(perr.Kind)).
				Int("attempts", attempts).
				Msg("provider unavailable, serving mock result")
			observability.RecordProviderCall(ctx, g.metrics, ep.Name, "mock", 0)
			return mocked, nil
		}
	}

	logger.Error().
		Str("endpoint", ep.Name).
		Str("kind", string(perr.Kind)).
		Int("attempts", attempts).
		Bool("exhausted", exhausted).
		Msg("provider call failed")
	return providers.Fail[T](perr), terminalError(ep, perr, attempts)
}

// terminalError maps a provider failure onto the stage-visible taxonomy
func terminalError(ep Endpoint, perr *providers.ProviderError, attempts int) error {
	msg := fmt.Sprintf("%s failed after %d attempt(s)", ep.Name, attempts)
	switch perr.Kind {
	case providers.ErrAuthMissing, providers.ErrAuthRejected:
		return apperrors.NewConfigError(msg, perr).WithReason(string(perr.Kind))
	case providers.ErrSchema, providers.ErrUpstream4xx:
		return &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Message: msg, Reason: string(perr.Kind), Err: perr}
	default:
		return apperrors.NewUpstreamUnavailableError(msg, perr).WithReason(string(perr.Kind))
	}
}
