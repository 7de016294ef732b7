package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/flashforge/internal/config"
	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/phrazzld/flashforge/internal/redact"
)

// Transport performs a single request against the model service and returns
// the raw response envelope. Implementations translate failures into
// *generation.ServiceError or *generation.TransportError.
type Transport interface {
	Send(ctx context.Context, req *generation.Request) ([]byte, error)
}

// Attempt outcomes reported to an AttemptObserver.
const (
	AttemptSuccess      = "success"
	AttemptRetryable    = "retryable_error"
	AttemptNonRetryable = "non_retryable_error"
	AttemptCanceled     = "canceled"
)

// AttemptObserver is notified of every attempt and every backoff.
type AttemptObserver interface {
	ObserveAttempt(outcome string)
	ObserveBackoff(delay time.Duration)
}

type noopAttemptObserver struct{}

func (noopAttemptObserver) ObserveAttempt(string)        {}
func (noopAttemptObserver) ObserveBackoff(time.Duration) {}

// Invoker implements generation.Invoker with bounded exponential backoff.
// It is safe for concurrent use; each call runs its own retry loop.
type Invoker struct {
	transport      Transport
	logger         *slog.Logger
	observer       AttemptObserver
	sleep          SleepFunc
	policy         retryPolicy
	hasCredential  bool
	model          string
	attemptTimeout time.Duration
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithSleep replaces the backoff sleep, typically with a recording fake in tests.
func WithSleep(sleep SleepFunc) Option {
	return func(i *Invoker) {
		if sleep != nil {
			i.sleep = sleep
		}
	}
}

// WithAttemptObserver registers an observer for attempts and backoffs.
func WithAttemptObserver(o AttemptObserver) Option {
	return func(i *Invoker) {
		if o != nil {
			i.observer = o
		}
	}
}

// NewInvoker creates an Invoker that sends requests through transport.
func NewInvoker(cfg config.LLMConfig, transport Transport, logger *slog.Logger, opts ...Option) (*Invoker, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: transport cannot be nil", generation.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("%w: max retries must be at least 1, got %d",
			generation.ErrInvalidConfig, cfg.MaxRetries)
	}
	if cfg.RetryDelayMS < 0 {
		return nil, fmt.Errorf("%w: retry delay cannot be negative", generation.ErrInvalidConfig)
	}

	i := &Invoker{
		transport: transport,
		logger:    logger,
		observer:  noopAttemptObserver{},
		sleep:     sleepContext,
		policy: retryPolicy{
			maxAttempts:    cfg.MaxRetries,
			baseDelay:      cfg.RetryDelay(),
			retryOnTimeout: cfg.RetryOnTimeout,
		},
		hasCredential:  cfg.HasCredential(),
		model:          cfg.ModelName,
		attemptTimeout: cfg.AttemptTimeout(),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i, nil
}

// Invoke sends req, retrying retryable failures until the attempt budget is
// spent. Without a credential it makes no call and returns an empty envelope
// together with generation.ErrMissingCredential.
func (i *Invoker) Invoke(ctx context.Context, req *generation.Request) ([]byte, error) {
	if !i.hasCredential {
		i.logger.WarnContext(ctx, "gemini API key not configured, skipping model call",
			"model", i.model)
		return generation.EmptyEnvelope(), generation.ErrMissingCredential
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request cannot be nil", generation.ErrInvalidConfig)
	}

	state := i.policy.start()
	for {
		i.logger.InfoContext(ctx, "calling gemini API",
			"model", i.model,
			"attempt", state.attempt,
			"max_attempts", i.policy.maxAttempts)

		envelope, err := i.attempt(ctx, req)

		if err != nil && ctx.Err() != nil {
			i.observer.ObserveAttempt(AttemptCanceled)
			i.logger.WarnContext(ctx, "gemini API call cancelled",
				"attempt", state.attempt,
				"ctx_err", ctx.Err())
			return nil, generation.NewTransportError(ctx.Err())
		}

		state = i.policy.next(state, err)

		switch state.phase {
		case phaseDone:
			i.observer.ObserveAttempt(AttemptSuccess)
			i.logger.InfoContext(ctx, "gemini API call successful",
				"attempt", state.attempt,
				"response_bytes", len(envelope))
			return envelope, nil

		case phaseFailed:
			i.observer.ObserveAttempt(AttemptNonRetryable)
			i.logger.ErrorContext(ctx, "gemini API call failed with non-retryable error",
				"attempt", state.attempt,
				"error", redact.Error(err))
			return nil, err

		case phaseExhausted:
			i.observer.ObserveAttempt(AttemptRetryable)
			i.logger.ErrorContext(ctx, "maximum gemini API attempts reached",
				"attempts", state.attempt,
				"error", redact.Error(err))
			return nil, fmt.Errorf("%w after %d attempts: %w",
				generation.ErrExhaustedRetries, state.attempt, err)
		}

		// Still attempting: the previous attempt failed with a retryable error.
		i.observer.ObserveAttempt(AttemptRetryable)
		delay := i.policy.backoff(state.attempt - 1)
		i.observer.ObserveBackoff(delay)
		i.logger.WarnContext(ctx, "retrying gemini API call after delay",
			"failed_attempt", state.attempt-1,
			"delay_ms", delay.Milliseconds(),
			"error", redact.Error(err))

		if err := i.sleep(ctx, delay); err != nil {
			i.logger.WarnContext(ctx, "gemini API call cancelled during retry delay",
				"attempt", state.attempt-1,
				"ctx_err", err)
			return nil, generation.NewTransportError(err)
		}
	}
}

// attempt performs one transport call under the per-attempt timeout.
func (i *Invoker) attempt(ctx context.Context, req *generation.Request) ([]byte, error) {
	attemptCtx := ctx
	if i.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, i.attemptTimeout)
		defer cancel()
	}

	envelope, err := i.transport.Send(attemptCtx, req)
	if err != nil {
		return nil, classify(err)
	}
	return envelope, nil
}

// classify wraps errors that are neither service nor transport errors so the
// retry policy always sees one of the two.
func classify(err error) error {
	var svcErr *generation.ServiceError
	var transportErr *generation.TransportError
	if errors.As(err, &svcErr) || errors.As(err, &transportErr) {
		return err
	}
	return generation.NewTransportError(err)
}
