package gemini

import (
	"context"
	"errors"
	"time"

	"github.com/phrazzld/flashforge/internal/generation"
)

// phase is the state of one invocation's retry loop.
type phase int

const (
	phaseAttempting phase = iota
	phaseDone
	phaseExhausted
	phaseFailed
)

func (p phase) String() string {
	switch p {
	case phaseAttempting:
		return "attempting"
	case phaseDone:
		return "done"
	case phaseExhausted:
		return "exhausted"
	case phaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// retryState is the loop position: the phase and the 1-based attempt number
// in progress (or last made, once terminal).
type retryState struct {
	phase   phase
	attempt int
}

// retryPolicy decides transitions between states. It holds no mutable state,
// so one policy can serve concurrent invocations.
type retryPolicy struct {
	maxAttempts    int
	baseDelay      time.Duration
	retryOnTimeout bool
}

// start is the state before the first attempt.
func (p retryPolicy) start() retryState {
	return retryState{phase: phaseAttempting, attempt: 1}
}

// next returns the state that follows the attempt in s finishing with err.
func (p retryPolicy) next(s retryState, err error) retryState {
	switch {
	case err == nil:
		return retryState{phase: phaseDone, attempt: s.attempt}
	case !p.retryable(err):
		return retryState{phase: phaseFailed, attempt: s.attempt}
	case s.attempt >= p.maxAttempts:
		return retryState{phase: phaseExhausted, attempt: s.attempt}
	default:
		return retryState{phase: phaseAttempting, attempt: s.attempt + 1}
	}
}

// retryable reports whether err is worth another attempt.
func (p retryPolicy) retryable(err error) bool {
	var svcErr *generation.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Retryable()
	}

	var transportErr *generation.TransportError
	if errors.As(err, &transportErr) {
		return p.retryOnTimeout && transportErr.Timeout()
	}

	return false
}

// backoff is the delay after the given failed attempt: baseDelay * 2^(attempt-1).
func (p retryPolicy) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.baseDelay * time.Duration(1<<(attempt-1))
}

// SleepFunc blocks for d or until ctx is done, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
