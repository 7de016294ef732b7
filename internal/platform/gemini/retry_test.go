package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_Next(t *testing.T) {
	policy := retryPolicy{maxAttempts: 3, baseDelay: time.Second, retryOnTimeout: true}

	retryable := generation.NewServiceError(http.StatusTooManyRequests, "", "")
	terminal := generation.NewServiceError(http.StatusNotFound, "", "")

	tests := []struct {
		name string
		from retryState
		err  error
		want retryState
	}{
		{
			name: "success finishes",
			from: retryState{phase: phaseAttempting, attempt: 2},
			err:  nil,
			want: retryState{phase: phaseDone, attempt: 2},
		},
		{
			name: "retryable error advances",
			from: retryState{phase: phaseAttempting, attempt: 1},
			err:  retryable,
			want: retryState{phase: phaseAttempting, attempt: 2},
		},
		{
			name: "retryable error on last attempt exhausts",
			from: retryState{phase: phaseAttempting, attempt: 3},
			err:  retryable,
			want: retryState{phase: phaseExhausted, attempt: 3},
		},
		{
			name: "non-retryable error fails",
			from: retryState{phase: phaseAttempting, attempt: 1},
			err:  terminal,
			want: retryState{phase: phaseFailed, attempt: 1},
		},
		{
			name: "wrapped retryable error advances",
			from: retryState{phase: phaseAttempting, attempt: 1},
			err:  fmt.Errorf("send: %w", retryable),
			want: retryState{phase: phaseAttempting, attempt: 2},
		},
		{
			name: "unclassified error fails",
			from: retryState{phase: phaseAttempting, attempt: 1},
			err:  errors.New("boom"),
			want: retryState{phase: phaseFailed, attempt: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.next(tt.from, tt.err))
		})
	}
}

func TestRetryPolicy_Retryable(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		retryOnTimeout bool
		want           bool
	}{
		{"429", generation.NewServiceError(http.StatusTooManyRequests, "", ""), true, true},
		{"500", generation.NewServiceError(http.StatusInternalServerError, "", ""), true, true},
		{"503", generation.NewServiceError(http.StatusServiceUnavailable, "", ""), true, true},
		{"502", generation.NewServiceError(http.StatusBadGateway, "", ""), true, false},
		{"400", generation.NewServiceError(http.StatusBadRequest, "", ""), true, false},
		{"timeout allowed", generation.NewTransportError(context.DeadlineExceeded), true, true},
		{"timeout disallowed", generation.NewTransportError(context.DeadlineExceeded), false, false},
		{"connection refused", generation.NewTransportError(errors.New("connection refused")), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := retryPolicy{maxAttempts: 5, retryOnTimeout: tt.retryOnTimeout}
			assert.Equal(t, tt.want, policy.retryable(tt.err))
		})
	}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	policy := retryPolicy{maxAttempts: 5, baseDelay: 500 * time.Millisecond}

	assert.Equal(t, 500*time.Millisecond, policy.backoff(1))
	assert.Equal(t, time.Second, policy.backoff(2))
	assert.Equal(t, 2*time.Second, policy.backoff(3))
	assert.Equal(t, 4*time.Second, policy.backoff(4))
	assert.Equal(t, 500*time.Millisecond, policy.backoff(0))
}

func TestSleepContext(t *testing.T) {
	t.Run("zero delay returns immediately", func(t *testing.T) {
		assert.NoError(t, sleepContext(context.Background(), 0))
	})

	t.Run("cancelled context interrupts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	})

	t.Run("short delay completes", func(t *testing.T) {
		assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
	})
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "attempting", phaseAttempting.String())
	assert.Equal(t, "done", phaseDone.String())
	assert.Equal(t, "exhausted", phaseExhausted.String())
	assert.Equal(t, "failed", phaseFailed.String())
	assert.Equal(t, "unknown", phase(99).String())
}
