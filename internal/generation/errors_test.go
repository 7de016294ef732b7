package generation_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/stretchr/testify/assert"
)

func TestServiceError(t *testing.T) {
	t.Run("retryable statuses", func(t *testing.T) {
		for _, code := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
			err := generation.NewServiceError(code, "", "")
			assert.True(t, err.Retryable(), "status %d", code)
			assert.ErrorIs(t, err, generation.ErrRetryableService)
			assert.NotErrorIs(t, err, generation.ErrNonRetryableService)
		}
	})

	t.Run("non-retryable statuses", func(t *testing.T) {
		for _, code := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusBadGateway} {
			err := generation.NewServiceError(code, "", "")
			assert.False(t, err.Retryable(), "status %d", code)
			assert.ErrorIs(t, err, generation.ErrNonRetryableService)
		}
	})

	t.Run("message formatting", func(t *testing.T) {
		assert.Equal(t, "service returned 404 Not Found",
			generation.NewServiceError(http.StatusNotFound, "", "").Error())
		assert.Equal(t, "service returned 429 RESOURCE_EXHAUSTED: quota exceeded",
			generation.NewServiceError(http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "quota exceeded").Error())
	})

	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("send: %w", generation.NewServiceError(http.StatusServiceUnavailable, "", ""))
		var svcErr *generation.ServiceError
		assert.ErrorAs(t, err, &svcErr)
		assert.Equal(t, http.StatusServiceUnavailable, svcErr.StatusCode)
	})
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := generation.NewTransportError(cause)

	assert.ErrorIs(t, err, generation.ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, err.Timeout())

	assert.True(t, generation.NewTransportError(context.DeadlineExceeded).Timeout())
	assert.True(t, generation.NewTransportError(fmt.Errorf("dial: %w", context.DeadlineExceeded)).Timeout())
	assert.True(t, generation.NewTransportError(&net.DNSError{Err: "timeout", IsTimeout: true}).Timeout())
	assert.False(t, generation.NewTransportError(context.Canceled).Timeout())
}
