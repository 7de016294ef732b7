package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error taxonomy for the generation pipeline.
var (
	// ErrMissingCredential signals that no API key is configured. It is a soft
	// failure: the invoker returns EmptyEnvelope alongside it.
	ErrMissingCredential = errors.New("model API credential is not configured")

	// ErrTransport is returned for network-level failures unrelated to an HTTP status.
	ErrTransport = errors.New("transport error calling language model")

	// ErrRetryableService is returned for rate limiting or transient server faults.
	ErrRetryableService = errors.New("retryable language model service error")

	// ErrNonRetryableService is returned for any other unsuccessful service status.
	ErrNonRetryableService = errors.New("non-retryable language model service error")

	// ErrExhaustedRetries is returned when every allowed attempt failed.
	ErrExhaustedRetries = errors.New("exhausted retries calling language model")

	// ErrMalformedEnvelope is returned when a response is not a JSON object at all.
	ErrMalformedEnvelope = errors.New("malformed response envelope")

	// ErrMalformedRecord marks a card record that lacks a string question or answer.
	ErrMalformedRecord = errors.New("malformed flashcard record")

	// ErrInvalidConfig is returned when the generator configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// retryableStatusCodes are the service statuses that drive backoff.
var retryableStatusCodes = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusServiceUnavailable:  true,
}

// ServiceError is an unsuccessful response from the model service.
type ServiceError struct {
	StatusCode int
	Status     string
	Message    string
}

// NewServiceError builds a ServiceError, falling back to the standard status
// text when the service did not supply one.
func NewServiceError(statusCode int, status, message string) *ServiceError {
	if status == "" {
		status = http.StatusText(statusCode)
	}
	return &ServiceError{StatusCode: statusCode, Status: status, Message: message}
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service returned %d %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("service returned %d %s: %s", e.StatusCode, e.Status, e.Message)
}

// Retryable reports whether the status indicates a transient condition.
func (e *ServiceError) Retryable() bool {
	return retryableStatusCodes[e.StatusCode]
}

// Unwrap exposes the retryable/non-retryable sentinel for errors.Is.
func (e *ServiceError) Unwrap() error {
	if e.Retryable() {
		return ErrRetryableService
	}
	return ErrNonRetryableService
}

// TransportError wraps a network-level failure.
type TransportError struct {
	Err error
}

// NewTransportError wraps err as a TransportError.
func NewTransportError(err error) *TransportError {
	return &TransportError{Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTransport.Error(), e.Err)
}

// Unwrap exposes both ErrTransport and the underlying cause.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Timeout reports whether the failure was a deadline or network timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
