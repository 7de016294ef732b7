package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/generation"
)

// MapFailureToStatusCode maps a reported generation failure to the HTTP
// status returned to the client.
func MapFailureToStatusCode(kind generation.FailureKind) int {
	switch kind {
	case generation.FailureInvalidParams:
		return http.StatusBadRequest

	// The service cannot do its job right now; the client may retry later.
	case generation.FailureMissingCredential,
		generation.FailureExhaustedRetries:
		return http.StatusServiceUnavailable

	// The upstream model misbehaved.
	case generation.FailureTransport,
		generation.FailureServiceRejected,
		generation.FailureMalformedEnvelope,
		generation.FailureEmptyResult:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToStatusCode maps errors raised inside handlers, before the
// generator runs, to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, domain.ErrValidation), errors.As(err, &verrs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// SanitizeValidationError turns a validation error into a message that
// names the offending field without echoing its value.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag(), fe.Param())))
		}
		return strings.Join(msgs, "; ")
	}

	var derr *domain.ValidationError
	if errors.As(err, &derr) {
		return fmt.Sprintf("Invalid %s: %s", derr.Field, derr.Message)
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag, param string) string {
	switch tag {
	case "required":
		return "required field"
	case "mintrimmed":
		return fmt.Sprintf("must be at least %s characters", param)
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", param)
	case "lte":
		return fmt.Sprintf("must be at most %s", param)
	case "difficulty":
		return "must be Beginner, Intermediate or Advanced"
	case "language":
		return "unsupported language"
	case "dive":
		return "invalid entry"
	default:
		return "validation failed"
	}
}
