package generation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/flashforge/internal/redact"
)

// FailureKind classifies why a generation call produced no cards.
type FailureKind string

// Failure kinds, one per user-visible failure condition.
const (
	FailureInvalidParams     FailureKind = "invalid_params"
	FailureMissingCredential FailureKind = "missing_credential"
	FailureTransport         FailureKind = "transport"
	FailureServiceRejected   FailureKind = "service_rejected"
	FailureExhaustedRetries  FailureKind = "exhausted_retries"
	FailureMalformedEnvelope FailureKind = "malformed_envelope"
	FailureEmptyResult       FailureKind = "empty_result"
)

// Failure is what the orchestrator reports to the presentation layer.
type Failure struct {
	Kind FailureKind
	Err  error
}

// Notice returns a user-facing message that never includes error details.
func (f Failure) Notice() string {
	switch f.Kind {
	case FailureInvalidParams:
		return "The flashcard request was incomplete. Please provide source text, a card count, a difficulty and both languages."
	case FailureMissingCredential:
		return "API key not found. Please set the GEMINI_API_KEY environment variable."
	case FailureTransport:
		return "Could not reach the flashcard generation service. Please try again."
	case FailureServiceRejected:
		return "The flashcard generation service rejected the request."
	case FailureExhaustedRetries:
		return "The flashcard generation service is busy. Please try again in a few minutes."
	case FailureMalformedEnvelope, FailureEmptyResult:
		return "Could not generate flashcards. Please ensure your text is comprehensive and try again."
	default:
		return "An unexpected error occurred while generating flashcards."
	}
}

// ClassifyFailure maps an invoker error onto a FailureKind.
func ClassifyFailure(err error) FailureKind {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return FailureMissingCredential
	case errors.Is(err, ErrExhaustedRetries):
		return FailureExhaustedRetries
	case errors.Is(err, ErrRetryableService), errors.Is(err, ErrNonRetryableService):
		return FailureServiceRejected
	case errors.Is(err, ErrMalformedEnvelope):
		return FailureMalformedEnvelope
	default:
		return FailureTransport
	}
}

// Reporter receives generation failures for display.
type Reporter interface {
	ReportFailure(ctx context.Context, failure Failure)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, failure Failure)

// ReportFailure calls f.
func (f ReporterFunc) ReportFailure(ctx context.Context, failure Failure) {
	f(ctx, failure)
}

// LogReporter reports failures to a structured logger.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a LogReporter. A nil logger uses slog.Default.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

// ReportFailure logs the failure at WARN.
func (r *LogReporter) ReportFailure(ctx context.Context, failure Failure) {
	r.logger.WarnContext(ctx, "flashcard generation failed",
		"failure_kind", string(failure.Kind),
		"error", redact.Error(failure.Err),
		"notice", failure.Notice())
}

type reporterKey struct{}

// ContextWithReporter attaches a per-call Reporter that takes precedence
// over the service default.
func ContextWithReporter(ctx context.Context, r Reporter) context.Context {
	return context.WithValue(ctx, reporterKey{}, r)
}

// ReporterFromContext returns the Reporter attached to ctx, or fallback.
func ReporterFromContext(ctx context.Context, fallback Reporter) Reporter {
	if r, ok := ctx.Value(reporterKey{}).(Reporter); ok && r != nil {
		return r
	}
	return fallback
}

// FailureRecorder is a Reporter that keeps the last failure. Not safe for
// concurrent use; create one per call.
type FailureRecorder struct {
	failure *Failure
}

// ReportFailure stores failure.
func (r *FailureRecorder) ReportFailure(_ context.Context, failure Failure) {
	r.failure = &failure
}

// Failure returns the recorded failure, if any.
func (r *FailureRecorder) Failure() (Failure, bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}
