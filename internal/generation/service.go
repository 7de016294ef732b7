package generation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/flashforge/internal/domain"
)

// Generation outcomes reported to an Observer.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Observer receives per-call generation metrics.
type Observer interface {
	ObserveGeneration(outcome string, cards int, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveGeneration(string, int, time.Duration) {}

// Service is the generation orchestrator. It holds no per-call state and is
// safe for concurrent use.
type Service struct {
	invoker  Invoker
	parser   Parser
	reporter Reporter
	observer Observer
	logger   *slog.Logger
}

var (
	_ Generator      = (*Service)(nil)
	_ TopicGenerator = (*Service)(nil)
)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithParser sets the response parser.
func WithParser(p Parser) ServiceOption {
	return func(s *Service) {
		s.parser = p
	}
}

// WithReporter sets the default failure reporter.
func WithReporter(r Reporter) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewService creates the orchestrator around invoker.
func NewService(invoker Invoker, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if invoker == nil {
		return nil, errors.New("invoker cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	s := &Service{
		invoker:  invoker,
		logger:   logger,
		reporter: NewLogReporter(logger),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GenerateFlashcards builds the request, invokes the model and parses the
// response, strictly in that order. It never returns nil and never panics on
// a lower-level failure: failures are reported and an empty slice returned.
func (s *Service) GenerateFlashcards(ctx context.Context, params domain.GenerationParams) []domain.Flashcard {
	call := s.begin(ctx)

	if err := params.Validate(); err != nil {
		s.logger.DebugContext(ctx, "rejecting invalid generation params", "error", err)
		return call.fail(FailureInvalidParams, err)
	}

	req := BuildRequest(params)
	s.logger.DebugContext(ctx, "generation request built",
		"card_count", params.CardCount,
		"difficulty", params.Difficulty.String(),
		"question_language", params.QuestionLanguage,
		"answer_language", params.AnswerLanguage,
		"source_length", len(params.SourceText))

	return s.complete(call, req, s.parser.Parse)
}

// GenerateFromTopic is GenerateFlashcards for a named subject: the model
// writes a Q1/A1 listing from its own knowledge, capped at the requested
// card count. Failures are reported the same way.
func (s *Service) GenerateFromTopic(ctx context.Context, params domain.TopicParams) []domain.Flashcard {
	call := s.begin(ctx)

	if err := params.Validate(); err != nil {
		s.logger.DebugContext(ctx, "rejecting invalid topic params", "error", err)
		return call.fail(FailureInvalidParams, err)
	}

	req := BuildTopicRequest(params)
	s.logger.DebugContext(ctx, "topic request built",
		"card_count", params.CardCount,
		"difficulty", params.Difficulty.String(),
		"question_language", params.QuestionLanguage,
		"answer_language", params.AnswerLanguage,
		"topic_length", len(params.Topic))

	return s.complete(call, req, func(raw []byte) (ParseResult, error) {
		return ParseListing(raw, params.CardCount)
	})
}

// generationCall carries the per-call state shared by both entry points.
type generationCall struct {
	ctx      context.Context
	start    time.Time
	reporter Reporter
	observer Observer
}

func (s *Service) begin(ctx context.Context) generationCall {
	return generationCall{
		ctx:      ctx,
		start:    time.Now(),
		reporter: ReporterFromContext(ctx, s.reporter),
		observer: s.observer,
	}
}

func (c generationCall) fail(kind FailureKind, err error) []domain.Flashcard {
	c.reporter.ReportFailure(c.ctx, Failure{Kind: kind, Err: err})
	c.observer.ObserveGeneration(OutcomeFailure, 0, time.Since(c.start))
	return []domain.Flashcard{}
}

// complete invokes the model with req and reads the response with parse.
func (s *Service) complete(
	call generationCall,
	req *Request,
	parse func(raw []byte) (ParseResult, error),
) []domain.Flashcard {
	ctx := call.ctx

	raw, err := s.invoker.Invoke(ctx, req)
	if err != nil {
		// Missing credential still yields a usable (empty) envelope, but the
		// outcome is always zero cards, so report and stop here.
		return call.fail(ClassifyFailure(err), err)
	}

	result, err := parse(raw)
	if err != nil {
		s.logger.ErrorContext(ctx, "response envelope could not be unwrapped",
			"error", err,
			"response_length", len(raw))
		return call.fail(FailureMalformedEnvelope, err)
	}

	if result.Dropped > 0 {
		s.logger.WarnContext(ctx, "dropped malformed flashcard records",
			"dropped", result.Dropped,
			"kept", len(result.Cards),
			"strict", s.parser.Strict)
	}

	if len(result.Cards) == 0 {
		s.logger.WarnContext(ctx, "model response contained no usable flashcards",
			"unparseable", result.Unparseable,
			"dropped", result.Dropped)
		return call.fail(FailureEmptyResult, errors.New("model response contained no usable flashcards"))
	}

	s.logger.InfoContext(ctx, "flashcards generated",
		"requested", req.Params.CardCount,
		"generated", len(result.Cards),
		"duration_ms", time.Since(call.start).Milliseconds())
	s.observer.ObserveGeneration(OutcomeSuccess, len(result.Cards), time.Since(call.start))

	return result.Cards
}
