package generation_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/flashforge/internal/config"
	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/phrazzld/flashforge/internal/mocks"
	"github.com/phrazzld/flashforge/internal/platform/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validParams(cardCount int) domain.GenerationParams {
	return domain.GenerationParams{
		SourceText:       sourceText,
		CardCount:        cardCount,
		Difficulty:       domain.DifficultyBeginner,
		QuestionLanguage: "English",
		AnswerLanguage:   "Spanish",
	}
}

func llmConfig(apiKey string) config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:   apiKey,
		ModelName:      "gemini-2.5-flash",
		Transport:      gemini.TransportREST,
		BaseURL:        "https://generativelanguage.googleapis.com",
		APIVersion:     "v1beta",
		MaxRetries:     5,
		RetryDelayMS:   1000,
		RetryOnTimeout: true,
	}
}

func noSleep(context.Context, time.Duration) error { return nil }

func newService(t *testing.T, invoker generation.Invoker, opts ...generation.ServiceOption) (*generation.Service, *mocks.MockReporter) {
	t.Helper()
	reporter := &mocks.MockReporter{}
	opts = append([]generation.ServiceOption{generation.WithReporter(reporter)}, opts...)
	svc, err := generation.NewService(invoker, discardLogger(), opts...)
	require.NoError(t, err)
	return svc, reporter
}

type generationRecord struct {
	outcome string
	cards   int
}

type observerRecorder struct {
	mu      sync.Mutex
	records []generationRecord
}

func (o *observerRecorder) ObserveGeneration(outcome string, cards int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, generationRecord{outcome: outcome, cards: cards})
}

func TestGenerateFlashcards_EndToEndHappyPath(t *testing.T) {
	want := []domain.Flashcard{
		domain.NewFlashcard("What is X?", "X is Y."),
		domain.NewFlashcard("What is Z?", "Z is W."),
	}
	transport := mocks.NewMockTransportWithCards(want...)
	invoker, err := gemini.NewInvoker(llmConfig("test-key"), transport, discardLogger(), gemini.WithSleep(noSleep))
	require.NoError(t, err)

	observer := &observerRecorder{}
	svc, reporter := newService(t, invoker, generation.WithObserver(observer))

	cards := svc.GenerateFlashcards(context.Background(), validParams(2))

	assert.Equal(t, want, cards)
	assert.Equal(t, 1, transport.Calls())
	assert.Empty(t, reporter.Failures())
	assert.Equal(t, []generationRecord{{outcome: generation.OutcomeSuccess, cards: 2}}, observer.records)

	require.Len(t, transport.Requests(), 1)
	assert.Contains(t, transport.Requests()[0].SystemInstruction, "exactly 2")
}

func TestGenerateFlashcards_NoCredentialShortCircuits(t *testing.T) {
	transport := mocks.NewMockTransportWithCards(domain.NewFlashcard("never", "returned"))
	invoker, err := gemini.NewInvoker(llmConfig(""), transport, discardLogger(), gemini.WithSleep(noSleep))
	require.NoError(t, err)

	svc, reporter := newService(t, invoker)

	cards := svc.GenerateFlashcards(context.Background(), validParams(5))

	assert.NotNil(t, cards)
	assert.Empty(t, cards)
	assert.Equal(t, 0, transport.Calls(), "no network call may be attempted")

	failures := reporter.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, generation.FailureMissingCredential, failures[0].Kind)
	assert.Contains(t, failures[0].Notice(), "GEMINI_API_KEY")
}

func TestGenerateFlashcards_ExhaustedRetriesThroughInvoker(t *testing.T) {
	transport := mocks.NewMockTransport(mocks.TransportResult{
		Err: generation.NewServiceError(http.StatusTooManyRequests, "", "quota"),
	})
	invoker, err := gemini.NewInvoker(llmConfig("test-key"), transport, discardLogger(), gemini.WithSleep(noSleep))
	require.NoError(t, err)

	svc, reporter := newService(t, invoker)

	cards := svc.GenerateFlashcards(context.Background(), validParams(5))

	assert.Empty(t, cards)
	assert.Equal(t, 5, transport.Calls())
	failures := reporter.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, generation.FailureExhaustedRetries, failures[0].Kind)
}

func TestGenerateFlashcards_ReportsInvokerFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want generation.FailureKind
	}{
		{
			name: "exhausted retries",
			err: fmt.Errorf("%w after %d attempts: %w", generation.ErrExhaustedRetries, 5,
				generation.NewServiceError(http.StatusServiceUnavailable, "", "")),
			want: generation.FailureExhaustedRetries,
		},
		{
			name: "non-retryable status",
			err:  generation.NewServiceError(http.StatusBadRequest, "INVALID_ARGUMENT", "bad schema"),
			want: generation.FailureServiceRejected,
		},
		{
			name: "transport",
			err:  generation.NewTransportError(errors.New("no such host")),
			want: generation.FailureTransport,
		},
		{
			name: "missing credential",
			err:  generation.ErrMissingCredential,
			want: generation.FailureMissingCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoker := &mocks.MockInvoker{Envelope: generation.EmptyEnvelope(), Err: tt.err}
			observer := &observerRecorder{}
			svc, reporter := newService(t, invoker, generation.WithObserver(observer))

			cards := svc.GenerateFlashcards(context.Background(), validParams(5))

			assert.NotNil(t, cards)
			assert.Empty(t, cards)
			failures := reporter.Failures()
			require.Len(t, failures, 1, "exactly one failure report per call")
			assert.Equal(t, tt.want, failures[0].Kind)
			assert.ErrorIs(t, failures[0].Err, tt.err)
			assert.Equal(t, []generationRecord{{outcome: generation.OutcomeFailure, cards: 0}}, observer.records)
		})
	}
}

func TestGenerateFlashcards_InvalidParamsSkipInvocation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.GenerationParams)
	}{
		{"blank text", func(p *domain.GenerationParams) { p.SourceText = "   " }},
		{"zero cards", func(p *domain.GenerationParams) { p.CardCount = 0 }},
		{"unknown difficulty", func(p *domain.GenerationParams) { p.Difficulty = "Expert" }},
		{"blank question language", func(p *domain.GenerationParams) { p.QuestionLanguage = "" }},
		{"blank answer language", func(p *domain.GenerationParams) { p.AnswerLanguage = " " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoker := &mocks.MockInvoker{Envelope: generation.EmptyEnvelope()}
			svc, reporter := newService(t, invoker)
			params := validParams(5)
			tt.mutate(&params)

			cards := svc.GenerateFlashcards(context.Background(), params)

			assert.Empty(t, cards)
			assert.Equal(t, 0, invoker.Calls())
			failures := reporter.Failures()
			require.Len(t, failures, 1)
			assert.Equal(t, generation.FailureInvalidParams, failures[0].Kind)
			assert.ErrorIs(t, failures[0].Err, domain.ErrValidation)
		})
	}
}

func TestGenerateFlashcards_ParseOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		envelope  []byte
		wantCards []domain.Flashcard
		wantKind  generation.FailureKind
	}{
		{
			name:     "malformed envelope",
			envelope: []byte("<html>upstream error</html>"),
			wantKind: generation.FailureMalformedEnvelope,
		},
		{
			name:     "empty array",
			envelope: generation.EmptyEnvelope(),
			wantKind: generation.FailureEmptyResult,
		},
		{
			name:     "prose instead of json",
			envelope: mustEnvelope("Here are your flashcards!"),
			wantKind: generation.FailureEmptyResult,
		},
		{
			name:     "every record malformed",
			envelope: mustEnvelope(`[{"question":"Q1"},{"answer":"A2"}]`),
			wantKind: generation.FailureEmptyResult,
		},
		{
			name:      "partial success is not a failure",
			envelope:  mustEnvelope(`[{"question":"Q1","answer":"A1"},{"question":"Q2"}]`),
			wantCards: []domain.Flashcard{domain.NewFlashcard("Q1", "A1")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, reporter := newService(t, &mocks.MockInvoker{Envelope: tt.envelope})

			cards := svc.GenerateFlashcards(context.Background(), validParams(3))

			failures := reporter.Failures()
			if tt.wantKind == "" {
				assert.Equal(t, tt.wantCards, cards)
				assert.Empty(t, failures)
				return
			}
			assert.NotNil(t, cards)
			assert.Empty(t, cards)
			require.Len(t, failures, 1)
			assert.Equal(t, tt.wantKind, failures[0].Kind)
		})
	}
}

func TestGenerateFlashcards_StrictParser(t *testing.T) {
	invoker := &mocks.MockInvoker{Envelope: mustEnvelope(`[{"question":"Q1","answer":"A1"},{"question":"Q2"}]`)}
	svc, reporter := newService(t, invoker, generation.WithParser(generation.Parser{Strict: true}))

	cards := svc.GenerateFlashcards(context.Background(), validParams(3))

	assert.Empty(t, cards)
	failures := reporter.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, generation.FailureEmptyResult, failures[0].Kind)
}

func TestGenerateFlashcards_ContextReporterTakesPrecedence(t *testing.T) {
	svc, defaultReporter := newService(t, &mocks.MockInvoker{Err: generation.ErrMissingCredential})
	recorder := &generation.FailureRecorder{}
	ctx := generation.ContextWithReporter(context.Background(), recorder)

	svc.GenerateFlashcards(ctx, validParams(3))

	assert.Empty(t, defaultReporter.Failures())
	failure, ok := recorder.Failure()
	require.True(t, ok)
	assert.Equal(t, generation.FailureMissingCredential, failure.Kind)
}

func TestGenerateFlashcards_ConcurrentCallsAreIndependent(t *testing.T) {
	invoker := &mocks.MockInvoker{
		InvokeFn: func(_ context.Context, req *generation.Request) ([]byte, error) {
			cards := make([]domain.Flashcard, 0, req.Params.CardCount)
			for i := 0; i < req.Params.CardCount; i++ {
				cards = append(cards, domain.NewFlashcard(fmt.Sprintf("Q%d", i), fmt.Sprintf("A%d", i)))
			}
			return generation.EncodeCards(cards)
		},
	}
	svc, reporter := newService(t, invoker)

	var wg sync.WaitGroup
	results := make([][]domain.Flashcard, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.GenerateFlashcards(context.Background(), validParams(i+1))
		}(i)
	}
	wg.Wait()

	for i, cards := range results {
		assert.Len(t, cards, i+1)
	}
	assert.Empty(t, reporter.Failures())
	assert.Equal(t, 10, invoker.Calls())
}

func TestNewService_Validation(t *testing.T) {
	_, err := generation.NewService(nil, discardLogger())
	assert.Error(t, err)

	_, err = generation.NewService(&mocks.MockInvoker{}, nil)
	assert.Error(t, err)
}

func mustEnvelope(text string) []byte {
	raw, err := generation.EncodeTextEnvelope(text)
	if err != nil {
		panic(err)
	}
	return raw
}

func topicParams(cardCount int) domain.TopicParams {
	return domain.TopicParams{
		Topic:            "Cell biology",
		CardCount:        cardCount,
		Difficulty:       domain.DifficultyIntermediate,
		QuestionLanguage: "English",
		AnswerLanguage:   "English",
	}
}

func TestGenerateFromTopic_HappyPath(t *testing.T) {
	invoker := &mocks.MockInvoker{
		Envelope: mustEnvelope("Q1: What is a cell?\nA1: The basic unit of life.\nQ2: What is DNA?\nA2: Genetic material.\nQ3: Extra?\nA3: Over the cap."),
	}
	observer := &observerRecorder{}
	svc, reporter := newService(t, invoker, generation.WithObserver(observer))

	cards := svc.GenerateFromTopic(context.Background(), topicParams(2))

	assert.Equal(t, []domain.Flashcard{
		domain.NewFlashcard("What is a cell?", "The basic unit of life."),
		domain.NewFlashcard("What is DNA?", "Genetic material."),
	}, cards)
	assert.Empty(t, reporter.Failures())
	assert.Equal(t, []generationRecord{{outcome: generation.OutcomeSuccess, cards: 2}}, observer.records)

	requests := invoker.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, generation.TextMIMEType, requests[0].OutputMIMEType())
	assert.Contains(t, requests[0].UserContent, "Cell biology")
}

func TestGenerateFromTopic_Failures(t *testing.T) {
	tests := []struct {
		name        string
		invoker     *mocks.MockInvoker
		params      domain.TopicParams
		wantKind    generation.FailureKind
		wantInvoked bool
	}{
		{
			name:     "blank topic",
			invoker:  &mocks.MockInvoker{},
			params:   domain.TopicParams{Topic: " ", CardCount: 5, Difficulty: domain.DifficultyBeginner, QuestionLanguage: "English", AnswerLanguage: "English"},
			wantKind: generation.FailureInvalidParams,
		},
		{
			name:        "missing credential",
			invoker:     &mocks.MockInvoker{Envelope: generation.EmptyEnvelope(), Err: generation.ErrMissingCredential},
			params:      topicParams(5),
			wantKind:    generation.FailureMissingCredential,
			wantInvoked: true,
		},
		{
			name:        "no question lines",
			invoker:     &mocks.MockInvoker{Envelope: mustEnvelope("Sorry, I cannot help with that.")},
			params:      topicParams(5),
			wantKind:    generation.FailureEmptyResult,
			wantInvoked: true,
		},
		{
			name:        "malformed envelope",
			invoker:     &mocks.MockInvoker{Envelope: []byte("not an envelope")},
			params:      topicParams(5),
			wantKind:    generation.FailureMalformedEnvelope,
			wantInvoked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, reporter := newService(t, tt.invoker)

			cards := svc.GenerateFromTopic(context.Background(), tt.params)

			assert.NotNil(t, cards)
			assert.Empty(t, cards)
			assert.Equal(t, tt.wantInvoked, tt.invoker.Calls() > 0)
			failures := reporter.Failures()
			require.Len(t, failures, 1)
			assert.Equal(t, tt.wantKind, failures[0].Kind)
		})
	}
}
