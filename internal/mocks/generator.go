package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/generation"
)

// MockGenerator implements generation.Generator for testing
type MockGenerator struct {
	// GenerateFlashcardsFn allows test cases to mock the GenerateFlashcards behavior
	GenerateFlashcardsFn func(ctx context.Context, params domain.GenerationParams) []domain.Flashcard

	// GenerateFromTopicFn allows test cases to mock the GenerateFromTopic behavior
	GenerateFromTopicFn func(ctx context.Context, params domain.TopicParams) []domain.Flashcard

	// Default response values
	Cards []domain.Flashcard

	// Failure, when set, is reported to the context reporter and no cards are returned
	Failure *generation.Failure

	// Call tracking for verification
	GenerateFlashcardsCalls struct {
		// mu protects the call tracking state for concurrent test cases
		mu sync.Mutex

		// Count tracks how many times GenerateFlashcards was called
		Count int

		// Params contains all params passed to GenerateFlashcards calls
		Params []domain.GenerationParams
	}

	// GenerateFromTopicCalls tracks GenerateFromTopic calls
	GenerateFromTopicCalls struct {
		mu     sync.Mutex
		Params []domain.TopicParams
	}
}

var (
	_ generation.Generator      = (*MockGenerator)(nil)
	_ generation.TopicGenerator = (*MockGenerator)(nil)
)

// GenerateFlashcards implements the generation.Generator interface
func (m *MockGenerator) GenerateFlashcards(
	ctx context.Context,
	params domain.GenerationParams,
) []domain.Flashcard {
	m.GenerateFlashcardsCalls.mu.Lock()
	m.GenerateFlashcardsCalls.Count++
	m.GenerateFlashcardsCalls.Params = append(m.GenerateFlashcardsCalls.Params, params)
	m.GenerateFlashcardsCalls.mu.Unlock()

	if m.GenerateFlashcardsFn != nil {
		return m.GenerateFlashcardsFn(ctx, params)
	}

	return m.respond(ctx)
}

// GenerateFromTopic implements the generation.TopicGenerator interface
func (m *MockGenerator) GenerateFromTopic(
	ctx context.Context,
	params domain.TopicParams,
) []domain.Flashcard {
	m.GenerateFromTopicCalls.mu.Lock()
	m.GenerateFromTopicCalls.Params = append(m.GenerateFromTopicCalls.Params, params)
	m.GenerateFromTopicCalls.mu.Unlock()

	if m.GenerateFromTopicFn != nil {
		return m.GenerateFromTopicFn(ctx, params)
	}

	return m.respond(ctx)
}

// TopicCalls returns the params of every GenerateFromTopic call
func (m *MockGenerator) TopicCalls() []domain.TopicParams {
	m.GenerateFromTopicCalls.mu.Lock()
	defer m.GenerateFromTopicCalls.mu.Unlock()
	return append([]domain.TopicParams(nil), m.GenerateFromTopicCalls.Params...)
}

func (m *MockGenerator) respond(ctx context.Context) []domain.Flashcard {
	if m.Failure != nil {
		reporter := generation.ReporterFromContext(ctx, generation.NewLogReporter(nil))
		reporter.ReportFailure(ctx, *m.Failure)
		return []domain.Flashcard{}
	}

	return m.Cards
}

// CallCount returns how many times GenerateFlashcards was called
func (m *MockGenerator) CallCount() int {
	m.GenerateFlashcardsCalls.mu.Lock()
	defer m.GenerateFlashcardsCalls.mu.Unlock()
	return m.GenerateFlashcardsCalls.Count
}

// LastParams returns the params of the most recent call
func (m *MockGenerator) LastParams() (domain.GenerationParams, bool) {
	m.GenerateFlashcardsCalls.mu.Lock()
	defer m.GenerateFlashcardsCalls.mu.Unlock()
	n := len(m.GenerateFlashcardsCalls.Params)
	if n == 0 {
		return domain.GenerationParams{}, false
	}
	return m.GenerateFlashcardsCalls.Params[n-1], true
}

// NewMockGeneratorWithCards creates a MockGenerator that returns the specified cards
func NewMockGeneratorWithCards(cards []domain.Flashcard) *MockGenerator {
	return &MockGenerator{
		Cards: cards,
	}
}

// NewMockGeneratorWithDefaultCards creates a MockGenerator with sample cards
func NewMockGeneratorWithDefaultCards() *MockGenerator {
	return &MockGenerator{
		Cards: []domain.Flashcard{
			domain.NewFlashcard("What is hexagonal architecture?",
				"An architectural pattern that isolates the domain from external concerns."),
			domain.NewFlashcard("What is Dependency Inversion?",
				"A principle where high-level modules don't depend on low-level modules; both depend on abstractions."),
		},
	}
}

// NewMockGeneratorWithFailure creates a MockGenerator that reports the given failure kind
func NewMockGeneratorWithFailure(kind generation.FailureKind, err error) *MockGenerator {
	return &MockGenerator{
		Failure: &generation.Failure{Kind: kind, Err: err},
	}
}

// Reset resets the call tracking state
func (m *MockGenerator) Reset() {
	m.GenerateFlashcardsCalls.mu.Lock()
	defer m.GenerateFlashcardsCalls.mu.Unlock()

	m.GenerateFlashcardsCalls.Count = 0
	m.GenerateFlashcardsCalls.Params = nil

	m.GenerateFromTopicCalls.mu.Lock()
	defer m.GenerateFromTopicCalls.mu.Unlock()
	m.GenerateFromTopicCalls.Params = nil
}
