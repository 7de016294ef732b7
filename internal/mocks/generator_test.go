package mocks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/phrazzld/flashforge/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGenerator(t *testing.T) {
	t.Parallel()

	params := domain.GenerationParams{
		SourceText:       "Test source content",
		CardCount:        2,
		Difficulty:       domain.DifficultyBeginner,
		QuestionLanguage: "English",
		AnswerLanguage:   "English",
	}

	t.Run("Default success case", func(t *testing.T) {
		t.Parallel()

		mockGen := mocks.NewMockGeneratorWithDefaultCards()
		cards := mockGen.GenerateFlashcards(context.Background(), params)

		assert.Len(t, cards, 2, "Should return 2 cards")
		assert.Equal(t, 1, mockGen.CallCount(), "GenerateFlashcards should be called once")

		last, ok := mockGen.LastParams()
		require.True(t, ok)
		assert.Equal(t, params, last, "Should record params")
	})

	t.Run("Failure is reported to the context reporter", func(t *testing.T) {
		t.Parallel()

		mockGen := mocks.NewMockGeneratorWithFailure(generation.FailureExhaustedRetries, errors.New("boom"))
		reporter := &mocks.MockReporter{}
		ctx := generation.ContextWithReporter(context.Background(), reporter)

		cards := mockGen.GenerateFlashcards(ctx, params)

		assert.NotNil(t, cards)
		assert.Empty(t, cards)
		require.Len(t, reporter.Failures(), 1)
		assert.Equal(t, generation.FailureExhaustedRetries, reporter.Failures()[0].Kind)
	})

	t.Run("Reset clears call tracking", func(t *testing.T) {
		t.Parallel()

		mockGen := mocks.NewMockGeneratorWithCards(nil)
		mockGen.GenerateFlashcards(context.Background(), params)
		mockGen.Reset()

		assert.Equal(t, 0, mockGen.CallCount())
		_, ok := mockGen.LastParams()
		assert.False(t, ok)
	})
}

func TestMockTransport(t *testing.T) {
	t.Parallel()

	failure := errors.New("first call fails")
	transport := mocks.NewMockTransport(
		mocks.TransportResult{Err: failure},
		mocks.TransportResult{Envelope: []byte(`{"candidates":[]}`)},
	)

	_, err := transport.Send(context.Background(), &generation.Request{})
	assert.ErrorIs(t, err, failure)

	envelope, err := transport.Send(context.Background(), &generation.Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"candidates":[]}`, string(envelope))

	// The last result repeats once the script is exhausted.
	envelope, err = transport.Send(context.Background(), &generation.Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"candidates":[]}`, string(envelope))

	assert.Equal(t, 3, transport.Calls())
	assert.Len(t, transport.Requests(), 3)
}
