package generation

import (
	"context"

	"github.com/phrazzld/flashforge/internal/domain"
)

// Generator is the public boundary of flashcard generation, consumed by the
// HTTP API and the CLI.
type Generator interface {
	// GenerateFlashcards always returns a sequence, possibly empty. Failures
	// are reported through the Reporter, never returned.
	GenerateFlashcards(ctx context.Context, params domain.GenerationParams) []domain.Flashcard
}

// TopicGenerator produces cards about a named subject, with the same
// never-fails contract as Generator.
type TopicGenerator interface {
	GenerateFromTopic(ctx context.Context, params domain.TopicParams) []domain.Flashcard
}

// Invoker sends a generation request to the remote model and returns the raw
// response envelope.
//
// When no credential is configured an Invoker returns EmptyEnvelope together
// with ErrMissingCredential; the envelope is still usable. Any other error
// means no envelope was obtained.
type Invoker interface {
	Invoke(ctx context.Context, req *Request) ([]byte, error)
}

const emptyEnvelope = `{"candidates":[{"content":{"parts":[{"text":"[]"}]}}]}`

// EmptyEnvelope returns a fresh well-formed response envelope whose payload
// is an empty array.
func EmptyEnvelope() []byte {
	return []byte(emptyEnvelope)
}
