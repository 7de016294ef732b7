package generation

import (
	"encoding/json"
	"fmt"

	"github.com/phrazzld/flashforge/internal/domain"
)

// Envelope is the wire shape of a model response: candidates, each holding
// content parts whose text is itself a JSON-encoded card array.
type Envelope struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one model output.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// Content holds the parts of a candidate or request turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a single text fragment.
type Part struct {
	Text string `json:"text"`
}

// EncodeTextEnvelope wraps text as the first part of the first candidate.
func EncodeTextEnvelope(text string) ([]byte, error) {
	env := Envelope{Candidates: []Candidate{{Content: &Content{Parts: []Part{{Text: text}}}}}}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return data, nil
}

// EncodeCards double-encodes cards the way the model service returns them:
// the card array is serialized to a string that becomes the part text.
func EncodeCards(cards []domain.Flashcard) ([]byte, error) {
	if cards == nil {
		cards = []domain.Flashcard{}
	}
	payload, err := json.Marshal(cards)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cards: %w", err)
	}
	return EncodeTextEnvelope(string(payload))
}
