package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/flashforge/internal/domain"
)

// emptyPayload is what a missing extraction path is treated as.
const emptyPayload = "[]"

// ParseResult is the outcome of parsing one response envelope.
type ParseResult struct {
	// Cards are the well-formed records in emission order.
	Cards []domain.Flashcard

	// Dropped counts array elements rejected as malformed.
	Dropped int

	// Unparseable is set when the payload text was not a JSON array.
	Unparseable bool
}

// Parser extracts flashcards from a response envelope.
//
// The zero value drops malformed records and keeps the rest. With Strict
// set, a single malformed record discards the whole response.
type Parser struct {
	Strict bool
}

// Parse unwraps the envelope and validates each record.
//
// The only error returned is ErrMalformedEnvelope, when raw is non-blank and
// not a JSON object. Every other defect degrades to fewer or zero cards.
func (p Parser) Parse(raw []byte) (ParseResult, error) {
	text, err := extractPayload(raw)
	if err != nil {
		return ParseResult{}, err
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &elements); err != nil {
		return ParseResult{Cards: []domain.Flashcard{}, Unparseable: true}, nil
	}

	result := ParseResult{Cards: make([]domain.Flashcard, 0, len(elements))}
	for _, element := range elements {
		card, err := parseRecord(element)
		if err != nil {
			result.Dropped++
			continue
		}
		result.Cards = append(result.Cards, card)
	}

	if p.Strict && result.Dropped > 0 {
		result.Cards = []domain.Flashcard{}
		result.Dropped = len(elements)
	}

	return result, nil
}

// Parse runs the default tolerant Parser and returns only the cards.
func Parse(raw []byte) ([]domain.Flashcard, error) {
	result, err := Parser{}.Parse(raw)
	if err != nil {
		return nil, err
	}
	return result.Cards, nil
}

// extractPayload walks candidates[0].content.parts[0].text. Any missing or
// mistyped step yields the empty payload.
func extractPayload(raw []byte) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return emptyPayload, nil
	}

	var envelope map[string]any
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if envelope == nil {
		return "", fmt.Errorf("%w: envelope is null", ErrMalformedEnvelope)
	}

	candidate, ok := firstObject(envelope["candidates"])
	if !ok {
		return emptyPayload, nil
	}

	content, ok := candidate["content"].(map[string]any)
	if !ok {
		return emptyPayload, nil
	}

	part, ok := firstObject(content["parts"])
	if !ok {
		return emptyPayload, nil
	}

	text, ok := part["text"].(string)
	if !ok {
		return emptyPayload, nil
	}

	return text, nil
}

func firstObject(v any) (map[string]any, bool) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	obj, ok := list[0].(map[string]any)
	return obj, ok
}

// stripCodeFence removes a surrounding ```json ... ``` wrapper some models
// emit despite instructions.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func parseRecord(element json.RawMessage) (domain.Flashcard, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(element, &fields); err != nil || fields == nil {
		return domain.Flashcard{}, fmt.Errorf("%w: element is not an object", ErrMalformedRecord)
	}

	question, err := stringField(fields, FieldQuestion)
	if err != nil {
		return domain.Flashcard{}, err
	}

	answer, err := stringField(fields, FieldAnswer)
	if err != nil {
		return domain.Flashcard{}, err
	}

	return domain.NewFlashcard(question, answer), nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrMalformedRecord, name)
	}

	// null would unmarshal into a string without error.
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", fmt.Errorf("%w: %q is not a string", ErrMalformedRecord, name)
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrMalformedRecord, name, err)
	}
	return value, nil
}
