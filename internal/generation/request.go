package generation

import (
	"fmt"
	"strings"

	"github.com/phrazzld/flashforge/internal/domain"
)

// Schema type names understood by the model service.
const (
	SchemaTypeArray  = "ARRAY"
	SchemaTypeObject = "OBJECT"
	SchemaTypeString = "STRING"
)

// Record field names, in the order the model must emit them.
const (
	FieldQuestion = "question"
	FieldAnswer   = "answer"
)

// Output types requested from the service.
const (
	ResponseMIMEType = "application/json"
	TextMIMEType     = "text/plain"
)

const (
	userContentPrefix  = "Generate flashcards based on the following text: \n\n---\n\n"
	topicContentPrefix = "Create flashcards about: "
)

// Schema describes the structured output the model is asked to produce.
// Its JSON form matches the service's responseSchema object.
type Schema struct {
	Type             string             `json:"type"`
	Items            *Schema            `json:"items,omitempty"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	Required         []string           `json:"required,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
}

// Request is a fully assembled generation request. It is built once per call
// and never mutated afterwards.
type Request struct {
	// SystemInstruction carries every constraint on the output.
	SystemInstruction string

	// UserContent carries the source material.
	UserContent string

	// Schema is the structured output hint. Responses are validated
	// regardless of whether the service honours it. Nil for listing output.
	Schema *Schema

	// MIMEType is the requested output type; empty means ResponseMIMEType.
	MIMEType string

	// Params are the structured inputs the request was built from. Topic
	// requests leave SourceText empty.
	Params domain.GenerationParams
}

// OutputMIMEType returns the output type to request from the service.
func (r *Request) OutputMIMEType() string {
	if r.MIMEType == "" {
		return ResponseMIMEType
	}
	return r.MIMEType
}

// FlashcardSchema returns the array-of-{question, answer} output schema.
func FlashcardSchema() *Schema {
	return &Schema{
		Type: SchemaTypeArray,
		Items: &Schema{
			Type: SchemaTypeObject,
			Properties: map[string]*Schema{
				FieldQuestion: {Type: SchemaTypeString},
				FieldAnswer:   {Type: SchemaTypeString},
			},
			Required:         []string{FieldQuestion, FieldAnswer},
			PropertyOrdering: []string{FieldQuestion, FieldAnswer},
		},
	}
}

// BuildRequest assembles the generation request for params. It performs no
// validation and has no side effects.
func BuildRequest(params domain.GenerationParams) *Request {
	return &Request{
		SystemInstruction: buildSystemInstruction(params),
		UserContent:       userContentPrefix + params.SourceText,
		Schema:            FlashcardSchema(),
		MIMEType:          ResponseMIMEType,
		Params:            params,
	}
}

// BuildTopicRequest assembles a request for cards about params.Topic. The
// model answers with a plain-text Q1/A1 listing, read back by ParseListing.
func BuildTopicRequest(params domain.TopicParams) *Request {
	return &Request{
		SystemInstruction: buildTopicInstruction(params),
		UserContent:       topicContentPrefix + strings.TrimSpace(params.Topic),
		MIMEType:          TextMIMEType,
		Params: domain.GenerationParams{
			CardCount:        params.CardCount,
			Difficulty:       params.Difficulty,
			QuestionLanguage: params.QuestionLanguage,
			AnswerLanguage:   params.AnswerLanguage,
		},
	}
}

func buildSystemInstruction(p domain.GenerationParams) string {
	var b strings.Builder

	b.WriteString("You are an expert educational flashcard generator.\n")
	fmt.Fprintf(&b, "Your task is to create exactly %d unique flashcards based on the provided text.\n\n", p.CardCount)

	fmt.Fprintf(&b, "The questions for the flashcards **MUST** be written in **%s**.\n", p.QuestionLanguage)
	fmt.Fprintf(&b, "The answers for the flashcards **MUST** be written in **%s**.\n", p.AnswerLanguage)
	fmt.Fprintf(&b, "The content difficulty must be %s.\n\n", p.Difficulty)

	b.WriteString("The output MUST be a single, unadorned JSON array.\n")
	fmt.Fprintf(&b, "The array must contain objects, and each object must have exactly two keys, in this order: '%s' and '%s'.\n",
		FieldQuestion, FieldAnswer)
	fmt.Fprintf(&b, "Both '%s' and '%s' must be strings.\n", FieldQuestion, FieldAnswer)
	b.WriteString("DO NOT include any explanation, introduction or closing text before or after the array.\n")
	b.WriteString("DO NOT wrap the array in markdown code fences (like ```json).\n")

	return b.String()
}

func buildTopicInstruction(p domain.TopicParams) string {
	var b strings.Builder

	b.WriteString("You are an excellent teacher creating flashcards.\n")
	fmt.Fprintf(&b, "Create exactly %d high-quality flashcards about the topic the user names.\n", p.CardCount)
	fmt.Fprintf(&b, "The content difficulty must be %s.\n\n", p.Difficulty)

	fmt.Fprintf(&b, "The questions **MUST** be written in **%s**.\n", p.QuestionLanguage)
	fmt.Fprintf(&b, "The answers **MUST** be written in **%s**.\n\n", p.AnswerLanguage)

	b.WriteString("Use ONLY this format, one line per question and one line per answer:\n")
	b.WriteString("Q1: <question>\nA1: <answer>\nQ2: <question>\nA2: <answer>\n\n")
	fmt.Fprintf(&b, "Output exactly %d pairs and start directly with Q1.\n", p.CardCount)
	b.WriteString("DO NOT write any introduction, closing text or markdown.\n")
	b.WriteString("DO NOT use code blocks.\n")

	return b.String()
}
