package domain

import "strings"

// Caller-side policy. The generation core accepts any positive card count
// and any non-blank text; these bounds are enforced by the API and CLI.
const (
	MinCardCount        = 3
	MaxCardCount        = 20
	DefaultCardCount    = 5
	MinSourceTextLength = 50
)

// GenerationParams is everything a caller supplies for one generation call.
type GenerationParams struct {
	SourceText       string
	CardCount        int
	Difficulty       Difficulty
	QuestionLanguage string
	AnswerLanguage   string
}

// Validate checks the invariants the generation core relies on.
// Range checks on CardCount and minimum text length are left to callers.
func (p GenerationParams) Validate() error {
	if strings.TrimSpace(p.SourceText) == "" {
		return NewValidationError("source_text", "cannot be empty", ErrEmptyContent)
	}
	return validateShape(p.CardCount, p.Difficulty, p.QuestionLanguage, p.AnswerLanguage)
}

// TopicParams asks for cards about a named subject, drawn from the model's
// own knowledge instead of supplied text.
type TopicParams struct {
	Topic            string
	CardCount        int
	Difficulty       Difficulty
	QuestionLanguage string
	AnswerLanguage   string
}

// Validate checks the same invariants as GenerationParams, with the topic
// standing in for the source text.
func (p TopicParams) Validate() error {
	if strings.TrimSpace(p.Topic) == "" {
		return NewValidationError("topic", "cannot be empty", ErrEmptyContent)
	}
	return validateShape(p.CardCount, p.Difficulty, p.QuestionLanguage, p.AnswerLanguage)
}

func validateShape(cardCount int, difficulty Difficulty, questionLanguage, answerLanguage string) error {
	if cardCount <= 0 {
		return NewValidationError("card_count", "must be greater than zero", ErrInvalidCardCount)
	}

	if !difficulty.IsValid() {
		return NewValidationError("difficulty", "must be Beginner, Intermediate or Advanced", ErrInvalidDifficulty)
	}

	if strings.TrimSpace(questionLanguage) == "" {
		return NewValidationError("question_language", "cannot be empty", ErrEmptyLanguage)
	}

	if strings.TrimSpace(answerLanguage) == "" {
		return NewValidationError("answer_language", "cannot be empty", ErrEmptyLanguage)
	}

	return nil
}
