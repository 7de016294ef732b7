package api

import (
	"github.com/phrazzld/flashforge/internal/domain"
)

// GenerateFlashcardsRequest is the body of POST /api/flashcards.
type GenerateFlashcardsRequest struct {
	Text             string `json:"text"              validate:"required,mintrimmed=50"`
	CardCount        *int   `json:"card_count"        validate:"omitempty,gte=3,lte=20"`
	Difficulty       string `json:"difficulty"        validate:"required,difficulty"`
	QuestionLanguage string `json:"question_language" validate:"required,language"`
	AnswerLanguage   string `json:"answer_language"   validate:"required,language"`
}

// Params converts a validated request into generation parameters, applying
// the default card count and canonical spellings.
func (r GenerateFlashcardsRequest) Params() domain.GenerationParams {
	count := domain.DefaultCardCount
	if r.CardCount != nil {
		count = *r.CardCount
	}

	// Validation guarantees these succeed.
	difficulty, _ := domain.ParseDifficulty(r.Difficulty)
	questionLang, _ := domain.NormalizeLanguage(r.QuestionLanguage)
	answerLang, _ := domain.NormalizeLanguage(r.AnswerLanguage)

	return domain.GenerationParams{
		SourceText:       r.Text,
		CardCount:        count,
		Difficulty:       difficulty,
		QuestionLanguage: questionLang,
		AnswerLanguage:   answerLang,
	}
}

// FlashcardResponse is one card in an API response.
type FlashcardResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GenerateFlashcardsResponse is returned on successful generation.
type GenerateFlashcardsResponse struct {
	Cards            []FlashcardResponse `json:"cards"`
	Count            int                 `json:"count"`
	QuestionLanguage string              `json:"question_language"`
	AnswerLanguage   string              `json:"answer_language"`
}

// ExportFlashcardsRequest is the body of POST /api/flashcards/export.
type ExportFlashcardsRequest struct {
	Cards            []FlashcardResponse `json:"cards"             validate:"required,min=1,dive"`
	QuestionLanguage string              `json:"question_language" validate:"required,language"`
	AnswerLanguage   string              `json:"answer_language"   validate:"required,language"`
}

// LanguagesResponse lists the options accepted by the generate endpoint.
type LanguagesResponse struct {
	Languages         []string `json:"languages"`
	Difficulties      []string `json:"difficulties"`
	DefaultCardCount  int      `json:"default_card_count"`
	MinCardCount      int      `json:"min_card_count"`
	MaxCardCount      int      `json:"max_card_count"`
	MinSourceTextSize int      `json:"min_text_length"`
}

func cardsToResponse(cards []domain.Flashcard) []FlashcardResponse {
	out := make([]FlashcardResponse, len(cards))
	for i, c := range cards {
		out[i] = FlashcardResponse{Question: c.Question, Answer: c.Answer}
	}
	return out
}

func cardsFromRequest(cards []FlashcardResponse) []domain.Flashcard {
	out := make([]domain.Flashcard, len(cards))
	for i, c := range cards {
		out[i] = domain.NewFlashcard(c.Question, c.Answer)
	}
	return out
}
