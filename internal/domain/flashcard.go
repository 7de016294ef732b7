package domain

// Flashcard is a single question/answer pair. Position in the generated
// sequence is its only identity; duplicates are allowed.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// NewFlashcard returns a Flashcard. Empty strings are valid (if degenerate)
// card sides, so no validation is performed.
func NewFlashcard(question, answer string) Flashcard {
	return Flashcard{Question: question, Answer: answer}
}
