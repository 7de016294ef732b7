// Package export renders generated flashcards as Markdown documents.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/flashforge/internal/domain"
)

// DownloadFileName is the attachment name used by the HTTP export endpoint.
const DownloadFileName = "flashcards_multilingual.md"

// MIMEType is the content type of exported documents.
const MIMEType = "text/markdown; charset=utf-8"

const timestampLayout = "2006-01-02 15:04"

// Markdown renders one section per card, numbered from 1, with each side
// annotated with its language.
func Markdown(cards []domain.Flashcard, questionLanguage, answerLanguage string) string {
	var b strings.Builder
	for i, card := range cards {
		fmt.Fprintf(&b, "### Card %d\n", i+1)
		fmt.Fprintf(&b, "**Q (%s):** %s\n", questionLanguage, card.Question)
		fmt.Fprintf(&b, "**A (%s):** %s\n\n", answerLanguage, card.Answer)
	}
	return b.String()
}

// Listing renders cards as numbered Q/A pairs separated by blank lines,
// the format the CLI prints and saves.
func Listing(cards []domain.Flashcard) string {
	blocks := make([]string, len(cards))
	for i, card := range cards {
		blocks[i] = fmt.Sprintf("Q%d: %s\nA%d: %s\n", i+1, card.Question, i+1, card.Answer)
	}
	return strings.Join(blocks, "\n")
}

// Document prefixes body with a topic heading and generation timestamp.
func Document(topic string, generatedAt time.Time, body string) string {
	return fmt.Sprintf("# %s - Flashcards\nGenerated on %s\n\n%s",
		topic, generatedAt.Format(timestampLayout), body)
}

var fileNameReplacer = strings.NewReplacer(" ", "_", ",", "", "/", "_")

// FileName derives a filesystem-safe export name from topic.
func FileName(topic string) string {
	safe := fileNameReplacer.Replace(strings.ToLower(strings.TrimSpace(topic)))
	if safe == "" {
		safe = "untitled"
	}
	return safe + "_flashcards.md"
}
