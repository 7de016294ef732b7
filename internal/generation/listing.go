package generation

import (
	"regexp"
	"strings"

	"github.com/phrazzld/flashforge/internal/domain"
)

var (
	questionLine = regexp.MustCompile(`^Q\d*\s*[:.)]\s*(.*)$`)
	answerLine   = regexp.MustCompile(`^A\d*\s*[:.)]\s*(.*)$`)
)

// ParseListing unwraps the envelope and reads a plain-text listing of
// "Q1: ..." / "A1: ..." line pairs, keeping at most maxCards cards. A
// non-positive maxCards keeps every pair.
//
// A question line not followed by an answer line counts as dropped. Text
// with no question lines at all is Unparseable. As with Parser.Parse, the
// only error is ErrMalformedEnvelope.
func ParseListing(raw []byte, maxCards int) (ParseResult, error) {
	text, err := extractPayload(raw)
	if err != nil {
		return ParseResult{}, err
	}

	lines := listingLines(stripCodeFence(text))
	result := ParseResult{Cards: []domain.Flashcard{}}
	questions := 0

	for i := 0; i < len(lines); i++ {
		if maxCards > 0 && len(result.Cards) == maxCards {
			break
		}

		q := questionLine.FindStringSubmatch(lines[i])
		if q == nil {
			continue
		}
		questions++

		if i+1 >= len(lines) {
			result.Dropped++
			break
		}
		a := answerLine.FindStringSubmatch(lines[i+1])
		if a == nil {
			result.Dropped++
			continue
		}

		result.Cards = append(result.Cards, domain.NewFlashcard(strings.TrimSpace(q[1]), strings.TrimSpace(a[1])))
		i++
	}

	result.Unparseable = questions == 0
	return result, nil
}

// listingLines returns the non-blank lines of text with markdown emphasis
// removed, so "**Q1:** ..." reads like "Q1: ...".
func listingLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
