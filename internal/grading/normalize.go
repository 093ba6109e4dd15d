package grading

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes free text for comparison: lower case, combining
// marks removed after NFD decomposition, whitespace trimmed and collapsed.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// transform chains carry buffers, so each call builds its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(stripMarks, strings.ToLower(text))
	if err != nil {
		stripped = strings.ToLower(text)
	}

	return strings.Join(strings.Fields(stripped), " ")
}
