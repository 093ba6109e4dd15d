package grading

import (
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	minSignificantWordLen = 4
	fullCreditSimilarity  = 0.8
	halfCreditSimilarity  = 0.5
)

// GradeErrorSpotting scores a free-text explanation by how many significant
// words of the correct explanation it contains. Words of three letters or
// fewer are ignored. Each word of the key is looked up in the answer, so
// repeating a word in the answer earns nothing extra.
func GradeErrorSpotting(answer, correct string) int {
	want := significantWords(correct)
	if len(want) == 0 {
		return 0
	}

	got := significantWords(answer)
	matched := 0
	for _, word := range want {
		if slices.Contains(got, word) {
			matched++
		}
	}

	similarity := float64(matched) / float64(len(want))
	switch {
	case similarity >= fullCreditSimilarity:
		return 100
	case similarity >= halfCreditSimilarity:
		return 50
	default:
		return 0
	}
}

func significantWords(text string) []string {
	words := strings.Fields(Normalize(text))
	out := words[:0]
	for _, word := range words {
		if utf8.RuneCountInString(word) >= minSignificantWordLen {
			out = append(out, word)
		}
	}
	return out
}
