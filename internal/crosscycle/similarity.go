package crosscycle

import (
	"strings"
	"unicode"
)

// Normalize lowercases s, drops everything but letters, digits and
// whitespace, and collapses whitespace runs to one space.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity is the token-set Jaccard index of the normalized names.
// Identical non-empty names score exactly 1; an empty name scores 0.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	words1 := make(map[string]bool)
	words2 := make(map[string]bool)
	for _, w := range strings.Fields(na) {
		words1[w] = true
	}
	for _, w := range strings.Fields(nb) {
		words2[w] = true
	}

	intersection := 0
	for w := range words1 {
		if words2[w] {
			intersection++
		}
	}
	union := len(words1) + len(words2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
