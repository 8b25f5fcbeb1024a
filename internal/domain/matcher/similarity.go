package matcher

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Similarity scores how alike two descriptions are, from 0 to 1.
// Comparison is case-insensitive. Containment of one in the other scores 1;
// otherwise the better of token overlap and edit-distance similarity wins.
func Similarity(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 1
	}

	longest := max(len([]rune(a)), len([]rune(b)))
	edit := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)

	return max(tokenOverlap(a, b), edit)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// tokenOverlap is the Jaccard index of the alphanumeric tokens of a and b.
func tokenOverlap(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for tok := range ta {
		if tb[tok] {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

func tokens(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[tok] = true
	}
	return out
}
