package memory

import (
	"strings"
	"unicode"
)

// trigramSet is the set of padded three-rune grams of a string, built the
// way PostgreSQL's pg_trgm does: each alphanumeric word is lowercased and
// padded with two spaces in front and one behind.
type trigramSet map[string]struct{}

func trigrams(s string) trigramSet {
	set := make(trigramSet)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), notAlnum) {
		r := []rune("  " + w + " ")
		for i := 0; i+3 <= len(r); i++ {
			set[string(r[i:i+3])] = struct{}{}
		}
	}
	return set
}

// similarity is the number of shared trigrams over the size of the union.
func similarity(a, b trigramSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	shared := 0
	for g := range a {
		if _, ok := b[g]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}

func notAlnum(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}
