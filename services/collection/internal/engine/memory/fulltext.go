package memory

import (
	"strings"

	snowballeng "github.com/kljensen/snowball/english"
)

// englishStopwords are dropped from documents and queries before stemming.
var englishStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "if": {}, "in": {}, "into": {}, "is": {},
	"it": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {}, "such": {},
	"that": {}, "the": {}, "their": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "will": {}, "with": {},
}

// lexemes splits text into lowercase words, drops stopwords and reduces the
// rest to their English stems.
func lexemes(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), notAlnum)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := englishStopwords[w]; stop {
			continue
		}
		out = append(out, snowballeng.Stem(w, false))
	}
	return out
}

func lexemeSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, l := range lexemes(text) {
		set[l] = struct{}{}
	}
	return set
}

// matchLexemes reports whether every query lexeme occurs in the document. A
// query made only of stopwords matches nothing.
func matchLexemes(doc map[string]struct{}, query []string) bool {
	if len(query) == 0 {
		return false
	}
	for _, l := range query {
		if _, ok := doc[l]; !ok {
			return false
		}
	}
	return true
}
