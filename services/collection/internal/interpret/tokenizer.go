package interpret

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
)

// Kind classifies a slug token.
type Kind int

const (
	KindFree Kind = iota
	KindPrice
	KindDirection
	KindGender
	KindType
	KindStopword
	// KindNoise is free text too short to search for.
	KindNoise
)

var kindNames = [...]string{"free", "price", "direction", "gender", "type", "stopword", "noise"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Token is one classified slug segment.
type Token struct {
	Text string
	Kind Kind

	Price  decimal.Decimal // KindPrice
	Op     domain.PriceOp  // KindDirection
	Gender *GenderFamily   // KindGender
	Type   TypeKeyword     // KindType
}

// minFreeTextLen is the shortest free-text token kept as a search term.
const minFreeTextLen = 3

var priceToken = regexp.MustCompile(`^[$€£]?[0-9.,]*[0-9][0-9.,]*$`)

// Tokenize splits a slug on hyphens and classifies each segment.
func (kw *Keywords) Tokenize(slug string) []Token {
	parts := kw.mergeCompounds(strings.Split(strings.ToLower(slug), "-"))

	tokens := make([]Token, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		tokens = append(tokens, kw.classify(part))
	}
	return tokens
}

func (kw *Keywords) mergeCompounds(parts []string) []string {
	out := parts[:0:0]
	for i := 0; i < len(parts); i++ {
		if merged, ok := kw.Compounds[parts[i]]; ok && i+1 < len(parts) && parts[i+1] == "than" {
			out = append(out, merged)
			i++
			continue
		}
		out = append(out, parts[i])
	}
	return out
}

func (kw *Keywords) classify(part string) Token {
	t := Token{Text: part}

	if priceToken.MatchString(part) {
		raw := strings.TrimLeft(part, "$€£")
		raw = strings.ReplaceAll(raw, ",", "")
		if v, err := decimal.NewFromString(raw); err == nil {
			t.Kind = KindPrice
			t.Price = v
			return t
		}
	}
	if op, ok := kw.Directions[part]; ok {
		t.Kind = KindDirection
		t.Op = op
		return t
	}
	if fam, ok := kw.Genders[part]; ok {
		t.Kind = KindGender
		t.Gender = fam
		return t
	}
	if tk, ok := kw.Types[part]; ok {
		t.Kind = KindType
		t.Type = tk
		return t
	}
	if _, ok := kw.Stopwords[part]; ok {
		t.Kind = KindStopword
		return t
	}
	if utf8.RuneCountInString(part) < minFreeTextLen {
		t.Kind = KindNoise
		return t
	}
	t.Kind = KindFree
	return t
}
