package interpret

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
)

// Interpreter turns collection slugs into search intents.
type Interpreter struct {
	kw *Keywords
}

// New creates an interpreter over the given tables; nil means the defaults.
func New(kw *Keywords) *Interpreter {
	if kw == nil {
		kw = DefaultKeywords()
	}
	return &Interpreter{kw: kw}
}

// Interpret classifies the slug and aggregates the tokens into an intent.
// The tokens are returned for diagnostics.
func (in *Interpreter) Interpret(slug string) (domain.SearchIntent, []Token) {
	tokens := in.kw.Tokenize(slug)
	return in.build(strings.ToLower(slug), tokens), tokens
}

// ExpandType returns the type expansion of a single type keyword such as
// "gifts", or false when the word is not a type keyword.
func (in *Interpreter) ExpandType(keyword string) (domain.TypeExpansion, bool) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	tk, ok := in.kw.Types[keyword]
	if !ok {
		return domain.TypeExpansion{}, false
	}
	return expandType(keyword, tk), true
}

func (in *Interpreter) build(slug string, tokens []Token) domain.SearchIntent {
	var intent domain.SearchIntent

	var (
		families  []*GenderFamily
		seenTypes = map[string]bool{}
		seenFree  = map[string]bool{}
	)
	for i, t := range tokens {
		switch t.Kind {
		case KindPrice:
			// Only the first number in a slug sets the bound.
			if intent.Price == nil {
				intent.Price = &domain.PriceBound{Op: priceDirection(slug, tokens, i), Value: t.Price}
			}
		case KindGender:
			if !slices.Contains(families, t.Gender) {
				families = append(families, t.Gender)
			}
		case KindType:
			if !seenTypes[t.Text] {
				seenTypes[t.Text] = true
				intent.Types = append(intent.Types, expandType(t.Text, t.Type))
			}
		case KindFree:
			if !seenFree[t.Text] {
				seenFree[t.Text] = true
				intent.FreeTerms = append(intent.FreeTerms, t.Text)
			}
		}
	}

	for _, fam := range families {
		intent.GenderTerms = appendUnique(intent.GenderTerms, fam.Terms...)
	}
	return intent
}

// priceDirection resolves the comparison for the price token at index i:
// the direction word right before it, else an under/below or over/above
// anywhere in the slug, else less-than.
func priceDirection(slug string, tokens []Token, i int) domain.PriceOp {
	if i > 0 && tokens[i-1].Kind == KindDirection {
		return tokens[i-1].Op
	}
	switch {
	case strings.Contains(slug, "under"), strings.Contains(slug, "below"):
		return domain.PriceLessThan
	case strings.Contains(slug, "over"), strings.Contains(slug, "above"):
		return domain.PriceGreaterThan
	default:
		return domain.PriceLessThan
	}
}

func expandType(keyword string, tk TypeKeyword) domain.TypeExpansion {
	label := strings.ToLower(tk.Label)

	variants := []string{label}
	variants = appendUnique(variants, pluralize(label), keyword)
	if !strings.HasSuffix(keyword, "s") {
		variants = appendUnique(variants, keyword+"s")
	}

	var terms []string
	for _, term := range append([]string{keyword}, tk.Synonyms...) {
		if utf8.RuneCountInString(term) >= minFreeTextLen {
			terms = appendUnique(terms, term)
		}
	}

	return domain.TypeExpansion{
		Keyword:  keyword,
		Label:    tk.Label,
		Variants: variants,
		Terms:    terms,
	}
}

func pluralize(label string) string {
	switch {
	case strings.HasSuffix(label, "box"):
		return label + "es"
	case strings.HasSuffix(label, "y"):
		return strings.TrimSuffix(label, "y") + "ies"
	case strings.HasSuffix(label, "s"):
		return label
	default:
		return label + "s"
	}
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
