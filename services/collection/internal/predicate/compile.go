package predicate

import (
	"strings"
	"unicode/utf8"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
)

// SimilarityThreshold is the minimum trigram similarity for a fuzzy match.
const SimilarityThreshold = 0.2

const (
	// fuzzyMinLen is the shortest term that gets substring and similarity
	// checks. Shorter terms only take part in the full-text match.
	fuzzyMinLen = 4
	// shortQueryLen is the longest free-text query matched by substring only.
	shortQueryLen = 2
)

var textFields = []Field{FieldName, FieldDescription, FieldBrand}

// Compile builds the full predicate for a slug request: the intent's
// relevance and price conditions, narrowed by the explicit filters.
func Compile(intent *domain.SearchIntent, f *domain.Filters) Expr {
	return AllOf(Intent(intent), Filters(f))
}

// Intent composes an intent's relevance and price conditions. Relevance
// AND price when both exist, either alone otherwise, and MatchNothing
// when the slug carried no signal.
func Intent(intent *domain.SearchIntent) Expr {
	relevance := Relevance(intent)
	price := Price(intent.Price)

	switch {
	case !IsMatchNothing(relevance):
		return AllOf(relevance, price)
	case intent.Price != nil:
		return price
	default:
		return MatchNothing
	}
}

// Relevance is the OR of every topical signal in the intent.
func Relevance(intent *domain.SearchIntent) Expr {
	var ors []Expr

	for _, t := range intent.Types {
		ors = append(ors, TypeIn{Labels: t.Variants})
		for _, term := range t.Terms {
			ors = append(ors, containsAny(term, textFields...)...)
		}
	}

	for _, term := range intent.GenderTerms {
		ors = append(ors, containsAny(term, FieldName, FieldDescription)...)
	}

	for _, term := range intent.FreeTerms {
		ors = append(ors, TextMatch{Query: term})
		if utf8.RuneCountInString(term) >= fuzzyMinLen {
			ors = append(ors, containsAny(term, FieldName, FieldDescription, FieldBrand, FieldTypes)...)
			ors = append(ors, similarAny(term, textFields...)...)
		}
	}

	return AnyOf(ors...)
}

// Price converts a slug price bound; nil means no condition.
func Price(b *domain.PriceBound) Expr {
	if b == nil {
		return MatchAll
	}
	op := OpLess
	if b.Op == domain.PriceGreaterThan {
		op = OpGreater
	}
	return PriceCompare{Op: op, Value: b.Value}
}

// FreeText builds the relevance predicate for a typed search query. Very
// short queries match by substring only; longer ones also use full-text
// and similarity, plus a per-word pass for the longer words.
func FreeText(q string) Expr {
	q = strings.ToLower(strings.TrimSpace(q))
	n := utf8.RuneCountInString(q)
	if n == 0 {
		return MatchNothing
	}

	ors := containsAny(q, FieldName, FieldDescription, FieldBrand, FieldTypes)
	if n <= shortQueryLen {
		return AnyOf(ors...)
	}

	ors = append(ors, TextMatch{Query: q})
	ors = append(ors, similarAny(q, textFields...)...)

	words := strings.Fields(q)
	if len(words) > 1 {
		for _, w := range words {
			if utf8.RuneCountInString(w) < fuzzyMinLen {
				continue
			}
			ors = append(ors, containsAny(w, textFields...)...)
			ors = append(ors, similarAny(w, textFields...)...)
		}
	}
	return AnyOf(ors...)
}

// Filters conjoins the explicit filters; MatchAll when none are set.
func Filters(f *domain.Filters) Expr {
	if f == nil {
		return MatchAll
	}
	var all []Expr
	if f.Available != nil {
		all = append(all, Available{Want: *f.Available})
	}
	if f.MinPrice != nil {
		all = append(all, PriceCompare{Op: OpGreaterOrEqual, Value: *f.MinPrice})
	}
	if f.MaxPrice != nil {
		all = append(all, PriceCompare{Op: OpLessOrEqual, Value: *f.MaxPrice})
	}
	if labels := lowerAll(f.ProductTypes); len(labels) > 0 {
		all = append(all, TypeIn{Labels: labels})
	}
	if names := lowerAll(f.Brands); len(names) > 0 {
		all = append(all, BrandIn{Names: names})
	}
	return AllOf(all...)
}

func containsAny(term string, fields ...Field) []Expr {
	out := make([]Expr, len(fields))
	for i, f := range fields {
		out[i] = Contains{Field: f, Term: term}
	}
	return out
}

func similarAny(term string, fields ...Field) []Expr {
	out := make([]Expr, len(fields))
	for i, f := range fields {
		out[i] = Similar{Field: f, Term: term, Threshold: SimilarityThreshold}
	}
	return out
}

func lowerAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
