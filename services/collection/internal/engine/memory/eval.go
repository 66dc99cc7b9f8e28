package memory

import (
	"slices"
	"strings"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/predicate"
)

// document is an indexed product with its text pre-normalized.
type document struct {
	product     domain.Product
	name        string
	description string
	brand       string
	types       []string
	lexemes     map[string]struct{}
	grams       [3]trigramSet
}

func newDocument(p domain.Product) *document {
	d := &document{
		product:     p,
		name:        strings.ToLower(p.Name),
		description: strings.ToLower(p.Description),
		brand:       strings.ToLower(p.BrandName),
		types:       make([]string, len(p.Types)),
		lexemes:     lexemeSet(p.Name + " " + p.Description + " " + p.BrandName),
	}
	for i, t := range p.Types {
		d.types[i] = strings.ToLower(t)
	}
	d.grams = [3]trigramSet{trigrams(p.Name), trigrams(p.Description), trigrams(p.BrandName)}
	return d
}

func (d *document) text(f predicate.Field) string {
	switch f {
	case predicate.FieldName:
		return d.name
	case predicate.FieldDescription:
		return d.description
	case predicate.FieldBrand:
		return d.brand
	}
	return ""
}

func (d *document) trigrams(f predicate.Field) trigramSet {
	switch f {
	case predicate.FieldName:
		return d.grams[0]
	case predicate.FieldDescription:
		return d.grams[1]
	case predicate.FieldBrand:
		return d.grams[2]
	}
	return nil
}

// evaluator checks predicates against documents. It memoizes the analysis
// of query terms and is not safe for concurrent use.
type evaluator struct {
	grams   map[string]trigramSet
	queries map[string][]string
	score   []trigramSet
}

func newEvaluator(scoreTerms []string) *evaluator {
	ev := &evaluator{
		grams:   make(map[string]trigramSet),
		queries: make(map[string][]string),
	}
	for _, t := range scoreTerms {
		ev.score = append(ev.score, ev.trigramsOf(t))
	}
	return ev
}

func (ev *evaluator) trigramsOf(term string) trigramSet {
	g, ok := ev.grams[term]
	if !ok {
		g = trigrams(term)
		ev.grams[term] = g
	}
	return g
}

func (ev *evaluator) lexemesOf(q string) []string {
	l, ok := ev.queries[q]
	if !ok {
		l = lexemes(q)
		ev.queries[q] = l
	}
	return l
}

func (ev *evaluator) match(e predicate.Expr, d *document) bool {
	switch x := e.(type) {
	case predicate.And:
		for _, sub := range x {
			if !ev.match(sub, d) {
				return false
			}
		}
		return true
	case predicate.Or:
		for _, sub := range x {
			if ev.match(sub, d) {
				return true
			}
		}
		return false
	case predicate.Not:
		return !ev.match(x.X, d)
	case predicate.TextMatch:
		return matchLexemes(d.lexemes, ev.lexemesOf(x.Query))
	case predicate.Contains:
		term := strings.ToLower(x.Term)
		if x.Field == predicate.FieldTypes {
			return slices.ContainsFunc(d.types, func(t string) bool { return strings.Contains(t, term) })
		}
		return strings.Contains(d.text(x.Field), term)
	case predicate.Similar:
		return similarity(d.trigrams(x.Field), ev.trigramsOf(x.Term)) > x.Threshold
	case predicate.TypeIn:
		return slices.ContainsFunc(d.types, func(t string) bool { return slices.Contains(x.Labels, t) })
	case predicate.BrandIn:
		return d.brand != "" && slices.Contains(x.Names, d.brand)
	case predicate.PriceCompare:
		c := d.product.Price.Cmp(x.Value)
		switch x.Op {
		case predicate.OpLess:
			return c < 0
		case predicate.OpLessOrEqual:
			return c <= 0
		case predicate.OpGreater:
			return c > 0
		case predicate.OpGreaterOrEqual:
			return c >= 0
		}
		return false
	case predicate.Available:
		return d.product.InStock() == x.Want
	case predicate.Curated:
		if x.Flag == predicate.FlagNew {
			return d.product.IsNew()
		}
		return d.product.IsHot()
	case predicate.HasSignal:
		return d.product.Signal != nil
	}
	return predicate.IsMatchAll(e)
}

// similarityScore is the best similarity of any score term against the
// name, description or brand.
func (ev *evaluator) similarityScore(d *document) float64 {
	best := 0.0
	for _, t := range ev.score {
		for _, g := range d.grams {
			best = max(best, similarity(g, t))
		}
	}
	return best
}
