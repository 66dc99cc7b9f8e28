package predicate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
)

func bound(op domain.PriceOp, v int64) *domain.PriceBound {
	return &domain.PriceBound{Op: op, Value: decimal.NewFromInt(v)}
}

func TestAllOf(t *testing.T) {
	leaf := Available{Want: true}

	assert.Equal(t, MatchAll, AllOf())
	assert.Equal(t, MatchAll, AllOf(MatchAll, nil))
	assert.Equal(t, leaf, AllOf(MatchAll, leaf))
	assert.Equal(t, MatchNothing, AllOf(leaf, MatchNothing))
	assert.Equal(t, And{leaf, HasSignal{}, Curated{Flag: FlagHot}},
		AllOf(leaf, AllOf(HasSignal{}, Curated{Flag: FlagHot})))
}

func TestAnyOf(t *testing.T) {
	leaf := TextMatch{Query: "jerky"}

	assert.Equal(t, MatchNothing, AnyOf())
	assert.Equal(t, MatchNothing, AnyOf(MatchNothing, nil))
	assert.Equal(t, leaf, AnyOf(MatchNothing, leaf))
	assert.Equal(t, MatchAll, AnyOf(leaf, MatchAll))
	assert.Len(t, AnyOf(leaf, AnyOf(HasSignal{}, Available{})), 3)
}

func TestSentinelsAreDistinct(t *testing.T) {
	assert.True(t, IsMatchAll(MatchAll))
	assert.False(t, IsMatchAll(MatchNothing))
	assert.True(t, IsMatchNothing(MatchNothing))
	assert.False(t, IsMatchNothing(MatchAll))
	assert.NotEqual(t, MatchAll.String(), MatchNothing.String())
}

func TestIntent_EmptyMatchesNothing(t *testing.T) {
	assert.Equal(t, MatchNothing, Intent(&domain.SearchIntent{}))
	assert.Equal(t, MatchNothing, Compile(&domain.SearchIntent{}, &domain.Filters{}))
}

func TestIntent_PriceOnly(t *testing.T) {
	got := Intent(&domain.SearchIntent{Price: bound(domain.PriceLessThan, 20)})
	assert.Equal(t, PriceCompare{Op: OpLess, Value: decimal.NewFromInt(20)}, got)

	got = Intent(&domain.SearchIntent{Price: bound(domain.PriceGreaterThan, 50)})
	assert.Equal(t, PriceCompare{Op: OpGreater, Value: decimal.NewFromInt(50)}, got)
}

func TestIntent_RelevanceAndPrice(t *testing.T) {
	intent := &domain.SearchIntent{
		Price: bound(domain.PriceLessThan, 100),
		Types: []domain.TypeExpansion{{
			Keyword: "gifts", Label: "Gift Box",
			Variants: []string{"gift box", "gift boxes", "gifts"},
			Terms:    []string{"gifts"},
		}},
	}
	got := Intent(intent)

	and, ok := got.(And)
	require.True(t, ok, "got %s", got)
	require.Len(t, and, 2)

	or, ok := and[0].(Or)
	require.True(t, ok)
	assert.Equal(t, TypeIn{Labels: []string{"gift box", "gift boxes", "gifts"}}, or[0])
	assert.Contains(t, or, Expr(Contains{Field: FieldBrand, Term: "gifts"}))
	assert.Equal(t, PriceCompare{Op: OpLess, Value: decimal.NewFromInt(100)}, and[1])
}

func TestRelevance_GenderSearchesNameAndDescriptionOnly(t *testing.T) {
	got := Relevance(&domain.SearchIntent{GenderTerms: []string{"men", "man"}})
	assert.Equal(t, Or{
		Contains{Field: FieldName, Term: "men"},
		Contains{Field: FieldDescription, Term: "men"},
		Contains{Field: FieldName, Term: "man"},
		Contains{Field: FieldDescription, Term: "man"},
	}, got)
}

func TestRelevance_ShortFreeTermsUseFullTextOnly(t *testing.T) {
	got := Relevance(&domain.SearchIntent{FreeTerms: []string{"bbq"}})
	assert.Equal(t, TextMatch{Query: "bbq"}, got)

	got = Relevance(&domain.SearchIntent{FreeTerms: []string{"sauce"}})
	or, ok := got.(Or)
	require.True(t, ok)
	assert.Len(t, or, 1+4+3)
	assert.Contains(t, or, Expr(Contains{Field: FieldTypes, Term: "sauce"}))
	assert.Contains(t, or, Expr(Similar{Field: FieldName, Term: "sauce", Threshold: 0.2}))
}

func TestFreeText(t *testing.T) {
	assert.Equal(t, MatchNothing, FreeText("   "))

	short := FreeText("A")
	or, ok := short.(Or)
	require.True(t, ok)
	for _, e := range or {
		_, isContains := e.(Contains)
		assert.True(t, isContains, "short query must use substring only, got %s", e)
	}

	long := FreeText("Smoky Jerky")
	or, ok = long.(Or)
	require.True(t, ok)
	assert.Contains(t, or, Expr(TextMatch{Query: "smoky jerky"}))
	assert.Contains(t, or, Expr(Similar{Field: FieldBrand, Term: "smoky jerky", Threshold: 0.2}))
	assert.Contains(t, or, Expr(Contains{Field: FieldName, Term: "jerky"}))
	assert.Contains(t, or, Expr(Similar{Field: FieldDescription, Term: "smoky", Threshold: 0.2}))
}

func TestFilters(t *testing.T) {
	assert.Equal(t, MatchAll, Filters(nil))
	assert.Equal(t, MatchAll, Filters(&domain.Filters{}))

	yes := true
	min := decimal.NewFromInt(10)
	max := decimal.NewFromInt(40)
	got := Filters(&domain.Filters{
		Available:    &yes,
		MinPrice:     &min,
		MaxPrice:     &max,
		ProductTypes: []string{"Gift Box", " "},
		Brands:       []string{"Trail Co"},
	})
	assert.Equal(t, And{
		Available{Want: true},
		PriceCompare{Op: OpGreaterOrEqual, Value: min},
		PriceCompare{Op: OpLessOrEqual, Value: max},
		TypeIn{Labels: []string{"gift box"}},
		BrandIn{Names: []string{"trail co"}},
	}, got)
}

func TestCompile_FiltersNarrowIntent(t *testing.T) {
	no := false
	got := Compile(&domain.SearchIntent{FreeTerms: []string{"bbq"}}, &domain.Filters{Available: &no})
	assert.Equal(t, And{TextMatch{Query: "bbq"}, Available{Want: false}}, got)

	// Filters never widen an empty slug.
	assert.Equal(t, MatchNothing, Compile(&domain.SearchIntent{}, &domain.Filters{Available: &no}))
}

func TestString(t *testing.T) {
	e := AllOf(
		AnyOf(TypeIn{Labels: []string{"candle"}}, Contains{Field: FieldName, Term: "candle"}),
		PriceCompare{Op: OpGreater, Value: decimal.NewFromInt(30)},
	)
	assert.Equal(t, `((types in ["candle"] OR name ~ "candle") AND price > 30)`, e.String())
	assert.Equal(t, "NOT available", Not{X: Available{Want: true}}.String())
}
