package ranking

import (
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
)

func f64(v float64) *float64 { return &v }

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func product(id string, price string, created int, sig *domain.CurationSignal) domain.ScoredProduct {
	return domain.ScoredProduct{Product: domain.Product{
		ID:        id,
		Price:     decimal.RequireFromString(price),
		CreatedAt: epoch.Add(time.Duration(created) * time.Hour),
		Signal:    sig,
	}}
}

func ids(ps []domain.ScoredProduct) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func sorted(ps []domain.ScoredProduct, o Ordering) []string {
	ps = slices.Clone(ps)
	slices.SortStableFunc(ps, func(a, b domain.ScoredProduct) int { return o.Compare(&a, &b) })
	return ids(ps)
}

func TestFor_EveryOrderingEndsWithID(t *testing.T) {
	bases := []Base{BaseRelevance, BaseTrending, BaseNewlyAdded, BaseRank}
	for _, mode := range domain.ValidSortModes() {
		for _, base := range bases {
			o := For(mode, base)
			assert.Equal(t, KeyID, o[len(o)-1].Key, "%s/%d", mode, base)
		}
	}
}

func TestFor_OverridesIgnoreBase(t *testing.T) {
	assert.Equal(t, For(domain.SortPrice, BaseRelevance), For(domain.SortPrice, BaseTrending))
	assert.Equal(t, "price asc, id asc", For(domain.SortPrice, BaseNewlyAdded).String())
	assert.Equal(t, "rank desc, created desc, id desc", For(domain.SortBestSelling, BaseTrending).String())
}

func TestFor_Defaults(t *testing.T) {
	assert.Equal(t, "score desc, rank desc, created desc, id desc", For(domain.SortCollectionDefault, BaseRelevance).String())
	assert.Equal(t, "hot desc, created desc, id desc", For(domain.SortCollectionDefault, BaseTrending).String())
	assert.Equal(t, "new desc, created desc, id desc", For(domain.SortCollectionDefault, BaseNewlyAdded).String())
	assert.True(t, For(domain.SortCollectionDefault, BaseRelevance).UsesScore())
	assert.False(t, For(domain.SortPrice, BaseRelevance).UsesScore())
}

func TestCompare_DefaultOrdering(t *testing.T) {
	a := product("a", "10", 1, &domain.CurationSignal{RankScore: 0.5})
	b := product("b", "10", 2, nil)
	c := product("c", "10", 3, &domain.CurationSignal{RankScore: 0.5})
	d := product("d", "10", 0, nil)
	d.Score = 0.8

	got := sorted([]domain.ScoredProduct{a, b, c, d}, For(domain.SortCollectionDefault, BaseRelevance))
	// score first, then rank, then newest
	assert.Equal(t, []string{"d", "c", "a", "b"}, got)
}

func TestCompare_Trending(t *testing.T) {
	hot9 := product("p9", "5", 0, &domain.CurationSignal{IsHot: true, HotScore: f64(0.9)})
	hot7 := product("p7", "5", 5, &domain.CurationSignal{IsHot: true, HotScore: f64(0.7)})

	got := sorted([]domain.ScoredProduct{hot7, hot9}, For(domain.SortCollectionDefault, BaseTrending))
	assert.Equal(t, []string{"p9", "p7"}, got)
}

func TestCompare_NewlyAdded(t *testing.T) {
	n95 := product("n95", "5", 0, &domain.CurationSignal{IsNew: true, NewScore: f64(0.95)})
	n80 := product("n80", "5", 9, &domain.CurationSignal{IsNew: true, NewScore: f64(0.8)})

	got := sorted([]domain.ScoredProduct{n80, n95}, For(domain.SortCollectionDefault, BaseNewlyAdded))
	assert.Equal(t, []string{"n95", "n80"}, got)
}

func TestCompare_PriceAndTiebreak(t *testing.T) {
	ps := []domain.ScoredProduct{
		product("b", "20.00", 0, nil),
		product("a", "20", 0, nil),
		product("c", "5.5", 0, nil),
	}
	assert.Equal(t, []string{"c", "a", "b"}, sorted(ps, For(domain.SortPrice, BaseRelevance)))
	assert.Equal(t, []string{"b", "a", "c"}, sorted(ps, For(domain.SortPriceReverse, BaseRelevance)))
}

func TestCompare_Created(t *testing.T) {
	ps := []domain.ScoredProduct{
		product("x", "1", 2, nil),
		product("y", "1", 1, nil),
		product("z", "1", 1, nil),
	}
	assert.Equal(t, []string{"y", "z", "x"}, sorted(ps, For(domain.SortCreated, BaseRelevance)))
	assert.Equal(t, []string{"x", "z", "y"}, sorted(ps, For(domain.SortCreatedReverse, BaseRelevance)))
}

func TestQueryScoreTerms(t *testing.T) {
	assert.Nil(t, QueryScoreTerms("ab"))
	assert.Equal(t, []string{"jerky"}, QueryScoreTerms(" Jerky "))
	assert.Equal(t, []string{"hot bbq sauce", "sauce"}, QueryScoreTerms("hot bbq sauce"))
}
