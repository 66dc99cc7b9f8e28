package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		in   string
		want SortMode
	}{
		{"", SortCollectionDefault},
		{"COLLECTION_DEFAULT", SortCollectionDefault},
		{"BEST_SELLING", SortBestSelling},
		{"best-selling", SortBestSelling},
		{"CREATED", SortCreated},
		{"created-ascending", SortCreated},
		{"CREATED_REVERSE", SortCreatedReverse},
		{"created-descending", SortCreatedReverse},
		{"PRICE", SortPrice},
		{"price-ascending", SortPrice},
		{"PRICE_REVERSE", SortPriceReverse},
		{"price-descending", SortPriceReverse},
		{" Price-Reverse ", SortPriceReverse},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSortMode_Unknown(t *testing.T) {
	_, err := ParseSortMode("cheapest")
	assert.Error(t, err)
}

func TestProduct_CurationAccessors(t *testing.T) {
	p := Product{}
	assert.False(t, p.IsHot())
	assert.False(t, p.IsNew())
	assert.Zero(t, p.RankScore())
	assert.Zero(t, p.HotScore())

	p.Signal = &CurationSignal{IsHot: true, RankScore: 0.4}
	assert.False(t, p.IsHot(), "hot without a score is not trending")
	assert.Equal(t, 0.4, p.RankScore())

	p.Signal.HotScore = f64(0.9)
	p.Signal.IsNew = true
	p.Signal.NewScore = f64(0.3)
	assert.True(t, p.IsHot())
	assert.True(t, p.IsNew())
	assert.Equal(t, 0.9, p.HotScore())
	assert.Equal(t, 0.3, p.NewScore())
}

func TestProduct_InStock(t *testing.T) {
	assert.True(t, (&Product{Status: StatusAvailable, Stock: 1}).InStock())
	assert.False(t, (&Product{Status: StatusAvailable, Stock: 0}).InStock())
	assert.False(t, (&Product{Status: StatusUnavailable, Stock: 5}).InStock())
}

func TestSummarize(t *testing.T) {
	p := Product{
		ID:        "p-1",
		Name:      "Smoked Jerky",
		BrandName: "Trail Co",
		Price:     decimal.RequireFromString("12.5"),
		ImageURL:  "https://cdn.test/p-1.jpg",
		Signal:    &CurationSignal{IsHot: true},
	}
	s := Summarize(&p)
	assert.Equal(t, ProductSummary{
		ID: "p-1", Name: "Smoked Jerky", Brand: "Trail Co", Price: "12.50",
		Image: "https://cdn.test/p-1.jpg", IsHot: true,
	}, s)
}

func TestSearchIntent_Kind(t *testing.T) {
	bound := &PriceBound{Op: PriceLessThan, Value: decimal.NewFromInt(100)}

	assert.Equal(t, "empty", (&SearchIntent{}).Kind())
	assert.True(t, (&SearchIntent{}).Empty())
	assert.Equal(t, "price", (&SearchIntent{Price: bound}).Kind())
	assert.Equal(t, "relevance", (&SearchIntent{FreeTerms: []string{"jerky"}}).Kind())
	assert.Equal(t, "relevance_price", (&SearchIntent{Price: bound, GenderTerms: []string{"men"}}).Kind())
}

func TestResultPage_Navigation(t *testing.T) {
	tests := []struct {
		name             string
		page, size, tot  int
		wantNext, wantPr bool
	}{
		{"first of many", 1, 10, 25, true, false},
		{"middle", 2, 10, 25, true, true},
		{"last", 3, 10, 25, false, true},
		{"exact fit", 1, 10, 10, false, false},
		{"empty", 1, 10, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ResultPage{Page: tt.page, PageSize: tt.size, Total: tt.tot}
			assert.Equal(t, tt.wantNext, r.HasNext())
			assert.Equal(t, tt.wantPr, r.HasPrevious())
		})
	}
}

func TestFilters_CacheKey(t *testing.T) {
	yes := true
	min := decimal.NewFromInt(10)
	f := Filters{Available: &yes, MinPrice: &min, Brands: []string{"Acme", "Trail Co"}}
	assert.Equal(t, "a=true;min=10;b=acme,trail co;", f.CacheKey())
	assert.False(t, f.IsZero())
	assert.True(t, (&Filters{}).IsZero())
}
