package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SortMode selects the ordering of a listing.
type SortMode string

// Sort modes as sent on the wire.
const (
	SortCollectionDefault SortMode = "COLLECTION_DEFAULT"
	SortBestSelling       SortMode = "BEST_SELLING"
	SortCreated           SortMode = "CREATED"
	SortCreatedReverse    SortMode = "CREATED_REVERSE"
	SortPrice             SortMode = "PRICE"
	SortPriceReverse      SortMode = "PRICE_REVERSE"
)

var sortAliases = map[string]SortMode{
	"collection_default": SortCollectionDefault,
	"collection-default": SortCollectionDefault,
	"best_selling":       SortBestSelling,
	"best-selling":       SortBestSelling,
	"created":            SortCreated,
	"created-ascending":  SortCreated,
	"created_reverse":    SortCreatedReverse,
	"created-reverse":    SortCreatedReverse,
	"created-descending": SortCreatedReverse,
	"price":              SortPrice,
	"price-ascending":    SortPrice,
	"price_reverse":      SortPriceReverse,
	"price-reverse":      SortPriceReverse,
	"price-descending":   SortPriceReverse,
}

// ValidSortModes returns the canonical sort modes.
func ValidSortModes() []SortMode {
	return []SortMode{
		SortCollectionDefault, SortBestSelling, SortCreated,
		SortCreatedReverse, SortPrice, SortPriceReverse,
	}
}

// ParseSortMode accepts a canonical mode or its lowercase kebab form. An
// empty value is the collection default.
func ParseSortMode(s string) (SortMode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortCollectionDefault, nil
	}
	for _, m := range ValidSortModes() {
		if string(m) == s {
			return m, nil
		}
	}
	if m, ok := sortAliases[strings.ToLower(s)]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// Filters are the explicit, caller-supplied narrowing filters. They are
// always AND-ed onto whatever the slug or query selected.
type Filters struct {
	Available    *bool
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	ProductTypes []string
	Brands       []string
}

// IsZero reports whether no filter is set.
func (f *Filters) IsZero() bool {
	return f.Available == nil && f.MinPrice == nil && f.MaxPrice == nil &&
		len(f.ProductTypes) == 0 && len(f.Brands) == 0
}

// CacheKey renders the filters deterministically for cache keys.
func (f *Filters) CacheKey() string {
	var b strings.Builder
	if f.Available != nil {
		fmt.Fprintf(&b, "a=%t;", *f.Available)
	}
	if f.MinPrice != nil {
		fmt.Fprintf(&b, "min=%s;", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		fmt.Fprintf(&b, "max=%s;", f.MaxPrice.String())
	}
	if len(f.ProductTypes) > 0 {
		fmt.Fprintf(&b, "t=%s;", strings.ToLower(strings.Join(f.ProductTypes, ",")))
	}
	if len(f.Brands) > 0 {
		fmt.Fprintf(&b, "b=%s;", strings.ToLower(strings.Join(f.Brands, ",")))
	}
	return b.String()
}

// PriceOp is the comparison a slug price bound applies.
type PriceOp int

const (
	PriceLessThan PriceOp = iota
	PriceGreaterThan
)

func (o PriceOp) String() string {
	if o == PriceGreaterThan {
		return "greater-than"
	}
	return "less-than"
}

// PriceBound is a strict price bound taken from a slug.
type PriceBound struct {
	Op    PriceOp
	Value decimal.Decimal
}

// TypeExpansion is one catalog-type keyword found in a slug.
type TypeExpansion struct {
	// Keyword is the token as written, e.g. "gifts".
	Keyword string
	// Label is the canonical type label, e.g. "Gift Box".
	Label string
	// Variants are the lowercased label spellings matched exactly against
	// a product's type labels.
	Variants []string
	// Terms are the keyword and its synonyms, matched as substrings.
	Terms []string
}

// SearchIntent is the structured reading of a slug. It lives for one
// request and is never persisted.
type SearchIntent struct {
	Price       *PriceBound
	GenderTerms []string
	Types       []TypeExpansion
	FreeTerms   []string
}

// HasRelevance reports whether any topical signal was found.
func (i *SearchIntent) HasRelevance() bool {
	return len(i.GenderTerms) > 0 || len(i.Types) > 0 || len(i.FreeTerms) > 0
}

// Empty reports whether the slug yielded no usable signal at all.
func (i *SearchIntent) Empty() bool {
	return i.Price == nil && !i.HasRelevance()
}

// Kind names the shape of the intent for logs and metrics.
func (i *SearchIntent) Kind() string {
	switch {
	case i.Empty():
		return "empty"
	case i.Price == nil:
		return "relevance"
	case !i.HasRelevance():
		return "price"
	default:
		return "relevance_price"
	}
}

// ScoredProduct is a product with its similarity to the search text.
type ScoredProduct struct {
	Product
	Score float64 `json:"score"`
}

// ResultPage is one page of a ranked listing.
type ResultPage struct {
	Items    []ScoredProduct
	Total    int
	Page     int
	PageSize int
}

// HasNext reports whether a later page exists.
func (r *ResultPage) HasNext() bool {
	return (r.Page-1)*r.PageSize+r.PageSize < r.Total
}

// HasPrevious reports whether an earlier page exists.
func (r *ResultPage) HasPrevious() bool {
	return r.Page > 1
}

// Summaries converts the page's items to listing summaries.
func (r *ResultPage) Summaries() []ProductSummary {
	out := make([]ProductSummary, 0, len(r.Items))
	for i := range r.Items {
		out = append(out, Summarize(&r.Items[i].Product))
	}
	return out
}

// QuickSearchResult is the typeahead response.
type QuickSearchResult struct {
	Suggestions []string         `json:"suggestions"`
	Products    []ProductSummary `json:"products"`
	Total       int              `json:"total"`
}
