package engine

import (
	"context"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/predicate"
	"github.com/utafrali/EcommerceGo/services/collection/internal/ranking"
)

// Query is one ranked, paginated read against the catalog.
type Query struct {
	Where predicate.Expr
	Order ranking.Ordering
	// ScoreTerms are compared against name, description and brand to
	// compute each hit's similarity score. No terms means every score is 0.
	ScoreTerms []string
	Offset     int
	Limit      int
}

// Result holds one page of hits and the total match count for the same
// predicate.
type Result struct {
	Hits  []domain.ScoredProduct
	Total int
}

// Catalog defines the read operations the collection service needs from a
// product store. Implementations may use PostgreSQL, Elasticsearch, or an
// in-process index.
type Catalog interface {
	// Find returns the page of products matching q.Where in q.Order along
	// with the total match count.
	Find(ctx context.Context, q *Query) (*Result, error)

	// SuggestBrands returns up to limit distinct brand names close to text.
	SuggestBrands(ctx context.Context, text string, limit int) ([]string, error)
}

// Indexer is the write side of a read-model catalog kept in sync from
// catalog events.
type Indexer interface {
	// Upsert adds or replaces products.
	Upsert(ctx context.Context, products ...domain.Product) error

	// Delete removes a product by ID. Missing products are ignored.
	Delete(ctx context.Context, id string) error

	// ApplySignal replaces the curation signal of a product. A nil signal
	// clears it.
	ApplySignal(ctx context.Context, productID string, signal *domain.CurationSignal) error
}

// Pinger is implemented by catalogs backed by a remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}
