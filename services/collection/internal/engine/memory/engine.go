package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
	"github.com/utafrali/EcommerceGo/services/collection/internal/predicate"
)

// Engine is an in-process catalog index. It evaluates predicates directly,
// approximating PostgreSQL full-text search with English stemming and
// pg_trgm similarity with the same trigram rules.
// Thread-safe via sync.RWMutex.
type Engine struct {
	mu      sync.RWMutex
	docs    map[string]*document
	pending *engine.PendingSignals
}

var (
	_ engine.Catalog = (*Engine)(nil)
	_ engine.Indexer = (*Engine)(nil)
)

// New creates an empty index.
func New() *Engine {
	return &Engine{
		docs:    make(map[string]*document),
		pending: engine.NewPendingSignals(engine.DefaultMaxPendingSignals),
	}
}

// Len returns the number of indexed products.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// Upsert adds or replaces products. A product without a signal of its own
// picks up one parked by ApplySignal before it was indexed.
func (e *Engine) Upsert(_ context.Context, products ...domain.Product) error {
	docs := make([]*document, len(products))
	for i := range products {
		docs[i] = newDocument(products[i])
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range docs {
		d.product, _ = e.pending.Resolve(d.product)
		e.docs[d.product.ID] = d
	}
	return nil
}

// Delete removes a product from the index.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.docs, id)
	e.pending.Forget(id)
	return nil
}

// ApplySignal replaces a product's curation signal. Signals for products
// not indexed yet are parked until their upsert arrives.
func (e *Engine) ApplySignal(_ context.Context, productID string, signal *domain.CurationSignal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.docs[productID]
	if !ok {
		e.pending.Park(productID, signal)
		return nil
	}
	next := *d
	if signal != nil {
		s := *signal
		signal = &s
	}
	next.product.Signal = signal
	e.docs[productID] = &next
	return nil
}

// Find evaluates q against every indexed product, then orders and slices
// the matches. Count and page come from the same locked snapshot.
func (e *Engine) Find(ctx context.Context, q *engine.Query) (*engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if predicate.IsMatchNothing(q.Where) {
		return &engine.Result{Hits: []domain.ScoredProduct{}}, nil
	}

	ev := newEvaluator(q.ScoreTerms)
	var hits []domain.ScoredProduct

	e.mu.RLock()
	for _, d := range e.docs {
		if !ev.match(q.Where, d) {
			continue
		}
		hits = append(hits, domain.ScoredProduct{
			Product: d.product,
			Score:   ev.similarityScore(d),
		})
	}
	e.mu.RUnlock()

	slices.SortFunc(hits, func(a, b domain.ScoredProduct) int {
		return q.Order.Compare(&a, &b)
	})

	total := len(hits)
	start := min(max(q.Offset, 0), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}

	page := make([]domain.ScoredProduct, end-start)
	copy(page, hits[start:end])
	return &engine.Result{Hits: page, Total: total}, nil
}

type brandMatch struct {
	name  string
	score float64
}

// SuggestBrands returns brand names containing text or, for texts longer
// than two characters, similar to it.
func (e *Engine) SuggestBrands(ctx context.Context, text string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || limit <= 0 {
		return []string{}, nil
	}
	fuzzy := utf8.RuneCountInString(text) > 2
	query := trigrams(text)

	seen := make(map[string]bool)
	var matches []brandMatch

	e.mu.RLock()
	for _, d := range e.docs {
		name := d.product.BrandName
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		score := similarity(d.grams[2], query)
		switch {
		case strings.Contains(d.brand, text):
		case fuzzy && score > predicate.SimilarityThreshold:
		default:
			continue
		}
		matches = append(matches, brandMatch{name: name, score: score})
	}
	e.mu.RUnlock()

	slices.SortFunc(matches, func(a, b brandMatch) int {
		if fuzzy {
			if c := cmp.Compare(b.score, a.score); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.name, b.name)
	})

	out := make([]string, 0, min(limit, len(matches)))
	for i := 0; i < len(matches) && i < limit; i++ {
		out = append(out, matches[i].name)
	}
	return out, nil
}
