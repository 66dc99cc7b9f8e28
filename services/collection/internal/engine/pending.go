package engine

import (
	"sync"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
)

// DefaultMaxPendingSignals bounds the signals held for unindexed products.
const DefaultMaxPendingSignals = 10000

// PendingSignals holds curation signals that arrived before their product
// was indexed. Product and curation events travel on separate topics, so
// a signal can overtake the upsert it belongs to.
type PendingSignals struct {
	mu      sync.Mutex
	limit   int
	signals map[string]domain.CurationSignal
}

// NewPendingSignals creates a store holding at most limit signals. A
// non-positive limit means DefaultMaxPendingSignals.
func NewPendingSignals(limit int) *PendingSignals {
	if limit <= 0 {
		limit = DefaultMaxPendingSignals
	}
	return &PendingSignals{limit: limit, signals: make(map[string]domain.CurationSignal)}
}

// Park records signal for productID, replacing any earlier one. A nil
// signal forgets the parked entry. When the store is full an arbitrary
// older entry is evicted and its product id returned.
func (p *PendingSignals) Park(productID string, signal *domain.CurationSignal) (evicted string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if signal == nil {
		delete(p.signals, productID)
		return ""
	}
	if _, ok := p.signals[productID]; !ok && len(p.signals) >= p.limit {
		for id := range p.signals {
			evicted = id
			break
		}
		delete(p.signals, evicted)
	}
	p.signals[productID] = *signal
	return evicted
}

// Take removes and returns the parked signal for productID.
func (p *PendingSignals) Take(productID string) (*domain.CurationSignal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.signals[productID]
	if !ok {
		return nil, false
	}
	delete(p.signals, productID)
	return &s, true
}

// Resolve returns product with its parked signal attached when it carries
// none of its own. The parked entry is forgotten either way.
func (p *PendingSignals) Resolve(product domain.Product) (domain.Product, bool) {
	s, ok := p.Take(product.ID)
	if !ok || product.Signal != nil {
		return product, false
	}
	product.Signal = s
	return product, true
}

// Forget drops the parked signal for productID.
func (p *PendingSignals) Forget(productID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.signals, productID)
}

// Len returns the number of parked signals.
func (p *PendingSignals) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.signals)
}
