// Package seed loads catalog snapshots into read-model indexes.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
)

// BatchSize is the number of products sent to the indexer per call.
const BatchSize = 500

// Load decodes a JSON array of products. Products without a status are
// treated as available, matching product.upserted events.
func Load(r io.Reader) ([]domain.Product, error) {
	var products []domain.Product
	dec := json.NewDecoder(r)
	if err := dec.Decode(&products); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	seen := make(map[string]struct{}, len(products))
	for i := range products {
		p := &products[i]
		if p.ID == "" {
			return nil, fmt.Errorf("seed product %d: missing id", i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("seed product %d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Status == "" {
			p.Status = domain.StatusAvailable
		}
	}
	return products, nil
}

// LoadFile reads a seed file from disk.
func LoadFile(path string) ([]domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	products, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return products, nil
}

// Apply upserts products into idx in batches of BatchSize.
func Apply(ctx context.Context, idx engine.Indexer, products []domain.Product) error {
	for start := 0; start < len(products); start += BatchSize {
		end := min(start+BatchSize, len(products))
		if err := idx.Upsert(ctx, products[start:end]...); err != nil {
			return fmt.Errorf("index products %d..%d: %w", start, end, err)
		}
	}
	return nil
}
