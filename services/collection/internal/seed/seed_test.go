package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine/memory"
)

func TestLoadFile(t *testing.T) {
	products, err := LoadFile("testdata/catalog.json")

	require.NoError(t, err)
	require.Len(t, products, 3)

	p1 := products[0]
	assert.Equal(t, "p1", p1.ID)
	assert.True(t, decimal.RequireFromString("25").Equal(p1.Price))
	assert.Equal(t, []string{"Candle"}, p1.Types)
	require.NotNil(t, p1.Signal)
	assert.True(t, p1.IsHot())

	assert.Equal(t, domain.StatusAvailable, products[1].Status, "missing status defaults to available")
	assert.True(t, products[1].IsNew())
	assert.Equal(t, domain.StatusUnavailable, products[2].Status)
	assert.Nil(t, products[2].Signal)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("testdata/nope.json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open seed file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"not json", `{"id":`, "decode seed"},
		{"object instead of array", `{"id":"p1"}`, "decode seed"},
		{"missing id", `[{"name":"Mug"}]`, "missing id"},
		{"duplicate id", `[{"id":"p1"},{"id":"p1"}]`, `duplicate id "p1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := Load(strings.NewReader(tt.input))

			assert.Nil(t, products)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_EmptyArray(t *testing.T) {
	products, err := Load(strings.NewReader(`[]`))

	require.NoError(t, err)
	assert.Empty(t, products)
}

type recordingIndexer struct {
	batches []int
	err     error
}

func (r *recordingIndexer) Upsert(_ context.Context, products ...domain.Product) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, len(products))
	return nil
}

func (r *recordingIndexer) Delete(context.Context, string) error { return nil }

func (r *recordingIndexer) ApplySignal(context.Context, string, *domain.CurationSignal) error {
	return nil
}

func TestApply_Batches(t *testing.T) {
	products := make([]domain.Product, BatchSize*2+7)
	for i := range products {
		products[i] = domain.Product{ID: fmt.Sprintf("p%d", i), Status: domain.StatusAvailable}
	}
	idx := &recordingIndexer{}

	require.NoError(t, Apply(context.Background(), idx, products))

	assert.Equal(t, []int{BatchSize, BatchSize, 7}, idx.batches)
}

func TestApply_Empty(t *testing.T) {
	idx := &recordingIndexer{}

	require.NoError(t, Apply(context.Background(), idx, nil))

	assert.Empty(t, idx.batches)
}

func TestApply_IndexerError(t *testing.T) {
	idx := &recordingIndexer{err: errors.New("index closed")}

	err := Apply(context.Background(), idx, []domain.Product{{ID: "p1"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index products 0..1")
	assert.Contains(t, err.Error(), "index closed")
}

func TestApply_MemoryEngine(t *testing.T) {
	products, err := LoadFile("testdata/catalog.json")
	require.NoError(t, err)
	eng := memory.New()

	require.NoError(t, Apply(context.Background(), eng, products))

	assert.Equal(t, 3, eng.Len())
}
