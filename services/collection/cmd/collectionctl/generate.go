package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
)

// generatedEpoch anchors created_at so repeated runs produce identical files.
var generatedEpoch = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

type typeBucket struct {
	label  string
	weight float64
	nouns  []string
	// price range in cents
	minCents, maxCents int
}

var typeBuckets = []typeBucket{
	{"Gift Box", 0.15, []string{"Gift Box", "Gift Set", "Sampler Box", "Hamper"}, 2500, 15000},
	{"Candle", 0.15, []string{"Soy Candle", "Pillar Candle", "Tealight Set", "Beeswax Candle"}, 800, 6000},
	{"Snack", 0.15, []string{"Beef Jerky", "Trail Mix", "Kettle Chips", "Salted Caramels"}, 300, 2500},
	{"Beverage", 0.10, []string{"Cold Brew", "Loose Leaf Tea", "Sparkling Juice", "Hot Cocoa"}, 400, 4000},
	{"Condiment", 0.10, []string{"Hot Sauce", "Spice Rub", "Mustard", "Chili Oil"}, 500, 2500},
	{"Kitchen", 0.10, []string{"Ceramic Mug", "Cutting Board", "Salad Bowl", "Tea Towel"}, 900, 8000},
	{"Art", 0.10, []string{"Watercolor", "Canvas Panel", "Sketch"}, 2000, 30000},
	{"Print", 0.10, []string{"Poster", "Art Print", "Risograph"}, 1200, 9000},
	{"", 0.05, []string{"Greeting Card", "Notebook", "Tote Bag"}, 300, 3000},
}

var (
	generatedBrands = []string{
		"Wick & Co", "Hive Goods", "Smokehouse", "Fire Kitchen", "Clayworks",
		"Leaf & Kettle", "North Press", "Paper Moon", "Saltbox", "Oak Table",
	}
	adjectives = []string{
		"Classic", "Rustic", "Handmade", "Smoked", "Lavender", "Citrus",
		"Midnight", "Golden", "Wild", "Vintage", "Minimal", "Spiced",
	}
	audiences = []string{"", "", "", "for Men", "for Women", "for Him", "for Her"}
	phrases   = []string{
		"Small-batch %s made to order.",
		"A crowd-pleasing %s that ships in recyclable packaging.",
		"Our best-loved %s, now in a new size.",
		"%s sourced from independent makers.",
	}
)

// deterministicID derives a stable UUID-shaped id from the seed and index so
// re-runs keep product ids.
func deterministicID(seed int64, index int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("collection:%d:%d", seed, index)))
	hex := fmt.Sprintf("%x", h[:16])
	return fmt.Sprintf("%s-%s-4%s-%x%s-%s",
		hex[0:8], hex[8:12], hex[13:16], 0x8|(h[8]&0x3), hex[17:20], hex[20:32])
}

func newGenerateCmd() *cobra.Command {
	var (
		count int
		seed  int64
		out   string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic seed catalog",
		Long: `generate writes a deterministic synthetic catalog in the seed format read by
"collectionctl query" and CATALOG_BOOTSTRAP=file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be positive")
			}
			products := generateProducts(count, seed)

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(products); err != nil {
				return fmt.Errorf("encode catalog: %w", err)
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %d products to %s\n", heading("wrote"), len(products), out)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1000, "number of products")
	cmd.Flags().Int64Var(&seed, "seed-value", 42, "random seed")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func generateProducts(count int, seed int64) []domain.Product {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- synthetic data

	// Allocate products to buckets by weight; the last bucket takes the rest.
	allocs := make([]int, len(typeBuckets))
	remaining := count
	for i, b := range typeBuckets {
		if i == len(typeBuckets)-1 {
			allocs[i] = remaining
			break
		}
		n := int(float64(count) * b.weight)
		allocs[i] = n
		remaining -= n
	}

	products := make([]domain.Product, 0, count)
	idx := 0
	for bi, n := range allocs {
		b := typeBuckets[bi]
		for j := 0; j < n; j++ {
			noun := b.nouns[rng.Intn(len(b.nouns))]
			name := fmt.Sprintf("%s %s", adjectives[rng.Intn(len(adjectives))], noun)
			if a := audiences[rng.Intn(len(audiences))]; a != "" {
				name += " " + a
			}

			cents := b.minCents + rng.Intn(b.maxCents-b.minCents+1)
			created := generatedEpoch.Add(-time.Duration(rng.Intn(90*24)) * time.Hour)

			p := domain.Product{
				ID:          deterministicID(seed, idx),
				Name:        name,
				Description: fmt.Sprintf(phrases[rng.Intn(len(phrases))], noun),
				Price:       decimal.New(int64(cents), -2),
				BrandID:     fmt.Sprintf("brand-%02d", idx%len(generatedBrands)),
				BrandName:   generatedBrands[idx%len(generatedBrands)],
				Stock:       rng.Intn(50),
				Status:      domain.StatusAvailable,
				ImageURL:    fmt.Sprintf("https://cdn.example.com/products/%d.jpg", idx),
				CreatedAt:   created,
				UpdatedAt:   created,
			}
			if b.label != "" {
				p.Types = []string{b.label}
			}
			if rng.Intn(20) == 0 {
				p.Status = domain.StatusUnavailable
			}
			p.Signal = generateSignal(rng, created)

			products = append(products, p)
			idx++
		}
	}
	return products
}

// generateSignal flags roughly a fifth of products hot and recent ones new.
func generateSignal(rng *rand.Rand, created time.Time) *domain.CurationSignal {
	if rng.Intn(3) == 0 {
		return nil
	}
	s := &domain.CurationSignal{RankScore: round2(rng.Float64())}
	if rng.Intn(5) == 0 {
		score := round2(rng.Float64())
		s.IsHot, s.HotScore = true, &score
	}
	if generatedEpoch.Sub(created) < 14*24*time.Hour {
		score := round2(1 - generatedEpoch.Sub(created).Hours()/(14*24))
		s.IsNew, s.NewScore = true, &score
	}
	return s
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
