package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product availability statuses.
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
)

// Product is the read-only catalog view the collection service searches.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	BrandID     string          `json:"brand_id"`
	BrandName   string          `json:"brand_name"`
	// Types holds free-text labels such as "Gift Box" or "Snack", in the
	// order the catalog stores them.
	Types     []string        `json:"types"`
	Stock     int             `json:"stock"`
	Status    string          `json:"status"`
	ImageURL  string          `json:"image_url"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Signal    *CurationSignal `json:"signal,omitempty"`
}

// Brand is a product's maker.
type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CurationSignal is precomputed merchandising metadata for one product.
// A nil score means the flag was set without a score.
type CurationSignal struct {
	IsNew     bool     `json:"is_new"`
	NewScore  *float64 `json:"new_score,omitempty"`
	IsHot     bool     `json:"is_hot"`
	HotScore  *float64 `json:"hot_score,omitempty"`
	RankScore float64  `json:"rank_score"`
}

// InStock reports whether the product can be bought right now.
func (p *Product) InStock() bool {
	return p.Status == StatusAvailable && p.Stock > 0
}

// RankScore returns the general merchandising score, 0 without a signal.
func (p *Product) RankScore() float64 {
	if p.Signal == nil {
		return 0
	}
	return p.Signal.RankScore
}

// IsHot reports whether the product is flagged hot with a score.
func (p *Product) IsHot() bool {
	return p.Signal != nil && p.Signal.IsHot && p.Signal.HotScore != nil
}

// IsNew reports whether the product is flagged new with a score.
func (p *Product) IsNew() bool {
	return p.Signal != nil && p.Signal.IsNew && p.Signal.NewScore != nil
}

// HotScore returns the hot score, 0 when absent.
func (p *Product) HotScore() float64 {
	if p.Signal == nil || p.Signal.HotScore == nil {
		return 0
	}
	return *p.Signal.HotScore
}

// NewScore returns the new score, 0 when absent.
func (p *Product) NewScore() float64 {
	if p.Signal == nil || p.Signal.NewScore == nil {
		return 0
	}
	return *p.Signal.NewScore
}

// ProductSummary is the listing representation of a product.
type ProductSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Price string `json:"price"`
	Image string `json:"image"`
	IsNew bool   `json:"is_new"`
	IsHot bool   `json:"is_hot"`
}

// Summarize converts a product to its listing representation. The flags
// mirror the raw curation flags, so a product flagged hot without a score
// is still shown as hot even though it is not trending.
func Summarize(p *Product) ProductSummary {
	s := ProductSummary{
		ID:    p.ID,
		Name:  p.Name,
		Brand: p.BrandName,
		Price: p.Price.StringFixed(2),
		Image: p.ImageURL,
	}
	if p.Signal != nil {
		s.IsNew = p.Signal.IsNew
		s.IsHot = p.Signal.IsHot
	}
	return s
}
