package elasticsearch

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
)

// document is the indexed form of a product. Prices are stored twice:
// as a scaled float for range queries and as text to restore the exact
// decimal.
type document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BrandID     string    `json:"brand_id"`
	BrandName   string    `json:"brand_name"`
	Types       []string  `json:"types"`
	Price       float64   `json:"price"`
	PriceText   string    `json:"price_text"`
	Stock       int       `json:"stock"`
	Status      string    `json:"status"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	signalDoc
}

type signalDoc struct {
	HasSignal bool     `json:"has_signal"`
	IsNew     bool     `json:"is_new"`
	NewScore  *float64 `json:"new_score"`
	IsHot     bool     `json:"is_hot"`
	HotScore  *float64 `json:"hot_score"`
	RankScore float64  `json:"rank_score"`
}

func newSignalDoc(s *domain.CurationSignal) signalDoc {
	if s == nil {
		return signalDoc{}
	}
	return signalDoc{
		HasSignal: true,
		IsNew:     s.IsNew,
		NewScore:  s.NewScore,
		IsHot:     s.IsHot,
		HotScore:  s.HotScore,
		RankScore: s.RankScore,
	}
}

func toDocument(p *domain.Product) document {
	types := p.Types
	if types == nil {
		types = []string{}
	}
	return document{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		BrandID:     p.BrandID,
		BrandName:   p.BrandName,
		Types:       types,
		Price:       p.Price.InexactFloat64(),
		PriceText:   p.Price.String(),
		Stock:       p.Stock,
		Status:      p.Status,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		signalDoc:   newSignalDoc(p.Signal),
	}
}

func (d *document) product() (domain.Product, error) {
	price, err := decimal.NewFromString(d.PriceText)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse price of product %s: %w", d.ID, err)
	}
	p := domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		BrandID:     d.BrandID,
		BrandName:   d.BrandName,
		Types:       d.Types,
		Stock:       d.Stock,
		Status:      d.Status,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.HasSignal {
		p.Signal = &domain.CurationSignal{
			IsNew:     d.IsNew,
			NewScore:  d.NewScore,
			IsHot:     d.IsHot,
			HotScore:  d.HotScore,
			RankScore: d.RankScore,
		}
	}
	return p, nil
}
