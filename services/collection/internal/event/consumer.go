package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	pkgkafka "github.com/utafrali/EcommerceGo/pkg/kafka"
	"github.com/utafrali/EcommerceGo/services/collection/internal/cache"
	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
)

// Event types consumed to keep the collection read model in sync.
const (
	TypeProductUpserted = "product.upserted"
	TypeProductDeleted  = "product.deleted"
	TypeCurationUpdated = "curation.updated"
)

// Topics returns the Kafka topics the consumer subscribes to.
func Topics() []string {
	return []string{
		pkgkafka.Topic("product", "upserted"),
		pkgkafka.Topic("product", "deleted"),
		pkgkafka.Topic("curation", "updated"),
	}
}

// ProductEventData is the payload of a product.upserted event.
type ProductEventData struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	BrandID     string          `json:"brand_id"`
	BrandName   string          `json:"brand_name"`
	Types       []string        `json:"types"`
	Stock       int             `json:"stock"`
	Status      string          `json:"status"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	// Signal is carried along so a re-indexed product keeps its curation.
	Signal *domain.CurationSignal `json:"signal,omitempty"`
}

// ProductDeletedData is the payload of a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// CurationEventData is the payload of a curation.updated event. A null
// signal clears the product's curation.
type CurationEventData struct {
	ProductID string                 `json:"product_id"`
	Signal    *domain.CurationSignal `json:"signal"`
}

// Consumer applies catalog events to a read-model index and drops cached
// lists that may now be stale.
type Consumer struct {
	indexer engine.Indexer
	cache   cache.Cache
	logger  *slog.Logger
}

// NewConsumer creates a new event consumer for the collection service.
func NewConsumer(indexer engine.Indexer, c cache.Cache, logger *slog.Logger) *Consumer {
	return &Consumer{
		indexer: indexer,
		cache:   c,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	var err error
	switch event.EventType {
	case TypeProductUpserted:
		err = c.handleProductUpserted(ctx, event)
	case TypeProductDeleted:
		err = c.handleProductDeleted(ctx, event)
	case TypeCurationUpdated:
		err = c.handleCurationUpdated(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
	if err != nil {
		return err
	}

	if c.cache != nil {
		if err := c.cache.Purge(ctx); err != nil {
			// The index is already updated; stale cache entries expire on their own.
			c.logger.WarnContext(ctx, "failed to purge cache after catalog event",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

func (c *Consumer) handleProductUpserted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal product.upserted data: %w", err)
	}
	if data.ID == "" {
		return fmt.Errorf("product.upserted event %s has no product id", event.EventID)
	}

	if err := c.indexer.Upsert(ctx, data.product()); err != nil {
		return fmt.Errorf("index product from upserted event: %w", err)
	}

	c.logger.InfoContext(ctx, "indexed product from upserted event",
		slog.String("product_id", data.ID),
	)
	return nil
}

func (c *Consumer) handleProductDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal product.deleted data: %w", err)
	}

	if err := c.indexer.Delete(ctx, data.ID); err != nil {
		return fmt.Errorf("delete product from deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "deleted product from deleted event",
		slog.String("product_id", data.ID),
	)
	return nil
}

func (c *Consumer) handleCurationUpdated(ctx context.Context, event *pkgkafka.Event) error {
	var data CurationEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal curation.updated data: %w", err)
	}

	if err := c.indexer.ApplySignal(ctx, data.ProductID, data.Signal); err != nil {
		return fmt.Errorf("apply curation signal: %w", err)
	}

	c.logger.InfoContext(ctx, "applied curation signal",
		slog.String("product_id", data.ProductID),
		slog.Bool("cleared", data.Signal == nil),
	)
	return nil
}

func (d *ProductEventData) product() domain.Product {
	status := d.Status
	if status == "" {
		status = domain.StatusAvailable
	}
	return domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		BrandID:     d.BrandID,
		BrandName:   d.BrandName,
		Types:       d.Types,
		Stock:       d.Stock,
		Status:      status,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		Signal:      d.Signal,
	}
}
