package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/utafrali/EcommerceGo/pkg/errors"
	"github.com/utafrali/EcommerceGo/pkg/pagination"
	"github.com/utafrali/EcommerceGo/pkg/slug"
	"github.com/utafrali/EcommerceGo/services/collection/internal/cache"
	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
	"github.com/utafrali/EcommerceGo/services/collection/internal/interpret"
	"github.com/utafrali/EcommerceGo/services/collection/internal/predicate"
	"github.com/utafrali/EcommerceGo/services/collection/internal/ranking"
)

// Canonical curated collection identifiers.
const (
	CuratedTrending   = "trending"
	CuratedNewlyAdded = "newly-added"
)

type curatedCollection struct {
	id    string
	where predicate.Expr
	base  ranking.Base
}

var (
	trending = curatedCollection{
		id:    CuratedTrending,
		where: predicate.Curated{Flag: predicate.FlagHot},
		base:  ranking.BaseTrending,
	}
	newlyAdded = curatedCollection{
		id:    CuratedNewlyAdded,
		where: predicate.Curated{Flag: predicate.FlagNew},
		base:  ranking.BaseNewlyAdded,
	}

	// curatedSlugs maps normalized slugs, storefront aliases included, to
	// the reserved collections that bypass slug interpretation.
	curatedSlugs = map[string]curatedCollection{
		"trending":    trending,
		"whats-hot":   trending,
		"newly-added": newlyAdded,
		"new-stuff":   newlyAdded,
	}
)

// Config holds the service's tunables.
type Config struct {
	CacheTTL         time.Duration
	FeaturedLimit    int
	QuickSearchLimit int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:         5 * time.Minute,
		FeaturedLimit:    8,
		QuickSearchLimit: 8,
	}
}

// CollectionService resolves collection slugs, free-text searches and
// featured lists against a catalog.
type CollectionService struct {
	catalog     engine.Catalog
	interpreter *interpret.Interpreter
	cache       cache.Cache
	cfg         Config
	logger      *slog.Logger
}

// NewCollectionService creates a new collection service. A nil cache
// disables caching.
func NewCollectionService(
	catalog engine.Catalog,
	interpreter *interpret.Interpreter,
	c cache.Cache,
	cfg Config,
	logger *slog.Logger,
) *CollectionService {
	def := DefaultConfig()
	if cfg.FeaturedLimit <= 0 {
		cfg.FeaturedLimit = def.FeaturedLimit
	}
	if cfg.QuickSearchLimit <= 0 {
		cfg.QuickSearchLimit = def.QuickSearchLimit
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	return &CollectionService{
		catalog:     catalog,
		interpreter: interpreter,
		cache:       c,
		cfg:         cfg,
		logger:      logger,
	}
}

// ListRequest asks for one page of a collection.
type ListRequest struct {
	Slug    string
	Filters domain.Filters
	Sort    domain.SortMode
	Page    pagination.Params
}

// Plan is the resolved, unpaginated query for a slug together with the
// diagnostics that produced it.
type Plan struct {
	// Slug is the normalized slug.
	Slug string
	// Curated is the canonical curated collection, empty for interpreted slugs.
	Curated string
	Tokens  []interpret.Token
	Intent  domain.SearchIntent
	Query   engine.Query
}

// Plan resolves a slug and filters into a catalog query without running it.
func (s *CollectionService) Plan(rawSlug string, f *domain.Filters, sort domain.SortMode) *Plan {
	normalized := slug.Normalize(rawSlug)
	plan := &Plan{Slug: normalized}

	if c, ok := curatedSlugs[normalized]; ok {
		plan.Curated = c.id
		plan.Query = engine.Query{
			Where: predicate.AllOf(c.where, predicate.Filters(f)),
			Order: ranking.For(sort, c.base),
		}
		return plan
	}

	plan.Intent, plan.Tokens = s.interpreter.Interpret(normalized)
	plan.Query = engine.Query{
		Where:      predicate.Compile(&plan.Intent, f),
		Order:      ranking.For(sort, ranking.BaseRelevance),
		ScoreTerms: ranking.IntentScoreTerms(&plan.Intent),
	}
	return plan
}

// Resolve returns one page of the collection named by req.Slug.
func (s *CollectionService) Resolve(ctx context.Context, req *ListRequest) (*domain.ResultPage, error) {
	if err := validateList(&req.Filters, &req.Page); err != nil {
		return nil, err
	}

	start := time.Now()
	plan := s.Plan(req.Slug, &req.Filters, req.Sort)

	kind := kindCollection
	if plan.Curated != "" {
		kind = kindCurated
	}

	page, err := s.find(ctx, &plan.Query, req.Page)
	observeQuery(kind, start, totalOf(page), err)
	if err != nil {
		return nil, fmt.Errorf("resolve collection %q: %w", plan.Slug, err)
	}

	s.logger.DebugContext(ctx, "collection resolved",
		slog.String("slug", plan.Slug),
		slog.String("curated", plan.Curated),
		slog.String("intent", plan.Intent.Kind()),
		slog.String("order", plan.Query.Order.String()),
		slog.Int("total", page.Total),
		slog.Int64("took_ms", time.Since(start).Milliseconds()),
	)
	return page, nil
}

// find runs q for one page. Predicates that can match nothing never reach
// the catalog.
func (s *CollectionService) find(ctx context.Context, q *engine.Query, p pagination.Params) (*domain.ResultPage, error) {
	page := &domain.ResultPage{
		Items:    []domain.ScoredProduct{},
		Page:     p.Page,
		PageSize: p.PageSize,
	}
	if predicate.IsMatchNothing(q.Where) {
		return page, nil
	}

	paged := *q
	paged.Offset = p.Offset()
	paged.Limit = p.PageSize

	res, err := s.catalog.Find(ctx, &paged)
	if err != nil {
		return nil, err
	}
	page.Total = res.Total
	if res.Hits != nil {
		page.Items = res.Hits
	}
	return page, nil
}

func totalOf(page *domain.ResultPage) int {
	if page == nil {
		return 0
	}
	return page.Total
}

func validateList(f *domain.Filters, p *pagination.Params) error {
	if p.Page == 0 && p.PageSize == 0 {
		*p = pagination.DefaultParams()
	}
	if p.Page < 1 || p.Page > pagination.MaxPage {
		return apperrors.InvalidParameter("page", fmt.Sprintf("must be between 1 and %d", pagination.MaxPage))
	}
	if p.PageSize < 1 || p.PageSize > pagination.MaxPageSize {
		return apperrors.InvalidParameter("page_size", fmt.Sprintf("must be between 1 and %d", pagination.MaxPageSize))
	}
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		return apperrors.InvalidParameter("minPrice", "must not be negative")
	}
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return apperrors.InvalidParameter("maxPrice", "must not be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return apperrors.InvalidInput("minPrice must not exceed maxPrice")
	}
	return nil
}
