package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/utafrali/EcommerceGo/pkg/errors"
	"github.com/utafrali/EcommerceGo/pkg/pagination"
	"github.com/utafrali/EcommerceGo/services/collection/internal/cache"
	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
	"github.com/utafrali/EcommerceGo/services/collection/internal/predicate"
	"github.com/utafrali/EcommerceGo/services/collection/internal/ranking"
)

// MaxQuickSearchLimit caps the typeahead result size.
const MaxQuickSearchLimit = 50

// QuickSearchRequest is a typeahead request.
type QuickSearchRequest struct {
	Query   string
	Limit   int
	Filters domain.Filters
}

// SearchRequest asks for one page of free-text results.
type SearchRequest struct {
	Query   string
	Filters domain.Filters
	Sort    domain.SortMode
	Page    pagination.Params
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

func freeTextQuery(q string, f *domain.Filters, sort domain.SortMode) engine.Query {
	return engine.Query{
		Where:      predicate.AllOf(predicate.FreeText(q), predicate.Filters(f)),
		Order:      ranking.For(sort, ranking.BaseRelevance),
		ScoreTerms: ranking.QueryScoreTerms(q),
	}
}

// QuickSearch returns brand suggestions and the best matching products for
// a typed query. Both lookups run concurrently; either failing fails the
// request.
func (s *CollectionService) QuickSearch(ctx context.Context, req *QuickSearchRequest) (*domain.QuickSearchResult, error) {
	result := &domain.QuickSearchResult{
		Suggestions: []string{},
		Products:    []domain.ProductSummary{},
	}

	q := normalizeQuery(req.Query)
	if q == "" {
		return result, nil
	}

	limit := req.Limit
	if limit == 0 {
		limit = s.cfg.QuickSearchLimit
	}
	if limit < 1 || limit > MaxQuickSearchLimit {
		return nil, apperrors.InvalidParameter("limit", fmt.Sprintf("must be between 1 and %d", MaxQuickSearchLimit))
	}
	if err := validateList(&req.Filters, &pagination.Params{Page: 1, PageSize: limit}); err != nil {
		return nil, err
	}

	start := time.Now()
	query := freeTextQuery(q, &req.Filters, domain.SortCollectionDefault)
	query.Limit = limit

	var (
		suggestions []string
		found       *engine.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		suggestions, err = s.Suggest(gctx, q, limit)
		return err
	})
	g.Go(func() error {
		var err error
		found, err = s.catalog.Find(gctx, &query)
		return err
	})

	err := g.Wait()
	total := 0
	if found != nil {
		total = found.Total
	}
	observeQuery(kindQuickSearch, start, total, err)
	if err != nil {
		return nil, fmt.Errorf("quick search %q: %w", q, err)
	}

	result.Suggestions = suggestions
	result.Total = found.Total
	for i := range found.Hits {
		result.Products = append(result.Products, domain.Summarize(&found.Hits[i].Product))
	}

	s.logger.DebugContext(ctx, "quick search executed",
		slog.String("query", q),
		slog.Int("suggestions", len(suggestions)),
		slog.Int("total", total),
		slog.Int64("took_ms", time.Since(start).Milliseconds()),
	)
	return result, nil
}

// Search returns one page of products matching a free-text query.
func (s *CollectionService) Search(ctx context.Context, req *SearchRequest) (*domain.ResultPage, error) {
	if err := validateList(&req.Filters, &req.Page); err != nil {
		return nil, err
	}

	start := time.Now()
	q := normalizeQuery(req.Query)
	query := freeTextQuery(q, &req.Filters, req.Sort)

	page, err := s.find(ctx, &query, req.Page)
	observeQuery(kindSearch, start, totalOf(page), err)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}

	s.logger.DebugContext(ctx, "search executed",
		slog.String("query", q),
		slog.String("order", query.Order.String()),
		slog.Int("total", page.Total),
		slog.Int64("took_ms", time.Since(start).Milliseconds()),
	)
	return page, nil
}

// Suggest returns up to limit brand names for q; zero means the quick
// search default. Results are cached per normalized query and limit.
func (s *CollectionService) Suggest(ctx context.Context, q string, limit int) ([]string, error) {
	q = normalizeQuery(q)
	if q == "" {
		return []string{}, nil
	}
	if limit == 0 {
		limit = s.cfg.QuickSearchLimit
	}
	if limit < 1 || limit > MaxQuickSearchLimit {
		return nil, apperrors.InvalidParameter("limit", fmt.Sprintf("must be between 1 and %d", MaxQuickSearchLimit))
	}

	key := fmt.Sprintf("suggest:%d:%s", limit, q)
	var names []string
	if s.cacheGet(ctx, key, &names) {
		return names, nil
	}

	start := time.Now()
	names, err := s.catalog.SuggestBrands(ctx, q, limit)
	observeQuery(kindSuggest, start, len(names), err)
	if err != nil {
		return nil, fmt.Errorf("suggest brands %q: %w", q, err)
	}
	if names == nil {
		names = []string{}
	}

	s.cacheSet(ctx, key, names)
	return names, nil
}

// cacheGet reports whether key was found and decoded into dest. Cache
// failures are logged and treated as misses.
func (s *CollectionService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.WarnContext(ctx, "cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return false
}

func (s *CollectionService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
