package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/utafrali/EcommerceGo/pkg/errors"
	"github.com/utafrali/EcommerceGo/pkg/pagination"
	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
	"github.com/utafrali/EcommerceGo/services/collection/internal/predicate"
	"github.com/utafrali/EcommerceGo/services/collection/internal/ranking"
)

// Featured list kinds.
const (
	FeaturedHot     = "hot"
	FeaturedNew     = "new"
	FeaturedExplore = "explore"
	FeaturedGiftBox = "gift-box"
)

// FeaturedKinds returns the supported featured lists.
func FeaturedKinds() []string {
	return []string{FeaturedHot, FeaturedNew, FeaturedExplore, FeaturedGiftBox}
}

func (s *CollectionService) featuredQuery(kind string) (engine.Query, bool) {
	switch kind {
	case FeaturedHot:
		return engine.Query{Where: trending.where, Order: ranking.For(domain.SortCollectionDefault, trending.base)}, true
	case FeaturedNew:
		return engine.Query{Where: newlyAdded.where, Order: ranking.For(domain.SortCollectionDefault, newlyAdded.base)}, true
	case FeaturedExplore:
		return engine.Query{
			Where: predicate.HasSignal{},
			Order: ranking.For(domain.SortCollectionDefault, ranking.BaseRank),
		}, true
	case FeaturedGiftBox:
		exp, ok := s.interpreter.ExpandType("gift")
		if !ok {
			return engine.Query{Where: predicate.MatchNothing}, true
		}
		return engine.Query{
			Where: predicate.TypeIn{Labels: exp.Variants},
			Order: ranking.For(domain.SortCollectionDefault, ranking.BaseRelevance),
		}, true
	default:
		return engine.Query{}, false
	}
}

// Featured returns the top products of a featured list. Lists are cached
// for the configured TTL.
func (s *CollectionService) Featured(ctx context.Context, kind string) ([]domain.ProductSummary, error) {
	query, ok := s.featuredQuery(kind)
	if !ok {
		return nil, apperrors.NotFound("featured list", kind)
	}

	key := "featured:" + kind
	var cached []domain.ProductSummary
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	start := time.Now()
	page, err := s.find(ctx, &query, pagination.Params{Page: 1, PageSize: s.cfg.FeaturedLimit})
	observeQuery(kindFeatured, start, totalOf(page), err)
	if err != nil {
		return nil, fmt.Errorf("featured %s: %w", kind, err)
	}

	summaries := page.Summaries()
	s.cacheSet(ctx, key, summaries)

	s.logger.DebugContext(ctx, "featured list built",
		slog.String("kind", kind),
		slog.Int("count", len(summaries)),
		slog.Int64("took_ms", time.Since(start).Milliseconds()),
	)
	return summaries, nil
}
