package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_queries_total",
			Help: "Catalog queries by listing kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collection_query_duration_seconds",
			Help:    "Catalog query latency by listing kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	emptyResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_empty_results_total",
			Help: "Listings that matched no product, by listing kind",
		},
		[]string{"kind"},
	)
)

// Listing kinds used as metric labels.
const (
	kindCollection  = "collection"
	kindCurated     = "curated"
	kindSearch      = "search"
	kindQuickSearch = "quick_search"
	kindSuggest     = "suggest"
	kindFeatured    = "featured"
)

func observeQuery(kind string, start time.Time, total int, err error) {
	queryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		queriesTotal.WithLabelValues(kind, "error").Inc()
		return
	}
	queriesTotal.WithLabelValues(kind, "ok").Inc()
	if total == 0 {
		emptyResults.WithLabelValues(kind).Inc()
	}
}
