// Package cache stores small, recomputable read results such as brand
// suggestions and featured lists.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: key not found")

// Cache is a JSON value cache.
type Cache interface {
	// Get decodes the value under key into dest, or returns ErrMiss.
	Get(ctx context.Context, key string, dest any) error
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Purge drops every entry this cache owns.
	Purge(ctx context.Context) error
}

var lookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "collection_cache_lookups_total",
		Help: "Cache lookups by backend and outcome",
	},
	[]string{"backend", "outcome"},
)

func observe(backend string, err error) {
	switch {
	case err == nil:
		lookups.WithLabelValues(backend, "hit").Inc()
	case errors.Is(err, ErrMiss):
		lookups.WithLabelValues(backend, "miss").Inc()
	default:
		lookups.WithLabelValues(backend, "error").Inc()
	}
}
