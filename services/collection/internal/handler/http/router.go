package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/EcommerceGo/pkg/health"
	"github.com/utafrali/EcommerceGo/pkg/middleware"
	"github.com/utafrali/EcommerceGo/services/collection/internal/service"
)

// ServiceName labels metrics and spans.
const ServiceName = "collection"

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	PprofCIDRs     []string
	RequestTimeout time.Duration
	// CacheMaxAge is advertised to clients on successful listings; zero
	// disables the Cache-Control header.
	CacheMaxAge time.Duration
	RateLimit   middleware.RateLimitConfig
}

// NewRouter creates a chi router with all collection service routes registered.
func NewRouter(
	svc *service.CollectionService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	h := NewCollectionHandler(svc, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit, logger))
		if cfg.CacheMaxAge > 0 {
			r.Use(middleware.CacheControl(cfg.CacheMaxAge))
		}

		r.Get("/collections/{slug}", h.ListCollection)
		r.Get("/featured/{kind}", h.Featured)

		r.Route("/search", func(r chi.Router) {
			r.Get("/", h.QuickSearch)
			r.Get("/results", h.SearchResults)
			r.Get("/suggest", h.Suggest)
		})
	})

	return r
}
