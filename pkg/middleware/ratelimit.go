package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/utafrali/EcommerceGo/pkg/logger"
)

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	// RPS is the sustained request rate per client; zero disables limiting.
	RPS   float64
	Burst int
	// TrustForwarded keys clients by the first X-Forwarded-For entry
	// instead of the connection address. Enable only behind a proxy.
	TrustForwarded bool
	// IdleTTL is how long an idle client's bucket is kept.
	IdleTTL time.Duration
}

// limiterStore hands out one limiter per client key and forgets clients
// idle for longer than the TTL.
type limiterStore struct {
	mu       sync.Mutex
	limiters *gocache.Cache
	limit    rate.Limit
	burst    int
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = int(math.Max(1, math.Ceil(cfg.RPS)))
	}
	return &limiterStore{
		limiters: gocache.New(ttl, ttl),
		limit:    rate.Limit(cfg.RPS),
		burst:    burst,
	}
}

// get returns the client's limiter and refreshes its expiry.
func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.limiters.Get(key); ok {
		l := v.(*rate.Limiter)
		s.limiters.SetDefault(key, l)
		return l
	}
	l := rate.NewLimiter(s.limit, s.burst)
	s.limiters.SetDefault(key, l)
	return l
}

func (s *limiterStore) len() int {
	return s.limiters.ItemCount()
}

// RateLimit rejects clients that exceed their token bucket with 429 and a
// Retry-After header.
func RateLimit(cfg RateLimitConfig, l *slog.Logger) func(http.Handler) http.Handler {
	if cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	store := newLimiterStore(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r, cfg.TrustForwarded)
			limiter := store.get(key)

			res := limiter.Reserve()
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				l.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("client", key),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{
						"code":       "RATE_LIMITED",
						"message":    "too many requests",
						"request_id": logger.CorrelationIDFromContext(r.Context()),
					},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller by IP address.
func clientKey(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
