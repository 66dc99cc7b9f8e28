// Package breaker guards a catalog with a circuit breaker. While the
// breaker is open, reads fail fast with a service-unavailable error
// instead of waiting on a store that is known to be down. It never
// retries.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/utafrali/EcommerceGo/pkg/errors"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
)

// Config holds configuration for the circuit breaker.
type Config struct {
	// Name identifies this breaker in metrics and logs.
	Name string
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32
	// Interval is the cyclic period of the closed state for clearing counts.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// FailureRatio trips the breaker once at least MinRequests were seen.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "catalog_circuit_breaker_state",
		Help: "Current state of the catalog circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Catalog wraps an engine.Catalog with circuit breaker protection.
type Catalog struct {
	next    engine.Catalog
	breaker *gobreaker.CircuitBreaker[any]
	name    string
}

var _ engine.Catalog = (*Catalog)(nil)

// Wrap returns next guarded by a breaker built from cfg.
func Wrap(next engine.Catalog, cfg Config, logger *slog.Logger) *Catalog {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		// A caller giving up or a rejected request says nothing about the
		// store's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, apperrors.ErrInvalidInput)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &Catalog{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		name:    cfg.Name,
	}
}

// State returns the current state of the breaker.
func (c *Catalog) State() gobreaker.State {
	return c.breaker.State()
}

// Find runs the wrapped Find through the breaker.
func (c *Catalog) Find(ctx context.Context, q *engine.Query) (*engine.Result, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.next.Find(ctx, q)
	})
	if err != nil {
		return nil, c.translate(err)
	}
	return out.(*engine.Result), nil
}

// SuggestBrands runs the wrapped SuggestBrands through the breaker.
func (c *Catalog) SuggestBrands(ctx context.Context, text string, limit int) ([]string, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.next.SuggestBrands(ctx, text, limit)
	})
	if err != nil {
		return nil, c.translate(err)
	}
	return out.([]string), nil
}

// Ping checks the wrapped catalog directly so readiness reflects the store
// rather than the breaker.
func (c *Catalog) Ping(ctx context.Context) error {
	if p, ok := c.next.(engine.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *Catalog) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.Unavailable("catalog", err)
	}
	return err
}
