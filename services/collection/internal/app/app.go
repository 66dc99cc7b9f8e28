package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/EcommerceGo/pkg/database"
	"github.com/utafrali/EcommerceGo/pkg/health"
	pkgkafka "github.com/utafrali/EcommerceGo/pkg/kafka"
	"github.com/utafrali/EcommerceGo/pkg/middleware"
	"github.com/utafrali/EcommerceGo/pkg/tracing"
	"github.com/utafrali/EcommerceGo/services/collection/internal/cache"
	"github.com/utafrali/EcommerceGo/services/collection/internal/config"
	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine/breaker"
	esengine "github.com/utafrali/EcommerceGo/services/collection/internal/engine/elasticsearch"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine/memory"
	pgengine "github.com/utafrali/EcommerceGo/services/collection/internal/engine/postgres"
	"github.com/utafrali/EcommerceGo/services/collection/internal/event"
	handler "github.com/utafrali/EcommerceGo/services/collection/internal/handler/http"
	"github.com/utafrali/EcommerceGo/services/collection/internal/interpret"
	"github.com/utafrali/EcommerceGo/services/collection/internal/seed"
	"github.com/utafrali/EcommerceGo/services/collection/internal/service"
	"github.com/utafrali/EcommerceGo/services/collection/migrations"
)

// App wires together all dependencies and runs the collection service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	consumer       *pkgkafka.Consumer
	dlq            *pkgkafka.DLQProducer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// stores are the catalog backends selected by configuration.
type stores struct {
	catalog engine.Catalog
	// indexer is nil for the postgres engine, which is written by the
	// product service rather than by this one.
	indexer engine.Indexer
	pool    *pgxpool.Pool
	es      *esengine.Engine
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracingCfg := cfg.Tracing
	tracingCfg.ServiceName = handler.ServiceName
	tracerShutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		tracerShutdown: tracerShutdown,
	}

	st, err := a.openStores(ctx)
	if err != nil {
		a.closeResources()
		return nil, err
	}
	a.pool = st.pool

	if err := a.bootstrap(ctx, st); err != nil {
		a.closeResources()
		return nil, err
	}
	if cfg.SearchEngine != config.EnginePostgres && st.pool != nil {
		// The pool only served the snapshot.
		st.pool.Close()
		st.pool, a.pool = nil, nil
	}

	// Cache: redis when configured, in-process otherwise.
	var c cache.Cache
	var redisCache *cache.Redis
	if cfg.Redis.Enabled() {
		a.redis, err = database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			a.closeResources()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		redisCache = cache.NewRedis(a.redis, "collection:")
		c = redisCache
		logger.Info("redis cache initialized")
	} else {
		c = cache.NewMemory(cfg.CacheTTL, 2*cfg.CacheTTL)
		logger.Info("in-process cache initialized", slog.Duration("ttl", cfg.CacheTTL))
	}

	catalog := st.catalog
	if cfg.BreakerEnabled {
		bcfg := breaker.DefaultConfig("catalog-" + cfg.SearchEngine)
		bcfg.Timeout = cfg.BreakerTimeout
		bcfg.FailureRatio = cfg.BreakerFailureRatio
		bcfg.MinRequests = cfg.BreakerMinRequests
		catalog = breaker.Wrap(catalog, bcfg, logger)
	}

	// Build the service layer.
	collectionService := service.NewCollectionService(
		catalog,
		interpret.New(interpret.DefaultKeywords()),
		c,
		service.Config{
			CacheTTL:         cfg.CacheTTL,
			FeaturedLimit:    cfg.FeaturedLimit,
			QuickSearchLimit: cfg.QuickSearchLimit,
		},
		logger,
	)

	// Kafka consumer keeping the read model in sync.
	if cfg.SyncEnabled() {
		eventConsumer := event.NewConsumer(st.indexer, c, logger)
		a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:      cfg.KafkaBrokers,
			GroupID:      cfg.KafkaGroupID,
			Topics:       event.Topics(),
			RetryBackoff: cfg.KafkaRetryBackoff,
		}, eventConsumer.Handle, logger)
		if cfg.KafkaDeadLetter {
			a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
			a.consumer.WithDeadLetter(a.dlq)
		}
		logger.Info("kafka consumer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Any("topics", event.Topics()),
		)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	if st.pool != nil {
		pool := st.pool
		healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
	}
	if st.es != nil {
		healthHandler.RegisterCritical("elasticsearch", st.es.Ping)
	}
	if redisCache != nil {
		healthHandler.RegisterNonCritical("redis", redisCache.Ping)
	}

	// HTTP router.
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	router := handler.NewRouter(collectionService, healthHandler, handler.RouterConfig{
		CORS:           cors,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		RequestTimeout: cfg.RequestTimeout,
		CacheMaxAge:    cfg.ResponseCacheMaxAge,
		RateLimit: middleware.RateLimitConfig{
			RPS:            cfg.RateLimitRPS,
			Burst:          cfg.RateLimitBurst,
			TrustForwarded: cfg.RateLimitTrustForwarded,
		},
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// openStores opens the configured catalog engine and, for a postgres
// bootstrap, the pool the snapshot is read from.
func (a *App) openStores(ctx context.Context) (*stores, error) {
	cfg, logger := a.cfg, a.logger
	st := &stores{}

	if cfg.NeedsPostgres() {
		pool, err := database.NewPostgresPool(ctx, &cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		st.pool = pool
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.Postgres.Host),
			slog.Int("port", cfg.Postgres.Port),
			slog.String("database", cfg.Postgres.DBName),
		)
		if cfg.SearchEngine == config.EnginePostgres {
			if err := database.RegisterPoolMetrics(pool, handler.ServiceName); err != nil {
				logger.Warn("register pool metrics", slog.String("error", err.Error()))
			}
		}

		if cfg.RunMigrations {
			if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
				pool.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("database migrations completed")
		}
	}

	switch cfg.SearchEngine {
	case config.EngineElasticsearch:
		es, err := esengine.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			if st.pool != nil {
				st.pool.Close()
			}
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		st.es, st.catalog, st.indexer = es, es, es
		logger.Info("elasticsearch catalog engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	case config.EngineMemory:
		mem := memory.New()
		st.catalog, st.indexer = mem, mem
		logger.Info("in-memory catalog engine initialized")
	default:
		st.catalog = pgengine.New(st.pool, database.QueryObserver{
			SlowThreshold: cfg.SlowQueryThreshold,
			Logger:        logger,
		})
		logger.Info("postgres catalog engine initialized")
	}
	return st, nil
}

// bootstrap fills a read-model engine from the configured snapshot source.
func (a *App) bootstrap(ctx context.Context, st *stores) error {
	var (
		products []domain.Product
		err      error
	)
	switch a.cfg.CatalogBootstrap {
	case config.BootstrapFile:
		products, err = seed.LoadFile(a.cfg.CatalogSeedFile)
	case config.BootstrapPostgres:
		products, err = pgengine.New(st.pool, database.QueryObserver{Logger: a.logger}).Snapshot(ctx)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("load catalog bootstrap: %w", err)
	}

	start := time.Now()
	if err := seed.Apply(ctx, st.indexer, products); err != nil {
		return fmt.Errorf("apply catalog bootstrap: %w", err)
	}
	a.logger.Info("catalog bootstrap completed",
		slog.String("source", a.cfg.CatalogBootstrap),
		slog.Int("products", len(products)),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}

// Run starts the HTTP server and Kafka consumer, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("engine", a.cfg.SearchEngine),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("component failed", slog.String("error", err.Error()))
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: HTTP server first, then the
// consumer, then the stores.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dead letter producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.closeResources()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeResources() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close error", slog.String("error", err.Error()))
		}
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
