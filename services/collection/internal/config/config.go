package config

import (
	"fmt"
	"slices"
	"time"

	pkgconfig "github.com/utafrali/EcommerceGo/pkg/config"
	"github.com/utafrali/EcommerceGo/pkg/database"
	"github.com/utafrali/EcommerceGo/pkg/tracing"
)

// Catalog engines.
const (
	EnginePostgres      = "postgres"
	EngineMemory        = "memory"
	EngineElasticsearch = "elasticsearch"
)

// Bootstrap sources for read-model engines.
const (
	BootstrapNone     = "none"
	BootstrapPostgres = "postgres"
	BootstrapFile     = "file"
)

// Config holds all configuration for the collection service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort            int           `env:"HTTP_PORT" envDefault:"8012"`
	RequestTimeout      time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout     time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ResponseCacheMaxAge time.Duration `env:"HTTP_CACHE_MAX_AGE" envDefault:"30s"`
	CORSAllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofAllowedCIDRs   []string      `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// Per-client rate limit on /api/v1; zero RPS disables it
	RateLimitRPS            float64 `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst          int     `env:"RATE_LIMIT_BURST" envDefault:"100"`
	RateLimitTrustForwarded bool    `env:"RATE_LIMIT_TRUST_FORWARDED" envDefault:"false"`

	// Catalog engine selection (postgres, memory or elasticsearch)
	SearchEngine string `env:"SEARCH_ENGINE" envDefault:"postgres"`

	// Postgres
	Postgres           database.PostgresConfig
	SlowQueryThreshold time.Duration `env:"POSTGRES_SLOW_QUERY_THRESHOLD" envDefault:"250ms"`
	RunMigrations      bool          `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"false"`

	// Elasticsearch
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"collection_products"`

	// Read-model bootstrap (memory and elasticsearch engines)
	CatalogBootstrap string `env:"CATALOG_BOOTSTRAP" envDefault:"none"`
	CatalogSeedFile  string `env:"CATALOG_SEED_FILE"`

	// Cache: redis when REDIS_URL is set, in-process otherwise
	Redis    database.RedisConfig
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// Kafka; no brokers means no read-model sync
	KafkaBrokers      []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaGroupID      string        `env:"KAFKA_GROUP_ID" envDefault:"collection-service"`
	KafkaRetryBackoff time.Duration `env:"KAFKA_RETRY_BACKOFF" envDefault:"200ms"`
	KafkaDeadLetter   bool          `env:"KAFKA_DEAD_LETTER" envDefault:"true"`

	// Circuit breaker around the catalog
	BreakerEnabled      bool          `env:"BREAKER_ENABLED" envDefault:"true"`
	BreakerTimeout      time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`

	// Listing limits
	FeaturedLimit    int `env:"FEATURED_LIMIT" envDefault:"8"`
	QuickSearchLimit int `env:"QUICK_SEARCH_LIMIT" envDefault:"8"`

	Tracing tracing.Config
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load collection config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !slices.Contains([]string{EnginePostgres, EngineMemory, EngineElasticsearch}, c.SearchEngine) {
		return fmt.Errorf("invalid SEARCH_ENGINE %q: must be postgres, memory or elasticsearch", c.SearchEngine)
	}
	if !slices.Contains([]string{BootstrapNone, BootstrapPostgres, BootstrapFile}, c.CatalogBootstrap) {
		return fmt.Errorf("invalid CATALOG_BOOTSTRAP %q: must be none, postgres or file", c.CatalogBootstrap)
	}
	if c.CatalogBootstrap == BootstrapFile && c.CatalogSeedFile == "" {
		return fmt.Errorf("CATALOG_SEED_FILE is required when CATALOG_BOOTSTRAP=file")
	}
	if c.SearchEngine == EnginePostgres && c.CatalogBootstrap != BootstrapNone {
		return fmt.Errorf("CATALOG_BOOTSTRAP applies to read-model engines only, not %s", c.SearchEngine)
	}
	if c.FeaturedLimit < 1 || c.FeaturedLimit > 100 {
		return fmt.Errorf("invalid FEATURED_LIMIT: %d (must be 1..100)", c.FeaturedLimit)
	}
	if c.QuickSearchLimit < 1 || c.QuickSearchLimit > 50 {
		return fmt.Errorf("invalid QUICK_SEARCH_LIMIT: %d (must be 1..50)", c.QuickSearchLimit)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("invalid CACHE_TTL: %s", c.CacheTTL)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("invalid RATE_LIMIT_RPS: %v", c.RateLimitRPS)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("invalid BREAKER_FAILURE_RATIO: %v (must be in (0, 1])", c.BreakerFailureRatio)
	}
	return nil
}

// NeedsPostgres reports whether a postgres pool must be opened.
func (c *Config) NeedsPostgres() bool {
	return c.SearchEngine == EnginePostgres || c.CatalogBootstrap == BootstrapPostgres
}

// SyncEnabled reports whether the Kafka read-model consumer should run.
func (c *Config) SyncEnabled() bool {
	return c.SearchEngine != EnginePostgres && len(c.KafkaBrokers) > 0
}
