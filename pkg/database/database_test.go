package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ─── Config ──────────────────────────────────────────────────────────────────

func TestPostgresConfig_DSN_EscapesCredentials(t *testing.T) {
	cfg := PostgresConfig{
		Host: "db", Port: 5433, User: "reader", Password: "p@ss/word",
		DBName: "catalog", SSLMode: "require",
	}
	assert.Equal(t, "postgres://reader:p%40ss%2Fword@db:5433/catalog?sslmode=require", cfg.DSN())
}

func TestRetryBackoff_ExponentialWithJitter(t *testing.T) {
	for attempt, base := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		for i := 0; i < 50; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, base*3/4)
			assert.LessOrEqual(t, d, base*5/4)
		}
	}
	assert.Positive(t, retryBackoff(0))
	assert.LessOrEqual(t, retryBackoff(-3), 1250*time.Millisecond)
}

func TestRedisConfig_Enabled(t *testing.T) {
	assert.False(t, RedisConfig{}.Enabled())
	assert.True(t, RedisConfig{URL: "redis://localhost:6379/0"}.Enabled())
}

// ─── isConnectionError ───────────────────────────────────────────────────────

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection exception class", &pgconn.PgError{Code: "08006"}, true},
		{"cannot connect now", &pgconn.PgError{Code: "57P03"}, true},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"unique violation", fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"}), false},
		{"dial failure", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"plain error", errors.New("bad things"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConnectionError(tt.err))
		})
	}
}

// ─── QueryObserver ───────────────────────────────────────────────────────────

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestQueryObserver_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := QueryObserver{}.Observe(context.Background(), "catalog.count", "SELECT count(*) FROM products")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.catalog.count", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestQueryObserver_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := QueryObserver{}.Observe(context.Background(), "catalog.fetch", "SELECT 1")
	end(errors.New("relation does not exist"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestQueryObserver_SlowQueryLogged(t *testing.T) {
	var buf bytes.Buffer
	obs := QueryObserver{
		SlowThreshold: time.Nanosecond,
		Logger:        slog.New(slog.NewTextHandler(&buf, nil)),
	}

	_, end := obs.Observe(context.Background(), "catalog.fetch", "SELECT 1")
	time.Sleep(time.Millisecond)
	end(nil)

	assert.Contains(t, buf.String(), "slow query detected")
	assert.Contains(t, buf.String(), "catalog.fetch")
}

func TestQueryObserver_FastQueryNotLogged(t *testing.T) {
	var buf bytes.Buffer
	obs := QueryObserver{SlowThreshold: time.Hour, Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	_, end := obs.Observe(context.Background(), "catalog.fetch", "SELECT 1")
	end(nil)

	assert.Empty(t, buf.String())
}

// ─── PoolStatsCollector ──────────────────────────────────────────────────────

func TestPoolStatsCollector_Describe(t *testing.T) {
	c := NewPoolStatsCollector(nil, "collection-service")
	var _ prometheus.Collector = c

	ch := make(chan *prometheus.Desc, 20)
	c.Describe(ch)
	close(ch)

	var names []string
	for d := range ch {
		names = append(names, d.String())
	}
	require.Len(t, names, 8)
	assert.Contains(t, names[0], "db_pool_acquired_connections")
	assert.Contains(t, names[7], "db_pool_canceled_acquire_count_total")
}

// ─── RunMigrations ───────────────────────────────────────────────────────────

func TestRunMigrations_AppliesPendingInOrder(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	files := fstest.MapFS{
		"002_search_indexes.up.sql": {Data: []byte("CREATE INDEX idx_b ON products (name)")},
		"001_trgm.up.sql":           {Data: []byte("CREATE EXTENSION IF NOT EXISTS pg_trgm")},
		"001_trgm.down.sql":         {Data: []byte("DROP EXTENSION pg_trgm")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	mock.ExpectQuery("SELECT EXISTS").WithArgs("001_trgm.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery("SELECT EXISTS").WithArgs("002_search_indexes.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE INDEX idx_b").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("002_search_indexes.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), mock, files, discard()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SQLErrorIsNotRetried(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	files := fstest.MapFS{"001_bad.up.sql": {Data: []byte("CREATE INDEXX")}}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("001_bad.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE INDEXX").WillReturnError(&pgconn.PgError{Code: "42601", Message: "syntax error"})
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, files, discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 001_bad.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}
