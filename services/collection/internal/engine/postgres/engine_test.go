package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/pkg/database"
	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
	"github.com/utafrali/EcommerceGo/services/collection/internal/predicate"
	"github.com/utafrali/EcommerceGo/services/collection/internal/ranking"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

var snapshotOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

func setupEngine(t *testing.T) (*Engine, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock, database.QueryObserver{}), mock
}

func hitColumns() []string {
	return []string{
		"id", "name", "description", "price", "brand_id", "brand_name",
		"types", "stock", "status", "image_url", "created_at", "updated_at",
		"has_signal", "is_new", "new_score", "is_hot", "hot_score", "rank_score",
		"score",
	}
}

func f64(v float64) *float64 { return &v }

var created = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func candleRow(rows *pgxmock.Rows) *pgxmock.Rows {
	return rows.AddRow(
		"p1", "Lavender Soy Candle", "Hand poured", "25.00", "b1", "Wick & Co",
		[]byte(`["Candle","Gift Box"]`), 4, "available", "https://cdn.test/p1.jpg", created, created,
		true, false, (*float64)(nil), true, f64(0.9), 0.4,
		0.35,
	)
}

func jerkyRow(rows *pgxmock.Rows) *pgxmock.Rows {
	return rows.AddRow(
		"p2", "Beef Jerky", "", "12.50", "", "",
		[]byte(`[]`), 0, "unavailable", "", created, created,
		false, false, (*float64)(nil), false, (*float64)(nil), 0.0,
		0.0,
	)
}

// ---------------------------------------------------------------------------
// lowering
// ---------------------------------------------------------------------------

func TestBuilder_BindsEveryValue(t *testing.T) {
	b := &builder{}
	expr := predicate.AllOf(
		predicate.AnyOf(
			predicate.TypeIn{Labels: []string{"candle", "candles"}},
			predicate.Contains{Field: predicate.FieldName, Term: "50%_off"},
			predicate.Similar{Field: predicate.FieldBrand, Term: "wick", Threshold: 0.2},
			predicate.TextMatch{Query: "soy"},
		),
		predicate.PriceCompare{Op: predicate.OpLess, Value: decimal.NewFromInt(30)},
		predicate.Available{Want: false},
	)

	sql, err := b.where(expr)
	require.NoError(t, err)
	assert.Equal(t,
		"((EXISTS (SELECT 1 FROM jsonb_array_elements_text(p.types) t WHERE lower(t) = ANY($1))"+
			" OR p.name ILIKE $2"+
			" OR similarity(COALESCE(b.name, ''), $3) > $4"+
			" OR "+searchDocument+" @@ plainto_tsquery('english', $5))"+
			" AND p.price < $6::numeric"+
			" AND NOT (p.status = $7 AND p.stock > 0))",
		sql)
	assert.Equal(t, []any{
		[]string{"candle", "candles"}, `%50\%\_off%`, "wick", 0.2, "soy", "30", "available",
	}, b.args)
}

func TestBuilder_Sentinels(t *testing.T) {
	b := &builder{}
	s, err := b.where(predicate.MatchAll)
	require.NoError(t, err)
	assert.Equal(t, "TRUE", s)

	s, err = b.where(predicate.Not{X: predicate.Curated{Flag: predicate.FlagNew}})
	require.NoError(t, err)
	assert.Equal(t, "NOT ((COALESCE(s.is_new, FALSE) AND s.new_score IS NOT NULL))", s)
	assert.Empty(t, b.args)
}

func TestBuilder_TypesHaveNoSimilarityColumn(t *testing.T) {
	b := &builder{}
	_, err := b.where(predicate.Similar{Field: predicate.FieldTypes, Term: "gift", Threshold: 0.2})
	assert.Error(t, err)
}

func TestBuilder_Score(t *testing.T) {
	b := &builder{}
	assert.Equal(t, "0::float8", b.score(nil))
	assert.Equal(t,
		"GREATEST(similarity(p.name, $1), similarity(p.description, $1), similarity(COALESCE(b.name, ''), $1))::float8",
		b.score([]string{"candle"}))
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t,
		"score DESC, COALESCE(s.rank_score, 0) DESC, p.created_at DESC, p.id DESC",
		orderBy(ranking.For(domain.SortCollectionDefault, ranking.BaseRelevance)))
	assert.Equal(t, "p.price ASC, p.id ASC", orderBy(ranking.For(domain.SortPrice, ranking.BaseTrending)))
	assert.Equal(t, "COALESCE(s.hot_score, 0) DESC, p.created_at DESC, p.id DESC",
		orderBy(ranking.For(domain.SortCollectionDefault, ranking.BaseTrending)))
}

// ---------------------------------------------------------------------------
// Find
// ---------------------------------------------------------------------------

func TestFind_CountsAndFetchesInOneSnapshot(t *testing.T) {
	eng, mock := setupEngine(t)

	mock.ExpectBeginTx(snapshotOptions)
	mock.ExpectQuery(`SELECT count\(\*\)\s+FROM products p`).
		WithArgs("%candle%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`(?s)SELECT p\.id, .+ ORDER BY score DESC, .+ LIMIT \$3 OFFSET \$4`).
		WithArgs("%candle%", "candle", 20, 0).
		WillReturnRows(jerkyRow(candleRow(pgxmock.NewRows(hitColumns()))))
	mock.ExpectRollback()

	res, err := eng.Find(context.Background(), &engine.Query{
		Where:      predicate.Contains{Field: predicate.FieldName, Term: "candle"},
		Order:      ranking.For(domain.SortCollectionDefault, ranking.BaseRelevance),
		ScoreTerms: []string{"candle"},
		Limit:      20,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Hits, 2)

	candle := res.Hits[0]
	assert.Equal(t, "p1", candle.ID)
	assert.True(t, decimal.RequireFromString("25").Equal(candle.Price))
	assert.Equal(t, []string{"Candle", "Gift Box"}, candle.Types)
	assert.InDelta(t, 0.35, candle.Score, 1e-9)
	require.NotNil(t, candle.Signal)
	assert.True(t, candle.IsHot())
	assert.Nil(t, candle.Signal.NewScore)

	jerky := res.Hits[1]
	assert.Nil(t, jerky.Signal)
	assert.Empty(t, jerky.Types)
	assert.False(t, jerky.InStock())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFind_ZeroCountSkipsFetch(t *testing.T) {
	eng, mock := setupEngine(t)

	mock.ExpectBeginTx(snapshotOptions)
	mock.ExpectQuery(`SELECT count\(\*\)`).
		WithArgs("30").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	res, err := eng.Find(context.Background(), &engine.Query{
		Where: predicate.PriceCompare{Op: predicate.OpGreater, Value: decimal.NewFromInt(30)},
		Order: ranking.For(domain.SortPrice, ranking.BaseRelevance),
		Limit: 20,
	})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Hits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFind_MatchNothingNeverQueries(t *testing.T) {
	eng, mock := setupEngine(t)

	res, err := eng.Find(context.Background(), &engine.Query{Where: predicate.MatchNothing, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFind_StorageErrorPropagates(t *testing.T) {
	eng, mock := setupEngine(t)
	boom := &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}

	mock.ExpectBeginTx(snapshotOptions)
	mock.ExpectQuery(`SELECT count\(\*\)`).WillReturnError(boom)
	mock.ExpectRollback()

	_, err := eng.Find(context.Background(), &engine.Query{Where: predicate.MatchAll, Limit: 20})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count products")
	assert.Contains(t, err.Error(), "statement timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFind_BeginError(t *testing.T) {
	eng, mock := setupEngine(t)

	mock.ExpectBeginTx(snapshotOptions).WillReturnError(errors.New("connection refused"))

	_, err := eng.Find(context.Background(), &engine.Query{Where: predicate.MatchAll})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin catalog snapshot")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// SuggestBrands
// ---------------------------------------------------------------------------

func TestSuggestBrands_ShortTextUsesSubstringOnly(t *testing.T) {
	eng, mock := setupEngine(t)

	mock.ExpectQuery(`SELECT name FROM brands WHERE name ILIKE \$1 ORDER BY name LIMIT \$2`).
		WithArgs("%wi%", 5).
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("Wick & Co").AddRow("Wild Oats"))

	got, err := eng.SuggestBrands(context.Background(), " WI ", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Wick & Co", "Wild Oats"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestBrands_LongTextUsesSimilarity(t *testing.T) {
	eng, mock := setupEngine(t)

	mock.ExpectQuery(`similarity\(name, \$2\) > \$3\s+ORDER BY similarity\(name, \$2\) DESC, name`).
		WithArgs("%smokehose%", "smokehose", predicate.SimilarityThreshold, 8).
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("Smokehouse"))

	got, err := eng.SuggestBrands(context.Background(), "smokehose", 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"Smokehouse"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestBrands_EmptyText(t *testing.T) {
	eng, mock := setupEngine(t)

	got, err := eng.SuggestBrands(context.Background(), "  ", 8)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

func TestSnapshot_ReadsEverythingInIDOrder(t *testing.T) {
	eng, mock := setupEngine(t)

	mock.ExpectBeginTx(snapshotOptions)
	mock.ExpectQuery(`(?s)SELECT count\(\*\) .+ WHERE TRUE`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`ORDER BY p\.id ASC$`).
		WillReturnRows(candleRow(pgxmock.NewRows(hitColumns())))
	mock.ExpectRollback()

	products, err := eng.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Wick & Co", products[0].BrandName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
