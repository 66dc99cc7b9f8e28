package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/EcommerceGo/pkg/database"
	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
	"github.com/utafrali/EcommerceGo/services/collection/internal/predicate"
	"github.com/utafrali/EcommerceGo/services/collection/internal/ranking"
)

// Engine implements engine.Catalog on PostgreSQL with the pg_trgm extension.
type Engine struct {
	pool database.Pool
	obs  database.QueryObserver
}

var _ engine.Catalog = (*Engine)(nil)

// New creates a PostgreSQL-backed catalog.
func New(pool database.Pool, obs database.QueryObserver) *Engine {
	return &Engine{pool: pool, obs: obs}
}

// Ping checks the connection.
func (e *Engine) Ping(ctx context.Context) error {
	return e.pool.Ping(ctx)
}

// Find counts and fetches the matching products inside one read-only,
// repeatable-read transaction so both see the same snapshot.
func (e *Engine) Find(ctx context.Context, q *engine.Query) (*engine.Result, error) {
	if predicate.IsMatchNothing(q.Where) {
		return &engine.Result{Hits: []domain.ScoredProduct{}}, nil
	}

	b := &builder{}
	where, err := b.where(q.Where)
	if err != nil {
		return nil, fmt.Errorf("compile predicate: %w", err)
	}
	whereArgs := len(b.args)

	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin catalog snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	total, err := e.count(ctx, tx, where, b.args[:whereArgs])
	if err != nil {
		return nil, err
	}
	if total == 0 || (q.Limit > 0 && q.Offset >= total) {
		return &engine.Result{Hits: []domain.ScoredProduct{}, Total: total}, nil
	}

	score := b.score(q.ScoreTerms)
	query := fmt.Sprintf(`
		SELECT %s,
			   %s AS score
		%s
		WHERE %s
		ORDER BY %s`,
		productColumns, score, fromClause, where, orderBy(q.Order),
	)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %s OFFSET %s", b.bind(q.Limit), b.bind(max(q.Offset, 0)))
	}

	hits, err := e.fetch(ctx, tx, query, b.args)
	if err != nil {
		return nil, err
	}
	return &engine.Result{Hits: hits, Total: total}, nil
}

func (e *Engine) count(ctx context.Context, tx pgx.Tx, where string, args []any) (total int, err error) {
	query := fmt.Sprintf(`SELECT count(*) %s WHERE %s`, fromClause, where)

	ctx, end := e.obs.Observe(ctx, "catalog.count", query)
	defer func() { end(err) }()

	if err = tx.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

func (e *Engine) fetch(ctx context.Context, tx pgx.Tx, query string, args []any) (hits []domain.ScoredProduct, err error) {
	ctx, end := e.obs.Observe(ctx, "catalog.fetch", query)
	defer func() { end(err) }()

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	defer rows.Close()

	hits = make([]domain.ScoredProduct, 0)
	for rows.Next() {
		h, err := scanHit(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return hits, nil
}

func scanHit(rows pgx.Rows) (domain.ScoredProduct, error) {
	var (
		h         domain.ScoredProduct
		price     string
		typesJSON []byte
		hasSignal bool
		sig       domain.CurationSignal
	)
	if err := rows.Scan(
		&h.ID,
		&h.Name,
		&h.Description,
		&price,
		&h.BrandID,
		&h.BrandName,
		&typesJSON,
		&h.Stock,
		&h.Status,
		&h.ImageURL,
		&h.CreatedAt,
		&h.UpdatedAt,
		&hasSignal,
		&sig.IsNew,
		&sig.NewScore,
		&sig.IsHot,
		&sig.HotScore,
		&sig.RankScore,
		&h.Score,
	); err != nil {
		return h, fmt.Errorf("scan product row: %w", err)
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return h, fmt.Errorf("parse price of product %s: %w", h.ID, err)
	}
	h.Price = p

	if typesJSON != nil {
		if err := json.Unmarshal(typesJSON, &h.Types); err != nil {
			return h, fmt.Errorf("unmarshal types of product %s: %w", h.ID, err)
		}
	}
	if hasSignal {
		h.Signal = &sig
	}
	return h, nil
}

// SuggestBrands searches the brand table. Texts of two characters or less
// match by substring in name order; longer texts also match by similarity
// and are ordered by it.
func (e *Engine) SuggestBrands(ctx context.Context, text string, limit int) (names []string, err error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || limit <= 0 {
		return []string{}, nil
	}

	pattern := "%" + escapeLike(text) + "%"
	var (
		query string
		args  []any
	)
	if utf8.RuneCountInString(text) <= 2 {
		query = `SELECT name FROM brands WHERE name ILIKE $1 ORDER BY name LIMIT $2`
		args = []any{pattern, limit}
	} else {
		query = `
		SELECT name FROM brands
		WHERE name ILIKE $1 OR similarity(name, $2) > $3
		ORDER BY similarity(name, $2) DESC, name
		LIMIT $4`
		args = []any{pattern, text, predicate.SimilarityThreshold, limit}
	}

	ctx, end := e.obs.Observe(ctx, "catalog.suggest_brands", query)
	defer func() { end(err) }()

	rows, err := e.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("suggest brands: %w", err)
	}
	defer rows.Close()

	names = make([]string, 0, limit)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan brand row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brand rows: %w", err)
	}
	return names, nil
}

// Snapshot reads the whole catalog in id order. It seeds in-process and
// Elasticsearch read models.
func (e *Engine) Snapshot(ctx context.Context) ([]domain.Product, error) {
	res, err := e.Find(ctx, &engine.Query{
		Where: predicate.MatchAll,
		Order: ranking.Ordering{{Key: ranking.KeyID}},
	})
	if err != nil {
		return nil, fmt.Errorf("read catalog snapshot: %w", err)
	}
	products := make([]domain.Product, len(res.Hits))
	for i := range res.Hits {
		products[i] = res.Hits[i].Product
	}
	return products, nil
}
