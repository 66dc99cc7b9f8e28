package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
	"github.com/utafrali/EcommerceGo/services/collection/internal/predicate"
)

// Engine is an Elasticsearch-backed catalog read model.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
	pending   *engine.PendingSignals
}

var (
	_ engine.Catalog = (*Engine)(nil)
	_ engine.Indexer = (*Engine)(nil)
)

// esSearchResponse is the structure used to decode Elasticsearch search responses.
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  *float64 `json:"_score"`
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esBulkResponse is the structure used to decode Elasticsearch bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates an Elasticsearch engine connected to esURL and makes sure
// the index exists. An empty indexName means DefaultIndexName.
func New(esURL string, indexName string, logger *slog.Logger) (*Engine, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	e := &Engine{
		client:    client,
		indexName: indexName,
		logger:    logger,
		pending:   engine.NewPendingSignals(engine.DefaultMaxPendingSignals),
	}

	if err := e.ensureIndex(); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure index: %w", err)
	}
	return e, nil
}

// responseError turns an error response into an error naming op.
func responseError(op string, res *esapi.Response) error {
	var errResp esErrorResponse
	if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil && errResp.Error.Type != "" {
		return fmt.Errorf("elasticsearch %s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("elasticsearch %s: unexpected status %s", op, res.Status())
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

func (e *Engine) ensureIndex() error {
	res, err := e.client.Indices.Exists([]string{e.indexName})
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusOK {
		e.logger.Info("elasticsearch index already exists", "index", e.indexName)
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("create index", res)
	}

	e.logger.Info("elasticsearch index created", "index", e.indexName)
	return nil
}

// Find runs the lowered predicate as one _search. Total and hits come
// from the same request and therefore the same point-in-time reader.
func (e *Engine) Find(ctx context.Context, q *engine.Query) (*engine.Result, error) {
	if predicate.IsMatchNothing(q.Where) {
		return &engine.Result{Hits: []domain.ScoredProduct{}}, nil
	}

	body, err := buildSearchQuery(q)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	hits := make([]domain.ScoredProduct, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		p, err := hit.Source.product()
		if err != nil {
			return nil, fmt.Errorf("elasticsearch search: %w", err)
		}
		h := domain.ScoredProduct{Product: p}
		if hit.Score != nil && len(q.ScoreTerms) > 0 {
			h.Score = *hit.Score
		}
		hits = append(hits, h)
	}

	return &engine.Result{Hits: hits, Total: esResp.Hits.Total.Value}, nil
}

// Upsert indexes products with the bulk NDJSON API. A product without a
// signal of its own picks up one parked by ApplySignal before it was
// indexed; parked signals are kept if the bulk request fails.
func (e *Engine) Upsert(ctx context.Context, products ...domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	resolved := make([]domain.Product, len(products))
	var attached []domain.Product
	for i := range products {
		p, ok := e.pending.Resolve(products[i])
		resolved[i] = p
		if ok {
			attached = append(attached, p)
		}
	}

	if err := e.bulkIndex(ctx, resolved); err != nil {
		for i := range attached {
			e.pending.Park(attached[i].ID, attached[i].Signal)
		}
		return err
	}
	return nil
}

func (e *Engine) bulkIndex(ctx context.Context, products []domain.Product) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range products {
		action := map[string]any{
			"index": map[string]any{
				"_index": e.indexName,
				"_id":    products[i].ID,
			},
		}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := enc.Encode(toDocument(&products[i])); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("bulk index", res)
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}
	if bulkResp.Errors {
		var msgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(msgs, "; "))
	}

	e.logger.Debug("indexed products", "count", len(products))
	return nil
}

// Delete removes a product. A missing document is not an error.
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithRefresh("true"),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}

	e.pending.Forget(id)
	e.logger.Debug("deleted product", "id", id)
	return nil
}

// ApplySignal rewrites the signal fields of an indexed product. Signals
// for products not yet indexed are parked until their upsert arrives.
func (e *Engine) ApplySignal(ctx context.Context, productID string, signal *domain.CurationSignal) error {
	data, err := json.Marshal(map[string]any{"doc": newSignalDoc(signal)})
	if err != nil {
		return fmt.Errorf("elasticsearch update signal: marshal: %w", err)
	}

	res, err := e.client.Update(
		e.indexName,
		productID,
		bytes.NewReader(data),
		e.client.Update.WithRefresh("true"),
		e.client.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch update signal: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusNotFound {
		if evicted := e.pending.Park(productID, signal); evicted != "" {
			e.logger.Warn("dropped parked curation signal", "product_id", evicted)
		}
		e.logger.Debug("parked curation signal for unindexed product", "product_id", productID)
		return nil
	}
	if res.IsError() {
		return responseError("update signal", res)
	}
	return nil
}

// DeleteIndex removes the whole index. A missing index is not an error.
func (e *Engine) DeleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete(
		[]string{e.indexName},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete index", res)
	}

	e.logger.Info("elasticsearch index deleted", "index", e.indexName)
	return nil
}
