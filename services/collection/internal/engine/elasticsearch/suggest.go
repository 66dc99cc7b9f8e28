package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/utafrali/EcommerceGo/services/collection/internal/predicate"
)

type esSuggestResponse struct {
	Aggregations struct {
		Brands struct {
			Buckets []struct {
				Key string `json:"key"`
			} `json:"buckets"`
		} `json:"brands"`
	} `json:"aggregations"`
}

// buildSuggestQuery aggregates distinct brand names. Short texts match by
// substring and sort by name; longer texts also match by trigram overlap
// and sort by the best hit score.
func buildSuggestQuery(text string, limit int) map[string]any {
	contains := map[string]any{
		"wildcard": map[string]any{
			"brand_name.keyword": map[string]any{
				"value":            "*" + escapeWildcard(text) + "*",
				"case_insensitive": true,
			},
		},
	}

	terms := map[string]any{
		"field": "brand_name.raw",
		"size":  limit,
	}
	aggs := map[string]any{"brands": map[string]any{"terms": terms}}

	var query map[string]any
	if utf8.RuneCountInString(text) <= 2 {
		query = contains
		terms["order"] = map[string]any{"_key": "asc"}
	} else {
		query = map[string]any{
			"bool": map[string]any{
				"should": []any{
					contains,
					trigramMatch(predicate.FieldBrand, text, predicate.SimilarityThreshold),
				},
				"minimum_should_match": 1,
			},
		}
		terms["order"] = []any{
			map[string]any{"top_score": "desc"},
			map[string]any{"_key": "asc"},
		}
		aggs["brands"].(map[string]any)["aggs"] = map[string]any{
			"top_score": map[string]any{"max": map[string]any{"script": "_score"}},
		}
	}

	return map[string]any{
		"query": query,
		"size":  0,
		"aggs":  aggs,
	}
}

// SuggestBrands returns up to limit distinct brand names close to text.
func (e *Engine) SuggestBrands(ctx context.Context, text string, limit int) ([]string, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || limit <= 0 {
		return []string{}, nil
	}

	data, err := json.Marshal(buildSuggestQuery(text, limit))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, responseError("suggest", res)
	}

	var esResp esSuggestResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: decode response: %w", err)
	}

	names := make([]string, 0, len(esResp.Aggregations.Brands.Buckets))
	for _, b := range esResp.Aggregations.Brands.Buckets {
		names = append(names, b.Key)
	}
	return names, nil
}
