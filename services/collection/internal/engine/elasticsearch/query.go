package elasticsearch

import (
	"fmt"
	"math"

	apperrors "github.com/utafrali/EcommerceGo/pkg/errors"
	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine"
	"github.com/utafrali/EcommerceGo/services/collection/internal/predicate"
	"github.com/utafrali/EcommerceGo/services/collection/internal/ranking"
)

// maxResultWindow is Elasticsearch's default index.max_result_window.
const maxResultWindow = 10000

// trigramShouldMatch approximates a trigram similarity threshold as the
// share of the term's trigrams that must appear in the field.
func trigramShouldMatch(threshold float64) string {
	pct := int(math.Round(math.Min(1, threshold*1.5) * 100))
	return fmt.Sprintf("%d%%", pct)
}

// buildSearchQuery constructs the request body for a Find. The predicate
// becomes a non-scoring filter; score terms become should clauses so that
// _score ranks by trigram overlap only.
func buildSearchQuery(q *engine.Query) (map[string]any, error) {
	filter, err := lower(q.Where)
	if err != nil {
		return nil, err
	}

	boolQuery := map[string]any{
		"filter": []any{filter},
	}
	if len(q.ScoreTerms) > 0 {
		var should []any
		for _, term := range q.ScoreTerms {
			should = append(should, trigramMatch(predicate.FieldName, term, predicate.SimilarityThreshold))
			should = append(should, trigramMatch(predicate.FieldDescription, term, predicate.SimilarityThreshold))
			should = append(should, trigramMatch(predicate.FieldBrand, term, predicate.SimilarityThreshold))
		}
		boolQuery["should"] = should
	}

	from := max(q.Offset, 0)
	size := q.Limit
	if size <= 0 {
		size = maxResultWindow - from
	}
	if size <= 0 || from+size > maxResultWindow {
		return nil, apperrors.InvalidParameter("page", "exceeds the result window")
	}

	return map[string]any{
		"query":            map[string]any{"bool": boolQuery},
		"from":             from,
		"size":             size,
		"track_total_hits": true,
		"sort":             buildSort(q.Order),
	}, nil
}

func lower(e predicate.Expr) (map[string]any, error) {
	switch x := e.(type) {
	case predicate.And:
		clauses, err := lowerAll(x)
		if err != nil {
			return nil, err
		}
		return boolClause("filter", clauses...), nil
	case predicate.Or:
		clauses, err := lowerAll(x)
		if err != nil {
			return nil, err
		}
		q := boolClause("should", clauses...)
		q["bool"].(map[string]any)["minimum_should_match"] = 1
		return q, nil
	case predicate.Not:
		inner, err := lower(x.X)
		if err != nil {
			return nil, err
		}
		return boolClause("must_not", inner), nil
	case predicate.TextMatch:
		return map[string]any{
			"multi_match": map[string]any{
				"query":    x.Query,
				"fields":   []string{"name", "description", "brand_name"},
				"type":     "cross_fields",
				"operator": "and",
			},
		}, nil
	case predicate.Contains:
		field, err := keywordField(x.Field)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"wildcard": map[string]any{
				field: map[string]any{
					"value":            "*" + escapeWildcard(x.Term) + "*",
					"case_insensitive": true,
				},
			},
		}, nil
	case predicate.Similar:
		if x.Field == predicate.FieldTypes {
			return nil, fmt.Errorf("field %s has no trigram index", x.Field)
		}
		return trigramMatch(x.Field, x.Term, x.Threshold), nil
	case predicate.TypeIn:
		return map[string]any{"terms": map[string]any{"types": x.Labels}}, nil
	case predicate.BrandIn:
		return map[string]any{"terms": map[string]any{"brand_name.keyword": x.Names}}, nil
	case predicate.PriceCompare:
		op := map[predicate.CompareOp]string{
			predicate.OpLess:           "lt",
			predicate.OpLessOrEqual:    "lte",
			predicate.OpGreater:        "gt",
			predicate.OpGreaterOrEqual: "gte",
		}[x.Op]
		return map[string]any{
			"range": map[string]any{"price": map[string]any{op: x.Value.InexactFloat64()}},
		}, nil
	case predicate.Available:
		inStock := boolClause("filter",
			map[string]any{"term": map[string]any{"status": domain.StatusAvailable}},
			map[string]any{"range": map[string]any{"stock": map[string]any{"gt": 0}}},
		)
		if !x.Want {
			return boolClause("must_not", inStock), nil
		}
		return inStock, nil
	case predicate.Curated:
		flag, score := "is_hot", "hot_score"
		if x.Flag == predicate.FlagNew {
			flag, score = "is_new", "new_score"
		}
		return boolClause("filter",
			map[string]any{"term": map[string]any{flag: true}},
			map[string]any{"exists": map[string]any{"field": score}},
		), nil
	case predicate.HasSignal:
		return map[string]any{"term": map[string]any{"has_signal": true}}, nil
	}

	switch {
	case predicate.IsMatchAll(e):
		return map[string]any{"match_all": map[string]any{}}, nil
	case predicate.IsMatchNothing(e):
		return map[string]any{"match_none": map[string]any{}}, nil
	}
	return nil, fmt.Errorf("unsupported predicate %T", e)
}

func lowerAll(exprs []predicate.Expr) ([]any, error) {
	out := make([]any, len(exprs))
	for i, e := range exprs {
		c, err := lower(e)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func boolClause(occur string, clauses ...any) map[string]any {
	return map[string]any{"bool": map[string]any{occur: clauses}}
}

func trigramMatch(f predicate.Field, term string, threshold float64) map[string]any {
	return map[string]any{
		"match": map[string]any{
			textField(f) + ".trigram": map[string]any{
				"query":                term,
				"minimum_should_match": trigramShouldMatch(threshold),
			},
		},
	}
}

func textField(f predicate.Field) string {
	switch f {
	case predicate.FieldDescription:
		return "description"
	case predicate.FieldBrand:
		return "brand_name"
	default:
		return "name"
	}
}

func keywordField(f predicate.Field) (string, error) {
	switch f {
	case predicate.FieldName, predicate.FieldDescription, predicate.FieldBrand:
		return textField(f) + ".keyword", nil
	case predicate.FieldTypes:
		return "types", nil
	}
	return "", fmt.Errorf("unknown field %s", f)
}

var sortFields = map[ranking.Key]string{
	ranking.KeyScore:   "_score",
	ranking.KeyRank:    "rank_score",
	ranking.KeyHot:     "hot_score",
	ranking.KeyNew:     "new_score",
	ranking.KeyCreated: "created_at",
	ranking.KeyPrice:   "price",
	ranking.KeyID:      "id",
}

func buildSort(o ranking.Ordering) []any {
	if len(o) == 0 {
		return []any{map[string]any{"id": "asc"}}
	}
	out := make([]any, len(o))
	for i, k := range o {
		order := "asc"
		if k.Desc {
			order = "desc"
		}
		field := sortFields[k.Key]
		switch k.Key {
		case ranking.KeyScore, ranking.KeyID, ranking.KeyCreated, ranking.KeyPrice:
			out[i] = map[string]any{field: order}
		default:
			// Products without a signal rank as score 0.
			out[i] = map[string]any{field: map[string]any{"order": order, "missing": 0}}
		}
	}
	return out
}

func escapeWildcard(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '*' || r == '?' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
