package postgres

import (
	"fmt"
	"strings"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/predicate"
	"github.com/utafrali/EcommerceGo/services/collection/internal/ranking"
)

const fromClause = `
		FROM products p
		LEFT JOIN brands b ON b.id = p.brand_id
		LEFT JOIN curation_signals s ON s.product_id = p.id`

const productColumns = `p.id, p.name, p.description, p.price::text, COALESCE(p.brand_id, ''), COALESCE(b.name, ''),
			   p.types, p.stock, p.status, p.image_url, p.created_at, p.updated_at,
			   s.product_id IS NOT NULL, COALESCE(s.is_new, FALSE), s.new_score,
			   COALESCE(s.is_hot, FALSE), s.hot_score, COALESCE(s.rank_score, 0)`

// searchDocument is the text full-text matching runs against.
const searchDocument = `to_tsvector('english', p.name || ' ' || p.description || ' ' || COALESCE(b.name, ''))`

// builder lowers predicates into SQL. Every value is bound as a
// positional parameter; only column names and operators are inlined.
type builder struct {
	args []any
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *builder) where(e predicate.Expr) (string, error) {
	switch x := e.(type) {
	case predicate.And:
		return b.join(x, " AND ")
	case predicate.Or:
		return b.join(x, " OR ")
	case predicate.Not:
		inner, err := b.where(x.X)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case predicate.TextMatch:
		return fmt.Sprintf("%s @@ plainto_tsquery('english', %s)", searchDocument, b.bind(x.Query)), nil
	case predicate.Contains:
		pattern := b.bind("%" + escapeLike(x.Term) + "%")
		if x.Field == predicate.FieldTypes {
			return fmt.Sprintf("EXISTS (SELECT 1 FROM jsonb_array_elements_text(p.types) t WHERE t ILIKE %s)", pattern), nil
		}
		col, err := column(x.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s ILIKE %s", col, pattern), nil
	case predicate.Similar:
		col, err := column(x.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("similarity(%s, %s) > %s", col, b.bind(x.Term), b.bind(x.Threshold)), nil
	case predicate.TypeIn:
		return fmt.Sprintf("EXISTS (SELECT 1 FROM jsonb_array_elements_text(p.types) t WHERE lower(t) = ANY(%s))", b.bind(x.Labels)), nil
	case predicate.BrandIn:
		return fmt.Sprintf("lower(b.name) = ANY(%s)", b.bind(x.Names)), nil
	case predicate.PriceCompare:
		return fmt.Sprintf("p.price %s %s::numeric", x.Op, b.bind(x.Value.String())), nil
	case predicate.Available:
		cond := fmt.Sprintf("(p.status = %s AND p.stock > 0)", b.bind(domain.StatusAvailable))
		if !x.Want {
			cond = "NOT " + cond
		}
		return cond, nil
	case predicate.Curated:
		if x.Flag == predicate.FlagNew {
			return "(COALESCE(s.is_new, FALSE) AND s.new_score IS NOT NULL)", nil
		}
		return "(COALESCE(s.is_hot, FALSE) AND s.hot_score IS NOT NULL)", nil
	case predicate.HasSignal:
		return "s.product_id IS NOT NULL", nil
	}

	switch {
	case predicate.IsMatchAll(e):
		return "TRUE", nil
	case predicate.IsMatchNothing(e):
		return "FALSE", nil
	}
	return "", fmt.Errorf("unsupported predicate %T", e)
}

func (b *builder) join(exprs []predicate.Expr, sep string) (string, error) {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		s, err := b.where(e)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// score is the best trigram similarity of any term against the text columns.
func (b *builder) score(terms []string) string {
	if len(terms) == 0 {
		return "0::float8"
	}
	var sims []string
	for _, t := range terms {
		arg := b.bind(t)
		for _, f := range []predicate.Field{predicate.FieldName, predicate.FieldDescription, predicate.FieldBrand} {
			col, _ := column(f)
			sims = append(sims, fmt.Sprintf("similarity(%s, %s)", col, arg))
		}
	}
	return "GREATEST(" + strings.Join(sims, ", ") + ")::float8"
}

func column(f predicate.Field) (string, error) {
	switch f {
	case predicate.FieldName:
		return "p.name", nil
	case predicate.FieldDescription:
		return "p.description", nil
	case predicate.FieldBrand:
		return "COALESCE(b.name, '')", nil
	}
	return "", fmt.Errorf("field %s has no text column", f)
}

var orderColumns = map[ranking.Key]string{
	ranking.KeyScore:   "score",
	ranking.KeyRank:    "COALESCE(s.rank_score, 0)",
	ranking.KeyHot:     "COALESCE(s.hot_score, 0)",
	ranking.KeyNew:     "COALESCE(s.new_score, 0)",
	ranking.KeyCreated: "p.created_at",
	ranking.KeyPrice:   "p.price",
	ranking.KeyID:      "p.id",
}

func orderBy(o ranking.Ordering) string {
	if len(o) == 0 {
		return "p.id"
	}
	parts := make([]string, len(o))
	for i, k := range o {
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts[i] = orderColumns[k.Key] + " " + dir
	}
	return strings.Join(parts, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
