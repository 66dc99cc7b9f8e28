// Package ranking decides the order of listing results.
package ranking

import (
	"cmp"
	"strings"
	"unicode/utf8"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
)

// Key is a sortable product attribute.
type Key int

const (
	// KeyScore is the similarity of the product to the search text.
	KeyScore Key = iota
	KeyRank
	KeyHot
	KeyNew
	KeyCreated
	KeyPrice
	KeyID
)

var keyNames = [...]string{"score", "rank", "hot", "new", "created", "price", "id"}

func (k Key) String() string { return keyNames[k] }

// SortKey is one ordering criterion.
type SortKey struct {
	Key  Key
	Desc bool
}

// Ordering is a list of criteria applied in turn. Every ordering built by
// For ends with the product id so equal keys still order deterministically.
type Ordering []SortKey

func (o Ordering) String() string {
	parts := make([]string, len(o))
	for i, k := range o {
		dir := "asc"
		if k.Desc {
			dir = "desc"
		}
		parts[i] = k.Key.String() + " " + dir
	}
	return strings.Join(parts, ", ")
}

// Base is the default ordering of a listing before any sort override.
type Base int

const (
	// BaseRelevance is the collection default: similarity, then rank.
	BaseRelevance Base = iota
	// BaseTrending orders by hot score.
	BaseTrending
	// BaseNewlyAdded orders by new score.
	BaseNewlyAdded
	// BaseRank orders by rank score alone.
	BaseRank
)

func asc(k Key) SortKey  { return SortKey{Key: k} }
func desc(k Key) SortKey { return SortKey{Key: k, Desc: true} }

// For returns the ordering for a sort mode. The collection default falls
// back to the listing's base ordering.
func For(mode domain.SortMode, base Base) Ordering {
	switch mode {
	case domain.SortBestSelling:
		return Ordering{desc(KeyRank), desc(KeyCreated), desc(KeyID)}
	case domain.SortCreated:
		return Ordering{asc(KeyCreated), asc(KeyID)}
	case domain.SortCreatedReverse:
		return Ordering{desc(KeyCreated), desc(KeyID)}
	case domain.SortPrice:
		return Ordering{asc(KeyPrice), asc(KeyID)}
	case domain.SortPriceReverse:
		return Ordering{desc(KeyPrice), desc(KeyID)}
	}

	switch base {
	case BaseTrending:
		return Ordering{desc(KeyHot), desc(KeyCreated), desc(KeyID)}
	case BaseNewlyAdded:
		return Ordering{desc(KeyNew), desc(KeyCreated), desc(KeyID)}
	case BaseRank:
		return Ordering{desc(KeyRank), desc(KeyCreated), desc(KeyID)}
	default:
		return Ordering{desc(KeyScore), desc(KeyRank), desc(KeyCreated), desc(KeyID)}
	}
}

// Compare orders a before b (negative), after b (positive) or as equal.
func (o Ordering) Compare(a, b *domain.ScoredProduct) int {
	for _, k := range o {
		c := compareKey(k.Key, a, b)
		if k.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compareKey(k Key, a, b *domain.ScoredProduct) int {
	switch k {
	case KeyScore:
		return cmp.Compare(a.Score, b.Score)
	case KeyRank:
		return cmp.Compare(a.RankScore(), b.RankScore())
	case KeyHot:
		return cmp.Compare(a.HotScore(), b.HotScore())
	case KeyNew:
		return cmp.Compare(a.NewScore(), b.NewScore())
	case KeyCreated:
		return a.CreatedAt.Compare(b.CreatedAt)
	case KeyPrice:
		return a.Price.Cmp(b.Price)
	case KeyID:
		return cmp.Compare(a.ID, b.ID)
	}
	return 0
}

// UsesScore reports whether the ordering needs similarity scores.
func (o Ordering) UsesScore() bool {
	for _, k := range o {
		if k.Key == KeyScore {
			return true
		}
	}
	return false
}

// IntentScoreTerms returns the words a slug's results are scored against.
func IntentScoreTerms(intent *domain.SearchIntent) []string {
	return intent.FreeTerms
}

// QueryScoreTerms returns the words a free-text query is scored against:
// the whole query and, for multi-word queries, each word of four or more
// characters. Queries of two characters or fewer are not scored.
func QueryScoreTerms(q string) []string {
	q = strings.ToLower(strings.TrimSpace(q))
	if utf8.RuneCountInString(q) <= 2 {
		return nil
	}
	terms := []string{q}
	words := strings.Fields(q)
	if len(words) < 2 {
		return terms
	}
	for _, w := range words {
		if utf8.RuneCountInString(w) >= 4 {
			terms = append(terms, w)
		}
	}
	return terms
}
