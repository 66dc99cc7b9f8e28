// Package predicate models catalog match conditions as a small expression
// tree that each storage engine lowers into its own query dialect.
package predicate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Expr is a boolean condition over one product.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// Field is a searchable product text field.
type Field int

const (
	FieldName Field = iota
	FieldDescription
	FieldBrand
	// FieldTypes is the product's type labels; substring leaves match if
	// any label contains the term.
	FieldTypes
)

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldDescription:
		return "description"
	case FieldBrand:
		return "brand"
	case FieldTypes:
		return "types"
	default:
		return "unknown"
	}
}

// CompareOp is a price comparison.
type CompareOp int

const (
	OpLess CompareOp = iota
	OpLessOrEqual
	OpGreater
	OpGreaterOrEqual
)

func (o CompareOp) String() string {
	return [...]string{"<", "<=", ">", ">="}[o]
}

// Flag is a curation flag.
type Flag int

const (
	FlagHot Flag = iota
	FlagNew
)

func (f Flag) String() string {
	if f == FlagNew {
		return "new"
	}
	return "hot"
}

type (
	matchAll     struct{}
	matchNothing struct{}

	// And holds when every operand holds. Build with AllOf.
	And []Expr
	// Or holds when any operand holds. Build with AnyOf.
	Or []Expr
	// Not negates X.
	Not struct{ X Expr }

	// TextMatch is a full-text match of Query against name, description
	// and brand together. Every stemmed query word must be present.
	TextMatch struct{ Query string }
	// Contains is a case-insensitive substring match.
	Contains struct {
		Field Field
		Term  string
	}
	// Similar holds when the trigram similarity between the field and Term
	// exceeds Threshold.
	Similar struct {
		Field     Field
		Term      string
		Threshold float64
	}
	// TypeIn holds when any type label equals one of Labels, ignoring case.
	// Labels are lowercase. A product without labels never matches.
	TypeIn struct{ Labels []string }
	// BrandIn holds when the brand name equals one of Names, ignoring case.
	// Names are lowercase.
	BrandIn struct{ Names []string }
	// PriceCompare compares the product price with Value.
	PriceCompare struct {
		Op    CompareOp
		Value decimal.Decimal
	}
	// Available holds when the product is (Want) or is not (!Want) in
	// stock with status available.
	Available struct{ Want bool }
	// Curated holds when the product has a curation signal with Flag set
	// and the matching score present.
	Curated struct{ Flag Flag }
	// HasSignal holds when the product has any curation signal.
	HasSignal struct{}
)

// MatchAll matches every product; MatchNothing matches none. They are
// distinct values so "no condition" and "no results" cannot be confused.
var (
	MatchAll     Expr = matchAll{}
	MatchNothing Expr = matchNothing{}
)

func (matchAll) isExpr()     {}
func (matchNothing) isExpr() {}
func (And) isExpr()          {}
func (Or) isExpr()           {}
func (Not) isExpr()          {}
func (TextMatch) isExpr()    {}
func (Contains) isExpr()     {}
func (Similar) isExpr()      {}
func (TypeIn) isExpr()       {}
func (BrandIn) isExpr()      {}
func (PriceCompare) isExpr() {}
func (Available) isExpr()    {}
func (Curated) isExpr()      {}
func (HasSignal) isExpr()    {}

// AllOf conjoins exprs, dropping MatchAll operands and collapsing to
// MatchNothing if any operand is MatchNothing. With no operands left it
// returns MatchAll.
func AllOf(exprs ...Expr) Expr {
	out := make(And, 0, len(exprs))
	for _, e := range exprs {
		switch v := e.(type) {
		case nil, matchAll:
		case matchNothing:
			return MatchNothing
		case And:
			out = append(out, v...)
		default:
			out = append(out, e)
		}
	}
	switch len(out) {
	case 0:
		return MatchAll
	case 1:
		return out[0]
	}
	return out
}

// AnyOf disjoins exprs, dropping MatchNothing operands and collapsing to
// MatchAll if any operand is MatchAll. With no operands left it returns
// MatchNothing.
func AnyOf(exprs ...Expr) Expr {
	out := make(Or, 0, len(exprs))
	for _, e := range exprs {
		switch v := e.(type) {
		case nil, matchNothing:
		case matchAll:
			return MatchAll
		case Or:
			out = append(out, v...)
		default:
			out = append(out, e)
		}
	}
	switch len(out) {
	case 0:
		return MatchNothing
	case 1:
		return out[0]
	}
	return out
}

func (matchAll) String() string     { return "TRUE" }
func (matchNothing) String() string { return "FALSE" }

func (a And) String() string { return join(a, " AND ") }
func (o Or) String() string  { return join(o, " OR ") }
func (n Not) String() string { return "NOT " + n.X.String() }

func (t TextMatch) String() string { return fmt.Sprintf("fts(%q)", t.Query) }
func (c Contains) String() string  { return fmt.Sprintf("%s ~ %q", c.Field, c.Term) }
func (s Similar) String() string {
	return fmt.Sprintf("similarity(%s, %q) > %g", s.Field, s.Term, s.Threshold)
}
func (t TypeIn) String() string  { return fmt.Sprintf("types in %q", t.Labels) }
func (b BrandIn) String() string { return fmt.Sprintf("brand in %q", b.Names) }
func (p PriceCompare) String() string {
	return fmt.Sprintf("price %s %s", p.Op, p.Value.String())
}
func (a Available) String() string {
	if a.Want {
		return "available"
	}
	return "NOT available"
}
func (c Curated) String() string { return "curated(" + c.Flag.String() + ")" }
func (HasSignal) String() string { return "has_signal" }

func join(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// IsMatchNothing reports whether e is the match-nothing sentinel.
func IsMatchNothing(e Expr) bool {
	_, ok := e.(matchNothing)
	return ok
}

// IsMatchAll reports whether e is the match-all sentinel.
func IsMatchAll(e Expr) bool {
	_, ok := e.(matchAll)
	return ok
}
