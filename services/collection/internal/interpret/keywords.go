package interpret

import "github.com/utafrali/EcommerceGo/services/collection/internal/domain"

// GenderFamily is a set of slug words that all expand to the same search
// terms over product name and description.
type GenderFamily struct {
	Name  string
	Terms []string
}

// TypeKeyword maps a slug word to a catalog type label and the words it
// should also find in product text.
type TypeKeyword struct {
	Label    string
	Synonyms []string
}

// Keywords holds the classification tables. A Keywords value is built once
// and never mutated, so it is safe to share between goroutines.
type Keywords struct {
	Directions map[string]domain.PriceOp
	Genders    map[string]*GenderFamily
	Types      map[string]TypeKeyword
	Stopwords  map[string]struct{}
	// Compounds are two-token phrases merged into one direction token.
	Compounds map[string]string
}

var (
	foodSynonyms  = []string{"food", "snack", "snacks", "jerky", "chips", "crisps", "candy", "sweets", "treat", "treats", "meal", "meals"}
	drinkSynonyms = []string{"drink", "drinks", "beverage", "beverages", "juice", "soda", "water", "coffee", "tea"}
	snackSynonyms = []string{"snack", "snacks", "food", "jerky", "chips", "crisps", "candy", "sweets", "treat", "treats"}
)

var defaultKeywords = newDefaultKeywords()

// DefaultKeywords returns the built-in tables.
func DefaultKeywords() *Keywords {
	return defaultKeywords
}

func newDefaultKeywords() *Keywords {
	man := &GenderFamily{Name: "man", Terms: []string{"men", "man", "male"}}
	woman := &GenderFamily{Name: "woman", Terms: []string{"women", "woman", "female", "lady", "ladies"}}

	kw := &Keywords{
		Directions: map[string]domain.PriceOp{
			"under":        domain.PriceLessThan,
			"below":        domain.PriceLessThan,
			"less-than":    domain.PriceLessThan,
			"cheaper-than": domain.PriceLessThan,
			"over":         domain.PriceGreaterThan,
			"above":        domain.PriceGreaterThan,
			"more-than":    domain.PriceGreaterThan,
			"greater-than": domain.PriceGreaterThan,
		},
		Genders: map[string]*GenderFamily{},
		Types: map[string]TypeKeyword{
			"gift":       {Label: "Gift Box"},
			"gifts":      {Label: "Gift Box"},
			"condiment":  {Label: "Condiment"},
			"condiments": {Label: "Condiment"},
			"cooking":    {Label: "Cooking"},
			"kitchen":    {Label: "Kitchen"},
			"drink":      {Label: "Beverage", Synonyms: drinkSynonyms},
			"drinks":     {Label: "Beverage", Synonyms: drinkSynonyms},
			"beverage":   {Label: "Beverage"},
			"beverages":  {Label: "Beverage"},
			"food":       {Label: "Food", Synonyms: foodSynonyms},
			"snack":      {Label: "Snack", Synonyms: snackSynonyms},
			"snacks":     {Label: "Snack", Synonyms: snackSynonyms},
			"art":        {Label: "Art"},
			"artwork":    {Label: "Art"},
			"print":      {Label: "Print"},
			"prints":     {Label: "Print"},
			"candle":     {Label: "Candle"},
			"candles":    {Label: "Candle"},
		},
		Stopwords: map[string]struct{}{},
		Compounds: map[string]string{
			"less":    "less-than",
			"cheaper": "cheaper-than",
			"more":    "more-than",
			"greater": "greater-than",
		},
	}

	for _, w := range []string{"man", "men", "male", "gentleman", "gentlemen"} {
		kw.Genders[w] = man
	}
	for _, w := range []string{"woman", "women", "female", "lady", "ladies"} {
		kw.Genders[w] = woman
	}
	for _, w := range []string{"for", "the", "a", "an", "and", "or", "to", "of", "in", "on", "at", "between", "range"} {
		kw.Stopwords[w] = struct{}{}
	}
	return kw
}
