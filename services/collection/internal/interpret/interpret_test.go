package interpret

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestTokenize_Classification(t *testing.T) {
	kw := DefaultKeywords()
	tokens := kw.Tokenize("Gifts-for-Women-under-$100-handmade-xy")

	require.Len(t, tokens, 7)
	assert.Equal(t, []Kind{KindType, KindStopword, KindGender, KindDirection, KindPrice, KindFree, KindNoise}, kinds(tokens))
	assert.Equal(t, "Gift Box", tokens[0].Type.Label)
	assert.Equal(t, "woman", tokens[2].Gender.Name)
	assert.Equal(t, domain.PriceLessThan, tokens[3].Op)
	assert.True(t, decimal.NewFromInt(100).Equal(tokens[4].Price))
}

func TestTokenize_MergesCompoundDirections(t *testing.T) {
	kw := DefaultKeywords()

	tokens := kw.Tokenize("candles-more-than-30")
	require.Len(t, tokens, 3)
	assert.Equal(t, "more-than", tokens[1].Text)
	assert.Equal(t, KindDirection, tokens[1].Kind)
	assert.Equal(t, domain.PriceGreaterThan, tokens[1].Op)

	tokens = kw.Tokenize("less-snacks")
	assert.Equal(t, []Kind{KindFree, KindType}, kinds(tokens))
}

func TestTokenize_PriceTokens(t *testing.T) {
	kw := DefaultKeywords()
	tests := []struct {
		in    string
		price bool
		want  string
	}{
		{"100", true, "100"},
		{"$19.99", true, "19.99"},
		{"€1,000", true, "1000"},
		{"£5", true, "5"},
		{"1.2.3", false, ""},
		{"$abc", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tok := kw.Tokenize(tt.in)
			require.Len(t, tok, 1)
			if !tt.price {
				assert.NotEqual(t, KindPrice, tok[0].Kind)
				return
			}
			assert.Equal(t, KindPrice, tok[0].Kind)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(tok[0].Price))
		})
	}
}

func TestTokenize_SkipsEmptySegments(t *testing.T) {
	assert.Len(t, DefaultKeywords().Tokenize("--gifts--"), 1)
	assert.Empty(t, DefaultKeywords().Tokenize(""))
}

func TestInterpret_PriceDirection(t *testing.T) {
	tests := []struct {
		slug  string
		op    domain.PriceOp
		value int64
	}{
		{"gifts-under-100", domain.PriceLessThan, 100},
		{"under-20", domain.PriceLessThan, 20},
		{"art-over-$50", domain.PriceGreaterThan, 50},
		{"prints-above-1,000", domain.PriceGreaterThan, 1000},
		{"candles-greater-than-30", domain.PriceGreaterThan, 30},
		{"snacks-cheaper-than-15", domain.PriceLessThan, 15},
		{"prints-20", domain.PriceLessThan, 20},
		{"20-prints-over", domain.PriceGreaterThan, 20},
		// substring fallback also matches inside words
		{"cover-art-20", domain.PriceGreaterThan, 20},
		{"between-20-50", domain.PriceLessThan, 20},
		{"over-10-under-50", domain.PriceGreaterThan, 10},
	}
	in := New(nil)
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			intent, _ := in.Interpret(tt.slug)
			require.NotNil(t, intent.Price)
			assert.Equal(t, tt.op, intent.Price.Op)
			assert.True(t, decimal.NewFromInt(tt.value).Equal(intent.Price.Value), "got %s", intent.Price.Value)
		})
	}
}

func TestInterpret_TypeExpansion(t *testing.T) {
	intent, _ := New(nil).Interpret("gifts-under-100")

	require.Len(t, intent.Types, 1)
	exp := intent.Types[0]
	assert.Equal(t, "gifts", exp.Keyword)
	assert.Equal(t, "Gift Box", exp.Label)
	assert.Equal(t, []string{"gift box", "gift boxes", "gifts"}, exp.Variants)
	assert.Equal(t, []string{"gifts"}, exp.Terms)
	assert.Empty(t, intent.FreeTerms)
}

func TestInterpret_TypeVariants(t *testing.T) {
	tests := []struct {
		slug     string
		variants []string
	}{
		{"gift", []string{"gift box", "gift boxes", "gift", "gifts"}},
		{"condiments", []string{"condiment", "condiments"}},
		{"cooking", []string{"cooking", "cookings"}},
		{"drinks", []string{"beverage", "beverages", "drinks"}},
		{"artwork", []string{"art", "arts", "artwork", "artworks"}},
	}
	in := New(nil)
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			intent, _ := in.Interpret(tt.slug)
			require.Len(t, intent.Types, 1)
			assert.Equal(t, tt.variants, intent.Types[0].Variants)
		})
	}
}

func TestInterpret_SynonymTerms(t *testing.T) {
	intent, _ := New(nil).Interpret("food")
	require.Len(t, intent.Types, 1)
	assert.Equal(t,
		[]string{"food", "snack", "snacks", "jerky", "chips", "crisps", "candy", "sweets", "treat", "treats", "meal", "meals"},
		intent.Types[0].Terms)

	intent, _ = New(nil).Interpret("drink")
	assert.Contains(t, intent.Types[0].Terms, "coffee")
	// "tea" is long enough to keep.
	assert.Contains(t, intent.Types[0].Terms, "tea")
}

func TestInterpret_CookingCondiments(t *testing.T) {
	intent, _ := New(nil).Interpret("cooking-condiments")
	require.Len(t, intent.Types, 2)
	assert.Equal(t, "Cooking", intent.Types[0].Label)
	assert.Equal(t, "Condiment", intent.Types[1].Label)
	assert.Nil(t, intent.Price)
	assert.Equal(t, "relevance", intent.Kind())
}

func TestInterpret_Gender(t *testing.T) {
	in := New(nil)

	intent, _ := in.Interpret("gifts-for-women")
	assert.Equal(t, []string{"women", "woman", "female", "lady", "ladies"}, intent.GenderTerms)
	assert.Empty(t, intent.FreeTerms)

	intent, _ = in.Interpret("for-gentlemen")
	assert.Equal(t, []string{"men", "man", "male"}, intent.GenderTerms)

	intent, _ = in.Interpret("for-men-and-ladies")
	assert.Equal(t, []string{"men", "man", "male", "women", "woman", "female", "lady", "ladies"}, intent.GenderTerms)
}

func TestInterpret_FreeTerms(t *testing.T) {
	intent, _ := New(nil).Interpret("smoky-bbq-sauce-to-go-bbq")
	assert.Equal(t, []string{"smoky", "bbq", "sauce"}, intent.FreeTerms)
}

func TestInterpret_Empty(t *testing.T) {
	for _, slug := range []string{"", "for-the", "a-an-of", "xy-z", "under"} {
		t.Run(slug, func(t *testing.T) {
			intent, _ := New(nil).Interpret(slug)
			assert.True(t, intent.Empty())
		})
	}
}

func TestInterpret_UnknownWordIsFreeText(t *testing.T) {
	intent, _ := New(nil).Interpret("xyzzyqux")
	assert.Equal(t, []string{"xyzzyqux"}, intent.FreeTerms)
	assert.Nil(t, intent.Price)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "price", KindPrice.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestExpandType(t *testing.T) {
	in := New(nil)

	exp, ok := in.ExpandType(" Gifts ")
	require.True(t, ok)
	assert.Equal(t, "Gift Box", exp.Label)
	assert.Equal(t, []string{"gift box", "gift boxes", "gifts"}, exp.Variants)

	_, ok = in.ExpandType("teapot")
	assert.False(t, ok)
}
