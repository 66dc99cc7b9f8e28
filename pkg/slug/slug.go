package slug

import (
	"regexp"
	"strings"
)

// separatorRun matches any run of characters that cannot appear inside a
// slug token. Currency symbols, decimal points and thousands separators are
// kept so price tokens such as "$19.99" or "1,000" survive.
var separatorRun = regexp.MustCompile(`[^\p{L}\p{N}$€£.,]+`)

// Normalize canonicalizes a collection identifier before it is tokenized.
//
// Examples:
//   - "Gifts Under 100" → "gifts-under-100"
//   - "cooking__condiments" → "cooking-condiments"
//   - "  --Art+Prints--  " → "art-prints"
//   - "candles-under-$19.99" → "candles-under-$19.99"
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = separatorRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
