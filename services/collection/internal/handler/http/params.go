package http

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/EcommerceGo/pkg/errors"
	"github.com/utafrali/EcommerceGo/pkg/validator"
	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
)

// filterQuery holds the raw explicit-filter parameters shared by every
// listing endpoint.
type filterQuery struct {
	Available string `query:"available" validate:"omitempty,oneof=true false 1 0"`
	MinPrice  string `query:"minPrice" validate:"omitempty,decimal,nonneg"`
	MaxPrice  string `query:"maxPrice" validate:"omitempty,decimal,nonneg"`
}

// parseFilters reads available, minPrice, maxPrice, productType and brand.
// Malformed values are rejected, never coerced.
func parseFilters(q url.Values) (domain.Filters, error) {
	raw := filterQuery{
		Available: strings.ToLower(strings.TrimSpace(q.Get("available"))),
		MinPrice:  strings.TrimSpace(q.Get("minPrice")),
		MaxPrice:  strings.TrimSpace(q.Get("maxPrice")),
	}
	if err := validator.Validate(&raw); err != nil {
		return domain.Filters{}, err
	}

	var f domain.Filters
	if raw.Available != "" {
		v, _ := strconv.ParseBool(raw.Available)
		f.Available = &v
	}
	if raw.MinPrice != "" {
		v := decimal.RequireFromString(raw.MinPrice)
		f.MinPrice = &v
	}
	if raw.MaxPrice != "" {
		v := decimal.RequireFromString(raw.MaxPrice)
		f.MaxPrice = &v
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return domain.Filters{}, apperrors.InvalidInput("minPrice must not exceed maxPrice")
	}

	f.ProductTypes = splitList(q["productType"])
	f.Brands = splitList(q["brand"])
	return f, nil
}

// splitList flattens repeated and comma-separated values, dropping blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseSort(q url.Values) (domain.SortMode, error) {
	mode, err := domain.ParseSortMode(q.Get("sort"))
	if err != nil {
		names := make([]string, 0, len(domain.ValidSortModes()))
		for _, m := range domain.ValidSortModes() {
			names = append(names, string(m))
		}
		return "", apperrors.InvalidParameter("sort", "must be one of: "+strings.Join(names, ", "))
	}
	return mode, nil
}

// parseLimit reads limit; absent means 0 so the service applies its default.
func parseLimit(q url.Values, max int) (int, error) {
	raw := strings.TrimSpace(q.Get("limit"))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidParameter("limit", "must be an integer")
	}
	if v < 1 || v > max {
		return 0, apperrors.InvalidParameter("limit", "must be between 1 and "+strconv.Itoa(max))
	}
	return v, nil
}
