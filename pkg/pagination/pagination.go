package pagination

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	apperrors "github.com/utafrali/EcommerceGo/pkg/errors"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps the offset of any page within a 32-bit signed integer.
	MaxPage = math.MaxInt32/MaxPageSize + 1
)

// Params holds validated paging input.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// DefaultParams returns page 1 with the default page size.
func DefaultParams() Params {
	return Params{Page: 1, PageSize: DefaultPageSize}
}

// Offset is the number of matches skipped before this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// HasNext reports whether matches remain after this page.
func (p Params) HasNext(total int) bool {
	return p.Offset()+p.PageSize < total
}

// HasPrevious reports whether an earlier page exists.
func (p Params) HasPrevious() bool {
	return p.Page > 1
}

// Parse reads page and page_size from q. Absent values take defaults;
// malformed or out-of-range values are rejected rather than coerced.
func Parse(q url.Values) (Params, error) {
	p := DefaultParams()

	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, apperrors.InvalidParameter("page", "must be an integer")
		}
		if v < 1 || v > MaxPage {
			return Params{}, apperrors.InvalidParameter("page",
				"must be between 1 and "+strconv.Itoa(MaxPage))
		}
		p.Page = v
	}

	if raw := q.Get("page_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, apperrors.InvalidParameter("page_size", "must be an integer")
		}
		if v < 1 || v > MaxPageSize {
			return Params{}, apperrors.InvalidParameter("page_size",
				"must be between 1 and "+strconv.Itoa(MaxPageSize))
		}
		p.PageSize = v
	}

	return p, nil
}

// Page is the listing envelope returned by paginated endpoints.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPage builds a Page whose next/previous links are self with the page
// query parameter replaced. A nil self leaves both links empty.
func NewPage[T any](results []T, total int, p Params, self *url.URL) Page[T] {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: total, Results: results}
	if self == nil {
		return page
	}
	if p.HasNext(total) {
		link := withPage(self, p.Page+1)
		page.Next = &link
	}
	if p.HasPrevious() {
		link := withPage(self, p.Page-1)
		page.Previous = &link
	}
	return page
}

func withPage(self *url.URL, page int) string {
	u := *self
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// RequestURL reconstructs the absolute URL the client used for r,
// honoring X-Forwarded-Proto and X-Forwarded-Host from a fronting proxy.
func RequestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return &url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
}
