package pagination

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/EcommerceGo/pkg/errors"
)

func query(raw string) url.Values {
	q, _ := url.ParseQuery(raw)
	return q
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 0, p.Offset())
}

func TestParse_Defaults(t *testing.T) {
	p, err := Parse(query(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), p)
}

func TestParse_CustomValues(t *testing.T) {
	p, err := Parse(query("page=3&page_size=50"))
	require.NoError(t, err)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.PageSize)
	assert.Equal(t, 100, p.Offset())
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"page not a number", "page=abc", "page"},
		{"page zero", "page=0", "page"},
		{"page negative", "page=-1", "page"},
		{"page above max", "page=21474838", "page"},
		{"page overflows offset", "page=92233720368547759", "page"},
		{"page_size not a number", "page_size=ten", "page_size"},
		{"page_size zero", "page_size=0", "page_size"},
		{"page_size above max", "page_size=101", "page_size"},
		{"page_size decimal", "page_size=2.5", "page_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(query(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Contains(t, appErr.Fields, tt.field)
		})
	}
}

func TestParse_PageBoundary(t *testing.T) {
	p, err := Parse(query("page=21474837&page_size=100"))
	require.NoError(t, err)
	assert.Equal(t, MaxPage, p.Page)
	assert.Equal(t, math.MaxInt32-math.MaxInt32%MaxPageSize, p.Offset())
	assert.Positive(t, p.Offset())
}

func TestParse_PageSizeBoundaries(t *testing.T) {
	p, err := Parse(query("page_size=1"))
	require.NoError(t, err)
	assert.Equal(t, 1, p.PageSize)

	p, err = Parse(query("page_size=100"))
	require.NoError(t, err)
	assert.Equal(t, 100, p.PageSize)
}

func TestParams_NextAndPrevious(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		total    int
		wantNext bool
		wantPrev bool
	}{
		{"single partial page", Params{Page: 1, PageSize: 20}, 5, false, false},
		{"exact fit", Params{Page: 1, PageSize: 20}, 20, false, false},
		{"first of two", Params{Page: 1, PageSize: 20}, 21, true, false},
		{"last of two", Params{Page: 2, PageSize: 20}, 21, false, true},
		{"past the end", Params{Page: 5, PageSize: 20}, 21, false, true},
		{"empty", Params{Page: 1, PageSize: 20}, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantNext, tt.params.HasNext(tt.total))
			assert.Equal(t, tt.wantPrev, tt.params.HasPrevious())
		})
	}
}

func TestNewPage_Links(t *testing.T) {
	self, _ := url.Parse("http://shop.test/api/v1/collections/gifts-under-100?page=2&page_size=10&sort=PRICE")
	page := NewPage([]string{"a", "b"}, 35, Params{Page: 2, PageSize: 10}, self)

	assert.Equal(t, 35, page.Count)
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)

	next, err := url.Parse(*page.Next)
	require.NoError(t, err)
	assert.Equal(t, "3", next.Query().Get("page"))
	assert.Equal(t, "10", next.Query().Get("page_size"))
	assert.Equal(t, "PRICE", next.Query().Get("sort"))
	assert.Equal(t, "/api/v1/collections/gifts-under-100", next.Path)

	prev, err := url.Parse(*page.Previous)
	require.NoError(t, err)
	assert.Equal(t, "1", prev.Query().Get("page"))
}

func TestNewPage_NoLinksOnSinglePage(t *testing.T) {
	self, _ := url.Parse("http://shop.test/items")
	page := NewPage([]int{1}, 1, DefaultParams(), self)
	assert.Nil(t, page.Next)
	assert.Nil(t, page.Previous)
}

func TestNewPage_NilResultsEncodeAsEmpty(t *testing.T) {
	page := NewPage[int](nil, 0, DefaultParams(), nil)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)
}

func TestRequestURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/collections/trending?page=2", nil)
	u := RequestURL(req)
	assert.Equal(t, "http://example.com/api/v1/collections/trending?page=2", u.String())

	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "shop.test")
	u = RequestURL(req)
	assert.Equal(t, "https://shop.test/api/v1/collections/trending?page=2", u.String())
}
