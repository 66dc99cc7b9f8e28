package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/EcommerceGo/pkg/errors"
	"github.com/utafrali/EcommerceGo/pkg/httputil"
	"github.com/utafrali/EcommerceGo/pkg/pagination"
	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/service"
)

// CollectionHandler handles HTTP requests for collection, search and
// featured endpoints.
type CollectionHandler struct {
	service *service.CollectionService
	logger  *slog.Logger
}

// NewCollectionHandler creates a new collection HTTP handler.
func NewCollectionHandler(svc *service.CollectionService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{
		service: svc,
		logger:  logger,
	}
}

// SuggestResponse is the body of GET /api/v1/search/suggest.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// FeaturedResponse is the body of GET /api/v1/featured/{kind}.
type FeaturedResponse struct {
	Kind    string                  `json:"kind"`
	Results []domain.ProductSummary `json:"results"`
}

func (h *CollectionHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.WriteError(w, r, err, h.logger)
}

// ListCollection handles GET /api/v1/collections/{slug}
func (h *CollectionHandler) ListCollection(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when the request carries one, leaving the
	// param escaped; otherwise it is already decoded.
	slug := chi.URLParam(r, "slug")
	var err error
	if r.URL.RawPath != "" {
		if slug, err = url.PathUnescape(slug); err != nil {
			h.writeError(w, r, apperrors.InvalidParameter("slug", "is not a valid path segment"))
			return
		}
	}

	req := &service.ListRequest{Slug: slug}
	if req.Filters, req.Sort, req.Page, err = parseListing(r.URL.Query()); err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.service.Resolve(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK,
		pagination.NewPage(page.Summaries(), page.Total, req.Page, pagination.RequestURL(r)))
}

// QuickSearch handles GET /api/v1/search
func (h *CollectionHandler) QuickSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := &service.QuickSearchRequest{Query: q.Get("q")}
	var err error
	if req.Limit, err = parseLimit(q, service.MaxQuickSearchLimit); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Filters, err = parseFilters(q); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.service.QuickSearch(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// SearchResults handles GET /api/v1/search/results
func (h *CollectionHandler) SearchResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := &service.SearchRequest{Query: q.Get("q")}
	var err error
	if req.Filters, req.Sort, req.Page, err = parseListing(q); err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.service.Search(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK,
		pagination.NewPage(page.Summaries(), page.Total, req.Page, pagination.RequestURL(r)))
}

// Suggest handles GET /api/v1/search/suggest
func (h *CollectionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := parseLimit(q, service.MaxQuickSearchLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	names, err := h.service.Suggest(r.Context(), q.Get("q"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SuggestResponse{Suggestions: names})
}

// Featured handles GET /api/v1/featured/{kind}
func (h *CollectionHandler) Featured(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	results, err := h.service.Featured(r.Context(), kind)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if results == nil {
		results = []domain.ProductSummary{}
	}
	httputil.WriteJSON(w, http.StatusOK, FeaturedResponse{Kind: kind, Results: results})
}

func parseListing(q url.Values) (domain.Filters, domain.SortMode, pagination.Params, error) {
	filters, err := parseFilters(q)
	if err != nil {
		return domain.Filters{}, "", pagination.Params{}, err
	}
	sort, err := parseSort(q)
	if err != nil {
		return domain.Filters{}, "", pagination.Params{}, err
	}
	page, err := pagination.Parse(q)
	if err != nil {
		return domain.Filters{}, "", pagination.Params{}, err
	}
	return filters, sort, page, nil
}
