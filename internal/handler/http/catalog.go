package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/probin-johori/sustainable/internal/catalog"
	"github.com/probin-johori/sustainable/internal/domain"
	"github.com/probin-johori/sustainable/internal/service"
	apperrors "github.com/probin-johori/sustainable/pkg/errors"
	"github.com/probin-johori/sustainable/pkg/httputil"
)

// CatalogHandler handles HTTP requests for the catalog API.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Response DTOs ---

// BrandResponse is a brand with its derived rating average.
type BrandResponse struct {
	domain.Brand
	RatingAverage float64 `json:"rating_average"`
}

// ListMeta describes a filtered listing.
type ListMeta struct {
	Total int           `json:"total"`
	Count int           `json:"count"`
	Empty bool          `json:"empty"`
	Query catalog.Query `json:"query"`
}

// CategoryResponse is a category with the number of brands in it.
type CategoryResponse struct {
	Name  domain.Category `json:"name"`
	Count int             `json:"count"`
}

func toBrandResponse(b domain.Brand) BrandResponse {
	return BrandResponse{Brand: b, RatingAverage: b.Ratings.Average()}
}

// --- Handlers ---

// ListBrands handles GET /api/v1/brands
func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	q, unknown := catalog.ParseQuery(r.URL.Query())
	if len(unknown) > 0 {
		httputil.WriteError(w, r, apperrors.InvalidInput("unknown category: "+strings.Join(unknown, ", ")), h.logger)
		return
	}

	res, err := h.service.List(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	data := make([]BrandResponse, 0, len(res.Brands))
	for _, b := range res.Brands {
		data = append(data, toBrandResponse(b))
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: data,
		Meta: ListMeta{
			Total: res.Total,
			Count: len(data),
			Empty: res.Empty(),
			Query: res.Query,
		},
	})
}

// GetBrand handles GET /api/v1/brands/{identifier}
func (h *CatalogHandler) GetBrand(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	b, err := h.service.Get(r.Context(), identifier)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toBrandResponse(b)})
}

// ListCategories handles GET /api/v1/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	counts := h.service.Categories()
	data := make([]CategoryResponse, 0, len(counts))
	for _, c := range counts {
		data = append(data, CategoryResponse{Name: c.Category, Count: c.Count})
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: data,
		Meta: map[string]int{"total": len(data)},
	})
}
