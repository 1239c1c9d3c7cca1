package catalog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpio"
)

type Store interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	filter := ProductFilter{
		CategorySlug: r.URL.Query().Get("category"),
		Sort:         SortOrder(r.URL.Query().Get("sort")),
	}

	products, err := h.store.ListProducts(r.Context(), filter)
	if err != nil {
		httpio.WriteError(w, r, h.logger, domain.StoreError("failed to list products", err))
		return
	}

	h.logger.DebugContext(r.Context(), "products listed", "count", len(products), "category", filter.CategorySlug)
	httpio.WriteJSON(w, h.logger, http.StatusOK, products)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		httpio.WriteError(w, r, h.logger, domain.ValidationError("missing product slug"))
		return
	}

	product, err := h.store.GetProductBySlug(r.Context(), slug)
	if err != nil {
		httpio.WriteError(w, r, h.logger, domain.StoreError("failed to get product", err))
		return
	}

	if product == nil {
		httpio.WriteError(w, r, h.logger, domain.NotFoundError("product"))
		return
	}

	httpio.WriteJSON(w, h.logger, http.StatusOK, product)
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		httpio.WriteError(w, r, h.logger, domain.StoreError("failed to list categories", err))
		return
	}

	httpio.WriteJSON(w, h.logger, http.StatusOK, categories)
}
