package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type fakeStore struct {
	products   []domain.Product
	categories []domain.Category
	lastFilter ProductFilter
	err        error
}

func (f *fakeStore) ListCategories(context.Context) ([]domain.Category, error) {
	return f.categories, f.err
}

func (f *fakeStore) ListProducts(_ context.Context, filter ProductFilter) ([]domain.Product, error) {
	f.lastFilter = filter
	return f.products, f.err
}

func (f *fakeStore) GetProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.products {
		if f.products[i].Slug == slug {
			return &f.products[i], nil
		}
	}
	return nil, nil
}

func newTestHandler(store Store) http.Handler {
	h := NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", h.HandleListProducts)
	mux.HandleFunc("GET /products/{slug}", h.HandleGetProduct)
	mux.HandleFunc("GET /categories", h.HandleListCategories)
	return mux
}

func TestHandler_ListProducts(t *testing.T) {
	store := &fakeStore{products: []domain.Product{
		{ID: "p1", Slug: "camiseta", Variants: []domain.ProductVariant{{ID: "v1", PriceInCents: 1000}}},
	}}
	handler := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/products?category=camisetas&sort=newest", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if store.lastFilter.CategorySlug != "camisetas" || store.lastFilter.Sort != SortNewest {
		t.Errorf("unexpected filter %+v", store.lastFilter)
	}

	var got []domain.Product
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(got) != 1 || len(got[0].Variants) != 1 {
		t.Errorf("unexpected products %+v", got)
	}
}

func TestHandler_GetProduct(t *testing.T) {
	store := &fakeStore{products: []domain.Product{{ID: "p1", Slug: "camiseta"}}}
	handler := newTestHandler(store)

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/camiseta", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/unknown", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandler_StoreFailure(t *testing.T) {
	handler := newTestHandler(&fakeStore{err: errors.New("connection refused")})

	tests := map[string]string{
		"/categories":        "failed to list categories",
		"/products":          "failed to list products",
		"/products/camiseta": "failed to get product",
	}

	for path, wantMessage := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("%s: expected status 502, got %d", path, rec.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if body["code"] != "upstream" || body["error"] != wantMessage {
			t.Errorf("%s: unexpected body %v", path, body)
		}
	}
}
