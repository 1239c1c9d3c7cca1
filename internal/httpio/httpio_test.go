package httpio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ValidationError("bad"), http.StatusBadRequest, "validation"},
		{domain.AuthError("who"), http.StatusUnauthorized, "unauthenticated"},
		{domain.NotFoundError("cart"), http.StatusNotFound, "not_found"},
		{domain.ConfigurationError("no key"), http.StatusServiceUnavailable, "configuration"},
		{domain.UpstreamError("stripe", errors.New("boom")), http.StatusBadGateway, "upstream"},
		{fmt.Errorf("wrapped: %w", domain.NotFoundError("item")), http.StatusNotFound, "not_found"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		status, code := StatusFor(tc.err)
		if status != tc.status || code != tc.code {
			t.Errorf("StatusFor(%v) = (%d, %s), want (%d, %s)", tc.err, status, code, tc.status, tc.code)
		}
	}
}

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("exposes only the typed message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)

		WriteError(rec, req, logger, domain.UpstreamError("payment provider unavailable", errors.New("dial tcp: secret detail")))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Error != "payment provider unavailable" || resp.Code != "upstream" {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("hides untyped errors", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)

		WriteError(rec, req, logger, errors.New("pq: connection refused"))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "internal server error") {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Quantity int `json:"quantity"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity": 2}`))
	if err := DecodeJSON(req, &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Quantity != 2 {
		t.Errorf("expected 2, got %d", dst.Quantity)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":`))
	if err := DecodeJSON(req, &dst); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
