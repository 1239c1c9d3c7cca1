// Package httpio holds the JSON response helpers shared by the storefront
// handlers and the mapping from domain error kinds to HTTP status codes.
package httpio

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteMessage(w http.ResponseWriter, logger *slog.Logger, status int, code, message string) {
	WriteJSON(w, logger, status, ErrorResponse{Error: message, Code: code})
}

// WriteError answers with the status for err's kind. Only the typed message
// reaches the caller; the full chain is logged for server-side failures.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusFor(err)

	message := "internal server error"
	var derr *domain.Error
	if errors.As(err, &derr) && derr.Message != "" {
		message = derr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "error", err, "method", r.Method, "path", r.URL.Path, "status", status)
	} else {
		logger.InfoContext(r.Context(), "request rejected", "error", err, "method", r.Method, "path", r.URL.Path, "status", status)
	}

	WriteMessage(w, logger, status, code, message)
}

func StatusFor(err error) (int, string) {
	switch kind := domain.KindOf(err); kind {
	case domain.KindValidation:
		return http.StatusBadRequest, string(kind)
	case domain.KindAuth:
		return http.StatusUnauthorized, string(kind)
	case domain.KindNotFound:
		return http.StatusNotFound, string(kind)
	case domain.KindConfiguration:
		return http.StatusServiceUnavailable, string(kind)
	case domain.KindUpstream:
		return http.StatusBadGateway, string(kind)
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// DecodeJSON reads a bounded request body into dst. Malformed bodies are
// validation errors.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return domain.ValidationError("invalid request body")
	}
	return nil
}
