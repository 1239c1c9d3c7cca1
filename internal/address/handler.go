package address

import (
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/httpio"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpio.DecodeJSON(r, &in); err != nil {
		httpio.WriteError(w, r, h.logger, err)
		return
	}

	a, err := h.service.Create(r.Context(), auth.TokenFromRequest(r), in)
	if err != nil {
		httpio.WriteError(w, r, h.logger, err)
		return
	}

	httpio.WriteJSON(w, h.logger, http.StatusCreated, a)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.service.List(r.Context(), auth.TokenFromRequest(r))
	if err != nil {
		httpio.WriteError(w, r, h.logger, err)
		return
	}

	httpio.WriteJSON(w, h.logger, http.StatusOK, addresses)
}
