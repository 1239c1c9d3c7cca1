package cart

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

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), auth.TokenFromRequest(r))
	h.respond(w, r, http.StatusOK, cart, err)
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var in AddItemInput
	if err := httpio.DecodeJSON(r, &in); err != nil {
		httpio.WriteError(w, r, h.logger, err)
		return
	}

	cart, err := h.service.AddItem(r.Context(), auth.TokenFromRequest(r), in)
	h.respond(w, r, http.StatusOK, cart, err)
}

func (h *Handler) HandleIncrease(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.IncreaseQuantity(r.Context(), auth.TokenFromRequest(r), r.PathValue("variantId"))
	h.respond(w, r, http.StatusOK, cart, err)
}

func (h *Handler) HandleDecrease(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.DecreaseQuantity(r.Context(), auth.TokenFromRequest(r), r.PathValue("itemId"))
	h.respond(w, r, http.StatusOK, cart, err)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.RemoveItem(r.Context(), auth.TokenFromRequest(r), r.PathValue("itemId"))
	h.respond(w, r, http.StatusOK, cart, err)
}

type setShippingAddressRequest struct {
	ShippingAddressID string `json:"shipping_address_id"`
}

func (h *Handler) HandleSetShippingAddress(w http.ResponseWriter, r *http.Request) {
	var req setShippingAddressRequest
	if err := httpio.DecodeJSON(r, &req); err != nil {
		httpio.WriteError(w, r, h.logger, err)
		return
	}

	cart, err := h.service.SetShippingAddress(r.Context(), auth.TokenFromRequest(r), req.ShippingAddressID)
	h.respond(w, r, http.StatusOK, cart, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, data any, err error) {
	if err != nil {
		httpio.WriteError(w, r, h.logger, err)
		return
	}
	httpio.WriteJSON(w, h.logger, status, data)
}
