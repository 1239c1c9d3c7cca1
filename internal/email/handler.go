package email

import (
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpio"
	"github.com/joao-fontenele/storefront/internal/validate"
)

type Handler struct {
	sender Sender
	logger *slog.Logger
}

func NewHandler(sender Sender, logger *slog.Logger) *Handler {
	return &Handler{
		sender: sender,
		logger: logger,
	}
}

type sendResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := httpio.DecodeJSON(r, &msg); err != nil {
		httpio.WriteError(w, r, h.logger, err)
		return
	}
	if err := validate.Struct(msg); err != nil {
		httpio.WriteError(w, r, h.logger, err)
		return
	}

	if err := h.sender.Send(r.Context(), msg); err != nil {
		httpio.WriteError(w, r, h.logger, domain.UpstreamError("could not send email", err))
		return
	}

	h.logger.InfoContext(r.Context(), "email delivered", "to", msg.To, "subject", msg.Subject)

	httpio.WriteJSON(w, h.logger, http.StatusOK, sendResponse{Status: "sent"})
}
