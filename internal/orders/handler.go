package orders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpio"
	"github.com/joao-fontenele/storefront/internal/querycache"
	"github.com/joao-fontenele/storefront/internal/validate"
)

type Store interface {
	GetForUser(ctx context.Context, id, userID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

type Handler struct {
	store  Store
	auth   auth.Authenticator
	cache  *querycache.Cache
	logger *slog.Logger
}

func NewHandler(store Store, authn auth.Authenticator, cache *querycache.Cache, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		auth:   authn,
		cache:  cache,
		logger: logger,
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.Authenticate(r.Context(), auth.TokenFromRequest(r))
	if err != nil {
		httpio.WriteError(w, r, h.logger, err)
		return
	}

	id := r.PathValue("id")
	if err := validate.ID("id", id); err != nil {
		httpio.WriteError(w, r, h.logger, err)
		return
	}

	order, err := h.store.GetForUser(r.Context(), id, userID)
	if err != nil {
		httpio.WriteError(w, r, h.logger, domain.StoreError("failed to get order", err))
		return
	}

	if order == nil {
		httpio.WriteError(w, r, h.logger, domain.NotFoundError("order"))
		return
	}

	h.logger.InfoContext(r.Context(), "order retrieved", "order_id", order.ID, "user_id", userID)
	httpio.WriteJSON(w, h.logger, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.Authenticate(r.Context(), auth.TokenFromRequest(r))
	if err != nil {
		httpio.WriteError(w, r, h.logger, err)
		return
	}

	orders, err := querycache.Load(r.Context(), h.cache, userID, domain.QueryOrders,
		func(ctx context.Context) ([]domain.Order, error) {
			return h.store.ListByUser(ctx, userID)
		})
	if err != nil {
		httpio.WriteError(w, r, h.logger, domain.StoreError("failed to list orders", err))
		return
	}

	h.logger.InfoContext(r.Context(), "orders listed", "count", len(orders), "user_id", userID)
	httpio.WriteJSON(w, h.logger, http.StatusOK, orders)
}
