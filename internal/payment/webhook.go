package payment

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpio"
	"github.com/joao-fontenele/storefront/internal/notify"
)

const maxWebhookBytes = 64 << 10

type OrderUpdater interface {
	MarkPaid(ctx context.Context, orderID, sessionID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus) (*domain.Order, error)
}

// WebhookHandler applies Stripe checkout events to orders: a completed or
// asynchronously paid session marks its order paid, an expired one cancels
// it.
type WebhookHandler struct {
	secret    string
	orders    OrderUpdater
	publisher notify.Publisher
	logger    *slog.Logger
}

func NewWebhookHandler(secret string, orders OrderUpdater, publisher notify.Publisher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		orders:    orders,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		httpio.WriteError(w, r, h.logger, domain.ConfigurationError("payment webhook is not configured"))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		httpio.WriteError(w, r, h.logger, domain.ValidationError("unreadable webhook body"))
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.WarnContext(r.Context(), "rejected stripe webhook", "error", err)
		httpio.WriteError(w, r, h.logger, domain.ValidationError("invalid webhook signature"))
		return
	}

	if err := h.apply(r.Context(), event); err != nil {
		httpio.WriteError(w, r, h.logger, err)
		return
	}

	httpio.WriteJSON(w, h.logger, http.StatusOK, map[string]bool{"received": true})
}

func (h *WebhookHandler) apply(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
	case "checkout.session.expired":
	default:
		h.logger.DebugContext(ctx, "ignoring stripe event", "event_type", event.Type)
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return domain.ValidationError("invalid checkout session payload")
	}

	orderID := session.ClientReferenceID
	if orderID == "" {
		orderID = session.Metadata["order_id"]
	}
	if uuid.Validate(orderID) != nil {
		h.logger.WarnContext(ctx, "checkout session without a valid order reference", "session_id", session.ID, "order_id", orderID)
		return nil
	}

	if event.Type == "checkout.session.expired" {
		order, err := h.orders.UpdateStatus(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusCancelled)
		if err != nil {
			return domain.StoreError("failed to cancel order", err)
		}
		if order == nil {
			return nil
		}
		h.logger.InfoContext(ctx, "order cancelled after checkout expired", "order_id", orderID, "session_id", session.ID)

		cancelled := domain.NewEvent(domain.EventOrderCancelled, order.UserID, order.ID)
		cancelled.Order = order
		notify.Emit(ctx, h.publisher, h.logger, cancelled)
		return nil
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid &&
		session.PaymentStatus != stripe.CheckoutSessionPaymentStatusNoPaymentRequired {
		h.logger.InfoContext(ctx, "checkout completed, payment pending", "order_id", orderID, "payment_status", session.PaymentStatus)
		return nil
	}

	order, err := h.orders.MarkPaid(ctx, orderID, session.ID)
	if err != nil {
		return domain.StoreError("failed to mark order paid", err)
	}
	if order == nil {
		// Redelivered event or an order that already left pending.
		h.logger.InfoContext(ctx, "order not pending, webhook ignored", "order_id", orderID, "session_id", session.ID)
		return nil
	}

	h.logger.InfoContext(ctx, "order paid", "order_id", order.ID, "user_id", order.UserID, "session_id", session.ID)

	paid := domain.NewEvent(domain.EventOrderPaid, order.UserID, order.ID)
	paid.Order = order
	notify.Emit(ctx, h.publisher, h.logger, paid)

	return nil
}
