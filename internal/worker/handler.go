package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/email"
)

// NotificationHandler e-mails the buyer when an order is placed and when it
// is paid. The recipient comes from the order's address snapshot.
type NotificationHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewNotificationHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		emailServiceURL: strings.TrimRight(emailServiceURL, "/"),
		httpClient:      client,
		logger:          logger,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, event domain.Event) error {
	var msg email.Message
	switch event.Type {
	case domain.EventOrderCreated:
		if !h.hasRecipient(ctx, event) {
			return nil
		}
		msg = confirmationMessage(event.Order)
	case domain.EventOrderPaid:
		if !h.hasRecipient(ctx, event) {
			return nil
		}
		msg = paidMessage(event.Order)
	default:
		return nil
	}

	h.logger.InfoContext(ctx, "processing order event", "type", event.Type, "order_id", event.Order.ID, "user_id", event.UserID)

	if err := h.sendEmail(ctx, msg); err != nil {
		h.logger.ErrorContext(ctx, "failed to send order email", "error", err, "order_id", event.Order.ID, "type", event.Type)
		return fmt.Errorf("send %s email: %w", event.Type, err)
	}

	h.logger.InfoContext(ctx, "order email sent", "order_id", event.Order.ID, "type", event.Type)
	return nil
}

func (h *NotificationHandler) hasRecipient(ctx context.Context, event domain.Event) bool {
	if event.Order == nil || event.Order.ShippingAddress.Email == "" {
		h.logger.WarnContext(ctx, "order event without recipient, skipping", "type", event.Type, "resource_id", event.ResourceID)
		return false
	}
	return true
}

func confirmationMessage(order *domain.Order) email.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nWe received your order %s.\n\n", order.ShippingAddress.FullName, order.ID)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "%d x %s - %s: %s\n", item.Quantity, item.ProductName, item.VariantName, formatCents(item.PriceInCents*int64(item.Quantity)))
	}
	fmt.Fprintf(&b, "\nTotal: %s\nShipping to: %s\n", formatCents(order.TotalInCents), order.ShippingAddress.Format())

	return email.Message{
		To:      order.ShippingAddress.Email,
		ToName:  order.ShippingAddress.FullName,
		Subject: "Order received: " + order.ID,
		Body:    b.String(),
	}
}

func paidMessage(order *domain.Order) email.Message {
	return email.Message{
		To:      order.ShippingAddress.Email,
		ToName:  order.ShippingAddress.FullName,
		Subject: "Payment confirmed: " + order.ID,
		Body: fmt.Sprintf("Hi %s,\n\nPayment of %s for order %s was confirmed. We will let you know when it ships.\n",
			order.ShippingAddress.FullName, formatCents(order.TotalInCents), order.ID),
	}
}

func formatCents(cents int64) string {
	return fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
}

func (h *NotificationHandler) sendEmail(ctx context.Context, msg email.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
