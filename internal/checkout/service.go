package checkout

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/payment"
)

var (
	tracer = otel.Tracer("storefront/checkout")
	meter  = otel.Meter("storefront/checkout")

	checkoutCounter = newCheckoutCounter()
	orderTotal      = newOrderTotal()
)

func newCheckoutCounter() metric.Int64Counter {
	counter, err := meter.Int64Counter("storefront.checkouts",
		metric.WithDescription("Checkout initiations by outcome"),
	)
	if err != nil {
		otel.Handle(err)
		return noop.Int64Counter{}
	}
	return counter
}

func newOrderTotal() metric.Int64Histogram {
	histogram, err := meter.Int64Histogram("storefront.order.total_cents",
		metric.WithDescription("Total of orders created at checkout"),
		metric.WithUnit("{cent}"),
	)
	if err != nil {
		otel.Handle(err)
		return noop.Int64Histogram{}
	}
	return histogram
}

type CartStore interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	ClearItems(ctx context.Context, cartID string) error
}

type AddressFinder interface {
	GetForUser(ctx context.Context, id, userID string) (*domain.ShippingAddress, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
	AttachCheckoutSession(ctx context.Context, id, sessionID string) error
}

type Result struct {
	OrderID     string `json:"order_id"`
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type Service struct {
	carts     CartStore
	addresses AddressFinder
	orders    OrderStore
	provider  payment.Provider
	auth      auth.Authenticator
	publisher notify.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires checkout. A nil provider means payments are not
// configured; Initiate then fails without writing anything.
func NewService(
	carts CartStore,
	addresses AddressFinder,
	orders OrderStore,
	provider payment.Provider,
	authn auth.Authenticator,
	publisher notify.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		carts:     carts,
		addresses: addresses,
		orders:    orders,
		provider:  provider,
		auth:      authn,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Initiate turns the caller's cart into a pending order and opens a payment
// provider checkout session for it.
func (s *Service) Initiate(ctx context.Context, token string) (result *Result, err error) {
	ctx, span := tracer.Start(ctx, "checkout.Initiate")
	defer span.End()
	defer func() {
		outcome := "success"
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if outcome = string(domain.KindOf(err)); outcome == "" {
				outcome = "error"
			}
		}
		checkoutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	userID, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	if s.provider == nil {
		return nil, domain.ConfigurationError("payment provider is not configured")
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, domain.StoreError("failed to get cart", err)
	}
	if cart == nil || cart.IsEmpty() {
		return nil, domain.ValidationError("cart is empty")
	}
	if cart.ShippingAddressID == "" {
		return nil, domain.ValidationError("select a shipping address before checkout")
	}

	address, err := s.addresses.GetForUser(ctx, cart.ShippingAddressID, userID)
	if err != nil {
		return nil, domain.StoreError("failed to find shipping address", err)
	}
	if address == nil {
		return nil, domain.NotFoundError("shipping address")
	}

	order := domain.NewOrder(cart, *address, s.now())
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, domain.StoreError("failed to create order", err)
	}
	span.SetAttributes(attribute.String("order.id", order.ID))
	orderTotal.Record(ctx, order.TotalInCents)

	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"user_id", userID,
		"total_in_cents", order.TotalInCents,
		"items", len(order.Items),
	)

	session, err := s.provider.CreateCheckoutSession(ctx, order)
	if err != nil {
		s.cancel(ctx, order)
		return nil, domain.UpstreamError("could not start payment", err)
	}
	order.CheckoutSessionID = session.ID

	if err := s.orders.AttachCheckoutSession(ctx, order.ID, session.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to record checkout session", "order_id", order.ID, "session_id", session.ID, "error", err)
	}

	created := domain.NewEvent(domain.EventOrderCreated, userID, order.ID)
	created.Order = order
	notify.Emit(ctx, s.publisher, s.logger, created)

	if err := s.carts.ClearItems(ctx, cart.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after checkout", "order_id", order.ID, "cart_id", cart.ID, "error", err)
	} else {
		notify.Emit(ctx, s.publisher, s.logger, domain.NewEvent(domain.EventCartChanged, userID, cart.ID))
	}

	s.logger.InfoContext(ctx, "checkout session created", "order_id", order.ID, "session_id", session.ID)

	return &Result{
		OrderID:     order.ID,
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

func (s *Service) cancel(ctx context.Context, order *domain.Order) {
	updated, err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusCancelled)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to cancel order after payment failure", "order_id", order.ID, "error", err)
		return
	}
	if updated == nil {
		return
	}
	order.Status = domain.OrderStatusCancelled
	s.logger.WarnContext(ctx, "order cancelled, payment provider failed", "order_id", order.ID)

	cancelled := domain.NewEvent(domain.EventOrderCancelled, order.UserID, order.ID)
	cancelled.Order = order
	notify.Emit(ctx, s.publisher, s.logger, cancelled)
}
