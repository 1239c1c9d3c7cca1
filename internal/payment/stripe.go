package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	Currency   string

	// Backends overrides the Stripe API endpoints; nil uses api.stripe.com.
	Backends *stripe.Backends
}

type StripeProvider struct {
	api        *client.API
	successURL string
	cancelURL  string
	currency   string
}

// NewStripeProvider fails with a configuration error when no secret key is
// set.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, domain.ConfigurationError("payment provider is not configured")
	}

	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "brl"
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, cfg.Backends)

	return &StripeProvider{
		api:        api,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		currency:   currency,
	}, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, order *domain.Order) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.successURL),
		CancelURL:         stripe.String(p.cancelURL),
		ClientReferenceID: stripe.String(order.ID),
		LineItems:         make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items)),
	}
	if order.ShippingAddress.Email != "" {
		params.CustomerEmail = stripe.String(order.ShippingAddress.Email)
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.ID)
	params.AddMetadata("user_id", order.UserID)

	for _, item := range order.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(p.currency),
				UnitAmount: stripe.Int64(item.PriceInCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(itemName(item)),
				},
			},
		})
	}

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}

	return &domain.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func itemName(item domain.OrderItem) string {
	switch {
	case item.ProductName == "":
		return item.VariantName
	case item.VariantName == "" || item.VariantName == item.ProductName:
		return item.ProductName
	default:
		return item.ProductName + " - " + item.VariantName
	}
}
