// Package payment talks to the external payment provider: it opens hosted
// checkout sessions for orders and applies the provider's webhook
// notifications back onto them.
package payment

import (
	"context"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Provider interface {
	// CreateCheckoutSession opens a hosted checkout for the order and returns
	// the session the customer is redirected to.
	CreateCheckoutSession(ctx context.Context, order *domain.Order) (*domain.CheckoutSession, error)
}

type ProviderFunc func(ctx context.Context, order *domain.Order) (*domain.CheckoutSession, error)

func (f ProviderFunc) CreateCheckoutSession(ctx context.Context, order *domain.Order) (*domain.CheckoutSession, error) {
	return f(ctx, order)
}
