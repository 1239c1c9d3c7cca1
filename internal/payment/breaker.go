package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// Breaker stops calling a failing provider for a while so checkouts fail
// fast instead of piling up on provider timeouts.
type Breaker struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[*domain.CheckoutSession]
}

func NewBreaker(next Provider, settings BreakerSettings, logger *slog.Logger) *Breaker {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = DefaultBreakerSettings().ConsecutiveFailures
	}

	cb := gobreaker.NewCircuitBreaker[*domain.CheckoutSession](gobreaker.Settings{
		Name:        "payment-provider",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) CreateCheckoutSession(ctx context.Context, order *domain.Order) (*domain.CheckoutSession, error) {
	session, err := b.cb.Execute(func() (*domain.CheckoutSession, error) {
		return b.next.CreateCheckoutSession(ctx, order)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, domain.UpstreamError("payment provider temporarily unavailable", err)
	}
	return session, err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
