// Package notify carries domain events from the services that produce them
// to whoever reacts: the query cache in-process and Kafka consumers out of
// process.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

type PublisherFunc func(ctx context.Context, event domain.Event) error

func (f PublisherFunc) Publish(ctx context.Context, event domain.Event) error {
	return f(ctx, event)
}

// Nop drops every event.
var Nop Publisher = PublisherFunc(func(context.Context, domain.Event) error { return nil })

// Hub delivers events synchronously to in-process subscribers in the order
// they subscribed.
type Hub struct {
	mu          sync.RWMutex
	subscribers []Publisher
	logger      *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{logger: logger}
}

func (h *Hub) Subscribe(p Publisher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers = append(h.subscribers, p)
}

// Publish never fails: a subscriber error is logged and the remaining
// subscribers still run.
func (h *Hub) Publish(ctx context.Context, event domain.Event) error {
	h.mu.RLock()
	subs := make([]Publisher, len(h.subscribers))
	copy(subs, h.subscribers)
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.Publish(ctx, event); err != nil {
			h.logger.WarnContext(ctx, "event subscriber failed",
				"event_type", event.Type,
				"user_id", event.UserID,
				"error", err,
			)
		}
	}
	return nil
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit publishes event and logs a failure instead of returning it. A
// committed mutation is never reported as failed because a notification was
// lost.
func Emit(ctx context.Context, p Publisher, logger *slog.Logger, event domain.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event",
			"event_type", event.Type,
			"user_id", event.UserID,
			"resource_id", event.ResourceID,
			"error", err,
		)
	}
}
