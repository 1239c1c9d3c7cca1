package domain

import "time"

type EventType string

const (
	EventCartChanged              EventType = "cart.changed"
	EventShippingAddressesChanged EventType = "shipping_addresses.changed"
	EventOrderCreated             EventType = "order.created"
	EventOrderPaid                EventType = "order.paid"
	EventOrderCancelled           EventType = "order.cancelled"
)

// Query keys name the read models a client or cache holds per user.
const (
	QueryCart              = "cart"
	QueryShippingAddresses = "shipping-addresses"
	QueryOrders            = "orders"
)

type Event struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	ResourceID string    `json:"resource_id,omitempty"`
	Order      *Order    `json:"order,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewEvent(eventType EventType, userID, resourceID string) Event {
	return Event{
		Type:       eventType,
		UserID:     userID,
		ResourceID: resourceID,
		Timestamp:  time.Now().UTC(),
	}
}

// InvalidatedQueries lists the query keys whose cached results are stale
// once the event has happened.
func (e Event) InvalidatedQueries() []string {
	switch e.Type {
	case EventCartChanged:
		return []string{QueryCart}
	case EventShippingAddressesChanged:
		return []string{QueryShippingAddresses}
	case EventOrderCreated:
		return []string{QueryCart, QueryOrders}
	case EventOrderPaid, EventOrderCancelled:
		return []string{QueryOrders}
	default:
		return nil
	}
}
