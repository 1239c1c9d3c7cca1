package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderItem struct {
	VariantID    string `json:"variant_id"`
	ProductName  string `json:"product_name"`
	VariantName  string `json:"variant_name"`
	Quantity     int    `json:"quantity"`
	PriceInCents int64  `json:"price_in_cents"`
}

// Order is an immutable snapshot of a cart taken at checkout. Only Status and
// CheckoutSessionID change after creation.
type Order struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	ShippingAddressID string          `json:"shipping_address_id"`
	ShippingAddress   ShippingAddress `json:"shipping_address"`
	Items             []OrderItem     `json:"items"`
	TotalInCents      int64           `json:"total_in_cents"`
	Status            OrderStatus     `json:"status"`
	CheckoutSessionID string          `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// NewOrder snapshots the cart's items, prices and address.
func NewOrder(cart *Cart, address ShippingAddress, now time.Time) *Order {
	items := make([]OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, OrderItem{
			VariantID:    item.VariantID,
			ProductName:  item.ProductName,
			VariantName:  item.VariantName,
			Quantity:     item.Quantity,
			PriceInCents: item.PriceInCents,
		})
	}

	return &Order{
		UserID:            cart.UserID,
		ShippingAddressID: address.ID,
		ShippingAddress:   address,
		Items:             items,
		TotalInCents:      cart.TotalInCents(),
		Status:            OrderStatusPending,
		CreatedAt:         now,
	}
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
