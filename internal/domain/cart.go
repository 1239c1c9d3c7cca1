package domain

import (
	"encoding/json"
	"time"
)

// CartItem is a line item joined with the live state of its variant.
type CartItem struct {
	ID           string    `json:"id"`
	CartID       string    `json:"cart_id"`
	VariantID    string    `json:"variant_id"`
	Quantity     int       `json:"quantity"`
	ProductName  string    `json:"product_name"`
	VariantName  string    `json:"variant_name"`
	ImageURL     string    `json:"image_url"`
	PriceInCents int64     `json:"price_in_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

func (i CartItem) TotalInCents() int64 {
	return i.PriceInCents * int64(i.Quantity)
}

type Cart struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	ShippingAddressID string     `json:"shipping_address_id,omitempty"`
	Items             []CartItem `json:"items"`
	CreatedAt         time.Time  `json:"created_at"`
}

// SubtotalInCents sums price × quantity over the current items. Prices are
// read live from the variants when the cart is loaded.
func (c *Cart) SubtotalInCents() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.TotalInCents()
	}
	return total
}

// TotalInCents is the subtotal; shipping is free.
func (c *Cart) TotalInCents() int64 {
	return c.SubtotalInCents()
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) MarshalJSON() ([]byte, error) {
	type cartAlias Cart
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}
	alias := cartAlias(c)
	alias.Items = items
	return json.Marshal(struct {
		cartAlias
		SubtotalInCents int64 `json:"subtotal_in_cents"`
		TotalInCents    int64 `json:"total_in_cents"`
	}{
		cartAlias:       alias,
		SubtotalInCents: c.SubtotalInCents(),
		TotalInCents:    c.TotalInCents(),
	})
}
