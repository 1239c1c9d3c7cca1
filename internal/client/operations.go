package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type AddressInput struct {
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	CPF          string `json:"cpf"`
	Phone        string `json:"phone"`
	ZipCode      string `json:"cep"`
	Street       string `json:"address"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type CheckoutResult struct {
	OrderID     string `json:"order_id"`
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

func (c *Client) Cart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.query(ctx, domain.QueryCart, "/cart", &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) ShippingAddresses(ctx context.Context) ([]domain.ShippingAddress, error) {
	var addresses []domain.ShippingAddress
	if err := c.query(ctx, domain.QueryShippingAddresses, "/shipping-addresses", &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.query(ctx, domain.QueryOrders, "/orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Products lists the catalog. The catalog never changes through this client,
// so the result is not cached.
func (c *Client) Products(ctx context.Context, category string) ([]domain.Product, error) {
	path := "/products"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}

	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) AddItem(ctx context.Context, variantID string, quantity int) (*domain.Cart, error) {
	body := map[string]any{"variant_id": variantID, "quantity": quantity}
	var cart domain.Cart
	if err := c.mutate(ctx, "add_item", http.MethodPost, "/cart/items", body, &cart, domain.EventCartChanged); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) IncreaseQuantity(ctx context.Context, variantID string) (*domain.Cart, error) {
	var cart domain.Cart
	path := "/cart/variants/" + url.PathEscape(variantID) + "/increase"
	if err := c.mutate(ctx, "increase_quantity", http.MethodPost, path, nil, &cart, domain.EventCartChanged); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) DecreaseQuantity(ctx context.Context, itemID string) (*domain.Cart, error) {
	var cart domain.Cart
	path := "/cart/items/" + url.PathEscape(itemID) + "/decrease"
	if err := c.mutate(ctx, "decrease_quantity", http.MethodPost, path, nil, &cart, domain.EventCartChanged); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) RemoveItem(ctx context.Context, itemID string) (*domain.Cart, error) {
	var cart domain.Cart
	path := "/cart/items/" + url.PathEscape(itemID)
	if err := c.mutate(ctx, "remove_item", http.MethodDelete, path, nil, &cart, domain.EventCartChanged); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) SetShippingAddress(ctx context.Context, addressID string) (*domain.Cart, error) {
	body := map[string]string{"shipping_address_id": addressID}
	var cart domain.Cart
	if err := c.mutate(ctx, "set_shipping_address", http.MethodPut, "/cart/shipping-address", body, &cart, domain.EventCartChanged); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) CreateShippingAddress(ctx context.Context, in AddressInput) (*domain.ShippingAddress, error) {
	var address domain.ShippingAddress
	if err := c.mutate(ctx, "create_shipping_address", http.MethodPost, "/shipping-addresses", in, &address, domain.EventShippingAddressesChanged); err != nil {
		return nil, err
	}
	return &address, nil
}

// InitiateCheckout starts payment for the current cart. The caller redirects
// the user to RedirectURL.
func (c *Client) InitiateCheckout(ctx context.Context) (*CheckoutResult, error) {
	var result CheckoutResult
	if err := c.mutate(ctx, "initiate_checkout", http.MethodPost, "/checkout", nil, &result, domain.EventOrderCreated); err != nil {
		return nil, err
	}
	return &result, nil
}
