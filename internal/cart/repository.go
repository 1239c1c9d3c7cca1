package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate returns the user's cart, inserting an empty one first if the
// user has none. Concurrent first calls converge on the same row.
func (r *Repository) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New().String(), userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	cart, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, errors.New("cart vanished after insert")
	}

	return cart, nil
}

// Get loads the user's cart with its items joined to the variants' current
// names and prices. It returns nil if the user has no cart.
func (r *Repository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{}
	var addressID sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, shipping_address_id, created_at
		FROM carts
		WHERE user_id = $1
	`, userID).Scan(&cart.ID, &cart.UserID, &addressID, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	cart.ShippingAddressID = addressID.String

	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.variant_id, ci.quantity, ci.created_at,
		       p.name, v.name, v.image_url, v.price_in_cents
		FROM cart_items ci
		JOIN product_variants v ON v.id = ci.variant_id
		JOIN products p ON p.id = v.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id
	`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.VariantID, &item.Quantity, &item.CreatedAt,
			&item.ProductName, &item.VariantName, &item.ImageURL, &item.PriceInCents); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}

// UpsertItem adds quantity units of the variant in one statement: a new line
// item, or an increment of the existing one.
func (r *Repository) UpsertItem(ctx context.Context, cartID, variantID string, quantity int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, variant_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, variant_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, uuid.New().String(), cartID, variantID, quantity, time.Now().UTC())
	return err
}

// DecrementItem lowers the item's quantity by one, deleting it when the
// quantity is 1. It reports false if the item is not in the cart.
func (r *Repository) DecrementItem(ctx context.Context, cartID, itemID string) (bool, error) {
	var affected int
	err := r.db.QueryRowContext(ctx, `
		WITH removed AS (
			DELETE FROM cart_items
			WHERE id = $1 AND cart_id = $2 AND quantity <= 1
			RETURNING id
		), decremented AS (
			UPDATE cart_items SET quantity = quantity - 1
			WHERE id = $1 AND cart_id = $2 AND quantity > 1
			RETURNING id
		)
		SELECT (SELECT COUNT(*) FROM removed) + (SELECT COUNT(*) FROM decremented)
	`, itemID, cartID).Scan(&affected)
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *Repository) RemoveItem(ctx context.Context, cartID, itemID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND cart_id = $2
	`, itemID, cartID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *Repository) SetShippingAddress(ctx context.Context, cartID, addressID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE carts SET shipping_address_id = $1 WHERE id = $2
	`, addressID, cartID)
	return err
}

func (r *Repository) ClearItems(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}
