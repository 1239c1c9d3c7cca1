package orders

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `
	id, user_id, shipping_address_id, recipient_name, email, cpf, phone, zip_code,
	street, number, complement, neighborhood, city, state, total_in_cents, status,
	checkout_session_id, created_at`

// Create stores the order and its items in one transaction. The address
// fields are copied so later edits to the address do not rewrite history.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()
	a := order.ShippingAddress

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, shipping_address_id, recipient_name, email, cpf, phone, zip_code,
			street, number, complement, neighborhood, city, state, total_in_cents, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
	`, order.ID, order.UserID, nullString(order.ShippingAddressID), a.FullName, a.Email, a.CPF, a.Phone, a.ZipCode,
		a.Street, a.Number, a.Complement, a.Neighborhood, a.City, a.State, order.TotalInCents, order.Status,
		order.CreatedAt)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, variant_id, product_name, variant_name, quantity, price_in_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New().String(), order.ID, item.VariantID, item.ProductName, item.VariantName, item.Quantity, item.PriceInCents)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := r.loadItems(ctx, map[string]*domain.Order{order.ID: order}, []string{order.ID}); err != nil {
		return nil, err
	}

	return order, nil
}

// GetForUser returns the order only if userID placed it.
func (r *OrderRepository) GetForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	order, err := r.GetByID(ctx, id)
	if err != nil || order == nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, nil
	}
	return order, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	if err := r.loadItems(ctx, orderMap, orderIDs); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// UpdateStatus moves the order from one status to another. It returns nil if
// the order does not exist or is no longer in from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

func (r *OrderRepository) AttachCheckoutSession(ctx context.Context, id, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET checkout_session_id = $1, updated_at = NOW()
		WHERE id = $2
	`, sessionID, id)
	return err
}

// MarkPaid moves a pending order to paid. When sessionID is set it must match
// the session recorded on the order. It returns nil if nothing changed.
func (r *OrderRepository) MarkPaid(ctx context.Context, id, sessionID string) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, checkout_session_id = COALESCE(checkout_session_id, NULLIF($4::text, '')), updated_at = NOW()
		WHERE id = $2 AND status = $3
		  AND ($4::text = '' OR checkout_session_id IS NULL OR checkout_session_id = $4::text)
	`, domain.OrderStatusPaid, id, domain.OrderStatusPending, sessionID)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

func (r *OrderRepository) loadItems(ctx context.Context, orders map[string]*domain.Order, orderIDs []string) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, variant_id, product_name, variant_name, quantity, price_in_cents
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY product_name, variant_name
	`, pq.Array(orderIDs))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.VariantID, &item.ProductName, &item.VariantName, &item.Quantity, &item.PriceInCents); err != nil {
			return err
		}
		if order, ok := orders[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		o         domain.Order
		addressID sql.NullString
		sessionID sql.NullString
	)
	a := &o.ShippingAddress

	err := s.Scan(&o.ID, &o.UserID, &addressID, &a.FullName, &a.Email, &a.CPF, &a.Phone, &a.ZipCode,
		&a.Street, &a.Number, &a.Complement, &a.Neighborhood, &a.City, &a.State, &o.TotalInCents, &o.Status,
		&sessionID, &o.CreatedAt)
	if err != nil {
		return nil, err
	}

	o.ShippingAddressID = addressID.String
	o.CheckoutSessionID = sessionID.String
	a.ID = addressID.String
	a.UserID = o.UserID
	o.Items = []domain.OrderItem{}

	return &o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
