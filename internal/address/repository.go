package address

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `
	id, user_id, recipient_name, email, cpf, phone, zip_code, street, number,
	complement, neighborhood, city, state, created_at`

func (r *Repository) Create(ctx context.Context, a *domain.ShippingAddress) error {
	a.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shipping_addresses (
			id, user_id, recipient_name, email, cpf, phone, zip_code, street, number,
			complement, neighborhood, city, state, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, a.ID, a.UserID, a.FullName, a.Email, a.CPF, a.Phone, a.ZipCode, a.Street, a.Number,
		a.Complement, a.Neighborhood, a.City, a.State, a.CreatedAt)
	return err
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.ShippingAddress, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+selectColumns+`
		FROM shipping_addresses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	addresses := []domain.ShippingAddress{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return addresses, nil
}

// GetForUser returns the address only if it belongs to userID; otherwise nil.
func (r *Repository) GetForUser(ctx context.Context, id, userID string) (*domain.ShippingAddress, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+selectColumns+`
		FROM shipping_addresses
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	a, err := scanAddress(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return a, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAddress(s scanner) (*domain.ShippingAddress, error) {
	var a domain.ShippingAddress
	err := s.Scan(&a.ID, &a.UserID, &a.FullName, &a.Email, &a.CPF, &a.Phone, &a.ZipCode, &a.Street,
		&a.Number, &a.Complement, &a.Neighborhood, &a.City, &a.State, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
