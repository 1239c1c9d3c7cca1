package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortName   SortOrder = "name"
)

type ProductFilter struct {
	CategorySlug string
	Sort         SortOrder
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, slug, created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	orderBy := "p.name"
	if filter.Sort == SortNewest {
		orderBy = "p.created_at DESC"
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.category_id, p.name, p.slug, p.description, p.created_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE ($1::text = '' OR c.slug = $1::text)
		ORDER BY `+orderBy, filter.CategorySlug)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	productMap := make(map[string]*domain.Product)
	var productIDs []string

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Variants = []domain.ProductVariant{}
		productMap[p.ID] = &p
		productIDs = append(productIDs, p.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(productIDs) == 0 {
		return []domain.Product{}, nil
	}

	if err := r.loadVariants(ctx, productIDs, productMap); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(productIDs))
	for _, id := range productIDs {
		products = append(products, *productMap[id])
	}

	return products, nil
}

func (r *Repository) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	p := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, category_id, name, slug, description, created_at
		FROM products
		WHERE slug = $1
	`, slug).Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	p.Variants = []domain.ProductVariant{}
	if err := r.loadVariants(ctx, []string{p.ID}, map[string]*domain.Product{p.ID: p}); err != nil {
		return nil, err
	}

	return p, nil
}

// VariantByID returns the variant with its product name, or nil if it does
// not exist.
func (r *Repository) VariantByID(ctx context.Context, id string) (*domain.VariantDetails, error) {
	v := &domain.VariantDetails{}

	err := r.db.QueryRowContext(ctx, `
		SELECT v.id, v.product_id, v.name, v.slug, v.color, v.price_in_cents, v.image_url, v.created_at, p.name
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1
	`, id).Scan(&v.ID, &v.ProductID, &v.Name, &v.Slug, &v.Color, &v.PriceInCents, &v.ImageURL, &v.CreatedAt, &v.ProductName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return v, nil
}

func (r *Repository) loadVariants(ctx context.Context, productIDs []string, products map[string]*domain.Product) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, name, slug, color, price_in_cents, image_url, created_at
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY created_at, name
	`, pq.Array(productIDs))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var v domain.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Slug, &v.Color, &v.PriceInCents, &v.ImageURL, &v.CreatedAt); err != nil {
			return err
		}
		if p, ok := products[v.ProductID]; ok {
			p.Variants = append(p.Variants, v)
		}
	}

	return rows.Err()
}
