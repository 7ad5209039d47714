package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/product"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `
	id, slug, name_he, name_en, description_he, description_en,
	price, section, category, images, stock, is_active, created_at, updated_at
`

func scanProduct(row pgx.Row) (*product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Slug, &p.NameHe, &p.NameEn, &p.DescriptionHe, &p.DescriptionEn,
		&p.Price, &p.Section, &p.Category, &p.Images, &p.Stock, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a product. Duplicate slugs map to ErrConflict.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	query := `
		INSERT INTO products (
			slug, name_he, name_en, description_he, description_en,
			price, section, category, images, stock, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		p.Slug, p.NameHe, p.NameEn, p.DescriptionHe, p.DescriptionEn,
		p.Price, p.Section, p.Category, p.Images, p.Stock, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return xerrors.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return p, nil
}

func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (*product.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`

	p, err := scanProduct(r.db.QueryRow(ctx, query, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by slug: %w", err)
	}

	return p, nil
}

// FindBySlugs batch-fetches products for a set of slugs. Slugs that match
// nothing are simply absent from the result.
func (r *ProductRepository) FindBySlugs(ctx context.Context, slugs []string) ([]product.Product, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE slug = ANY($1)`

	rows, err := r.db.Query(ctx, query, slugs)
	if err != nil {
		return nil, fmt.Errorf("failed to batch-fetch products: %w", err)
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	return products, nil
}

// ListActive returns active products, optionally filtered by taxonomy.
func (r *ProductRepository) ListActive(ctx context.Context, filters product.ListFilters) ([]product.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = true`
	args := []interface{}{}
	argPos := 1

	if filters.Section != "" {
		query += fmt.Sprintf(" AND section = $%d", argPos)
		args = append(args, filters.Section)
		argPos++
	}
	if filters.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argPos)
		args = append(args, filters.Category)
		argPos++
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, id int64, p *product.Product) error {
	query := `
		UPDATE products
		SET name_he = $1, name_en = $2, description_he = $3, description_en = $4,
		    price = $5, section = $6, category = $7, images = $8, stock = $9,
		    is_active = $10, updated_at = $11
		WHERE id = $12
	`

	result, err := r.db.Exec(
		ctx, query,
		p.NameHe, p.NameEn, p.DescriptionHe, p.DescriptionEn,
		p.Price, p.Section, p.Category, p.Images, p.Stock,
		p.IsActive, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// DecrementStock reserves stock inside the checkout transaction. Zero rows
// affected means the product vanished or the remaining stock is short.
func (r *ProductRepository) DecrementStock(ctx context.Context, tx pgx.Tx, slug string, qty int) error {
	query := `
		UPDATE products
		SET stock = stock - $1, updated_at = $2
		WHERE slug = $3 AND is_active = true AND stock >= $1
	`

	result, err := tx.Exec(ctx, query, qty, time.Now(), slug)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrOutOfStock
	}

	return nil
}
