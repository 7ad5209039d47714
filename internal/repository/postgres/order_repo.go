package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/order"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `
	id, number, user_id, lines, subtotal, coupon_code, discount_amount, total,
	status, shipping_name, shipping_address, shipping_city, shipping_phone,
	created_at, updated_at
`

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	var linesJSON []byte

	err := row.Scan(
		&o.ID, &o.Number, &o.UserID, &linesJSON, &o.Subtotal, &o.CouponCode,
		&o.DiscountAmount, &o.Total, &o.Status, &o.ShippingName,
		&o.ShippingAddress, &o.ShippingCity, &o.ShippingPhone,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order lines: %w", err)
	}

	return &o, nil
}

// Create inserts an order inside the caller's transaction, so the coupon
// consumption and the order row commit or roll back together.
func (r *OrderRepository) Create(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	query := `
		INSERT INTO orders (
			number, user_id, lines, subtotal, coupon_code, discount_amount,
			total, status, shipping_name, shipping_address, shipping_city, shipping_phone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal order lines: %w", err)
	}

	err = tx.QueryRow(
		ctx, query,
		o.Number, o.UserID, linesJSON, o.Subtotal, o.CouponCode, o.DiscountAmount,
		o.Total, o.Status, o.ShippingName, o.ShippingAddress, o.ShippingCity, o.ShippingPhone,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	return o, nil
}

func (r *OrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE number = $1`

	o, err := scanOrder(r.db.QueryRow(ctx, query, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order by number: %w", err)
	}

	return o, nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// List returns all orders for the back-office, newest first.
func (r *OrderRepository) List(ctx context.Context, filters order.ListFilters) ([]order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []interface{}{}
	argPos := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" WHERE status = $%d", argPos)
		args = append(args, filters.Status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]order.Order, error) {
	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status order.Status) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}
