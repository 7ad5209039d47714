package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/coupon"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CouponRepository struct {
	db *pgxpool.Pool
}

func NewCouponRepository(db *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{db: db}
}

const couponColumns = `
	id, code, discount_type, discount_value, expiration_date,
	usage_limit, used_count, applicable_type, applicable_ids,
	is_active, created_at, updated_at
`

func scanCoupon(row pgx.Row) (*coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.ExpirationDate,
		&c.UsageLimit, &c.UsedCount, &c.ApplicableType, &c.ApplicableIDs,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a coupon. The code must already be upper-cased by the
// service; a duplicate maps to ErrConflict.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	query := `
		INSERT INTO coupons (
			code, discount_type, discount_value, expiration_date,
			usage_limit, used_count, applicable_type, applicable_ids, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		c.Code, c.DiscountType, c.DiscountValue, c.ExpirationDate,
		c.UsageLimit, c.UsedCount, c.ApplicableType, c.ApplicableIDs, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return xerrors.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

// FindActiveByCode looks up an active coupon by its canonical (upper-cased)
// code. Inactive coupons are never matched.
func (r *CouponRepository) FindActiveByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 AND is_active = true`

	c, err := scanCoupon(r.db.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find coupon: %w", err)
	}

	return c, nil
}

// List returns all coupons, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []coupon.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read coupons: %w", err)
	}

	return coupons, nil
}

// ConsumeUse atomically increments used_count, but only while the usage limit
// has not been reached. Zero rows affected means the coupon was deactivated
// or sold out between validation and checkout.
func (r *CouponRepository) ConsumeUse(ctx context.Context, tx pgx.Tx, id int64) error {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = $1
		WHERE id = $2
		  AND is_active = true
		  AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	result, err := tx.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to consume coupon use: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrCouponSoldOut
	}

	return nil
}

// Deactivate flips is_active off; the coupon stops matching immediately.
func (r *CouponRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE coupons SET is_active = false, updated_at = $1 WHERE id = $2`

	result, err := r.db.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate coupon: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// Delete hard-deletes a coupon.
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM coupons WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}
