package coupon

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// ApplicableType is the coupon's scope: the whole store, a set of product
// ids, or a set of collection names matched against section or category.
type ApplicableType string

const (
	ApplicableTypeAll        ApplicableType = "all"
	ApplicableTypeProduct    ApplicableType = "product"
	ApplicableTypeCollection ApplicableType = "collection"
)

type Coupon struct {
	ID   int64  `json:"id" db:"id"`
	Code string `json:"code" db:"code"` // stored upper-cased, unique

	DiscountType  DiscountType `json:"discount_type" db:"discount_type"`
	DiscountValue float64      `json:"discount_value" db:"discount_value"`

	ExpirationDate time.Time `json:"expiration_date" db:"expiration_date"`

	UsageLimit sql.NullInt32 `json:"usage_limit,omitempty" db:"usage_limit"`
	UsedCount  int           `json:"used_count" db:"used_count"`

	ApplicableType ApplicableType `json:"applicable_type" db:"applicable_type"`
	ApplicableIDs  pq.StringArray `json:"applicable_ids,omitempty" db:"applicable_ids"`

	IsActive bool `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Expired reports whether the coupon is invalid at the given instant.
// A coupon is valid through its expiration instant and invalid strictly after.
func (c *Coupon) Expired(now time.Time) bool {
	return now.After(c.ExpirationDate)
}

// Exhausted reports whether the usage limit has been reached.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit.Valid && c.UsedCount >= int(c.UsageLimit.Int32)
}
