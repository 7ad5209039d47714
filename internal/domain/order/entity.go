package order

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Final reports whether no further transitions are allowed from s.
func (s Status) Final() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo enforces pending → paid → shipped → delivered, with
// cancellation allowed from any non-final state.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Final() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusPaid
	case StatusPaid:
		return next == StatusShipped
	case StatusShipped:
		return next == StatusDelivered
	}
	return false
}

// Line is a priced order row, snapshotted at checkout time so later catalog
// edits do not rewrite order history. Stored as JSONB.
type Line struct {
	ProductID string  `json:"product_id"` // product slug
	NameHe    string  `json:"name_he"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type Order struct {
	ID     int64  `json:"id" db:"id"`
	Number string `json:"number" db:"number"` // ULID, public identifier
	UserID int64  `json:"user_id" db:"user_id"`

	Lines []Line `json:"lines" db:"lines"`

	Subtotal       float64        `json:"subtotal" db:"subtotal"`
	CouponCode     sql.NullString `json:"coupon_code,omitempty" db:"coupon_code"`
	DiscountAmount float64        `json:"discount_amount" db:"discount_amount"`
	Total          float64        `json:"total" db:"total"`

	Status Status `json:"status" db:"status"`

	ShippingName    string         `json:"shipping_name" db:"shipping_name"`
	ShippingAddress string         `json:"shipping_address" db:"shipping_address"`
	ShippingCity    string         `json:"shipping_city" db:"shipping_city"`
	ShippingPhone   sql.NullString `json:"shipping_phone,omitempty" db:"shipping_phone"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
