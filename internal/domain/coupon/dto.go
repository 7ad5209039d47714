package coupon

import "time"

// CartLine is a client-supplied cart row. ProductID is the product slug,
// the public identifier of the catalog. Prices are never taken from the
// client; products are re-read from storage.
type CartLine struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type CreateCouponRequest struct {
	Code           string    `json:"code" binding:"required"`
	DiscountType   string    `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountValue  float64   `json:"discountValue" binding:"required,gt=0"`
	ExpirationDate time.Time `json:"expirationDate" binding:"required"`
	UsageLimit     *int32    `json:"usageLimit"`
	ApplicableType string    `json:"applicableType" binding:"required,oneof=all product collection"`
	ApplicableIDs  []string  `json:"applicableIds"`
}

type ValidateCouponRequest struct {
	Code      string     `json:"code"`
	CartItems []CartLine `json:"cartItems"`
}

// ValidateCouponResponse is the wire shape of POST /coupons/validate.
type ValidateCouponResponse struct {
	Valid          bool    `json:"valid"`
	Code           string  `json:"code,omitempty"`
	DiscountAmount float64 `json:"discountAmount,omitempty"`
	DiscountType   string  `json:"discountType,omitempty"`
	DiscountValue  float64 `json:"discountValue,omitempty"`
	Message        string  `json:"message"`
}
