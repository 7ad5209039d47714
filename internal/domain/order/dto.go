package order

import "github.com/KobiNisim21/destiny-commerce/internal/domain/coupon"

type CreateOrderRequest struct {
	CartItems       []coupon.CartLine `json:"cartItems" binding:"required,min=1"`
	CouponCode      string            `json:"couponCode"`
	ShippingName    string            `json:"shippingName" binding:"required"`
	ShippingAddress string            `json:"shippingAddress" binding:"required"`
	ShippingCity    string            `json:"shippingCity" binding:"required"`
	ShippingPhone   string            `json:"shippingPhone"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=pending paid shipped delivered cancelled"`
}

type ListFilters struct {
	Status string `form:"status"`
	Limit  int    `form:"limit,default=50"`
	Offset int    `form:"offset,default=0"`
}

// Event is the frame broadcast to the admin websocket feed.
type Event struct {
	Type   string  `json:"type"` // order_created, order_status_changed
	Number string  `json:"number"`
	Status Status  `json:"status"`
	Total  float64 `json:"total"`
}
