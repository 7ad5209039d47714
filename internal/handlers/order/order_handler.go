package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/order"
	couponhandler "github.com/KobiNisim21/destiny-commerce/internal/handlers/coupon"
	"github.com/KobiNisim21/destiny-commerce/internal/middleware"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/response"
	ordersvc "github.com/KobiNisim21/destiny-commerce/internal/service/order"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orderService *ordersvc.Service
	logger       *zap.Logger
}

func NewOrderHandler(orderService *ordersvc.Service, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// ========== Storefront ==========

// CreateOrder runs checkout for the authenticated customer.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	email, _ := middleware.GetEmail(c)

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	o, err := h.orderService.CreateOrder(c.Request.Context(), userID, email, &req)
	if err != nil {
		var rejected *ordersvc.CouponRejectedError
		switch {
		case errors.As(err, &rejected):
			response.Error(c, couponhandler.RejectionStatus(rejected.Reason),
				couponhandler.RejectionMessage(rejected.Reason), nil)
		case errors.Is(err, xerrors.ErrOutOfStock):
			response.Error(c, http.StatusBadRequest, "אחד הפריטים אזל מהמלאי / An item in your cart is out of stock", nil)
		case errors.Is(err, xerrors.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, "invalid cart", err)
		default:
			h.logger.Error("checkout failed",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			response.Error(c, http.StatusInternalServerError, "checkout failed", err)
		}
		return
	}

	response.Success(c, http.StatusCreated, "order created", o)
}

// GetOrder returns one of the caller's orders by its public number.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	number := c.Param("number")

	o, err := h.orderService.GetOrderForUser(c.Request.Context(), userID, number)
	if errors.Is(err, xerrors.ErrNotFound) {
		response.NotFound(c, "order not found")
		return
	}
	if errors.Is(err, xerrors.ErrForbidden) {
		response.Forbidden(c, "not your order")
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to get order", err)
		return
	}

	response.Success(c, http.StatusOK, "order retrieved", o)
}

// ListMyOrders returns the caller's order history, newest first.
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	orders, err := h.orderService.ListOrdersForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list orders", err)
		return
	}

	response.Success(c, http.StatusOK, "orders retrieved", orders)
}

// ========== Back Office ==========

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var filters order.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid filters", err)
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list orders", err)
		return
	}

	response.Success(c, http.StatusOK, "orders retrieved", orders)
}

// UpdateStatus moves an order along the fulfillment lifecycle.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid order id", err)
		return
	}

	var req order.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	o, err := h.orderService.UpdateStatus(c.Request.Context(), id, req.Status)
	if errors.Is(err, xerrors.ErrNotFound) {
		response.NotFound(c, "order not found")
		return
	}
	if errors.Is(err, xerrors.ErrInvalidInput) {
		response.Error(c, http.StatusBadRequest, "illegal status transition", err)
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to update status", err)
		return
	}

	response.Success(c, http.StatusOK, "order status updated", o)
}
