package coupon

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/coupon"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/response"
	couponsvc "github.com/KobiNisim21/destiny-commerce/internal/service/coupon"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter guards the public validate endpoint.
type RateLimiter interface {
	CheckCouponAttempt(ctx context.Context, ip string) (bool, error)
}

type CouponHandler struct {
	couponService *couponsvc.Service
	rateLimiter   RateLimiter
	logger        *zap.Logger
}

func NewCouponHandler(couponService *couponsvc.Service, rateLimiter RateLimiter, logger *zap.Logger) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
		rateLimiter:   rateLimiter,
		logger:        logger,
	}
}

// rejectionMessages localizes evaluator reasons for the storefront. Hebrew
// is the primary storefront language.
var rejectionMessages = map[couponsvc.InvalidReason]string{
	couponsvc.ReasonEmptyCode:          "יש להזין קוד קופון / Please enter a coupon code",
	couponsvc.ReasonNotFoundOrInactive: "קוד הקופון אינו קיים / Coupon code not found",
	couponsvc.ReasonExpired:            "תוקף הקופון פג / This coupon has expired",
	couponsvc.ReasonUsageLimitReached:  "הקופון נוצל במלואו / This coupon has been fully redeemed",
	couponsvc.ReasonNoApplicableItems:  "הקופון אינו תקף לפריטים שבסל / Coupon does not apply to the items in your cart",
}

// RejectionMessage returns the localized storefront message for a reason.
func RejectionMessage(reason couponsvc.InvalidReason) string {
	if msg, ok := rejectionMessages[reason]; ok {
		return msg
	}
	return "קוד הקופון אינו תקף / Invalid coupon code"
}

// RejectionStatus maps a reason to its HTTP status. Only an unknown code is
// a 404; every other rejection concerns a coupon that does exist.
func RejectionStatus(reason couponsvc.InvalidReason) int {
	if reason == couponsvc.ReasonNotFoundOrInactive {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// ========== Storefront ==========

// Validate checks a coupon against a proposed cart without consuming a use.
// Rate limited per IP so codes cannot be brute-forced.
func (h *CouponHandler) Validate(c *gin.Context) {
	allowed, err := h.rateLimiter.CheckCouponAttempt(c.Request.Context(), c.ClientIP())
	if err != nil {
		h.logger.Warn("coupon rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		response.Error(c, http.StatusTooManyRequests, "too many attempts, try again later", nil)
		return
	}

	var req coupon.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.couponService.Validate(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to validate coupon", err)
		return
	}

	if !result.Valid {
		response.Error(c, RejectionStatus(result.Reason), "coupon rejected", nil, coupon.ValidateCouponResponse{
			Valid:   false,
			Message: RejectionMessage(result.Reason),
		})
		return
	}

	response.Success(c, http.StatusOK, "coupon valid", coupon.ValidateCouponResponse{
		Valid:          true,
		Code:           result.Code,
		DiscountAmount: result.DiscountAmount,
		DiscountType:   string(result.DiscountType),
		DiscountValue:  result.DiscountValue,
		Message:        "הקופון הופעל בהצלחה / Coupon applied",
	})
}

// ========== Back Office ==========

func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req coupon.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	created, err := h.couponService.CreateCoupon(c.Request.Context(), &req)
	if errors.Is(err, xerrors.ErrConflict) {
		// Duplicate normalized codes are a validation failure, not a conflict.
		response.Error(c, http.StatusBadRequest, "coupon code already exists", nil)
		return
	}
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to create coupon", err)
		return
	}

	response.Success(c, http.StatusCreated, "coupon created", created)
}

func (h *CouponHandler) ListCoupons(c *gin.Context) {
	coupons, err := h.couponService.ListCoupons(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list coupons", err)
		return
	}

	response.Success(c, http.StatusOK, "coupons retrieved", coupons)
}

func (h *CouponHandler) DeactivateCoupon(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid coupon id", err)
		return
	}

	if err := h.couponService.DeactivateCoupon(c.Request.Context(), id); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "coupon not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to deactivate coupon", err)
		return
	}

	response.Success(c, http.StatusOK, "coupon deactivated", nil)
}

func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid coupon id", err)
		return
	}

	if err := h.couponService.DeleteCoupon(c.Request.Context(), id); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "coupon not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to delete coupon", err)
		return
	}

	response.Success(c, http.StatusOK, "coupon deleted", nil)
}
