package coupon

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/coupon"
	"github.com/KobiNisim21/destiny-commerce/internal/domain/product"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Store is the slice of the coupon repository the service needs; an
// interface so tests can substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, c *coupon.Coupon) error
	FindActiveByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	List(ctx context.Context) ([]coupon.Coupon, error)
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// ProductStore resolves cart slugs to catalog records.
type ProductStore interface {
	FindBySlugs(ctx context.Context, slugs []string) ([]product.Product, error)
}

type Service struct {
	coupons   Store
	products  ProductStore
	evaluator *Evaluator
	logger    *zap.Logger
}

func NewService(coupons Store, products ProductStore, evaluator *Evaluator, logger *zap.Logger) *Service {
	return &Service{
		coupons:   coupons,
		products:  products,
		evaluator: evaluator,
		logger:    logger,
	}
}

// ========== Admin Operations ==========

// CreateCoupon creates a coupon from an admin request. The code is stored
// upper-cased; duplicates surface as ErrConflict from the store.
func (s *Service) CreateCoupon(ctx context.Context, req *coupon.CreateCouponRequest) (*coupon.Coupon, error) {
	code := NormalizeCode(req.Code)
	if code == "" {
		return nil, fmt.Errorf("coupon code is required")
	}

	if req.DiscountType == string(coupon.DiscountTypePercentage) && req.DiscountValue > 100 {
		return nil, fmt.Errorf("percentage discount cannot exceed 100")
	}

	if req.ApplicableType != string(coupon.ApplicableTypeAll) && len(req.ApplicableIDs) == 0 {
		return nil, fmt.Errorf("applicable ids are required for scope %q", req.ApplicableType)
	}

	c := &coupon.Coupon{
		Code:           code,
		DiscountType:   coupon.DiscountType(req.DiscountType),
		DiscountValue:  req.DiscountValue,
		ExpirationDate: req.ExpirationDate,
		ApplicableType: coupon.ApplicableType(req.ApplicableType),
		ApplicableIDs:  pq.StringArray(req.ApplicableIDs),
		IsActive:       true,
	}
	if req.UsageLimit != nil {
		if *req.UsageLimit <= 0 {
			return nil, fmt.Errorf("usage limit must be positive")
		}
		c.UsageLimit = sql.NullInt32{Int32: *req.UsageLimit, Valid: true}
	}

	if err := s.coupons.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("coupon created",
		zap.Int64("coupon_id", c.ID),
		zap.String("code", c.Code),
		zap.String("scope", string(c.ApplicableType)),
	)

	return c, nil
}

// ListCoupons returns every coupon, newest first.
func (s *Service) ListCoupons(ctx context.Context) ([]coupon.Coupon, error) {
	return s.coupons.List(ctx)
}

// DeactivateCoupon stops a coupon from matching without deleting history.
func (s *Service) DeactivateCoupon(ctx context.Context, id int64) error {
	if err := s.coupons.Deactivate(ctx, id); err != nil {
		return err
	}

	s.logger.Info("coupon deactivated", zap.Int64("coupon_id", id))
	return nil
}

// DeleteCoupon hard-deletes a coupon.
func (s *Service) DeleteCoupon(ctx context.Context, id int64) error {
	if err := s.coupons.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("coupon deleted", zap.Int64("coupon_id", id))
	return nil
}

// ========== Storefront Operations ==========

// Validate evaluates a coupon against a proposed cart. Side-effect free:
// the shopper may call this any number of times before checking out.
func (s *Service) Validate(ctx context.Context, req *coupon.ValidateCouponRequest) (EvaluationResult, error) {
	result, err := s.evaluator.Evaluate(
		ctx,
		req.Code,
		req.CartItems,
		s.coupons.FindActiveByCode,
		s.products.FindBySlugs,
	)
	if err != nil {
		s.logger.Error("coupon evaluation failed", zap.Error(err))
		return EvaluationResult{}, err
	}

	return result, nil
}
