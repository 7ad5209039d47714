package coupon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/coupon"
	"github.com/KobiNisim21/destiny-commerce/internal/domain/product"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
	couponsvc "github.com/KobiNisim21/destiny-commerce/internal/service/coupon"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fakeCouponStore struct {
	coupons map[string]*coupon.Coupon
}

func (s *fakeCouponStore) Create(ctx context.Context, c *coupon.Coupon) error { return nil }

func (s *fakeCouponStore) FindActiveByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	c, ok := s.coupons[code]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return c, nil
}

func (s *fakeCouponStore) List(ctx context.Context) ([]coupon.Coupon, error) { return nil, nil }
func (s *fakeCouponStore) Deactivate(ctx context.Context, id int64) error    { return nil }
func (s *fakeCouponStore) Delete(ctx context.Context, id int64) error        { return nil }

type fakeProductStore struct {
	products []product.Product
}

func (s *fakeProductStore) FindBySlugs(ctx context.Context, slugs []string) ([]product.Product, error) {
	var out []product.Product
	for _, p := range s.products {
		for _, slug := range slugs {
			if p.Slug == slug {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type fakeRateLimiter struct {
	allowed bool
}

func (r *fakeRateLimiter) CheckCouponAttempt(ctx context.Context, ip string) (bool, error) {
	return r.allowed, nil
}

func newTestRouter(t *testing.T, coupons *fakeCouponStore, limiter *fakeRateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fixedNow := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	evaluator := couponsvc.NewEvaluator(func() time.Time { return fixedNow })

	products := &fakeProductStore{products: []product.Product{
		{Slug: "ceramic-hamsa", Price: 80, Section: "judaica", Category: "wall-art", IsActive: true},
		{Slug: "olive-bowl", Price: 40, Section: "kitchen", Category: "bowls", IsActive: true},
	}}

	svc := couponsvc.NewService(coupons, products, evaluator, zap.NewNop())
	handler := NewCouponHandler(svc, limiter, zap.NewNop())

	r := gin.New()
	r.POST("/coupons/validate", handler.Validate)
	return r
}

func validateRequest(t *testing.T, r *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/coupons/validate", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidate_ValidCoupon(t *testing.T) {
	coupons := &fakeCouponStore{coupons: map[string]*coupon.Coupon{
		"SAVE10": {
			ID:             1,
			Code:           "SAVE10",
			DiscountType:   coupon.DiscountTypePercentage,
			DiscountValue:  10,
			ExpirationDate: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
			ApplicableType: coupon.ApplicableTypeAll,
			IsActive:       true,
		},
	}}
	r := newTestRouter(t, coupons, &fakeRateLimiter{allowed: true})

	w := validateRequest(t, r, coupon.ValidateCouponRequest{
		Code: "save10",
		CartItems: []coupon.CartLine{
			{ProductID: "ceramic-hamsa", Quantity: 1},
			{ProductID: "olive-bowl", Quantity: 1},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Success bool                          `json:"success"`
		Data    coupon.ValidateCouponResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if !resp.Success || !resp.Data.Valid {
		t.Errorf("expected a valid coupon response, got %+v", resp)
	}
	if resp.Data.Code != "SAVE10" {
		t.Errorf("code = %q, want canonical SAVE10", resp.Data.Code)
	}
	if resp.Data.DiscountAmount != 12 {
		t.Errorf("discount = %v, want 12 (10%% of 120)", resp.Data.DiscountAmount)
	}
}

func TestValidate_RejectionStatuses(t *testing.T) {
	coupons := &fakeCouponStore{coupons: map[string]*coupon.Coupon{
		"EXPIRED": {
			ID:             2,
			Code:           "EXPIRED",
			DiscountType:   coupon.DiscountTypeFixed,
			DiscountValue:  20,
			ExpirationDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			ApplicableType: coupon.ApplicableTypeAll,
			IsActive:       true,
		},
	}}
	r := newTestRouter(t, coupons, &fakeRateLimiter{allowed: true})

	cart := []coupon.CartLine{{ProductID: "ceramic-hamsa", Quantity: 1}}

	tests := []struct {
		name       string
		code       string
		wantStatus int
	}{
		{"unknown code is a 404", "NOSUCH", http.StatusNotFound},
		{"expired code is a 400", "EXPIRED", http.StatusBadRequest},
		{"empty code is a 400", "   ", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := validateRequest(t, r, coupon.ValidateCouponRequest{Code: tt.code, CartItems: cart})
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestValidate_RateLimited(t *testing.T) {
	r := newTestRouter(t, &fakeCouponStore{}, &fakeRateLimiter{allowed: false})

	w := validateRequest(t, r, coupon.ValidateCouponRequest{Code: "SAVE10"})

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}
