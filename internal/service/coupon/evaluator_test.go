package coupon

import (
	"context"
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/coupon"
	"github.com/KobiNisim21/destiny-commerce/internal/domain/product"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"

	"github.com/lib/pq"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// lookups returns CouponLookup/ProductLookup closures over fixture maps.
func lookups(coupons map[string]*coupon.Coupon, products []product.Product) (CouponLookup, ProductLookup) {
	lookupCoupon := func(_ context.Context, code string) (*coupon.Coupon, error) {
		c, ok := coupons[code]
		if !ok || !c.IsActive {
			return nil, xerrors.ErrNotFound
		}
		return c, nil
	}
	lookupProducts := func(_ context.Context, slugs []string) ([]product.Product, error) {
		want := make(map[string]bool, len(slugs))
		for _, s := range slugs {
			want[s] = true
		}
		var out []product.Product
		for _, p := range products {
			if want[p.Slug] {
				out = append(out, p)
			}
		}
		return out, nil
	}
	return lookupCoupon, lookupProducts
}

func storewideCoupon(code string, dt coupon.DiscountType, value float64) *coupon.Coupon {
	return &coupon.Coupon{
		ID:             1,
		Code:           code,
		DiscountType:   dt,
		DiscountValue:  value,
		ExpirationDate: testNow.Add(24 * time.Hour),
		ApplicableType: coupon.ApplicableTypeAll,
		IsActive:       true,
	}
}

func testProducts() []product.Product {
	return []product.Product{
		{ID: 1, Slug: "p1", Price: 50, Section: "trinkets", Category: "gifts"},
		{ID: 2, Slug: "p2", Price: 30, Section: "jewelry", Category: "pins"},
		{ID: 3, Slug: "p3", Price: 120, Section: "trinkets", Category: "pins"},
	}
}

func TestEvaluate_RejectionReasons(t *testing.T) {
	expired := storewideCoupon("OLD", coupon.DiscountTypePercentage, 10)
	expired.ExpirationDate = testNow.Add(-time.Hour)

	exhausted := storewideCoupon("GONE", coupon.DiscountTypePercentage, 10)
	exhausted.UsageLimit = sql.NullInt32{Int32: 5, Valid: true}
	exhausted.UsedCount = 5

	inactive := storewideCoupon("DEAD", coupon.DiscountTypePercentage, 10)
	inactive.IsActive = false

	coupons := map[string]*coupon.Coupon{
		"OLD":    expired,
		"GONE":   exhausted,
		"DEAD":   inactive,
		"SAVE10": storewideCoupon("SAVE10", coupon.DiscountTypePercentage, 10),
	}

	cart := []coupon.CartLine{{ProductID: "p1", Quantity: 1}}

	tests := []struct {
		name   string
		code   string
		lines  []coupon.CartLine
		reason InvalidReason
	}{
		{"empty code", "", cart, ReasonEmptyCode},
		{"whitespace only code", "   ", cart, ReasonEmptyCode},
		{"unknown code", "NOPE", cart, ReasonNotFoundOrInactive},
		{"inactive coupon", "DEAD", cart, ReasonNotFoundOrInactive},
		{"expired coupon", "OLD", cart, ReasonExpired},
		{"expired regardless of cart", "OLD", nil, ReasonExpired},
		{"usage limit reached", "GONE", cart, ReasonUsageLimitReached},
		{"empty cart", "SAVE10", nil, ReasonNoApplicableItems},
		{"cart of unresolvable products", "SAVE10", []coupon.CartLine{{ProductID: "ghost", Quantity: 2}}, ReasonNoApplicableItems},
	}

	e := NewEvaluator(fixedClock)
	lookupCoupon, lookupProducts := lookups(coupons, testProducts())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Evaluate(context.Background(), tt.code, tt.lines, lookupCoupon, lookupProducts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Valid {
				t.Fatalf("expected invalid result, got valid with discount %v", result.DiscountAmount)
			}
			if result.Reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, result.Reason)
			}
		})
	}
}

func TestEvaluate_PercentageDiscount(t *testing.T) {
	coupons := map[string]*coupon.Coupon{
		"SAVE10": storewideCoupon("SAVE10", coupon.DiscountTypePercentage, 10),
	}

	e := NewEvaluator(fixedClock)
	lookupCoupon, lookupProducts := lookups(coupons, testProducts())

	// p1 costs 50, so 2 units -> subtotal 100, 10% -> 10.
	cart := []coupon.CartLine{{ProductID: "p1", Quantity: 2}}

	result, err := e.Evaluate(context.Background(), "save10", cart, lookupCoupon, lookupProducts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result, got reason %q", result.Reason)
	}
	if result.Code != "SAVE10" {
		t.Errorf("expected canonical code SAVE10, got %q", result.Code)
	}
	if math.Abs(result.DiscountAmount-10) > 1e-9 {
		t.Errorf("expected discount 10, got %v", result.DiscountAmount)
	}
	if result.DiscountType != coupon.DiscountTypePercentage || result.DiscountValue != 10 {
		t.Errorf("expected type/value echoed, got %v/%v", result.DiscountType, result.DiscountValue)
	}
}

func TestEvaluate_FixedDiscountClampedToSubtotal(t *testing.T) {
	coupons := map[string]*coupon.Coupon{
		"BIG": storewideCoupon("BIG", coupon.DiscountTypeFixed, 200),
		"S20": storewideCoupon("S20", coupon.DiscountTypeFixed, 20),
	}

	e := NewEvaluator(fixedClock)
	lookupCoupon, lookupProducts := lookups(coupons, testProducts())

	tests := []struct {
		name     string
		code     string
		cart     []coupon.CartLine
		discount float64
	}{
		{
			name:     "fixed above subtotal clamps",
			code:     "BIG",
			cart:     []coupon.CartLine{{ProductID: "p1", Quantity: 1}}, // subtotal 50
			discount: 50,
		},
		{
			name:     "fixed below subtotal unchanged",
			code:     "S20",
			cart:     []coupon.CartLine{{ProductID: "p1", Quantity: 1}},
			discount: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Evaluate(context.Background(), tt.code, tt.cart, lookupCoupon, lookupProducts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.Valid {
				t.Fatalf("expected valid result, got reason %q", result.Reason)
			}
			if result.DiscountAmount != tt.discount {
				t.Errorf("expected discount %v, got %v", tt.discount, result.DiscountAmount)
			}
		})
	}
}

func TestEvaluate_ScopeMatching(t *testing.T) {
	products := testProducts()

	productScoped := storewideCoupon("PRODONLY", coupon.DiscountTypePercentage, 50)
	productScoped.ApplicableType = coupon.ApplicableTypeProduct
	productScoped.ApplicableIDs = pq.StringArray{"p2"}

	collectionScoped := storewideCoupon("PINS", coupon.DiscountTypePercentage, 100)
	collectionScoped.ApplicableType = coupon.ApplicableTypeCollection
	collectionScoped.ApplicableIDs = pq.StringArray{"pins"}

	coupons := map[string]*coupon.Coupon{
		"PRODONLY": productScoped,
		"PINS":     collectionScoped,
	}

	e := NewEvaluator(fixedClock)
	lookupCoupon, lookupProducts := lookups(coupons, products)

	t.Run("product scope counts only listed products", func(t *testing.T) {
		cart := []coupon.CartLine{
			{ProductID: "p1", Quantity: 1}, // not in scope
			{ProductID: "p2", Quantity: 2}, // 2 * 30 = 60
		}
		result, err := e.Evaluate(context.Background(), "PRODONLY", cart, lookupCoupon, lookupProducts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Valid {
			t.Fatalf("expected valid result, got reason %q", result.Reason)
		}
		// 50% of 60
		if result.DiscountAmount != 30 {
			t.Errorf("expected discount 30, got %v", result.DiscountAmount)
		}
	})

	t.Run("product scope with no matching line rejects", func(t *testing.T) {
		cart := []coupon.CartLine{{ProductID: "p1", Quantity: 3}}
		result, err := e.Evaluate(context.Background(), "PRODONLY", cart, lookupCoupon, lookupProducts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Valid || result.Reason != ReasonNoApplicableItems {
			t.Errorf("expected no_applicable_items, got %+v", result)
		}
	})

	t.Run("collection scope matches section or category", func(t *testing.T) {
		// p1: section=trinkets, category=gifts -> no match.
		// p2: category=pins -> matches through category.
		// p3: section=trinkets, category=pins -> matches through category.
		cart := []coupon.CartLine{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 1}, // 30
			{ProductID: "p3", Quantity: 1}, // 120
		}
		result, err := e.Evaluate(context.Background(), "PINS", cart, lookupCoupon, lookupProducts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Valid {
			t.Fatalf("expected valid result, got reason %q", result.Reason)
		}
		// 100% of 150
		if result.DiscountAmount != 150 {
			t.Errorf("expected discount 150, got %v", result.DiscountAmount)
		}
	})
}

func TestEvaluate_StorewideSubtotalAndSkippedLines(t *testing.T) {
	coupons := map[string]*coupon.Coupon{
		"ALL5": storewideCoupon("ALL5", coupon.DiscountTypePercentage, 5),
	}

	e := NewEvaluator(fixedClock)
	lookupCoupon, lookupProducts := lookups(coupons, testProducts())

	// The ghost line is skipped silently; subtotal = 50 + 2*30 = 110.
	cart := []coupon.CartLine{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "ghost", Quantity: 4},
		{ProductID: "p2", Quantity: 2},
	}

	result, err := e.Evaluate(context.Background(), "ALL5", cart, lookupCoupon, lookupProducts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result, got reason %q", result.Reason)
	}
	if math.Abs(result.DiscountAmount-5.5) > 1e-9 {
		t.Errorf("expected discount 5.5, got %v", result.DiscountAmount)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	coupons := map[string]*coupon.Coupon{
		"SAVE10": storewideCoupon("SAVE10", coupon.DiscountTypePercentage, 10),
	}

	e := NewEvaluator(fixedClock)
	lookupCoupon, lookupProducts := lookups(coupons, testProducts())
	cart := []coupon.CartLine{{ProductID: "p3", Quantity: 2}}

	first, err := e.Evaluate(context.Background(), "SAVE10", cart, lookupCoupon, lookupProducts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.Evaluate(context.Background(), "SAVE10", cart, lookupCoupon, lookupProducts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("expected identical results, got %+v then %+v", first, second)
	}
}

func TestEvaluate_ExpirationBoundary(t *testing.T) {
	// Valid exactly at the expiration instant, invalid strictly after.
	atBoundary := storewideCoupon("EDGE", coupon.DiscountTypeFixed, 5)
	atBoundary.ExpirationDate = testNow

	coupons := map[string]*coupon.Coupon{"EDGE": atBoundary}
	e := NewEvaluator(fixedClock)
	lookupCoupon, lookupProducts := lookups(coupons, testProducts())
	cart := []coupon.CartLine{{ProductID: "p1", Quantity: 1}}

	result, err := e.Evaluate(context.Background(), "EDGE", cart, lookupCoupon, lookupProducts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Errorf("coupon expiring exactly now should still be valid, got reason %q", result.Reason)
	}
}
