package coupon

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/coupon"
	"github.com/KobiNisim21/destiny-commerce/internal/domain/product"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
)

// InvalidReason classifies why a coupon was rejected. The HTTP layer maps
// each reason to a localized message and status code.
type InvalidReason string

const (
	ReasonEmptyCode          InvalidReason = "empty_code"
	ReasonNotFoundOrInactive InvalidReason = "not_found_or_inactive"
	ReasonExpired            InvalidReason = "expired"
	ReasonUsageLimitReached  InvalidReason = "usage_limit_reached"
	ReasonNoApplicableItems  InvalidReason = "no_applicable_items"
)

// EvaluationResult is the tagged outcome of evaluating a coupon against a
// cart: either Valid with a computed discount, or a rejection reason.
type EvaluationResult struct {
	Valid  bool
	Reason InvalidReason

	// Populated only when Valid. Code is the canonical stored code;
	// type and value are echoed for display.
	Code           string
	DiscountAmount float64
	DiscountType   coupon.DiscountType
	DiscountValue  float64
}

// CouponLookup fetches an active coupon by its normalized code, returning
// xerrors.ErrNotFound when no active coupon matches.
type CouponLookup func(ctx context.Context, code string) (*coupon.Coupon, error)

// ProductLookup batch-fetches products by slug. Missing slugs are simply
// absent from the result.
type ProductLookup func(ctx context.Context, slugs []string) ([]product.Product, error)

// Evaluator decides coupon validity and computes the discount for a proposed
// cart. It is a pure query: usage consumption happens at checkout, never
// here, so a shopper may re-validate any number of times.
type Evaluator struct {
	now func() time.Time
}

func NewEvaluator(now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{now: now}
}

// NormalizeCode maps user input onto the canonical stored form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate runs the full validity check and discount computation.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	code string,
	cartLines []coupon.CartLine,
	lookupCoupon CouponLookup,
	lookupProducts ProductLookup,
) (EvaluationResult, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return invalid(ReasonEmptyCode), nil
	}

	c, err := lookupCoupon(ctx, normalized)
	if errors.Is(err, xerrors.ErrNotFound) {
		return invalid(ReasonNotFoundOrInactive), nil
	}
	if err != nil {
		return EvaluationResult{}, err
	}

	if c.Expired(e.now()) {
		return invalid(ReasonExpired), nil
	}

	if c.Exhausted() {
		return invalid(ReasonUsageLimitReached), nil
	}

	subtotal, err := e.applicableSubtotal(ctx, c, cartLines, lookupProducts)
	if err != nil {
		return EvaluationResult{}, err
	}

	if subtotal == 0 {
		return invalid(ReasonNoApplicableItems), nil
	}

	var discount float64
	switch c.DiscountType {
	case coupon.DiscountTypePercentage:
		discount = subtotal * c.DiscountValue / 100
	case coupon.DiscountTypeFixed:
		discount = c.DiscountValue
		if discount > subtotal {
			// Clamp so the order total can never go negative.
			discount = subtotal
		}
	}

	return EvaluationResult{
		Valid:          true,
		Code:           c.Code,
		DiscountAmount: discount,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
	}, nil
}

// applicableSubtotal resolves the cart lines and sums price*quantity over the
// lines in the coupon's scope. Lines whose product cannot be resolved are
// skipped silently.
func (e *Evaluator) applicableSubtotal(
	ctx context.Context,
	c *coupon.Coupon,
	cartLines []coupon.CartLine,
	lookupProducts ProductLookup,
) (float64, error) {
	if len(cartLines) == 0 {
		return 0, nil
	}

	slugSet := make(map[string]struct{}, len(cartLines))
	slugs := make([]string, 0, len(cartLines))
	for _, line := range cartLines {
		if _, seen := slugSet[line.ProductID]; !seen {
			slugSet[line.ProductID] = struct{}{}
			slugs = append(slugs, line.ProductID)
		}
	}

	products, err := lookupProducts(ctx, slugs)
	if err != nil {
		return 0, err
	}

	bySlug := make(map[string]product.Product, len(products))
	for _, p := range products {
		bySlug[p.Slug] = p
	}

	scope := make(map[string]struct{}, len(c.ApplicableIDs))
	for _, id := range c.ApplicableIDs {
		scope[id] = struct{}{}
	}

	var subtotal float64
	for _, line := range cartLines {
		p, ok := bySlug[line.ProductID]
		if !ok {
			continue
		}
		if !applies(c.ApplicableType, scope, p) {
			continue
		}
		subtotal += p.Price * float64(line.Quantity)
	}

	return subtotal, nil
}

// applies checks whether a product falls inside the coupon's scope. For
// collection scope a product qualifies through either taxonomy field.
func applies(scope coupon.ApplicableType, ids map[string]struct{}, p product.Product) bool {
	switch scope {
	case coupon.ApplicableTypeAll:
		return true
	case coupon.ApplicableTypeProduct:
		_, ok := ids[p.Slug]
		return ok
	case coupon.ApplicableTypeCollection:
		if _, ok := ids[p.Section]; ok {
			return true
		}
		_, ok := ids[p.Category]
		return ok
	}
	return false
}

func invalid(reason InvalidReason) EvaluationResult {
	return EvaluationResult{Valid: false, Reason: reason}
}
