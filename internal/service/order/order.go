package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/coupon"
	"github.com/KobiNisim21/destiny-commerce/internal/domain/order"
	"github.com/KobiNisim21/destiny-commerce/internal/domain/product"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
	couponsvc "github.com/KobiNisim21/destiny-commerce/internal/service/coupon"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// CouponRejectedError carries the evaluator's reason up to the HTTP layer,
// which localizes it for the shopper.
type CouponRejectedError struct {
	Reason couponsvc.InvalidReason
}

func (e *CouponRejectedError) Error() string {
	return fmt.Sprintf("coupon rejected: %s", e.Reason)
}

// Store is the order repository surface.
type Store interface {
	Create(ctx context.Context, tx pgx.Tx, o *order.Order) error
	FindByID(ctx context.Context, id int64) (*order.Order, error)
	FindByNumber(ctx context.Context, number string) (*order.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]order.Order, error)
	List(ctx context.Context, filters order.ListFilters) ([]order.Order, error)
	UpdateStatus(ctx context.Context, id int64, status order.Status) error
}

// CouponStore is the slice of the coupon repository checkout needs.
type CouponStore interface {
	FindActiveByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	ConsumeUse(ctx context.Context, tx pgx.Tx, id int64) error
}

// ProductStore resolves and reserves catalog items during checkout.
type ProductStore interface {
	FindBySlugs(ctx context.Context, slugs []string) ([]product.Product, error)
	DecrementStock(ctx context.Context, tx pgx.Tx, slug string, qty int) error
}

// TxBeginner opens the checkout transaction.
type TxBeginner interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// Notifier pushes order events to the admin feed.
type Notifier interface {
	BroadcastOrderEvent(ev order.Event)
}

// Mailer sends the confirmation email.
type Mailer interface {
	Send(to, subject, bodyHTML string) error
}

type Service struct {
	orders    Store
	coupons   CouponStore
	products  ProductStore
	db        TxBeginner
	evaluator *couponsvc.Evaluator
	notifier  Notifier
	mailer    Mailer
	logger    *zap.Logger
}

func NewService(
	orders Store,
	coupons CouponStore,
	products ProductStore,
	db TxBeginner,
	evaluator *couponsvc.Evaluator,
	notifier Notifier,
	mailer Mailer,
	logger *zap.Logger,
) *Service {
	return &Service{
		orders:    orders,
		coupons:   coupons,
		products:  products,
		db:        db,
		evaluator: evaluator,
		notifier:  notifier,
		mailer:    mailer,
		logger:    logger,
	}
}

// CreateOrder runs the whole checkout: reprice the cart from storage,
// evaluate the coupon, then atomically reserve stock, consume the coupon use
// and persist the order.
func (s *Service) CreateOrder(ctx context.Context, userID int64, userEmail string, req *order.CreateOrderRequest) (*order.Order, error) {
	lines, subtotal, err := s.priceCart(ctx, req.CartItems)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		Number:          ulid.Make().String(),
		UserID:          userID,
		Lines:           lines,
		Subtotal:        subtotal,
		Total:           subtotal,
		Status:          order.StatusPending,
		ShippingName:    req.ShippingName,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingPhone:   sql.NullString{String: req.ShippingPhone, Valid: req.ShippingPhone != ""},
	}

	// Coupon evaluation happens before the transaction; consumption inside.
	var appliedCoupon *coupon.Coupon
	if req.CouponCode != "" {
		c, result, err := s.evaluateCoupon(ctx, req.CouponCode, req.CartItems)
		if err != nil {
			return nil, err
		}
		appliedCoupon = c
		o.CouponCode = sql.NullString{String: result.Code, Valid: true}
		o.DiscountAmount = result.DiscountAmount
		o.Total = subtotal - result.DiscountAmount
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin checkout: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, line := range lines {
		if err := s.products.DecrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return nil, err
		}
	}

	if appliedCoupon != nil {
		if err := s.coupons.ConsumeUse(ctx, tx, appliedCoupon.ID); err != nil {
			if errors.Is(err, xerrors.ErrCouponSoldOut) {
				// The coupon sold out between validation and checkout.
				return nil, &CouponRejectedError{Reason: couponsvc.ReasonUsageLimitReached}
			}
			return nil, err
		}
	}

	if err := s.orders.Create(ctx, tx, o); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}

	s.logger.Info("order created",
		zap.String("number", o.Number),
		zap.Int64("user_id", userID),
		zap.Float64("total", o.Total),
	)

	s.notifier.BroadcastOrderEvent(order.Event{
		Type:   "order_created",
		Number: o.Number,
		Status: o.Status,
		Total:  o.Total,
	})

	// Confirmation mail is best effort; the order stands either way.
	go s.sendConfirmation(userEmail, o)

	return o, nil
}

func (s *Service) priceCart(ctx context.Context, cart []coupon.CartLine) ([]order.Line, float64, error) {
	if len(cart) == 0 {
		return nil, 0, xerrors.ErrInvalidInput
	}

	slugs := make([]string, 0, len(cart))
	for _, line := range cart {
		slugs = append(slugs, line.ProductID)
	}

	products, err := s.products.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, 0, err
	}

	bySlug := make(map[string]product.Product, len(products))
	for _, p := range products {
		bySlug[p.Slug] = p
	}

	var lines []order.Line
	var subtotal float64
	for _, line := range cart {
		p, ok := bySlug[line.ProductID]
		if !ok || !p.IsActive {
			// Unlike coupon evaluation, checkout refuses unknown lines: the
			// shopper must not pay for a cart the store cannot fulfill.
			return nil, 0, fmt.Errorf("%w: unknown product %q", xerrors.ErrInvalidInput, line.ProductID)
		}
		if line.Quantity < 1 {
			return nil, 0, fmt.Errorf("%w: bad quantity for %q", xerrors.ErrInvalidInput, line.ProductID)
		}
		lines = append(lines, order.Line{
			ProductID: p.Slug,
			NameHe:    p.NameHe,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
		})
		subtotal += p.Price * float64(line.Quantity)
	}

	return lines, subtotal, nil
}

func (s *Service) evaluateCoupon(ctx context.Context, code string, cart []coupon.CartLine) (*coupon.Coupon, couponsvc.EvaluationResult, error) {
	normalized := couponsvc.NormalizeCode(code)

	c, err := s.coupons.FindActiveByCode(ctx, normalized)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, couponsvc.EvaluationResult{}, &CouponRejectedError{Reason: couponsvc.ReasonNotFoundOrInactive}
	}
	if err != nil {
		return nil, couponsvc.EvaluationResult{}, err
	}

	result, err := s.evaluator.Evaluate(
		ctx,
		normalized,
		cart,
		func(context.Context, string) (*coupon.Coupon, error) { return c, nil },
		s.products.FindBySlugs,
	)
	if err != nil {
		return nil, couponsvc.EvaluationResult{}, err
	}
	if !result.Valid {
		return nil, couponsvc.EvaluationResult{}, &CouponRejectedError{Reason: result.Reason}
	}

	return c, result, nil
}

func (s *Service) sendConfirmation(to string, o *order.Order) {
	body := fmt.Sprintf(
		`<h2>תודה על הזמנתך!</h2>
<p>מספר הזמנה: <strong>%s</strong></p>
<p>סה"כ לתשלום: %.2f ₪</p>
<p>Thank you for your order. Order number: %s</p>`,
		o.Number, o.Total, o.Number,
	)

	if err := s.mailer.Send(to, fmt.Sprintf("אישור הזמנה %s", o.Number), body); err != nil {
		s.logger.Warn("failed to send order confirmation",
			zap.String("number", o.Number),
			zap.Error(err),
		)
	}
}

// GetOrderForUser returns an order only to its owner.
func (s *Service) GetOrderForUser(ctx context.Context, userID int64, number string) (*order.Order, error) {
	o, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, xerrors.ErrForbidden
	}
	return o, nil
}

// ListOrdersForUser returns the caller's orders, newest first.
func (s *Service) ListOrdersForUser(ctx context.Context, userID int64) ([]order.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ========== Admin Operations ==========

func (s *Service) ListOrders(ctx context.Context, filters order.ListFilters) ([]order.Order, error) {
	if filters.Limit <= 0 || filters.Limit > 200 {
		filters.Limit = 50
	}
	return s.orders.List(ctx, filters)
}

// UpdateStatus moves an order along the fulfillment lifecycle, enforcing
// legal transitions.
func (s *Service) UpdateStatus(ctx context.Context, id int64, next order.Status) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", xerrors.ErrInvalidInput, o.Status, next)
	}

	if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}

	o.Status = next

	s.logger.Info("order status updated",
		zap.String("number", o.Number),
		zap.String("status", string(next)),
	)

	s.notifier.BroadcastOrderEvent(order.Event{
		Type:   "order_status_changed",
		Number: o.Number,
		Status: next,
		Total:  o.Total,
	})

	return o, nil
}
