package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/coupon"
	"github.com/KobiNisim21/destiny-commerce/internal/domain/order"
	"github.com/KobiNisim21/destiny-commerce/internal/domain/product"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
	couponsvc "github.com/KobiNisim21/destiny-commerce/internal/service/coupon"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// fakeTx satisfies pgx.Tx through embedding; only the methods the service
// touches are implemented.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx *fakeTx
}

func (db *fakeDB) BeginTx(ctx context.Context) (pgx.Tx, error) {
	db.tx = &fakeTx{}
	return db.tx, nil
}

type fakeOrderStore struct {
	created []*order.Order
	orders  map[int64]*order.Order
	status  map[int64]order.Status
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: make(map[int64]*order.Order),
		status: make(map[int64]order.Status),
	}
}

func (s *fakeOrderStore) Create(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	o.ID = int64(len(s.created) + 1)
	s.created = append(s.created, o)
	s.orders[o.ID] = o
	return nil
}

func (s *fakeOrderStore) FindByID(ctx context.Context, id int64) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return o, nil
}

func (s *fakeOrderStore) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	for _, o := range s.orders {
		if o.Number == number {
			return o, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (s *fakeOrderStore) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	return nil, nil
}

func (s *fakeOrderStore) List(ctx context.Context, filters order.ListFilters) ([]order.Order, error) {
	return nil, nil
}

func (s *fakeOrderStore) UpdateStatus(ctx context.Context, id int64, status order.Status) error {
	s.status[id] = status
	return nil
}

type fakeCouponStore struct {
	coupons    map[string]*coupon.Coupon
	consumeErr error
	consumed   []int64
}

func (s *fakeCouponStore) FindActiveByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	c, ok := s.coupons[code]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return c, nil
}

func (s *fakeCouponStore) ConsumeUse(ctx context.Context, tx pgx.Tx, id int64) error {
	if s.consumeErr != nil {
		return s.consumeErr
	}
	s.consumed = append(s.consumed, id)
	return nil
}

type fakeProductStore struct {
	products    []product.Product
	outOfStock  map[string]bool
	decremented map[string]int
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

func (s *fakeProductStore) DecrementStock(ctx context.Context, tx pgx.Tx, slug string, qty int) error {
	if s.outOfStock[slug] {
		return xerrors.ErrOutOfStock
	}
	if s.decremented == nil {
		s.decremented = make(map[string]int)
	}
	s.decremented[slug] += qty
	return nil
}

type fakeNotifier struct {
	events []order.Event
}

func (n *fakeNotifier) BroadcastOrderEvent(ev order.Event) {
	n.events = append(n.events, ev)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) Send(to, subject, bodyHTML string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

type checkoutFixture struct {
	svc      *Service
	orders   *fakeOrderStore
	coupons  *fakeCouponStore
	products *fakeProductStore
	db       *fakeDB
	notifier *fakeNotifier
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		orders: newFakeOrderStore(),
		coupons: &fakeCouponStore{coupons: map[string]*coupon.Coupon{
			"SAVE10": {
				ID:             7,
				Code:           "SAVE10",
				DiscountType:   coupon.DiscountTypePercentage,
				DiscountValue:  10,
				ExpirationDate: time.Now().Add(24 * time.Hour),
				ApplicableType: coupon.ApplicableTypeAll,
				IsActive:       true,
			},
		}},
		products: &fakeProductStore{products: []product.Product{
			{Slug: "ceramic-hamsa", NameHe: "חמסה מקרמיקה", Price: 80, Section: "judaica", IsActive: true},
			{Slug: "olive-bowl", NameHe: "קערת עץ זית", Price: 40, Section: "kitchen", IsActive: true},
		}},
		db:       &fakeDB{},
		notifier: &fakeNotifier{},
	}

	f.svc = NewService(
		f.orders,
		f.coupons,
		f.products,
		f.db,
		couponsvc.NewEvaluator(nil),
		f.notifier,
		&fakeMailer{},
		zap.NewNop(),
	)
	return f
}

func checkoutRequest() *order.CreateOrderRequest {
	return &order.CreateOrderRequest{
		CartItems: []coupon.CartLine{
			{ProductID: "ceramic-hamsa", Quantity: 1},
			{ProductID: "olive-bowl", Quantity: 2},
		},
		ShippingName:    "Dana Levi",
		ShippingAddress: "Herzl 10",
		ShippingCity:    "Tel Aviv",
	}
}

func TestCreateOrder_WithoutCoupon(t *testing.T) {
	f := newCheckoutFixture()

	o, err := f.svc.CreateOrder(context.Background(), 1, "dana@example.com", checkoutRequest())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if o.Subtotal != 160 {
		t.Errorf("subtotal = %v, want 160", o.Subtotal)
	}
	if o.Total != 160 {
		t.Errorf("total = %v, want 160", o.Total)
	}
	if o.Status != order.StatusPending {
		t.Errorf("status = %s, want pending", o.Status)
	}
	if o.Number == "" {
		t.Error("expected an order number")
	}

	if !f.db.tx.committed {
		t.Error("expected checkout transaction to commit")
	}
	if got := f.products.decremented["olive-bowl"]; got != 2 {
		t.Errorf("olive-bowl stock decrement = %d, want 2", got)
	}
	if len(f.coupons.consumed) != 0 {
		t.Error("no coupon should be consumed without a code")
	}

	if len(f.notifier.events) != 1 || f.notifier.events[0].Type != "order_created" {
		t.Errorf("events = %+v, want one order_created", f.notifier.events)
	}
}

func TestCreateOrder_WithCoupon(t *testing.T) {
	f := newCheckoutFixture()

	req := checkoutRequest()
	req.CouponCode = "save10"

	o, err := f.svc.CreateOrder(context.Background(), 1, "dana@example.com", req)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if o.DiscountAmount != 16 {
		t.Errorf("discount = %v, want 16 (10%% of 160)", o.DiscountAmount)
	}
	if o.Total != 144 {
		t.Errorf("total = %v, want 144", o.Total)
	}
	if o.CouponCode.String != "SAVE10" {
		t.Errorf("coupon code = %q, want canonical SAVE10", o.CouponCode.String)
	}

	if len(f.coupons.consumed) != 1 || f.coupons.consumed[0] != 7 {
		t.Errorf("consumed = %v, want [7]", f.coupons.consumed)
	}
}

func TestCreateOrder_CouponSoldOutAtCheckout(t *testing.T) {
	f := newCheckoutFixture()
	f.coupons.consumeErr = xerrors.ErrCouponSoldOut

	req := checkoutRequest()
	req.CouponCode = "SAVE10"

	_, err := f.svc.CreateOrder(context.Background(), 1, "dana@example.com", req)

	var rejected *CouponRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want CouponRejectedError", err)
	}
	if rejected.Reason != couponsvc.ReasonUsageLimitReached {
		t.Errorf("reason = %s, want usage_limit_reached", rejected.Reason)
	}

	if f.db.tx.committed {
		t.Error("transaction must not commit when the coupon sells out")
	}
	if len(f.orders.created) != 0 {
		t.Error("no order should be persisted")
	}
}

func TestCreateOrder_RejectedCoupon(t *testing.T) {
	f := newCheckoutFixture()

	req := checkoutRequest()
	req.CouponCode = "NOSUCH"

	_, err := f.svc.CreateOrder(context.Background(), 1, "dana@example.com", req)

	var rejected *CouponRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want CouponRejectedError", err)
	}
	if rejected.Reason != couponsvc.ReasonNotFoundOrInactive {
		t.Errorf("reason = %s, want not_found_or_inactive", rejected.Reason)
	}
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	f := newCheckoutFixture()

	req := checkoutRequest()
	req.CartItems = append(req.CartItems, coupon.CartLine{ProductID: "ghost", Quantity: 1})

	_, err := f.svc.CreateOrder(context.Background(), 1, "dana@example.com", req)
	if !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCreateOrder_OutOfStock(t *testing.T) {
	f := newCheckoutFixture()
	f.products.outOfStock = map[string]bool{"olive-bowl": true}

	_, err := f.svc.CreateOrder(context.Background(), 1, "dana@example.com", checkoutRequest())
	if !errors.Is(err, xerrors.ErrOutOfStock) {
		t.Fatalf("err = %v, want ErrOutOfStock", err)
	}
	if f.db.tx.committed {
		t.Error("transaction must not commit on stock failure")
	}
}

func TestGetOrderForUser_OwnerCheck(t *testing.T) {
	f := newCheckoutFixture()

	o, err := f.svc.CreateOrder(context.Background(), 1, "dana@example.com", checkoutRequest())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := f.svc.GetOrderForUser(context.Background(), 1, o.Number); err != nil {
		t.Errorf("owner fetch failed: %v", err)
	}

	if _, err := f.svc.GetOrderForUser(context.Background(), 2, o.Number); !errors.Is(err, xerrors.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden for another user", err)
	}
}

func TestUpdateStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    order.Status
		to      order.Status
		wantErr bool
	}{
		{"pending to paid", order.StatusPending, order.StatusPaid, false},
		{"paid to shipped", order.StatusPaid, order.StatusShipped, false},
		{"shipped to delivered", order.StatusShipped, order.StatusDelivered, false},
		{"pending to shipped skips paid", order.StatusPending, order.StatusShipped, true},
		{"cancel from paid", order.StatusPaid, order.StatusCancelled, false},
		{"delivered is final", order.StatusDelivered, order.StatusCancelled, true},
		{"cancelled is final", order.StatusCancelled, order.StatusPaid, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture()

			o, err := f.svc.CreateOrder(context.Background(), 1, "dana@example.com", checkoutRequest())
			if err != nil {
				t.Fatalf("CreateOrder: %v", err)
			}
			o.Status = tt.from

			_, err = f.svc.UpdateStatus(context.Background(), o.ID, tt.to)
			if tt.wantErr {
				if !errors.Is(err, xerrors.ErrInvalidInput) {
					t.Errorf("err = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			if f.orders.status[o.ID] != tt.to {
				t.Errorf("stored status = %s, want %s", f.orders.status[o.ID], tt.to)
			}
		})
	}
}
