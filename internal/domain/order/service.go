package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazaar-dev/bazaar/internal/auth"
	"github.com/bazaar-dev/bazaar/internal/domain/coupon"
	"github.com/bazaar-dev/bazaar/internal/domain/product"
	"github.com/bazaar-dev/bazaar/internal/events"
)

// CouponValidator re-validates a coupon code against an eligible amount and
// returns the matched coupon plus the clamped discount.
type CouponValidator interface {
	Validate(ctx context.Context, code string, amount decimal.Decimal) (*coupon.Coupon, decimal.Decimal, error)
}

// ItemRequest is one client-submitted order line. Only the product id and
// quantity are honored; pricing is re-read from the catalog.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	UserID        string
	ShippingInfo  ShippingInfo
	Items         []ItemRequest
	PaymentInfo   PaymentInfo
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	CouponCode    string
}

// ListAllResult is the admin order listing plus the revenue grand total.
type ListAllResult struct {
	Orders      []Order
	TotalAmount decimal.Decimal
}

// Service implements the order pipeline on top of the catalog, coupon, and
// order repositories.
type Service struct {
	orders   Repository
	products product.Repository
	coupons  CouponValidator
	events   events.Publisher
	now      func() time.Time
}

// NewService creates an order Service.
func NewService(orders Repository, products product.Repository, coupons CouponValidator, pub events.Publisher) *Service {
	return &Service{
		orders:   orders,
		products: products,
		coupons:  coupons,
		events:   pub,
		now:      time.Now,
	}
}

// Create validates the request, snapshots catalog data into an immutable
// order, decrements stock per item, and publishes an order-created event.
// Item prices come from the catalog, never from the client. A stock failure
// mid-loop unwinds the decrements already applied and removes the order.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.TaxPrice.IsNegative() || req.ShippingPrice.IsNegative() {
		return nil, ErrNegativeAmount
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity < 1 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	// Snapshot authoritative catalog data into the order lines.
	items := make([]Item, len(req.Items))
	itemsPrice := decimal.Zero
	for i, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}

		image := ""
		if len(p.Images) > 0 {
			image = p.Images[0].URL
		}
		items[i] = Item{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			Price:     p.Price,
			Image:     image,
		}
		itemsPrice = itemsPrice.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	itemsPrice = itemsPrice.Round(2)

	couponID := ""
	discount := decimal.Zero
	if req.CouponCode != "" {
		c, d, err := s.coupons.Validate(ctx, req.CouponCode, itemsPrice)
		if err != nil {
			return nil, err
		}
		couponID = c.ID
		discount = d
	}

	now := s.now()
	o := &Order{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		ShippingInfo:  req.ShippingInfo,
		Items:         items,
		PaymentInfo:   req.PaymentInfo,
		ItemsPrice:    itemsPrice,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    itemsPrice.Sub(discount).Add(req.TaxPrice).Add(req.ShippingPrice).Round(2),
		CouponID:      couponID,
		Status:        StatusProcessing,
		PaidAt:        now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.consumeStock(ctx, o); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeOrderCreated, o)
	return o, nil
}

// consumeStock decrements stock for every order line. When a decrement
// fails, the lines already consumed are restored and the persisted order is
// removed so the caller sees a clean failure.
func (s *Service) consumeStock(ctx context.Context, o *Order) error {
	for i, item := range o.Items {
		err := s.products.AdjustStock(ctx, item.ProductID, item.Quantity, product.StockConsume)
		if err == nil {
			continue
		}

		lg := zctx.From(ctx)
		for _, done := range o.Items[:i] {
			if rerr := s.products.AdjustStock(ctx, done.ProductID, done.Quantity, product.StockRestore); rerr != nil {
				lg.Warn("stock compensation failed",
					zap.String("order_id", o.ID),
					zap.String("product_id", done.ProductID),
					zap.Error(rerr))
			}
		}
		if derr := s.orders.Delete(ctx, o.ID); derr != nil {
			lg.Warn("order cleanup failed", zap.String("order_id", o.ID), zap.Error(derr))
		}

		if errors.Is(err, product.ErrNotFound) {
			return &ProductNotFoundError{ProductID: item.ProductID}
		}
		return errors.Wrapf(err, "consume stock for product %s", item.ProductID)
	}
	return nil
}

// GetByID returns one order. Non-admin callers may only read their own.
func (s *Service) GetByID(ctx context.Context, userID string, role auth.Role, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != auth.RoleAdmin && o.UserID != userID {
		return nil, ErrNotOwner
	}
	return o, nil
}

// ListMine returns the caller's orders.
func (s *Service) ListMine(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListAll returns every order plus the revenue grand total (admin).
func (s *Service) ListAll(ctx context.Context) (*ListAllResult, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalPrice)
	}
	return &ListAllResult{Orders: orders, TotalAmount: total}, nil
}

// Cancel moves the caller's order from Processing to Cancelled and restores
// stock for every line. Any other starting state is an illegal transition.
func (s *Service) Cancel(ctx context.Context, userID, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrNotOwner
	}
	if o.Status != StatusProcessing {
		return nil, &InvalidTransitionError{From: o.Status, To: StatusCancelled}
	}

	if err := s.restoreStock(ctx, o); err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, id, StatusCancelled, nil); err != nil {
		return nil, errors.Wrap(err, "update order status")
	}
	o.Status = StatusCancelled
	o.UpdatedAt = s.now()

	s.publish(ctx, events.TypeOrderCancelled, o)
	return o, nil
}

// UpdateStatus drives an admin forward transition (Shipped, Delivered).
// Delivered stamps DeliveredAt. Cancellation is not reachable here.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, &UnknownStatusError{Status: string(next)}
	}
	if next == StatusCancelled {
		return nil, ErrCancelViaUpdate
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, &InvalidTransitionError{From: o.Status, To: next}
	}

	var deliveredAt *time.Time
	if next == StatusDelivered {
		t := s.now()
		deliveredAt = &t
	}

	if err := s.orders.UpdateStatus(ctx, id, next, deliveredAt); err != nil {
		return nil, errors.Wrap(err, "update order status")
	}
	o.Status = next
	o.DeliveredAt = deliveredAt
	o.UpdatedAt = s.now()
	return o, nil
}

// Delete removes an order and restores stock for all its items regardless
// of status, mirroring cancellation's stock effect (admin escape hatch).
func (s *Service) Delete(ctx context.Context, id string) error {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.restoreStock(ctx, o); err != nil {
		return err
	}
	return s.orders.Delete(ctx, id)
}

// restoreStock adds each line's quantity back to its product.
func (s *Service) restoreStock(ctx context.Context, o *Order) error {
	for _, item := range o.Items {
		err := s.products.AdjustStock(ctx, item.ProductID, item.Quantity, product.StockRestore)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return &ProductNotFoundError{ProductID: item.ProductID}
			}
			return errors.Wrapf(err, "restore stock for product %s", item.ProductID)
		}
	}
	return nil
}

// publish emits an order event; failures are logged, never surfaced.
func (s *Service) publish(ctx context.Context, typ string, o *Order) {
	ev := events.OrderEvent{
		Type:       typ,
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		OccurredAt: s.now(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		zctx.From(ctx).Warn("publish order event",
			zap.String("type", typ),
			zap.String("order_id", o.ID),
			zap.Error(err))
	}
}
