package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaar-dev/bazaar/internal/domain/cart"
)

// CreateRequest holds the admin input for a new coupon.
type CreateRequest struct {
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	MinCartValue  decimal.Decimal
	ExpiryDate    time.Time
}

// Quote is the result of previewing a coupon against a cart. Nothing is
// persisted; order creation re-derives the discount independently.
type Quote struct {
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	TotalPrice decimal.Decimal
	CouponCode string
}

// Evaluator validates coupon codes and computes discounts. Both the cart
// preview and order creation go through Validate, so the two paths cannot
// drift apart on case normalization or eligibility rules.
type Evaluator struct {
	coupons Repository
	carts   cart.Repository
	now     func() time.Time
}

// NewEvaluator creates a coupon Evaluator.
func NewEvaluator(coupons Repository, carts cart.Repository) *Evaluator {
	return &Evaluator{coupons: coupons, carts: carts, now: time.Now}
}

// Create validates and persists a new coupon. The code is stored uppercase.
func (e *Evaluator) Create(ctx context.Context, req CreateRequest) (*Coupon, error) {
	switch {
	case req.Code == "":
		return nil, &MissingFieldError{Field: "code"}
	case req.DiscountType == "":
		return nil, &MissingFieldError{Field: "discountType"}
	case !req.DiscountValue.IsPositive():
		return nil, &MissingFieldError{Field: "discountValue"}
	case req.ExpiryDate.IsZero():
		return nil, &MissingFieldError{Field: "expiryDate"}
	}
	if !req.DiscountType.Valid() {
		return nil, errors.Errorf("unsupported discount type: %q", req.DiscountType)
	}
	if req.MinCartValue.IsNegative() {
		return nil, errors.New("minCartValue must not be negative")
	}

	code := strings.ToUpper(req.Code)
	if _, err := e.coupons.GetByCode(ctx, code); err == nil {
		return nil, ErrCodeExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check coupon code")
	}

	c := &Coupon{
		ID:            uuid.New().String(),
		Code:          code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinCartValue:  req.MinCartValue,
		ExpiryDate:    req.ExpiryDate,
		IsActive:      true,
		CreatedAt:     e.now(),
	}
	if err := e.coupons.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create coupon")
	}
	return c, nil
}

// List returns all coupons.
func (e *Evaluator) List(ctx context.Context) ([]Coupon, error) {
	return e.coupons.List(ctx)
}

// Delete removes a coupon by id. Subsequent lookups fail with ErrNotFound.
func (e *Evaluator) Delete(ctx context.Context, id string) error {
	if _, err := e.coupons.GetByID(ctx, id); err != nil {
		return err
	}
	return e.coupons.Delete(ctx, id)
}

// Validate looks up a coupon by code (case-insensitive) and checks it
// against the eligible amount. On success it returns the coupon and the
// clamped discount.
func (e *Evaluator) Validate(ctx context.Context, code string, amount decimal.Decimal) (*Coupon, decimal.Decimal, error) {
	c, err := e.coupons.GetByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return nil, decimal.Zero, err
	}

	if e.now().After(c.ExpiryDate) {
		return nil, decimal.Zero, ErrExpired
	}
	if !c.IsActive {
		return nil, decimal.Zero, ErrInactive
	}
	if amount.LessThan(c.MinCartValue) {
		return nil, decimal.Zero, &MinCartValueError{Min: c.MinCartValue}
	}

	discount, err := ComputeDiscount(c, amount)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return c, discount, nil
}

// Preview applies a coupon to the user's cart without persisting anything.
// The cart must exist and hold at least one item.
func (e *Evaluator) Preview(ctx context.Context, userID, code string) (*Quote, error) {
	c, err := e.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, cart.ErrEmpty
	}

	cp, discount, err := e.Validate(ctx, code, c.Subtotal)
	if err != nil {
		return nil, err
	}

	return &Quote{
		Subtotal:   c.Subtotal,
		Discount:   discount,
		TotalPrice: c.Subtotal.Sub(discount),
		CouponCode: cp.Code,
	}, nil
}
