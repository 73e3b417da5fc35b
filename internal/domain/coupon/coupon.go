// Package coupon holds discount rules and their evaluation against carts
// and order totals.
package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the eligible amount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFlat takes a fixed amount off, capped at the eligible amount.
	DiscountFlat DiscountType = "flat"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFlat
}

var (
	// ErrNotFound is returned when no coupon exists for a code or id.
	ErrNotFound = errors.New("coupon not found")
	// ErrCodeExists is returned when creating a coupon whose code is taken.
	ErrCodeExists = errors.New("coupon code already exists")
	// ErrInactive is returned when a coupon has been switched off.
	ErrInactive = errors.New("coupon is not active")
	// ErrExpired is returned when a coupon's expiry date has passed.
	ErrExpired = errors.New("coupon has expired")
)

// MinCartValueError is returned when the eligible amount is below the
// coupon's minimum cart value.
type MinCartValueError struct {
	Min decimal.Decimal
}

func (e *MinCartValueError) Error() string {
	return fmt.Sprintf("cart total must be at least %s to use this coupon", e.Min)
}

// MissingFieldError reports a required coupon field absent from a create
// request.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("coupon field %s is required", e.Field)
}

// Coupon is a named discount rule. Immutable once created except for admin
// deletion.
type Coupon struct {
	ID            string
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	MinCartValue  decimal.Decimal
	ExpiryDate    time.Time
	IsActive      bool
	CreatedAt     time.Time
}

// Repository defines persistence for coupons. Codes are stored uppercase
// and looked up case-insensitively.
type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	GetByID(ctx context.Context, id string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Delete(ctx context.Context, id string) error
}
