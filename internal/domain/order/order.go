// Package order holds the order pipeline: immutable order snapshots, the
// status lifecycle, and the stock-adjusting creation flow.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state.
type Status string

const (
	// StatusProcessing is the initial state of every order.
	StatusProcessing Status = "Processing"
	// StatusShipped means the order left the warehouse.
	StatusShipped Status = "Shipped"
	// StatusDelivered is terminal; reaching it stamps DeliveredAt.
	StatusDelivered Status = "Delivered"
	// StatusCancelled is terminal; reaching it restores stock.
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusProcessing:
		return next == StatusShipped || next == StatusDelivered || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered || next == StatusCancelled
	default:
		return false
	}
}

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyItems is returned when creating an order with no items.
	ErrEmptyItems = errors.New("order items required")
	// ErrNotOwner is returned when a user touches an order they do not own.
	ErrNotOwner = errors.New("order belongs to another user")
	// ErrNegativeAmount is returned for negative tax or shipping prices.
	ErrNegativeAmount = errors.New("tax and shipping prices must not be negative")
	// ErrCancelViaUpdate is returned when an admin status update targets
	// Cancelled; cancellation is its own operation with stock effects.
	ErrCancelViaUpdate = errors.New("cancellation is a separate operation")
)

// InvalidQuantityError reports an order line with a quantity below 1.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1 for product %s", e.ProductID)
}

// ProductNotFoundError indicates a referenced product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidTransitionError reports an illegal status change.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// UnknownStatusError reports a status value outside the lifecycle.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown order status %q", e.Status)
}

// ShippingInfo is the delivery address captured with the order.
type ShippingInfo struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	PinCode string `json:"pin_code"`
	PhoneNo string `json:"phone_no"`
}

// PaymentInfo records the external payment reference. Payment status is
// accepted as given; gateway integration is out of scope.
type PaymentInfo struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Item is one order line, frozen at creation time. Name, price, and image
// are snapshots; later catalog changes never alter them.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
}

// Order is an immutable purchase snapshot. Only the status fields change
// after creation.
type Order struct {
	ID            string
	UserID        string
	ShippingInfo  ShippingInfo
	Items         []Item
	PaymentInfo   PaymentInfo
	ItemsPrice    decimal.Decimal
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	TotalPrice    decimal.Decimal
	CouponID      string
	Status        Status
	PaidAt        time.Time
	DeliveredAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status, deliveredAt *time.Time) error
	Delete(ctx context.Context, id string) error
}
