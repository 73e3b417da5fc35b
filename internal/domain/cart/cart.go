// Package cart holds the per-user shopping cart aggregate and its pricing
// invariant: the cached subtotal is recomputed from live catalog prices on
// every mutation.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when the user has no cart yet and the operation
// does not create one.
var ErrNotFound = errors.New("cart not found")

// ErrEmpty is returned when an operation needs a non-empty cart.
var ErrEmpty = errors.New("cart is empty")

// InvalidQuantityError reports a line quantity below 1.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity %d for product %s must be at least 1", e.Quantity, e.ProductID)
}

// Item is one product line in a cart. A product appears at most once;
// upserting an existing product replaces its quantity.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is the per-user basket. Subtotal is a cached derivation and is only
// trustworthy immediately after a mutating operation persisted it.
type Cart struct {
	UserID    string
	Items     []Item
	Subtotal  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines persistence for carts. One row per user.
type Repository interface {
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	Save(ctx context.Context, c *Cart) error
}
