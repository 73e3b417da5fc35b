package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/bazaar-dev/bazaar/internal/domain/product"
)

// Service implements cart operations on top of the cart and catalog
// repositories.
type Service struct {
	carts    Repository
	products product.Repository
	now      func() time.Time
}

// NewService creates a cart Service.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{carts: carts, products: products, now: time.Now}
}

// GetOrCreate returns the user's cart, lazily creating an empty one on first
// access. It has no business error path.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "get cart")
	}

	now := s.now()
	c = &Cart{
		UserID:    userID,
		Items:     []Item{},
		Subtotal:  decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.carts.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	return c, nil
}

// UpsertItem sets the quantity for a product line, appending the line if the
// product is not in the cart yet. Quantity is replaced, not incremented.
func (s *Service) UpsertItem(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, &InvalidQuantityError{ProductID: productID, Quantity: quantity}
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			updated = true
			break
		}
	}
	if !updated {
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
	}

	return s.repriceAndSave(ctx, c)
}

// RemoveItem drops a product line from the cart. The product must still
// exist in the catalog; the check is deliberately strict even though removal
// itself does not need the product.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept

	return s.repriceAndSave(ctx, c)
}

// Clear empties the cart and zeroes its subtotal.
func (s *Service) Clear(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.Items = []Item{}
	c.Subtotal = decimal.Zero
	c.UpdatedAt = s.now()

	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// repriceAndSave recomputes the subtotal from current catalog prices and
// persists the cart. Lines whose product vanished price at zero.
func (s *Service) repriceAndSave(ctx context.Context, c *Cart) (*Cart, error) {
	subtotal, err := s.Subtotal(ctx, c.Items)
	if err != nil {
		return nil, err
	}

	c.Subtotal = subtotal
	c.UpdatedAt = s.now()

	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// Subtotal prices the given lines against the current catalog in one batch
// read and returns the sum of price x quantity, rounded to 2 decimal places.
func (s *Service) Subtotal(ctx context.Context, items []Item) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, nil
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "price cart items")
	}

	priceByID := make(map[string]decimal.Decimal, len(fetched))
	for _, p := range fetched {
		priceByID[p.ID] = p.Price
	}

	subtotal := decimal.Zero
	for _, item := range items {
		price := priceByID[item.ProductID] // zero for vanished products
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal.Round(2), nil
}
