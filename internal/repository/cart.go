package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bazaar-dev/bazaar/internal/domain/cart"
)

const (
	getCartSQL = `SELECT user_id, items, subtotal, created_at, updated_at
		FROM carts WHERE user_id = $1`

	insertCartSQL = `INSERT INTO carts (user_id, items, subtotal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	saveCartSQL = `UPDATE carts SET items = $2, subtotal = $3, updated_at = $4
		WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. The
// user_id primary key enforces the one-cart-per-user invariant.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByUser returns the user's cart, or cart.ErrNotFound.
func (r *CartRepository) GetByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getCartSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("getting cart for user %q: %w", userID, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart for user %q: %w", userID, err)
	}
	return &c, nil
}

// Create inserts a new cart row for the user.
func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("marshaling cart items: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertCartSQL,
		c.UserID, items, c.Subtotal, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating cart for user %q: %w", c.UserID, err)
	}
	return nil
}

// Save rewrites the cart's items and cached subtotal.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("marshaling cart items: %w", err)
	}

	tag, err := r.pool.Exec(ctx, saveCartSQL, c.UserID, items, c.Subtotal, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving cart for user %q: %w", c.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

func scanCart(row pgx.CollectableRow) (cart.Cart, error) {
	var (
		c     cart.Cart
		items []byte
	)
	err := row.Scan(&c.UserID, &items, &c.Subtotal, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return cart.Cart{}, err
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return cart.Cart{}, fmt.Errorf("unmarshaling cart items: %w", err)
	}
	return c, nil
}
