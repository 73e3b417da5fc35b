package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bazaar-dev/bazaar/internal/domain/product"
)

const (
	productColumns = `id, name, slug, description, price, ratings, num_reviews,
		images, category, stock, reviews, created_by, created_at, updated_at`

	insertProductSQL = `INSERT INTO products (id, name, slug, description, price,
		images, category, stock, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	updateProductSQL = `UPDATE products SET name = $2, slug = $3, description = $4,
		price = $5, category = $6, stock = $7, updated_at = $8 WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	saveReviewsSQL = `UPDATE products SET reviews = $2, ratings = $3,
		num_reviews = $4, updated_at = now() WHERE id = $1`

	adjustStockSQL = `UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1`

	countProductsSQL = `SELECT count(*) FROM products`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product. A slug collision surfaces as ErrSlugTaken.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("marshaling product images: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Slug, p.Description, p.Price,
		images, string(p.Category), p.Stock, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return product.ErrSlugTaken
		}
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Update rewrites the mutable columns of a product. Reviews and stock deltas
// go through SaveReviews and AdjustStock respectively.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Slug, p.Description, p.Price,
		string(p.Category), p.Stock, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return product.ErrSlugTaken
		}
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product row.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// GetByID returns a single product by id.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetBySlug returns a single product by its unique slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
}

func (r *ProductRepository) getOne(ctx context.Context, sql, arg string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", arg, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", arg, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given ids. Missing ids are
// simply absent from the result.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// List returns a filtered catalog page and the unfiltered catalog size.
func (r *ProductRepository) List(ctx context.Context, f product.ListFilter) (*product.ListResult, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Keyword != "" {
		where = append(where, "name ILIKE "+arg("%"+f.Keyword+"%"))
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(string(f.Category)))
	}
	if f.PriceMin != nil {
		where = append(where, "price >= "+arg(*f.PriceMin))
	}
	if f.PriceMax != nil {
		where = append(where, "price <= "+arg(*f.PriceMax))
	}
	if f.RatingsMin != nil {
		where = append(where, "ratings >= "+arg(*f.RatingsMin))
	}

	sql := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY created_at DESC LIMIT " + arg(f.PerPage) + " OFFSET " + arg((f.Page-1)*f.PerPage)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &product.ListResult{
		Products: products,
		Total:    total,
		PerPage:  f.PerPage,
	}, nil
}

// Count returns the unfiltered catalog size.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countProductsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return n, nil
}

// SaveReviews rewrites the review document and its derived aggregates.
func (r *ProductRepository) SaveReviews(ctx context.Context, id string, reviews []product.Review, ratings decimal.Decimal, numReviews int) error {
	payload, err := json.Marshal(reviews)
	if err != nil {
		return fmt.Errorf("marshaling reviews: %w", err)
	}

	tag, err := r.pool.Exec(ctx, saveReviewsSQL, id, payload, ratings, numReviews)
	if err != nil {
		return fmt.Errorf("saving reviews for product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// AdjustStock applies a relative stock change in one statement. No floor is
// enforced; availability validation is the caller's job.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, quantity int, dir product.StockDirection) error {
	delta := quantity
	if dir == product.StockConsume {
		delta = -quantity
	}

	tag, err := r.pool.Exec(ctx, adjustStockSQL, id, delta)
	if err != nil {
		return fmt.Errorf("adjusting stock for product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p        product.Product
		images   []byte
		reviews  []byte
		category string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Ratings, &p.NumReviews,
		&images, &category, &p.Stock, &reviews, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return product.Product{}, err
	}
	p.Category = product.Category(category)

	if err := json.Unmarshal(images, &p.Images); err != nil {
		return product.Product{}, fmt.Errorf("unmarshaling product images: %w", err)
	}
	if err := json.Unmarshal(reviews, &p.Reviews); err != nil {
		return product.Product{}, fmt.Errorf("unmarshaling product reviews: %w", err)
	}
	return p, nil
}
