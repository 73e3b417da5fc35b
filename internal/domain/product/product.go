// Package product holds the catalog domain: products, reviews, and the
// shared stock-adjustment primitive consumed by the order pipeline.
package product

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrSlugTaken is returned when a derived slug collides with another product.
var ErrSlugTaken = errors.New("product slug already exists")

// ValidationError reports a missing or malformed product field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid product field %s: %s", e.Field, e.Reason)
}

// Category enumerates the allowed product categories.
type Category string

// Categories mirrors the catalog taxonomy the storefront filters on.
var Categories = []Category{
	"Electronics", "Cameras", "Laptops", "Accessories", "Headphones",
	"Food", "Books", "Clothes/Shoes", "Beauty/Health", "Sports",
	"Outdoor", "Home",
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// StockDirection selects whether AdjustStock consumes or restores inventory.
type StockDirection int

const (
	// StockConsume subtracts the quantity from stock (order placement).
	StockConsume StockDirection = iota
	// StockRestore adds the quantity back to stock (cancellation, deletion).
	StockRestore
)

// Image holds a stored product image reference.
type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Review is a single customer review embedded in a product.
type Review struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Product is a catalog item. Stock is mutated only through AdjustStock;
// Ratings and NumReviews are derived from Reviews.
type Product struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	Ratings     decimal.Decimal
	NumReviews  int
	Images      []Image
	Category    Category
	Stock       int
	Reviews     []Review
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListFilter narrows and pages a catalog listing.
type ListFilter struct {
	Keyword    string
	Category   Category
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
	RatingsMin *decimal.Decimal
	Page       int
	PerPage    int
}

// ListResult is one page of products plus the unfiltered catalog size.
type ListResult struct {
	Products []Product
	Total    int
	PerPage  int
}

// Repository defines persistence operations for the catalog.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	List(ctx context.Context, f ListFilter) (*ListResult, error)
	Count(ctx context.Context) (int, error)
	SaveReviews(ctx context.Context, id string, reviews []Review, ratings decimal.Decimal, numReviews int) error

	// AdjustStock applies a relative stock change in a single statement.
	// It enforces no lower bound; callers validate availability beforehand.
	AdjustStock(ctx context.Context, id string, quantity int, dir StockDirection) error
}
