package product

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPerPage is the catalog page size when the request does not set one.
const DefaultPerPage = 10

// ErrReviewNotFound is returned when deleting a review the user never wrote.
var ErrReviewNotFound = errors.New("review not found")

// InvalidRatingError reports a review rating outside the 1..5 range.
type InvalidRatingError struct {
	Rating int
}

func (e *InvalidRatingError) Error() string {
	return fmt.Sprintf("rating %d out of range 1..5", e.Rating)
}

// CreateRequest holds the admin input for a new product.
type CreateRequest struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Images      []Image
	Category    Category
	Stock       int
	CreatedBy   string
}

// UpdateRequest holds a partial admin update. Nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *Category
	Stock       *int
}

// Service implements catalog operations on top of a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a catalog Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create validates the request, derives the slug from the name, and persists
// a new product.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Product, error) {
	if req.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if req.Price.IsNegative() {
		return nil, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if req.Stock < 0 {
		return nil, &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	if !req.Category.Valid() {
		return nil, &ValidationError{Field: "category", Reason: "unknown category"}
	}

	now := s.now()
	p := &Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Slug:        Slugify(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Images:      req.Images,
		Category:    req.Category,
		Stock:       req.Stock,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// Update applies the non-nil fields of req to an existing product. Renaming
// re-derives the slug.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, &ValidationError{Field: "name", Reason: "required"}
		}
		p.Name = *req.Name
		p.Slug = Slugify(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, &ValidationError{Field: "price", Reason: "must not be negative"}
		}
		p.Price = *req.Price
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return nil, &ValidationError{Field: "category", Reason: "unknown category"}
		}
		p.Category = *req.Category
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, &ValidationError{Field: "stock", Reason: "must not be negative"}
		}
		p.Stock = *req.Stock
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return p, nil
}

// Delete removes a product from the catalog. Stored image cleanup is owned
// by the object-storage collaborator.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// GetByID returns a single product.
func (s *Service) GetByID(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySlug returns a single product by its unique slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// List returns a filtered, paginated catalog page.
func (s *Service) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	return s.repo.List(ctx, f)
}

// UpsertReview adds or replaces the caller's review on a product and
// recomputes the derived rating aggregates.
func (s *Service) UpsertReview(ctx context.Context, productID string, review Review) (*Product, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return nil, &InvalidRatingError{Rating: review.Rating}
	}
	if review.Comment == "" {
		return nil, &ValidationError{Field: "comment", Reason: "required"}
	}

	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range p.Reviews {
		if p.Reviews[i].UserID == review.UserID {
			p.Reviews[i] = review
			replaced = true
			break
		}
	}
	if !replaced {
		p.Reviews = append(p.Reviews, review)
	}

	p.Ratings = averageRating(p.Reviews)
	p.NumReviews = len(p.Reviews)

	if err := s.repo.SaveReviews(ctx, p.ID, p.Reviews, p.Ratings, p.NumReviews); err != nil {
		return nil, errors.Wrap(err, "save reviews")
	}
	return p, nil
}

// DeleteReview removes the caller's review and recomputes aggregates.
func (s *Service) DeleteReview(ctx context.Context, productID, userID string) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	kept := p.Reviews[:0]
	found := false
	for _, r := range p.Reviews {
		if r.UserID == userID {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return nil, ErrReviewNotFound
	}

	p.Reviews = kept
	p.Ratings = averageRating(p.Reviews)
	p.NumReviews = len(p.Reviews)

	if err := s.repo.SaveReviews(ctx, p.ID, p.Reviews, p.Ratings, p.NumReviews); err != nil {
		return nil, errors.Wrap(err, "save reviews")
	}
	return p, nil
}

// AdjustStock exposes the shared stock primitive to the order pipeline.
func (s *Service) AdjustStock(ctx context.Context, productID string, quantity int, dir StockDirection) error {
	return s.repo.AdjustStock(ctx, productID, quantity, dir)
}

// averageRating returns the mean review rating rounded to 2 decimal places,
// or zero for an empty review list.
func averageRating(reviews []Review) decimal.Decimal {
	if len(reviews) == 0 {
		return decimal.Zero
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return decimal.NewFromInt(int64(sum)).
		Div(decimal.NewFromInt(int64(len(reviews)))).
		Round(2)
}
