package product

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockRepo struct {
	byID map[string]*Product

	created    *Product
	updated    *Product
	deletedID  string
	savedID    string
	savedRevs  []Review
	savedAvg   decimal.Decimal
	savedCount int
}

var _ Repository = (*mockRepo)(nil)

func newMockRepo(products ...*Product) *mockRepo {
	byID := make(map[string]*Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockRepo{byID: byID}
}

func (m *mockRepo) Create(_ context.Context, p *Product) error {
	m.created = p
	m.byID[p.ID] = p
	return nil
}

func (m *mockRepo) Update(_ context.Context, p *Product) error {
	m.updated = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	m.deletedID = id
	delete(m.byID, id)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetBySlug(_ context.Context, slug string) (*Product, error) {
	for _, p := range m.byID {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByIDs(_ context.Context, ids []string) ([]Product, error) {
	var out []Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter) (*ListResult, error) {
	var out []Product
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return &ListResult{Products: out, Total: len(out), PerPage: f.PerPage}, nil
}

func (m *mockRepo) Count(_ context.Context) (int, error) {
	return len(m.byID), nil
}

func (m *mockRepo) SaveReviews(_ context.Context, id string, reviews []Review, ratings decimal.Decimal, numReviews int) error {
	m.savedID = id
	m.savedRevs = reviews
	m.savedAvg = ratings
	m.savedCount = numReviews
	return nil
}

func (m *mockRepo) AdjustStock(_ context.Context, id string, quantity int, dir StockDirection) error {
	p, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	if dir == StockConsume {
		p.Stock -= quantity
	} else {
		p.Stock += quantity
	}
	return nil
}

func newTestService(repo *mockRepo) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

// --- Tests ---

func TestCreate_DerivesSlug(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	p, err := svc.Create(context.Background(), CreateRequest{
		Name:     "Noise Cancelling Headphones",
		Price:    decimal.RequireFromString("199.99"),
		Category: "Headphones",
		Stock:    5,
	})

	require.NoError(t, err)
	assert.Equal(t, "noise-cancelling-headphones", p.Slug)
	assert.NotEmpty(t, p.ID)
	assert.Same(t, p, repo.created)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   CreateRequest
		field string
	}{
		{"missing name", CreateRequest{Price: decimal.NewFromInt(1), Category: "Home"}, "name"},
		{"negative price", CreateRequest{Name: "x", Price: decimal.NewFromInt(-1), Category: "Home"}, "price"},
		{"negative stock", CreateRequest{Name: "x", Price: decimal.NewFromInt(1), Category: "Home", Stock: -1}, "stock"},
		{"bad category", CreateRequest{Name: "x", Price: decimal.NewFromInt(1), Category: "Nope"}, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(newMockRepo()).Create(context.Background(), tt.req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestUpdate_RenameRederivesSlug(t *testing.T) {
	repo := newMockRepo(&Product{ID: "p1", Name: "Old Lamp", Slug: "old-lamp", Price: decimal.NewFromInt(10), Category: "Home"})
	svc := newTestService(repo)

	name := "New Lamp"
	p, err := svc.Update(context.Background(), "p1", UpdateRequest{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "new-lamp", p.Slug)
	assert.Equal(t, "New Lamp", repo.updated.Name)
}

func TestUpdate_PartialLeavesRest(t *testing.T) {
	repo := newMockRepo(&Product{ID: "p1", Name: "Lamp", Slug: "lamp", Price: decimal.NewFromInt(10), Category: "Home", Stock: 3})
	svc := newTestService(repo)

	price := decimal.RequireFromString("12.50")
	p, err := svc.Update(context.Background(), "p1", UpdateRequest{Price: &price})

	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Name)
	assert.Equal(t, "lamp", p.Slug)
	assert.Equal(t, 3, p.Stock)
	assert.True(t, price.Equal(p.Price))
}

func TestUpdate_NotFound(t *testing.T) {
	_, err := newTestService(newMockRepo()).Update(context.Background(), "missing", UpdateRequest{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList_Defaults(t *testing.T) {
	repo := newMockRepo(&Product{ID: "p1"})
	svc := newTestService(repo)

	res, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPerPage, res.PerPage)
}

func TestUpsertReview_AddAndReplace(t *testing.T) {
	repo := newMockRepo(&Product{ID: "p1", Name: "Lamp"})
	svc := newTestService(repo)

	_, err := svc.UpsertReview(context.Background(), "p1", Review{UserID: "u1", Rating: 4, Comment: "fine"})
	require.NoError(t, err)
	repo.byID["p1"].Reviews = repo.savedRevs
	repo.byID["p1"].Ratings = repo.savedAvg
	repo.byID["p1"].NumReviews = repo.savedCount

	p, err := svc.UpsertReview(context.Background(), "p1", Review{UserID: "u2", Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, 2, p.NumReviews)
	assert.True(t, decimal.RequireFromString("4.5").Equal(p.Ratings), "got %s", p.Ratings)
	repo.byID["p1"].Reviews = repo.savedRevs

	// Same user again replaces, does not append.
	p, err = svc.UpsertReview(context.Background(), "p1", Review{UserID: "u1", Rating: 2, Comment: "changed my mind"})
	require.NoError(t, err)
	assert.Equal(t, 2, p.NumReviews)
	assert.True(t, decimal.RequireFromString("3.5").Equal(p.Ratings), "got %s", p.Ratings)
}

func TestUpsertReview_InvalidRating(t *testing.T) {
	svc := newTestService(newMockRepo(&Product{ID: "p1"}))

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.UpsertReview(context.Background(), "p1", Review{UserID: "u1", Rating: rating, Comment: "x"})

		var rErr *InvalidRatingError
		require.ErrorAs(t, err, &rErr)
		assert.Equal(t, rating, rErr.Rating)
	}
}

func TestDeleteReview(t *testing.T) {
	repo := newMockRepo(&Product{
		ID: "p1",
		Reviews: []Review{
			{UserID: "u1", Rating: 2, Comment: "meh"},
			{UserID: "u2", Rating: 5, Comment: "great"},
		},
		NumReviews: 2,
	})
	svc := newTestService(repo)

	p, err := svc.DeleteReview(context.Background(), "p1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.NumReviews)
	assert.True(t, decimal.NewFromInt(5).Equal(p.Ratings))

	_, err = svc.DeleteReview(context.Background(), "p1", "stranger")
	require.ErrorIs(t, err, ErrReviewNotFound)
}

func TestDeleteReview_LastReviewZeroesAggregates(t *testing.T) {
	repo := newMockRepo(&Product{
		ID:         "p1",
		Reviews:    []Review{{UserID: "u1", Rating: 3, Comment: "ok"}},
		NumReviews: 1,
		Ratings:    decimal.NewFromInt(3),
	})
	svc := newTestService(repo)

	p, err := svc.DeleteReview(context.Background(), "p1", "u1")
	require.NoError(t, err)
	assert.Zero(t, p.NumReviews)
	assert.True(t, decimal.Zero.Equal(p.Ratings))
}
