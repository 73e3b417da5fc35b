package coupon

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaar-dev/bazaar/internal/domain/cart"
)

// --- Mock implementations ---

type mockCouponRepo struct {
	byCode  map[string]*Coupon
	created *Coupon
	deleted string
}

var _ Repository = (*mockCouponRepo)(nil)

func newMockCouponRepo(coupons ...*Coupon) *mockCouponRepo {
	byCode := make(map[string]*Coupon, len(coupons))
	for _, c := range coupons {
		byCode[c.Code] = c
	}
	return &mockCouponRepo{byCode: byCode}
}

func (m *mockCouponRepo) Create(_ context.Context, c *Coupon) error {
	m.created = c
	m.byCode[c.Code] = c
	return nil
}

func (m *mockCouponRepo) GetByCode(_ context.Context, code string) (*Coupon, error) {
	c, ok := m.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockCouponRepo) GetByID(_ context.Context, id string) (*Coupon, error) {
	for _, c := range m.byCode {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockCouponRepo) List(_ context.Context) ([]Coupon, error) {
	out := make([]Coupon, 0, len(m.byCode))
	for _, c := range m.byCode {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCouponRepo) Delete(_ context.Context, id string) error {
	m.deleted = id
	return nil
}

type mockCartRepo struct {
	cart *cart.Cart
}

func (m *mockCartRepo) GetByUser(_ context.Context, _ string) (*cart.Cart, error) {
	if m.cart == nil {
		return nil, cart.ErrNotFound
	}
	return m.cart, nil
}

func (m *mockCartRepo) Create(context.Context, *cart.Cart) error { return nil }
func (m *mockCartRepo) Save(context.Context, *cart.Cart) error   { return nil }

// --- Helpers ---

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEvaluator(coupons *mockCouponRepo, carts *mockCartRepo) *Evaluator {
	e := NewEvaluator(coupons, carts)
	e.now = func() time.Time { return testNow }
	return e
}

func activeCoupon(code string) *Coupon {
	return &Coupon{
		ID:            "c-" + strings.ToLower(code),
		Code:          code,
		DiscountType:  DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		ExpiryDate:    testNow.AddDate(0, 1, 0),
		IsActive:      true,
	}
}

// --- Tests ---

func TestCreate_StoresCodeUppercase(t *testing.T) {
	repo := newMockCouponRepo()
	e := newTestEvaluator(repo, &mockCartRepo{})

	c, err := e.Create(context.Background(), CreateRequest{
		Code:          "summer25",
		DiscountType:  DiscountPercentage,
		DiscountValue: decimal.NewFromInt(25),
		ExpiryDate:    testNow.AddDate(0, 1, 0),
	})

	require.NoError(t, err)
	assert.Equal(t, "SUMMER25", c.Code)
	assert.True(t, c.IsActive)
	assert.NotEmpty(t, c.ID)
}

func TestCreate_MissingFields(t *testing.T) {
	expiry := testNow.AddDate(0, 1, 0)
	tests := []struct {
		name  string
		req   CreateRequest
		field string
	}{
		{"no code", CreateRequest{DiscountType: DiscountFlat, DiscountValue: decimal.NewFromInt(5), ExpiryDate: expiry}, "code"},
		{"no type", CreateRequest{Code: "X1", DiscountValue: decimal.NewFromInt(5), ExpiryDate: expiry}, "discountType"},
		{"no value", CreateRequest{Code: "X1", DiscountType: DiscountFlat, ExpiryDate: expiry}, "discountValue"},
		{"no expiry", CreateRequest{Code: "X1", DiscountType: DiscountFlat, DiscountValue: decimal.NewFromInt(5)}, "expiryDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestEvaluator(newMockCouponRepo(), &mockCartRepo{}).Create(context.Background(), tt.req)

			var mErr *MissingFieldError
			require.ErrorAs(t, err, &mErr)
			assert.Equal(t, tt.field, mErr.Field)
		})
	}
}

func TestCreate_DuplicateCode(t *testing.T) {
	repo := newMockCouponRepo(activeCoupon("TAKEN"))
	e := newTestEvaluator(repo, &mockCartRepo{})

	_, err := e.Create(context.Background(), CreateRequest{
		Code:          "taken",
		DiscountType:  DiscountFlat,
		DiscountValue: decimal.NewFromInt(5),
		ExpiryDate:    testNow.AddDate(0, 1, 0),
	})
	require.ErrorIs(t, err, ErrCodeExists)
}

func TestValidate_CaseInsensitiveLookup(t *testing.T) {
	e := newTestEvaluator(newMockCouponRepo(activeCoupon("SAVE10")), &mockCartRepo{})

	for _, code := range []string{"SAVE10", "save10", "Save10"} {
		c, discount, err := e.Validate(context.Background(), code, decimal.NewFromInt(200))
		require.NoError(t, err, "code %q", code)
		assert.Equal(t, "SAVE10", c.Code)
		assert.True(t, decimal.NewFromInt(20).Equal(discount))
	}
}

func TestValidate_Expired(t *testing.T) {
	c := activeCoupon("OLD")
	c.ExpiryDate = testNow.AddDate(0, 0, -1)
	e := newTestEvaluator(newMockCouponRepo(c), &mockCartRepo{})

	_, _, err := e.Validate(context.Background(), "OLD", decimal.NewFromInt(100))
	require.ErrorIs(t, err, ErrExpired)
}

func TestValidate_ExpiredBeatsInactive(t *testing.T) {
	// A coupon both expired and switched off reports expiry.
	c := activeCoupon("DEAD")
	c.ExpiryDate = testNow.AddDate(0, 0, -1)
	c.IsActive = false
	e := newTestEvaluator(newMockCouponRepo(c), &mockCartRepo{})

	_, _, err := e.Validate(context.Background(), "DEAD", decimal.NewFromInt(100))
	require.ErrorIs(t, err, ErrExpired)
}

func TestValidate_Inactive(t *testing.T) {
	c := activeCoupon("OFF")
	c.IsActive = false
	e := newTestEvaluator(newMockCouponRepo(c), &mockCartRepo{})

	_, _, err := e.Validate(context.Background(), "OFF", decimal.NewFromInt(100))
	require.ErrorIs(t, err, ErrInactive)
}

func TestValidate_MinCartValue(t *testing.T) {
	c := activeCoupon("BIG")
	c.MinCartValue = decimal.NewFromInt(100)
	e := newTestEvaluator(newMockCouponRepo(c), &mockCartRepo{})

	_, _, err := e.Validate(context.Background(), "BIG", decimal.NewFromInt(99))
	var mErr *MinCartValueError
	require.ErrorAs(t, err, &mErr)
	assert.True(t, decimal.NewFromInt(100).Equal(mErr.Min))

	// Exactly at the minimum passes.
	_, _, err = e.Validate(context.Background(), "BIG", decimal.NewFromInt(100))
	require.NoError(t, err)
}

func TestValidate_UnknownCode(t *testing.T) {
	e := newTestEvaluator(newMockCouponRepo(), &mockCartRepo{})

	_, _, err := e.Validate(context.Background(), "GHOST", decimal.NewFromInt(100))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPreview_QuoteFromCartSubtotal(t *testing.T) {
	carts := &mockCartRepo{cart: &cart.Cart{
		UserID:   "u1",
		Items:    []cart.Item{{ProductID: "p1", Quantity: 2}},
		Subtotal: decimal.NewFromInt(250),
	}}
	e := newTestEvaluator(newMockCouponRepo(activeCoupon("SAVE10")), carts)

	q, err := e.Preview(context.Background(), "u1", "save10")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(250).Equal(q.Subtotal))
	assert.True(t, decimal.NewFromInt(25).Equal(q.Discount))
	assert.True(t, decimal.NewFromInt(225).Equal(q.TotalPrice))
	assert.Equal(t, "SAVE10", q.CouponCode)
}

func TestPreview_EmptyCart(t *testing.T) {
	carts := &mockCartRepo{cart: &cart.Cart{UserID: "u1", Items: []cart.Item{}}}
	e := newTestEvaluator(newMockCouponRepo(activeCoupon("SAVE10")), carts)

	_, err := e.Preview(context.Background(), "u1", "SAVE10")
	require.ErrorIs(t, err, cart.ErrEmpty)
}

func TestPreview_NoCart(t *testing.T) {
	e := newTestEvaluator(newMockCouponRepo(activeCoupon("SAVE10")), &mockCartRepo{})

	_, err := e.Preview(context.Background(), "u1", "SAVE10")
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := newMockCouponRepo(activeCoupon("GONE"))
	e := newTestEvaluator(repo, &mockCartRepo{})

	require.NoError(t, e.Delete(context.Background(), "c-gone"))
	assert.Equal(t, "c-gone", repo.deleted)

	require.ErrorIs(t, e.Delete(context.Background(), "missing"), ErrNotFound)
}
