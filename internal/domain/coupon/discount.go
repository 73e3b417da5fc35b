package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeDiscount calculates the discount a coupon grants on the given
// eligible amount. The result is clamped to the amount so a discounted total
// can never go negative, and rounded to 2 decimal places.
func ComputeDiscount(c *Coupon, amount decimal.Decimal) (decimal.Decimal, error) {
	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discount = amount.Mul(c.DiscountValue).Div(hundred)
	case DiscountFlat:
		discount = c.DiscountValue
	default:
		return decimal.Zero, errors.Errorf("unsupported discount type: %q", c.DiscountType)
	}

	discount = decimal.Min(discount, amount)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2), nil
}
