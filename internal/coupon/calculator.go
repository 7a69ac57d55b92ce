package coupon

import (
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a discount rule as returned by the coupon service once it has been
// confirmed valid and applicable; the calculator never re-checks the policy.
type Coupon struct {
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
}

var oneHundred = decimal.NewFromInt(100)

// Discount computes the discount amount for a base price. The result is always
// clamped to the base price, for fixed and percentage coupons alike, so the
// final price can never go negative.
func Discount(c Coupon, basePrice decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		amount = basePrice.Mul(c.DiscountValue).Div(oneHundred)
	case DiscountFixed:
		amount = c.DiscountValue
	default:
		return decimal.Zero
	}

	if amount.GreaterThan(basePrice) {
		return basePrice
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// FinalPrice is basePrice minus the clamped discount, guaranteed >= 0.
func FinalPrice(c Coupon, basePrice decimal.Decimal) decimal.Decimal {
	return basePrice.Sub(Discount(c, basePrice))
}
