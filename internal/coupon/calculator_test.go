package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDiscount(t *testing.T) {
	tests := []struct {
		name      string
		coupon    Coupon
		basePrice string
		want      string
	}{
		{"ten percent of 200", Coupon{Code: "SAVE10", DiscountType: DiscountPercentage, DiscountValue: dec("10")}, "200", "20"},
		{"fixed below price", Coupon{Code: "OFF50", DiscountType: DiscountFixed, DiscountValue: dec("50")}, "200", "50"},
		{"fixed above price clamps", Coupon{Code: "OFF500", DiscountType: DiscountFixed, DiscountValue: dec("500")}, "200", "200"},
		{"percentage above 100 clamps", Coupon{Code: "MEGA", DiscountType: DiscountPercentage, DiscountValue: dec("150")}, "200", "200"},
		{"full percentage", Coupon{Code: "FREE", DiscountType: DiscountPercentage, DiscountValue: dec("100")}, "80", "80"},
		{"zero value", Coupon{Code: "NOOP", DiscountType: DiscountFixed, DiscountValue: dec("0")}, "200", "0"},
		{"unknown type yields nothing", Coupon{Code: "ODD", DiscountType: "lottery", DiscountValue: dec("10")}, "200", "0"},
		{"fractional percentage", Coupon{Code: "HALF", DiscountType: DiscountPercentage, DiscountValue: dec("2.5")}, "90", "2.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Discount(tt.coupon, dec(tt.basePrice))
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestFinalPrice_NeverNegative(t *testing.T) {
	coupons := []Coupon{
		{DiscountType: DiscountFixed, DiscountValue: dec("9999")},
		{DiscountType: DiscountPercentage, DiscountValue: dec("300")},
		{DiscountType: DiscountPercentage, DiscountValue: dec("100")},
	}
	for _, c := range coupons {
		final := FinalPrice(c, dec("49.90"))
		assert.False(t, final.IsNegative(), "final price %s must not be negative", final)
	}

	final := FinalPrice(Coupon{DiscountType: DiscountPercentage, DiscountValue: dec("10")}, dec("200"))
	assert.True(t, final.Equal(dec("180")))
}
