package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// EffectivePrice applies a percentage discount to price without rounding.
func EffectivePrice(price, discount decimal.Decimal) decimal.Decimal {
	return price.Mul(hundred.Sub(discount)).Div(hundred)
}

func LineTotal(price, discount decimal.Decimal, quantity int) decimal.Decimal {
	return EffectivePrice(price, discount).Mul(decimal.NewFromInt(int64(quantity)))
}

// RoundMoney is applied at the presentation boundary and when persisting totals.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MinorUnits converts an amount to cents, rounding half away from zero.
func MinorUnits(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

func ValidDiscount(discount decimal.Decimal) bool {
	return !discount.IsNegative() && discount.LessThanOrEqual(hundred)
}
