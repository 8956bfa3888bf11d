package shared

import "github.com/shopspring/decimal"

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Qty formats a quantity without trailing zeros.
func Qty(d decimal.Decimal) string {
	return d.String()
}

// QuantityScale is the number of decimal places stored for quantities (NUMERIC(18,3)).
const QuantityScale = 3

// QuantityScaleMessage is the field message for quantities finer than QuantityScale.
const QuantityScaleMessage = "must have at most 3 decimal places"

// QuantityFits reports whether d is representable at QuantityScale without rounding.
func QuantityFits(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(QuantityScale))
}
