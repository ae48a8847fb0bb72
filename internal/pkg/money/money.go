// internal/pkg/money/money.go
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor currency units (paise for INR).
type Amount int64

var hundred = decimal.NewFromInt(100)

// Decimal returns the amount as a decimal of minor units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(a))
}

// Format renders the amount in major units, e.g. "INR 1234.50".
func (a Amount) Format(currency string) string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, v/100, v%100)
}

// Times multiplies a unit amount by a quantity.
func (a Amount) Times(qty int) Amount {
	return a * Amount(qty)
}

// ApplyPercent returns pct percent of a, rounded half-up to the nearest
// minor unit.
func ApplyPercent(a Amount, pct decimal.Decimal) Amount {
	return FromDecimal(a.Decimal().Mul(pct).Div(hundred))
}

// FromDecimal rounds a decimal of minor units half-up (away from zero).
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.Round(0).IntPart())
}

// Sum adds amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}

// Max returns the larger of two amounts.
func Max(a, b Amount) Amount {
	if a > b {
		return a
	}
	return b
}
