package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact amount that renders with two decimals.
type Money struct {
	decimal.Decimal
}

// FromFloat converts a stored amount; nil counts as zero.
func FromFloat(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}

// Sum adds the amounts of items starting from zero. Rounding is left to
// formatting.
func Sum[T any](items []T, amount func(T) *float64) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(FromFloat(amount(it)))
	}
	return total
}

// FormatMoney renders d with exactly two decimals, e.g. "2400.50".
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatBRL renders d the way Brazilian users read it, e.g. "R$ 2.400,50".
func FormatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "R$ " + b.String() + "," + frac
}

func (m Money) String() string {
	return FormatMoney(m.Decimal)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + FormatMoney(m.Decimal) + `"`), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Decimal.UnmarshalJSON(b)
}
