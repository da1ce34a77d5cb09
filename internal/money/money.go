package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round returns amount rounded half away from zero to whole cents.
func Round(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// FormatEUR formats an amount the way the kitchen reads it: "1.234,50 €".
// Uses dot as thousands separator and comma for decimals (es-ES).
func FormatEUR(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.Grow(len(whole) + len(whole)/3 + 6)
	if neg {
		b.WriteByte('-')
	}

	rem := len(whole) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(whole[:rem])
	for i := rem; i < len(whole); i += 3 {
		b.WriteByte('.')
		b.WriteString(whole[i : i+3])
	}
	b.WriteByte(',')
	b.WriteString(cents)
	b.WriteString(" €")

	return b.String()
}
