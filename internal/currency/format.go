package currency

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable is rendered for missing amounts.
const NotAvailable = "N/A"

// Format renders v as "$1,234.50", or "N/A" when v is nil or not finite.
func Format(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return FormatAmount(*v)
}

// FormatAmount renders a USD amount with a leading "$", thousands separators
// and exactly two decimals. Negative amounts keep the sign after the symbol.
// NaN and infinities have no amount and render as "N/A".
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	fixed := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")
	if sign != "" && strings.Trim(intPart, "0") == "" && strings.Trim(frac, "0") == "" {
		sign = ""
	}
	return "$" + sign + groupThousands(intPart) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
