// Package currency converts between raw feed values and USD amounts.
//
// Parse is deliberately lossy: anything it cannot read becomes 0. Callers that
// must tell "zero" apart from "unparsable" inspect the raw value themselves.
package currency

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts a raw value (string such as "$1,234.56", any numeric type, or
// nil) into a finite, non-negative amount. It never fails.
func Parse(raw interface{}) float64 {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case decimal.Decimal:
		f = toFloat(v)
	case json.Number:
		f = parseString(v.String())
	case string:
		f = parseString(v)
	case *string:
		if v == nil {
			return 0
		}
		f = parseString(*v)
	case *float64:
		if v == nil {
			return 0
		}
		f = *v
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return math.Abs(f)
}

func parseString(s string) float64 {
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return toFloat(d)
}

// maxMagnitude bounds the decimal order of magnitude that is converted.
// float64 overflows past 1e308 and underflows below 1e-324, and converting a
// huge exponent such as "1e5000000" would expand a big.Int first.
const maxMagnitude = 400

// toFloat converts d, mapping anything outside float64 range to 0.
func toFloat(d decimal.Decimal) float64 {
	if d.IsZero() {
		return 0
	}
	mag := int64(d.Exponent()) + int64(d.NumDigits()) - 1
	if mag > maxMagnitude || mag < -maxMagnitude {
		return 0
	}
	return d.InexactFloat64()
}
