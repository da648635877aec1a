package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate reads a feed date into a UTC calendar day. Numbers are Unix
// epoch seconds, or milliseconds above 1e11.
func ParseDate(v interface{}) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return Day(x), true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return ParseDate(*x)
	case string:
		return parseDateString(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return fromEpoch(f)
		}
		return parseDateString(x.String())
	case float64:
		return fromEpoch(x)
	case int64:
		return fromEpoch(float64(x))
	case int:
		return fromEpoch(float64(x))
	}
	return time.Time{}, false
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

func fromEpoch(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return time.Time{}, false
	}
	if f > 1e11 {
		return Day(time.UnixMilli(int64(f)).UTC()), true
	}
	return Day(time.Unix(int64(f), 0).UTC()), true
}
