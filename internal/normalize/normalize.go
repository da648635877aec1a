// Package normalize resolves the column-name variants used by different
// insider feeds into one canonical record shape.
package normalize

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bighogz/insider-ledger/internal/models"
)

// Accepted field names, in probe order. The first name present in the
// record set wins.
var (
	DateFields   = []string{"StartDate", "Start Date", "Date"}
	KindFields   = []string{"Text", "Type"}
	InsiderField = "Insider"
	ValueField   = "Value"
)

var ErrSchema = errors.New("normalize: unrecognized record schema")

// SchemaError reports which canonical fields could not be resolved.
type SchemaError struct {
	Missing []string
	Columns []string
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		switch m {
		case "date":
			parts = append(parts, "date (expected one of "+strings.Join(DateFields, ", ")+")")
		case "kind":
			parts = append(parts, "kind (expected one of "+strings.Join(KindFields, ", ")+")")
		default:
			parts = append(parts, m)
		}
	}
	return fmt.Sprintf("missing %s; columns present: [%s]", strings.Join(parts, " and "), strings.Join(e.Columns, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// Record is the canonical shape the rest of the pipeline reads. Auxiliary
// feed fields are dropped.
type Record struct {
	Date    interface{}
	Kind    string
	Insider string
	Value   interface{}
}

// Schema is the field mapping resolved for one record set.
type Schema struct {
	DateField string
	KindField string
}

// Resolve probes the union of keys across records for the date and kind
// fields.
func Resolve(records []models.RawRecord) (Schema, error) {
	cols := columns(records)
	var s Schema
	s.DateField = firstPresent(cols, DateFields)
	s.KindField = firstPresent(cols, KindFields)
	var missing []string
	if s.DateField == "" {
		missing = append(missing, "date")
	}
	if s.KindField == "" {
		missing = append(missing, "kind")
	}
	if len(missing) > 0 {
		names := make([]string, 0, len(cols))
		for c := range cols {
			names = append(names, c)
		}
		sort.Strings(names)
		return Schema{}, &SchemaError{Missing: missing, Columns: names}
	}
	return s, nil
}

// Normalize maps records onto the canonical shape. An empty set normalizes
// to an empty set without error.
func Normalize(records []models.RawRecord) ([]Record, error) {
	if len(records) == 0 {
		return []Record{}, nil
	}
	s, err := Resolve(records)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, Record{
			Date:    r[s.DateField],
			Kind:    str(r[s.KindField]),
			Insider: str(r[InsiderField]),
			Value:   r[ValueField],
		})
	}
	return out, nil
}

func columns(records []models.RawRecord) map[string]bool {
	cols := make(map[string]bool)
	for _, r := range records {
		for k := range r {
			cols[k] = true
		}
	}
	return cols
}

func firstPresent(cols map[string]bool, names []string) string {
	for _, n := range names {
		if cols[n] {
			return n
		}
	}
	return ""
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
