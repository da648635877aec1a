package normalize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bighogz/insider-ledger/internal/models"
)

func TestResolvePriority(t *testing.T) {
	tests := []struct {
		name     string
		records  []models.RawRecord
		wantDate string
		wantKind string
	}{
		{
			name:     "yahoo variant",
			records:  []models.RawRecord{{"StartDate": "2023-02-01", "Text": "Sale", "Insider": "A"}},
			wantDate: "StartDate",
			wantKind: "Text",
		},
		{
			name:     "fmp variant",
			records:  []models.RawRecord{{"Date": "2023-02-01", "Type": "S-Sale"}},
			wantDate: "Date",
			wantKind: "Type",
		},
		{
			name:     "StartDate beats Date, Text beats Type",
			records:  []models.RawRecord{{"Date": "x", "StartDate": "y", "Type": "a", "Text": "b"}},
			wantDate: "StartDate",
			wantKind: "Text",
		},
		{
			name:     "pandas column name",
			records:  []models.RawRecord{{"Start Date": "2023-02-01", "Text": "Sale"}},
			wantDate: "Start Date",
			wantKind: "Text",
		},
		{
			name: "fields spread across records",
			records: []models.RawRecord{
				{"Date": "2023-02-01"},
				{"Type": "Sale"},
			},
			wantDate: "Date",
			wantKind: "Type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Resolve(tt.records)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, s.DateField)
			assert.Equal(t, tt.wantKind, s.KindField)
		})
	}
}

func TestResolveSchemaError(t *testing.T) {
	_, err := Resolve([]models.RawRecord{{"Insider": "A", "Value": "$1"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"date", "kind"}, se.Missing)
	assert.Equal(t, []string{"Insider", "Value"}, se.Columns)
	assert.Contains(t, err.Error(), "StartDate")

	_, err = Resolve([]models.RawRecord{{"Date": "2023-01-01", "Insider": "A"}})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{"kind"}, se.Missing)
}

func TestNormalize(t *testing.T) {
	recs := []models.RawRecord{{
		"StartDate": "2023-02-01",
		"Text":      " Sale at price 10.00 per share. ",
		"Insider":   "Jane Doe",
		"Value":     "$10,000.00",
		"URL":       "https://example.com",
		"Ownership": "D",
	}, {
		"StartDate": "2023-01-15",
		"Text":      nil,
	}}
	out, err := Normalize(recs)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, Record{Date: "2023-02-01", Kind: "Sale at price 10.00 per share.", Insider: "Jane Doe", Value: "$10,000.00"}, out[0])
	assert.Equal(t, Record{Date: "2023-01-15"}, out[1])
}

func TestNormalizeEmpty(t *testing.T) {
	out, err := Normalize(nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   interface{}
	}{
		{"iso", "2023-02-01"},
		{"iso with time", "2023-02-01T15:04:05Z"},
		{"iso space time", "2023-02-01 09:30:00"},
		{"us", "02/01/2023"},
		{"long", "Feb 1, 2023"},
		{"time", time.Date(2023, 2, 1, 17, 45, 0, 0, time.UTC)},
		{"epoch seconds", float64(1675209600)},
		{"epoch seconds int64", int64(1675209600 + 3600)},
		{"epoch millis", float64(1675209600000)},
		{"json number", json.Number("1675209600")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			require.True(t, ok)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	for _, bad := range []interface{}{nil, "", "yesterday", time.Time{}, float64(-1), true} {
		_, ok := ParseDate(bad)
		assert.False(t, ok, "%v", bad)
	}
}
