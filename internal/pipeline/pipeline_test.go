package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bighogz/insider-ledger/internal/models"
	"github.com/bighogz/insider-ledger/internal/normalize"
	"github.com/bighogz/insider-ledger/internal/report"
)

var cutoff2023 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func janeDoe() []models.RawRecord {
	return []models.RawRecord{
		{"Date": "2023-02-01", "Text": "Sale", "Insider": "Jane Doe", "Value": "$10,000.00"},
		{"Date": "2022-12-01", "Text": "Purchase", "Insider": "Jane Doe", "Value": "$5,000.00"},
	}
}

func TestRunEndToEnd(t *testing.T) {
	res, stats, err := Run(janeDoe(), cutoff2023)
	require.NoError(t, err)

	tabs := report.Build(res)
	assert.Equal(t, []report.EventRow{{Date: "2023-02-01", Insider: "Jane Doe", Value: "$10,000.00", Amount: 10000}}, tabs.Sales)
	assert.Empty(t, tabs.Purchases)
	assert.Equal(t, []report.AggregateRow{{Insider: "Jane Doe", Value: "$10,000.00", Amount: 10000}}, tabs.SalesByInsider)
	assert.Empty(t, tabs.PurchasesByInsider)

	assert.Equal(t, Stats{Input: 2, BeforeCutoff: 1}, stats)
	assert.Equal(t, "$10,000.00", res.SaleEvents[0].RawValue)
}

func TestRunCutoffInclusive(t *testing.T) {
	recs := []models.RawRecord{
		{"StartDate": "2023-01-01", "Text": "Sale", "Insider": "On", "Value": 1},
		{"StartDate": "2022-12-31", "Text": "Sale", "Insider": "Before", "Value": 1},
	}
	res, _, err := Run(recs, cutoff2023)
	require.NoError(t, err)
	require.Len(t, res.SaleEvents, 1)
	assert.Equal(t, "On", res.SaleEvents[0].InsiderName)
}

func TestRunDropsUnclassified(t *testing.T) {
	recs := []models.RawRecord{
		{"StartDate": "2023-03-01", "Text": "Grant", "Insider": "A", "Value": "$1.00"},
		{"StartDate": "2023-03-01", "Text": "Buy", "Insider": "B", "Value": "$2.00"},
	}
	res, stats, err := Run(recs, cutoff2023)
	require.NoError(t, err)
	assert.Empty(t, res.SaleEvents)
	require.Len(t, res.PurchaseEvents, 1)
	assert.Equal(t, "B", res.PurchaseEvents[0].InsiderName)
	assert.Equal(t, 1, stats.Unclassified)
	for _, tx := range append(res.SaleEvents, res.PurchaseEvents...) {
		assert.NotEqual(t, "A", tx.InsiderName)
	}
}

func TestRunOrdersAndAggregates(t *testing.T) {
	recs := []models.RawRecord{
		{"Date": "2023-01-05", "Type": "S-Sale", "Insider": "A", "Value": 100.0},
		{"Date": "2023-03-05", "Type": "S-Sale", "Insider": "B", "Value": "50"},
		{"Date": "2023-02-05", "Type": "S-Sale", "Insider": "A", "Value": "$25"},
		{"Date": "2023-03-05", "Type": "S-Sale", "Insider": "C", "Value": "junk"},
	}
	res, _, err := Run(recs, cutoff2023)
	require.NoError(t, err)

	names := []string{}
	for _, tx := range res.SaleEvents {
		names = append(names, tx.InsiderName)
	}
	assert.Equal(t, []string{"B", "C", "A", "A"}, names)
	assert.Equal(t, []models.InsiderTotal{
		{InsiderName: "A", TotalValue: 125},
		{InsiderName: "B", TotalValue: 50},
		{InsiderName: "C", TotalValue: 0},
	}, res.SaleAggregate)
}

func TestRunSkipsUnparsableDates(t *testing.T) {
	recs := []models.RawRecord{
		{"Date": "someday", "Text": "Sale", "Insider": "A", "Value": 1},
		{"Text": "Sale", "Insider": "B", "Value": 1},
		{"Date": "2023-05-01", "Text": "Sale", "Insider": "C", "Value": 1},
	}
	res, stats, err := Run(recs, cutoff2023)
	require.NoError(t, err)
	require.Len(t, res.SaleEvents, 1)
	assert.Equal(t, 2, stats.BadDates)
}

func TestRunSchemaError(t *testing.T) {
	res, _, err := Run([]models.RawRecord{{"Insider": "A", "Value": "$1"}}, cutoff2023)
	require.ErrorIs(t, err, normalize.ErrSchema)
	assert.True(t, res.IsEmpty())
}

func TestRunEmpty(t *testing.T) {
	res, stats, err := Run(nil, cutoff2023)
	require.NoError(t, err)
	assert.True(t, res.IsEmpty())
	assert.NotNil(t, res.SaleEvents)
	assert.Equal(t, 0, stats.Input)
}

func TestRunIsIdempotent(t *testing.T) {
	recs := janeDoe()
	a, _, err := Run(recs, cutoff2023)
	require.NoError(t, err)
	b, _, err := Run(recs, cutoff2023)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, janeDoe(), recs)
}

func TestRunOverflowingSalesStillRender(t *testing.T) {
	recs := []models.RawRecord{
		{"Date": "2023-02-01", "Text": "Sale", "Insider": "Big", "Value": "1.7e308"},
		{"Date": "2023-02-02", "Text": "Sale", "Insider": "Big", "Value": "1.7e308"},
	}
	res, _, err := Run(recs, cutoff2023)
	require.NoError(t, err)

	var tabs report.Tables
	require.NotPanics(t, func() { tabs = report.Build(res) })
	require.Len(t, tabs.SalesByInsider, 1)
	assert.Equal(t, "Big", tabs.SalesByInsider[0].Insider)
	assert.NotEqual(t, "N/A", tabs.SalesByInsider[0].Value)
	assert.Len(t, tabs.Sales, 2)
}
