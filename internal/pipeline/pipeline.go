// Package pipeline turns raw insider records for one ticker into classified,
// cutoff-filtered sale and purchase tables plus per-insider totals.
package pipeline

import (
	"time"

	"github.com/bighogz/insider-ledger/internal/aggregator"
	"github.com/bighogz/insider-ledger/internal/classify"
	"github.com/bighogz/insider-ledger/internal/currency"
	"github.com/bighogz/insider-ledger/internal/models"
	"github.com/bighogz/insider-ledger/internal/normalize"
)

// Stats counts what a run dropped along the way.
type Stats struct {
	Input        int
	BadDates     int
	Unclassified int
	BeforeCutoff int
}

// Run is the pure transform. It fails only when the record set's schema
// cannot be resolved; an empty record set yields an empty result.
func Run(records []models.RawRecord, cutoff time.Time) (models.Result, Stats, error) {
	stats := Stats{Input: len(records)}
	norm, err := normalize.Normalize(records)
	if err != nil {
		return models.Empty(), stats, err
	}

	txs := make([]models.Transaction, 0, len(norm))
	for _, r := range norm {
		date, ok := normalize.ParseDate(r.Date)
		if !ok {
			stats.BadDates++
			continue
		}
		tx := models.Transaction{
			InsiderName:    r.Insider,
			EventDate:      date,
			RawValue:       r.Value,
			NumericValue:   currency.Parse(r.Value),
			Classification: classify.Classify(r.Kind),
		}
		if tx.Classification == models.Unclassified {
			stats.Unclassified++
		}
		txs = append(txs, tx)
	}

	kept := aggregator.FilterSince(txs, cutoff)
	stats.BeforeCutoff = len(txs) - len(kept)

	sales, purchases := aggregator.Split(kept)
	aggregator.SortByDateDesc(sales)
	aggregator.SortByDateDesc(purchases)

	return models.Result{
		SaleEvents:        sales,
		PurchaseEvents:    purchases,
		SaleAggregate:     aggregator.Aggregate(sales),
		PurchaseAggregate: aggregator.Aggregate(purchases),
	}, stats, nil
}
