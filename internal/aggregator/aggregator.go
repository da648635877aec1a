package aggregator

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bighogz/insider-ledger/internal/models"
)

// FilterSince keeps transactions on or after the cutoff day. There is no
// upper bound.
func FilterSince(txs []models.Transaction, cutoff time.Time) []models.Transaction {
	y, m, d := cutoff.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	out := make([]models.Transaction, 0, len(txs))
	for _, t := range txs {
		if !t.EventDate.Before(day) {
			out = append(out, t)
		}
	}
	return out
}

// Split partitions transactions into sales and purchases. Unclassified rows
// are dropped.
func Split(txs []models.Transaction) (sales, purchases []models.Transaction) {
	sales = make([]models.Transaction, 0)
	purchases = make([]models.Transaction, 0)
	for _, t := range txs {
		switch t.Classification {
		case models.Sale:
			sales = append(sales, t)
		case models.Purchase:
			purchases = append(purchases, t)
		}
	}
	return sales, purchases
}

// SortByDateDesc orders newest first; equal dates keep input order.
func SortByDateDesc(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].EventDate.After(txs[j].EventDate)
	})
}

// Aggregate sums NumericValue per insider (exact, case-sensitive name) and
// orders by total descending. Equal totals keep first-appearance order.
// Non-finite values count as zero and a total past the float64 range is
// clamped to math.MaxFloat64.
func Aggregate(txs []models.Transaction) []models.InsiderTotal {
	index := make(map[string]int)
	sums := make([]decimal.Decimal, 0)
	out := make([]models.InsiderTotal, 0)
	for _, t := range txs {
		i, ok := index[t.InsiderName]
		if !ok {
			i = len(out)
			index[t.InsiderName] = i
			out = append(out, models.InsiderTotal{InsiderName: t.InsiderName})
			sums = append(sums, decimal.Zero)
		}
		if math.IsNaN(t.NumericValue) || math.IsInf(t.NumericValue, 0) {
			continue
		}
		sums[i] = sums[i].Add(decimal.NewFromFloat(t.NumericValue))
	}
	for i := range out {
		out[i].TotalValue = clamp(sums[i].InexactFloat64())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalValue > out[j].TotalValue
	})
	return out
}

func clamp(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}
