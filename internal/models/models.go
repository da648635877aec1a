package models

import "time"

// RawRecord is one reported insider event as delivered by a data source.
// Field names vary between feeds; see package normalize.
type RawRecord map[string]interface{}

type Classification int

const (
	Unclassified Classification = iota
	Sale
	Purchase
)

func (c Classification) String() string {
	switch c {
	case Sale:
		return "sale"
	case Purchase:
		return "purchase"
	default:
		return "unclassified"
	}
}

// Transaction is a normalized insider event. NumericValue is always finite
// and >= 0. Values are built once per run and never mutated.
type Transaction struct {
	InsiderName    string         `json:"insider"`
	EventDate      time.Time      `json:"date"`
	RawValue       interface{}    `json:"raw_value,omitempty"`
	NumericValue   float64        `json:"value"`
	Classification Classification `json:"-"`
}

type InsiderTotal struct {
	InsiderName string  `json:"insider"`
	TotalValue  float64 `json:"value"`
}

// Result is the unit the pipeline returns and the cache stores.
type Result struct {
	SaleEvents        []Transaction
	PurchaseEvents    []Transaction
	SaleAggregate     []InsiderTotal
	PurchaseAggregate []InsiderTotal
}

// Empty returns a result with four empty, non-nil tables.
func Empty() Result {
	return Result{
		SaleEvents:        []Transaction{},
		PurchaseEvents:    []Transaction{},
		SaleAggregate:     []InsiderTotal{},
		PurchaseAggregate: []InsiderTotal{},
	}
}

// IsEmpty reports whether all four tables are empty.
func (r Result) IsEmpty() bool {
	return len(r.SaleEvents) == 0 && len(r.PurchaseEvents) == 0 &&
		len(r.SaleAggregate) == 0 && len(r.PurchaseAggregate) == 0
}
