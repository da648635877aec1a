// Package report turns a pipeline result into the four display tables handed
// to the API, the CLI and the spreadsheet exporter.
package report

import (
	"fmt"

	"github.com/bighogz/insider-ledger/internal/currency"
	"github.com/bighogz/insider-ledger/internal/models"
)

const DateLayout = "2006-01-02"

// EventRow is one sale or purchase. Amount is the numeric companion of Value,
// kept for sorting and machine export and never rendered.
type EventRow struct {
	Date    string  `json:"date"`
	Insider string  `json:"insider"`
	Value   string  `json:"value"`
	Amount  float64 `json:"amount"`
}

type AggregateRow struct {
	Insider string  `json:"insider"`
	Value   string  `json:"value"`
	Amount  float64 `json:"amount"`
}

type Tables struct {
	Sales              []EventRow     `json:"sales"`
	Purchases          []EventRow     `json:"purchases"`
	SalesByInsider     []AggregateRow `json:"sales_by_insider"`
	PurchasesByInsider []AggregateRow `json:"purchases_by_insider"`
}

type Kind string

const (
	KindSales              Kind = "sales"
	KindPurchases          Kind = "purchases"
	KindSalesByInsider     Kind = "sales-by-insider"
	KindPurchasesByInsider Kind = "purchases-by-insider"
)

var Kinds = []Kind{KindSales, KindPurchases, KindSalesByInsider, KindPurchasesByInsider}

func (k Kind) Title() string {
	switch k {
	case KindSales:
		return "Sales"
	case KindPurchases:
		return "Purchases"
	case KindSalesByInsider:
		return "Sales by Insider"
	case KindPurchasesByInsider:
		return "Purchases by Insider"
	}
	return string(k)
}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown table %q", s)
}

// Table is a display-only table: header plus formatted rows.
type Table struct {
	Kind   Kind
	Title  string
	Header []string
	Rows   [][]string
}

func Build(r models.Result) Tables {
	return Tables{
		Sales:              eventRows(r.SaleEvents),
		Purchases:          eventRows(r.PurchaseEvents),
		SalesByInsider:     aggregateRows(r.SaleAggregate),
		PurchasesByInsider: aggregateRows(r.PurchaseAggregate),
	}
}

// Table renders one of the four tables with display values only. An unknown
// kind yields a table with no header and no rows.
func (t Tables) Table(k Kind) Table {
	out := Table{Kind: k, Title: k.Title()}
	switch k {
	case KindSales, KindPurchases:
		rows := t.Sales
		if k == KindPurchases {
			rows = t.Purchases
		}
		out.Header = []string{"Date", "Insider", "Value"}
		out.Rows = make([][]string, 0, len(rows))
		for _, r := range rows {
			out.Rows = append(out.Rows, []string{r.Date, r.Insider, r.Value})
		}
	case KindSalesByInsider, KindPurchasesByInsider:
		rows := t.SalesByInsider
		if k == KindPurchasesByInsider {
			rows = t.PurchasesByInsider
		}
		out.Header = []string{"Insider", "Value"}
		out.Rows = make([][]string, 0, len(rows))
		for _, r := range rows {
			out.Rows = append(out.Rows, []string{r.Insider, r.Value})
		}
	default:
		out.Header = []string{}
		out.Rows = [][]string{}
	}
	return out
}

func eventRows(txs []models.Transaction) []EventRow {
	out := make([]EventRow, 0, len(txs))
	for _, t := range txs {
		out = append(out, EventRow{
			Date:    t.EventDate.Format(DateLayout),
			Insider: t.InsiderName,
			Value:   currency.FormatAmount(t.NumericValue),
			Amount:  t.NumericValue,
		})
	}
	return out
}

func aggregateRows(totals []models.InsiderTotal) []AggregateRow {
	out := make([]AggregateRow, 0, len(totals))
	for _, t := range totals {
		out = append(out, AggregateRow{
			Insider: t.InsiderName,
			Value:   currency.FormatAmount(t.TotalValue),
			Amount:  t.TotalValue,
		})
	}
	return out
}
