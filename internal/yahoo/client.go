// Package yahoo fetches insider transactions from Yahoo Finance through
// go-yfinance.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	yfmodels "github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
	"go.uber.org/zap"

	"github.com/bighogz/insider-ledger/internal/models"
)

// SourceName is how reports attribute Yahoo data.
const SourceName = "Yahoo Finance"

// fetchFunc loads the insider rows for a Yahoo symbol.
type fetchFunc func(sym string) ([]yfmodels.InsiderTransaction, error)

type Client struct {
	Logger *zap.Logger

	fetch fetchFunc
}

func New(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{Logger: logger.Named("yahoo"), fetch: fetchTicker}
}

// fetchTicker opens a go-yfinance ticker for one call. Each ticker owns its
// client, so it is closed before returning.
func fetchTicker(sym string) ([]yfmodels.InsiderTransaction, error) {
	t, err := ticker.New(sym)
	if err != nil {
		return nil, err
	}
	defer t.Close()
	return t.InsiderTransactions()
}

// Name implements pipeline.Named.
func (c *Client) Name() string { return SourceName }

// ToYahooSymbol converts exchange share-class symbols to Yahoo format:
// BRK.B -> BRK-B.
func ToYahooSymbol(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), ".", "-")
}

type result struct {
	rows []yfmodels.InsiderTransaction
	err  error
}

// InsiderTransactions returns the raw insider rows for ticker. A known ticker
// with no filings is an empty slice. go-yfinance takes no context, so a
// cancelled caller returns at once and the lookup finishes in the background.
func (c *Client) InsiderTransactions(ctx context.Context, tickerSym string) ([]models.RawRecord, error) {
	sym := ToYahooSymbol(tickerSym)
	if sym == "" {
		return nil, errors.New("yahoo: empty symbol")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fetch := c.fetch
	if fetch == nil {
		fetch = fetchTicker
	}

	done := make(chan result, 1)
	go func() {
		rows, err := fetch(sym)
		done <- result{rows, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			c.logger().Warn("yahoo insider lookup failed", zap.String("symbol", sym), zap.Error(r.err))
			return nil, fmt.Errorf("yahoo: %s: %w", sym, r.err)
		}
		return toRecords(r.rows), nil
	}
}

// toRecords maps go-yfinance rows onto the raw record schema. go-yfinance
// reports a missing value or date as zero; both become nil so the pipeline
// treats them as absent rather than as $0.00 or 1970-01-01.
func toRecords(rows []yfmodels.InsiderTransaction) []models.RawRecord {
	out := make([]models.RawRecord, 0, len(rows))
	for _, tx := range rows {
		rec := models.RawRecord{
			"Insider":     tx.Insider,
			"Position":    tx.Position,
			"URL":         tx.URL,
			"Text":        tx.Text,
			"Transaction": tx.Transaction,
			"Ownership":   tx.Ownership,
			"Shares":      tx.Shares,
			"StartDate":   nil,
			"Value":       nil,
		}
		if !tx.StartDate.IsZero() {
			rec["StartDate"] = tx.StartDate.UTC()
		}
		if tx.Value != 0 {
			rec["Value"] = tx.Value
		}
		out = append(out, rec)
	}
	return out
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
