// Package fmp reads insider trades from the Financial Modeling Prep API.
package fmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bighogz/insider-ledger/internal/httpclient"
	"github.com/bighogz/insider-ledger/internal/models"
)

const DefaultBaseURL = "https://financialmodelingprep.com/stable"

// SourceName is how reports attribute FMP data.
const SourceName = "Financial Modeling Prep"

var (
	ErrNoAPIKey    = errors.New("fmp: API key not configured")
	ErrRateLimited = errors.New("fmp: rate limited")
)

type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
	Limit   int
}

func New(apiKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = httpclient.Default
	}
	return &Client{APIKey: apiKey, BaseURL: DefaultBaseURL, HTTP: hc, Limit: 100}
}

// Name implements pipeline.Named.
func (c *Client) Name() string { return SourceName }

func (c *Client) get(ctx context.Context, path string, params url.Values) (interface{}, error) {
	if c.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	params.Set("apikey", c.APIKey)
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	hc := c.HTTP
	if hc == nil {
		hc = httpclient.Default
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fmp: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	var data interface{}
	decodeErr := json.NewDecoder(resp.Body).Decode(&data)
	if m, ok := data.(map[string]interface{}); ok {
		if msg, ok := m["Error Message"].(string); ok && msg != "" {
			return nil, fmt.Errorf("fmp: %s", msg)
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fmp: %s: %s", path, resp.Status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("fmp: decode %s: %w", path, decodeErr)
	}
	return data, nil
}

// InsiderTransactions returns the ticker's insider trades as raw rows keyed
// Date, Type, Insider and Value. Value is the reported value, or shares times
// price when the feed omits it.
func (c *Client) InsiderTransactions(ctx context.Context, ticker string) ([]models.RawRecord, error) {
	sym := strings.ToUpper(strings.TrimSpace(ticker))
	if sym == "" {
		return nil, errors.New("fmp: empty symbol")
	}
	limit := c.Limit
	if limit <= 0 {
		limit = 100
	}
	params := url.Values{}
	params.Set("symbol", sym)
	params.Set("page", "0")
	params.Set("limit", strconv.Itoa(limit))
	data, err := c.get(ctx, "/insider-trading/search", params)
	if err != nil {
		return nil, err
	}

	var items []interface{}
	switch v := data.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		if d, ok := v["data"].([]interface{}); ok {
			items = d
		}
	}

	out := make([]models.RawRecord, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		rec := models.RawRecord{
			"Date":     strOr(m["transactionDate"], m["periodOfReport"], m["filingDate"]),
			"Type":     strOr(m["transactionType"], m["type"]),
			"Insider":  strOr(m["reportingName"], m["reportingOwner"]),
			"Position": str(m["typeOfOwner"]),
			"Filed":    str(m["filingDate"]),
			"Form":     str(m["formType"]),
			"URL":      str(m["url"]),
			"Value":    value(m),
		}
		if shares := toFloat(m["securitiesTransacted"], m["numberOfShares"]); shares > 0 {
			rec["Shares"] = shares
		}
		out = append(out, rec)
	}
	return out, nil
}

func value(m map[string]interface{}) interface{} {
	if v := toFloat(m["value"], m["valueUsd"]); v > 0 {
		return v
	}
	shares := toFloat(m["securitiesTransacted"], m["numberOfShares"])
	price := toFloat(m["price"])
	if shares <= 0 || price <= 0 {
		return nil
	}
	return decimal.NewFromFloat(shares).Mul(decimal.NewFromFloat(price)).Round(2).InexactFloat64()
}

func str(v interface{}) string {
	if v == nil {
		return ""
	}
	if m, ok := v.(map[string]interface{}); ok {
		if n, ok := m["name"].(string); ok {
			return strings.TrimSpace(n)
		}
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func strOr(vals ...interface{}) string {
	for _, v := range vals {
		if s := str(v); s != "" {
			return s
		}
	}
	return ""
}

func toFloat(vals ...interface{}) float64 {
	for _, v := range vals {
		if v == nil {
			continue
		}
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		case string:
			f, _ := strconv.ParseFloat(x, 64)
			return f
		}
	}
	return 0
}
