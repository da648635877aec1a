package fmp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsiderTransactions(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/insider-trading/search", r.URL.Path)
		q := r.URL.Query()
		query = map[string]string{"symbol": q.Get("symbol"), "apikey": q.Get("apikey"), "limit": q.Get("limit")}
		_, _ = w.Write([]byte(`[
 {"symbol":"NVDA","transactionDate":"2023-02-01","filingDate":"2023-02-03","transactionType":"S-Sale",
  "reportingName":"Doe Jane","typeOfOwner":"officer","securitiesTransacted":100,"price":100.5},
 {"symbol":"NVDA","transactionDate":"2023-03-01","transactionType":"P-Purchase",
  "reportingName":"Roe John","value":"2500"},
 {"symbol":"NVDA","transactionDate":"2023-03-02","transactionType":"A-Award","reportingName":"X"},
 "junk"
]`))
	}))
	defer srv.Close()

	c := &Client{APIKey: "k", BaseURL: srv.URL, HTTP: srv.Client()}
	recs, err := c.InsiderTransactions(context.Background(), " nvda ")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"symbol": "NVDA", "apikey": "k", "limit": "100"}, query)

	require.Len(t, recs, 3)
	assert.Equal(t, "2023-02-01", recs[0]["Date"])
	assert.Equal(t, "S-Sale", recs[0]["Type"])
	assert.Equal(t, "Doe Jane", recs[0]["Insider"])
	assert.Equal(t, 10050.0, recs[0]["Value"])
	assert.Equal(t, 100.0, recs[0]["Shares"])

	assert.Equal(t, 2500.0, recs[1]["Value"])
	assert.Nil(t, recs[2]["Value"])
}

func TestInsiderTransactionsErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"rate limit", http.StatusTooManyRequests, ``, "rate limited"},
		{"error message", http.StatusOK, `{"Error Message":"Invalid API KEY."}`, "Invalid API KEY."},
		{"server error", http.StatusBadGateway, `oops`, "502"},
		{"bad json", http.StatusOK, `[{`, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := &Client{APIKey: "k", BaseURL: srv.URL, HTTP: srv.Client()}
			_, err := c.InsiderTransactions(context.Background(), "NVDA")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInsiderTransactionsNoKey(t *testing.T) {
	_, err := New("", nil).InsiderTransactions(context.Background(), "NVDA")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := &Client{APIKey: "k", BaseURL: srv.URL, HTTP: srv.Client()}
	recs, err := c.InsiderTransactions(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestName(t *testing.T) {
	assert.Equal(t, "Financial Modeling Prep", New("k", nil).Name())
}
