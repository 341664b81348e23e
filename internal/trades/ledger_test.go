package trades

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decisiveml/ruinlab/pkg/config"
	"github.com/decisiveml/ruinlab/pkg/httputil"
	"github.com/decisiveml/ruinlab/pkg/logger"
)

func newLedgerClient() *httputil.Client {
	cfg := &config.Config{Ledger: config.LedgerConfig{Timeout: 5 * time.Second}}
	return httputil.New(cfg, logger.Nop()).DisableRetry()
}

func TestLedgerSource_Load(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/strategies/trend%20es/trades", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"strategy_id": "trend es",
			"trades": [
				{"closed_at": "2024-03-01T00:00:00Z", "pnl": "-40.5", "symbol": "ES"},
				{"closed_at": "2024-01-01T00:00:00Z", "pnl": 120}
			]
		}`))
	}))
	defer server.Close()

	source, err := NewLedgerSource(newLedgerClient(), server.URL+"/", "trend es")
	require.NoError(t, err)

	series, err := source.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []float64{120, -40.5}, []float64(series.PnL()))
	assert.Equal(t, "ES", series.Trades[1].Symbol)
	assert.Equal(t, 60, series.Days())
}

func TestLedgerSource_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"strategy_id":"x","trades":[]}`))
	}))
	defer server.Close()

	source, err := NewLedgerSource(newLedgerClient(), server.URL, "x")
	require.NoError(t, err)

	_, err = source.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoTrades)
}

func TestLedgerSource_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	source, err := NewLedgerSource(newLedgerClient(), server.URL, "x")
	require.NoError(t, err)

	_, err = source.Load(context.Background())
	var statusErr *httputil.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestNewLedgerSource_Invalid(t *testing.T) {
	_, err := NewLedgerSource(newLedgerClient(), "", "x")
	assert.Error(t, err)

	_, err = NewLedgerSource(newLedgerClient(), "http://ledger", "")
	assert.Error(t, err)
}
