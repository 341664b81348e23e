package trades

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/decisiveml/ruinlab/pkg/httputil"
)

// LedgerSource fetches a strategy's trades from the remote trade ledger:
// GET {BaseURL}/strategies/{id}/trades
type LedgerSource struct {
	client     *httputil.Client
	baseURL    string
	strategyID string
}

// ledgerResponse is the ledger's JSON body. pnl may be a string or a number.
type ledgerResponse struct {
	StrategyID string  `json:"strategy_id"`
	Trades     []Trade `json:"trades"`
}

// NewLedgerSource creates a ledger-backed source
func NewLedgerSource(client *httputil.Client, baseURL, strategyID string) (*LedgerSource, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("ledger base URL is required (LEDGER_BASE_URL)")
	}
	if strategyID == "" {
		return nil, fmt.Errorf("strategy id is required")
	}
	return &LedgerSource{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		strategyID: strategyID,
	}, nil
}

// Load implements Source.
func (s *LedgerSource) Load(ctx context.Context) (*Series, error) {
	endpoint := fmt.Sprintf("%s/strategies/%s/trades", s.baseURL, url.PathEscape(s.strategyID))

	var body ledgerResponse
	if err := s.client.GetJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("failed to fetch ledger trades: %w", err)
	}

	if len(body.Trades) == 0 {
		return nil, fmt.Errorf("%w for strategy %s", ErrNoTrades, s.strategyID)
	}
	return NewSeries(s.strategyID, body.Trades)
}
