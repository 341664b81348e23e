package trades

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/decisiveml/ruinlab/internal/montecarlo"
)

// ErrNoTrades is returned when a source yields no closed trades.
var ErrNoTrades = errors.New("no closed trades")

// Trade is one closed trade's realized P&L in account currency.
type Trade struct {
	Symbol   string          `json:"symbol,omitempty"`
	ClosedAt time.Time       `json:"closed_at"`
	PnL      decimal.Decimal `json:"pnl"`
}

// Series is a strategy's trade history in close order.
// Start/End bound the history and drive the annualized trade count.
type Series struct {
	StrategyID string    `json:"strategy_id"`
	Trades     []Trade   `json:"trades"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// Source loads one strategy's closed trades.
type Source interface {
	Load(ctx context.Context) (*Series, error)
}

// NewSeries sorts trades by close time and takes Start/End from the first
// and last close.
func NewSeries(strategyID string, trades []Trade) (*Series, error) {
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}

	sorted := make([]Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ClosedAt.Before(sorted[j].ClosedAt)
	})

	return &Series{
		StrategyID: strategyID,
		Trades:     sorted,
		Start:      sorted[0].ClosedAt,
		End:        sorted[len(sorted)-1].ClosedAt,
	}, nil
}

// PnL converts the series to the simulator's trade list.
func (s *Series) PnL() montecarlo.TradeList {
	out := make(montecarlo.TradeList, len(s.Trades))
	for i, t := range s.Trades {
		out[i] = t.PnL.InexactFloat64()
	}
	return out
}

// Total returns the exact net P&L of the series.
func (s *Series) Total() decimal.Decimal {
	total := decimal.Zero
	for _, t := range s.Trades {
		total = total.Add(t.PnL)
	}
	return total
}

// Days returns the whole days spanned by the series.
func (s *Series) Days() int {
	return montecarlo.DaysBetween(s.Start, s.End)
}

// Window keeps only trades closed in [from, to] and narrows the span used
// for annualization to the same bounds. to is a calendar date and covers the
// whole day. Zero times leave that side open.
func (s *Series) Window(from, to time.Time) error {
	var kept []Trade
	for _, t := range s.Trades {
		if !from.IsZero() && t.ClosedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !t.ClosedAt.Before(endOfDay(to)) {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return fmt.Errorf("%w for strategy %s in window %s ~ %s",
			ErrNoTrades, s.StrategyID, formatBound(from), formatBound(to))
	}

	s.Trades = kept
	if !from.IsZero() {
		s.Start = from
	}
	if !to.IsZero() {
		s.End = to
	}
	return nil
}

// endOfDay is the exclusive upper bound for a window ending on day.
func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1)
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.Format("2006-01-02")
}

// StaticSource serves an in-memory series (API requests, tests).
type StaticSource struct {
	Series *Series
}

// Load implements Source.
func (s StaticSource) Load(_ context.Context) (*Series, error) {
	if s.Series == nil || len(s.Series.Trades) == 0 {
		return nil, ErrNoTrades
	}
	cp := *s.Series
	return &cp, nil
}
