package trades

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestNewSeries(t *testing.T) {
	series, err := NewSeries("s1", []Trade{
		{ClosedAt: day(10), PnL: decimal.NewFromInt(-50)},
		{ClosedAt: day(0), PnL: decimal.NewFromInt(100)},
		{ClosedAt: day(365), PnL: decimal.RequireFromString("12.5")},
	})
	require.NoError(t, err)

	assert.Equal(t, "s1", series.StrategyID)
	assert.Equal(t, day(0), series.Start)
	assert.Equal(t, day(365), series.End)
	assert.Equal(t, 365, series.Days())
	assert.Equal(t, []float64{100, -50, 12.5}, []float64(series.PnL()))
	assert.True(t, decimal.RequireFromString("62.5").Equal(series.Total()))
}

func TestNewSeries_Empty(t *testing.T) {
	_, err := NewSeries("s1", nil)
	assert.ErrorIs(t, err, ErrNoTrades)
}

func TestSeries_Window(t *testing.T) {
	newSeries := func(t *testing.T) *Series {
		t.Helper()
		series, err := NewSeries("s1", []Trade{
			{ClosedAt: day(5), PnL: decimal.NewFromInt(1)},
			{ClosedAt: day(20), PnL: decimal.NewFromInt(2)},
			{ClosedAt: day(30).Add(23 * time.Hour), PnL: decimal.NewFromInt(3)},
			{ClosedAt: day(31), PnL: decimal.NewFromInt(4)},
		})
		require.NoError(t, err)
		return series
	}

	tests := []struct {
		name      string
		from, to  time.Time
		wantPnL   []float64
		wantStart time.Time
		wantEnd   time.Time
	}{
		{name: "open window", wantPnL: []float64{1, 2, 3, 4}, wantStart: day(5), wantEnd: day(31)},
		{name: "to covers the whole day", to: day(30), wantPnL: []float64{1, 2, 3}, wantStart: day(5), wantEnd: day(30)},
		{name: "from is inclusive", from: day(20), wantPnL: []float64{2, 3, 4}, wantStart: day(20), wantEnd: day(31)},
		{name: "both bounds", from: day(10), to: day(29), wantPnL: []float64{2}, wantStart: day(10), wantEnd: day(29)},
		{name: "wider than history", from: day(0), to: day(60), wantPnL: []float64{1, 2, 3, 4}, wantStart: day(0), wantEnd: day(60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := newSeries(t)
			require.NoError(t, series.Window(tt.from, tt.to))
			assert.Equal(t, tt.wantPnL, []float64(series.PnL()))
			assert.Equal(t, tt.wantStart, series.Start)
			assert.Equal(t, tt.wantEnd, series.End)
		})
	}
}

func TestSeries_Window_Empty(t *testing.T) {
	series, err := NewSeries("s1", []Trade{{ClosedAt: day(5), PnL: decimal.NewFromInt(1)}})
	require.NoError(t, err)

	err = series.Window(day(10), day(20))
	assert.ErrorIs(t, err, ErrNoTrades)
	assert.Len(t, series.Trades, 1, "series is untouched on error")
}
