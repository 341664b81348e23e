package trades

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decisiveml/ruinlab/internal/montecarlo"
)

func TestReadCSV(t *testing.T) {
	input := `closed_at,symbol,pnl
2024-01-02,ES,100.25
2024-01-03T15:30:00Z, NQ , -50
2024-01-04 09:00:00,ES,0
`
	trades, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, trades, 3)

	assert.Equal(t, "ES", trades[0].Symbol)
	assert.Equal(t, "100.25", trades[0].PnL.String())
	assert.Equal(t, "NQ", trades[1].Symbol)
	assert.Equal(t, "-50", trades[1].PnL.String())
	assert.Equal(t, 15, trades[1].ClosedAt.Hour())
	assert.True(t, trades[2].PnL.IsZero())
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "missing pnl column", input: "closed_at,profit\n2024-01-01,1\n", wantErr: "missing pnl column"},
		{name: "missing closed_at column", input: "date,pnl\n2024-01-01,1\n", wantErr: "missing closed_at column"},
		{name: "bad pnl", input: "closed_at,pnl\n2024-01-01,abc\n", wantErr: "line 2: invalid pnl"},
		{name: "bad date", input: "closed_at,pnl\n01/02/2024,1\n", wantErr: "line 2: invalid closed_at"},
		{name: "short row", input: "closed_at,symbol,pnl\n2024-01-01\n", wantErr: "line 2: expected at least 3 fields"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadCSV_NoTrades(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoTrades)

	_, err = ReadCSV(strings.NewReader("closed_at,pnl\n"))
	assert.ErrorIs(t, err, ErrNoTrades)
}

func TestCSVSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mean-rev.csv")
	content := "closed_at,pnl\n2024-06-01,-20\n2024-01-01,100\n2024-12-31,30\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	source := NewCSVSource(path, "")
	assert.Equal(t, "mean-rev", source.StrategyID)

	series, err := source.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "mean-rev", series.StrategyID)
	assert.Equal(t, []float64{100, -20, 30}, []float64(series.PnL()))
	assert.Equal(t, 365, series.Days())
}

func TestCSVSource_Load_Windowed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.csv")
	content := "closed_at,pnl\n" +
		"2020-03-02,100\n2020-09-15,-40\n2021-02-01,80\n2021-08-20,-30\n" +
		"2022-05-05,60\n2022-11-11,-20\n2023-04-03,90\n2023-10-30,-10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	series, err := NewCSVSource(path, "trend").Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, series.Window(
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
	))

	assert.Equal(t, []float64{90, -10}, []float64(series.PnL()))
	perYear, err := montecarlo.TradesPerYear(len(series.Trades), series.Start, series.End)
	require.NoError(t, err)
	assert.Equal(t, 2, perYear, "only trades inside the window are annualized")
}

func TestCSVSource_MissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), "x").Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
