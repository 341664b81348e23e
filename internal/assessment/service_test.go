package assessment

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decisiveml/ruinlab/internal/montecarlo"
	"github.com/decisiveml/ruinlab/internal/profile"
	"github.com/decisiveml/ruinlab/internal/trades"
	"github.com/decisiveml/ruinlab/pkg/config"
	"github.com/decisiveml/ruinlab/pkg/redis"
)

var testDefaults = config.SimulationConfig{
	RunsPerPoint:        300,
	Steps:               5,
	TargetRiskOfRuinPct: 10,
	Seed:                11,
	Workers:             4,
	CacheTTL:            time.Minute,
}

func staticSource(t *testing.T, n int, win, loss int64) trades.Source {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	list := make([]trades.Trade, n)
	for i := range list {
		pnl := decimal.NewFromInt(win)
		if i%2 == 1 {
			pnl = decimal.NewFromInt(loss)
		}
		// n건을 365일에 걸쳐 분산
		list[i] = trades.Trade{ClosedAt: start.Add(time.Duration(i) * 365 * 24 * time.Hour / time.Duration(n-1)), PnL: pnl}
	}

	series, err := trades.NewSeries("s1", list)
	require.NoError(t, err)
	return trades.StaticSource{Series: series}
}

func inlineProfile(ruin, base float64) *profile.Profile {
	return &profile.Profile{
		Meta:       profile.Meta{ProfileID: "p1", StrategyID: "s1"},
		Source:     profile.Source{Kind: profile.SourceInline},
		Simulation: profile.Simulation{RuinEquity: ruin, BaseEquity: base},
	}
}

func newTestService() *Service {
	return NewService(Sources{}, redis.NewCache(redis.Disabled(), "test"), testDefaults, nil)
}

func TestService_Assess_Pass(t *testing.T) {
	var levels []int
	a, err := newTestService().Assess(context.Background(), Request{
		Profile:  inlineProfile(500, 1000),
		Source:   staticSource(t, 200, 100, -50),
		Progress: func(i, total int, p montecarlo.AggregatePoint) { levels = append(levels, i) },
	})
	require.NoError(t, err)

	assert.Equal(t, VerdictPass, a.Verdict)
	assert.Len(t, a.Table, 5)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, levels)
	assert.Equal(t, 200, a.Trades)
	assert.Equal(t, 200, a.Config.TradesPerYear)
	assert.Equal(t, uint64(11), a.Seed)
	require.NotNil(t, a.Best)
	require.NotNil(t, a.Recommendation)
	assert.Equal(t, a.Best.StartingEquity, a.Recommendation.StartingEquity)
	assert.NotEmpty(t, a.ID)
	assert.NotEmpty(t, a.RunID)
	assert.False(t, a.Cached)
}

func TestService_Assess_ExcessiveBaseEquity(t *testing.T) {
	a, err := newTestService().Assess(context.Background(), Request{
		Profile: inlineProfile(900, 1000),
		Source:  staticSource(t, 100, 10, -200),
	})
	assert.ErrorIs(t, err, montecarlo.ErrExcessiveBaseEquity)

	require.NotNil(t, a, "the table is returned with the error")
	assert.Equal(t, VerdictExcessiveBaseEquity, a.Verdict)
	assert.Len(t, a.Table, 5)
	assert.Nil(t, a.Recommendation)
	assert.Nil(t, a.Best)
}

func TestService_Assess_Window(t *testing.T) {
	svc := newTestService()

	p := inlineProfile(500, 1000)
	p.Source.From = "2024-07-01"
	p.Source.To = "2024-12-31"
	a, err := svc.Assess(context.Background(), Request{Profile: p, Source: staticSource(t, 200, 100, -50)})
	require.NoError(t, err)

	assert.Equal(t, 100, a.Trades, "trades closed before the window are dropped")
	assert.Equal(t, 100*365/183, a.Config.TradesPerYear)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), a.Start)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), a.End)

	p = inlineProfile(500, 1000)
	p.Source.From = "2025-01-01"
	p.Source.To = "2025-06-30"
	_, err = svc.Assess(context.Background(), Request{Profile: p, Source: staticSource(t, 200, 100, -50)})
	assert.ErrorIs(t, err, trades.ErrNoTrades)
}

func TestService_Assess_Reproducible(t *testing.T) {
	svc := newTestService()
	req := Request{Profile: inlineProfile(500, 1000), Source: staticSource(t, 100, 120, -100)}

	a, err := svc.Assess(context.Background(), req)
	require.NoError(t, err)
	b, err := svc.Assess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a.Table, b.Table)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestService_Assess_Invalid(t *testing.T) {
	svc := newTestService()

	_, err := svc.Assess(context.Background(), Request{})
	assert.ErrorIs(t, err, montecarlo.ErrInvalidConfig)

	_, err = svc.Assess(context.Background(), Request{Profile: inlineProfile(500, 0), Source: staticSource(t, 10, 1, -1)})
	assert.ErrorIs(t, err, montecarlo.ErrInvalidConfig)

	_, err = svc.Assess(context.Background(), Request{Profile: inlineProfile(500, 1000), Source: trades.StaticSource{}})
	assert.ErrorIs(t, err, trades.ErrNoTrades)

	// inline 프로필은 요청에 Source가 있어야 함
	_, err = svc.Assess(context.Background(), Request{Profile: inlineProfile(500, 1000)})
	assert.Error(t, err)
}

func TestSources_For(t *testing.T) {
	p := inlineProfile(500, 1000)

	p.Source = profile.Source{Kind: profile.SourceCSV, Path: "x.csv"}
	src, err := Sources{}.For(p)
	require.NoError(t, err)
	assert.IsType(t, &trades.CSVSource{}, src)

	p.Source = profile.Source{Kind: profile.SourcePostgres}
	_, err = Sources{}.For(p)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorContains(t, err, "DATABASE_URL")

	p.Source = profile.Source{Kind: profile.SourceLedger}
	_, err = Sources{}.For(p)
	assert.ErrorContains(t, err, "LEDGER_BASE_URL")
}

func TestInputHash(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	p := inlineProfile(500, 1000)

	a, err := inputHash(p, []float64{1, 2}, start, end)
	require.NoError(t, err)
	b, err := inputHash(p, []float64{1, 2}, start, end)
	require.NoError(t, err)
	c, err := inputHash(p, []float64{2, 1}, start, end)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "trade order is part of the input")
}
