package montecarlo

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Aggregator runs RunsPerPoint independent paths for one capital level and
// reduces them into an AggregatePoint.
type Aggregator struct {
	config  SimulationConfig
	pickers PickerFactory
	workers int
}

// NewAggregator creates an aggregator. workers <= 0 means runtime.NumCPU().
func NewAggregator(config SimulationConfig, pickers PickerFactory, workers int) (*Aggregator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if pickers == nil {
		pickers = UniformPickers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Aggregator{
		config:  config,
		pickers: pickers,
		workers: workers,
	}, nil
}

// Aggregate simulates every run for startingEquity. Run i draws from a stream
// seeded with deriveSeed(seed, i), so the result does not depend on worker
// count or scheduling order.
func (a *Aggregator) Aggregate(ctx context.Context, trades TradeList, startingEquity float64, seed uint64) (AggregatePoint, error) {
	if len(trades) == 0 {
		return AggregatePoint{}, ErrEmptyTrades
	}
	if startingEquity <= 0 {
		return AggregatePoint{}, configError("starting equity must be > 0, got %v", startingEquity)
	}

	runs := make([]PathResult, a.config.RunsPerPoint)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i := range runs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sample, err := NewSampler(a.pickers(deriveSeed(seed, i))).Sample(trades, a.config.TradesPerYear)
			if err != nil {
				return err
			}
			runs[i] = SimulatePath(sample, startingEquity, a.config.RuinEquity)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return AggregatePoint{}, err
	}
	// 루프가 조기 종료된 경우 (g.Go 전에 취소)
	if err := ctx.Err(); err != nil {
		return AggregatePoint{}, err
	}

	return Reduce(startingEquity, runs)
}

// =============================================================================
// Reduce - 컬럼 단위 집계
// =============================================================================

// Reduce folds per-run results column by column: medians for the continuous
// fields, percentage of true for the two flags.
func Reduce(startingEquity float64, runs []PathResult) (AggregatePoint, error) {
	n := len(runs)
	if n == 0 {
		return AggregatePoint{}, configError("RunsPerPoint must be > 0, got 0")
	}

	profit := make([]float64, n)
	returns := make([]float64, n)
	drawdown := make([]float64, n)
	ratio := make([]float64, n)
	var ruined, profitable int

	for i, r := range runs {
		profit[i] = r.Profit
		returns[i] = float64(r.ReturnsPct)
		drawdown[i] = r.DrawdownPct
		ratio[i] = r.ReturnsPerDrawdown
		if r.IsRuined {
			ruined++
		}
		if r.IsProfitable {
			profitable++
		}
	}

	return AggregatePoint{
		StartingEquity:     startingEquity,
		Profit:             Median(profit),
		ReturnsPct:         Median(returns),
		DrawdownPct:        Median(drawdown),
		ReturnsPerDrawdown: Median(ratio),
		IsRuinedPct:        100 * float64(ruined) / float64(n),
		IsProfitablePct:    100 * float64(profitable) / float64(n),
	}, nil
}

// Median returns the middle value, or the mean of the two middle values for
// an even count. values is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
