package montecarlo

import (
	"context"
	"fmt"
	"math"
)

// Ladder returns the capital levels base, base+step, ... for steps levels,
// where step = floor(base/4).
func Ladder(baseEquity float64, steps int) ([]float64, error) {
	if baseEquity <= 0 || math.IsNaN(baseEquity) || math.IsInf(baseEquity, 0) {
		return nil, configError("base equity must be > 0, got %v", baseEquity)
	}
	if steps <= 0 {
		return nil, configError("steps must be > 0, got %d", steps)
	}

	stepSize := math.Floor(baseEquity / 4)
	if stepSize < 1 {
		return nil, configError("base equity %v too small for a ladder step of at least 1", baseEquity)
	}

	levels := make([]float64, steps)
	for i := range levels {
		levels[i] = baseEquity + float64(i)*stepSize
	}
	return levels, nil
}

// ProgressFunc is called once per finished capital level, in ladder order.
type ProgressFunc func(index, total int, point AggregatePoint)

// Sweeper runs the Aggregator once per capital level.
type Sweeper struct {
	aggregator *Aggregator
	seed       uint64
	progress   ProgressFunc
}

// NewSweeper creates a sweeper. Every level is aggregated with the same seed,
// so run i replays the same trade sequence at each capital level and the risk
// of ruin is non-increasing up the ladder.
func NewSweeper(aggregator *Aggregator, seed uint64, progress ProgressFunc) *Sweeper {
	return &Sweeper{
		aggregator: aggregator,
		seed:       seed,
		progress:   progress,
	}
}

// Sweep returns one AggregatePoint per level in ascending equity order. Any
// failure discards the whole table.
func (s *Sweeper) Sweep(ctx context.Context, trades TradeList, baseEquity float64, steps int) ([]AggregatePoint, error) {
	levels, err := Ladder(baseEquity, steps)
	if err != nil {
		return nil, err
	}

	points := make([]AggregatePoint, 0, len(levels))
	for i, equity := range levels {
		point, err := s.aggregator.Aggregate(ctx, trades, equity, s.seed)
		if err != nil {
			return nil, fmt.Errorf("aggregate level %v: %w", equity, err)
		}
		points = append(points, point)

		if s.progress != nil {
			s.progress(i, len(levels), point)
		}
	}

	return points, nil
}
