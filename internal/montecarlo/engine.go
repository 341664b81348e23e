package montecarlo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/decisiveml/ruinlab/pkg/logger"
)

// =============================================================================
// Engine - 외부 진입점
// =============================================================================

// Engine owns one trade list and the last sweep run over it.
// ⭐ SSOT: configure → run → best run / recommendation 순서
type Engine struct {
	trades TradeList
	opts   options

	mu     sync.RWMutex
	config *SimulationConfig
	points []AggregatePoint
	runID  string
}

type options struct {
	runsPerPoint int
	workers      int
	seed         uint64
	target       float64
	policy       Policy
	pickers      PickerFactory
	weights      []float64
	progress     ProgressFunc
	logger       *logger.Logger
}

// Option configures an Engine.
type Option func(*options)

// WithRunsPerPoint sets the number of paths per capital level.
func WithRunsPerPoint(n int) Option {
	return func(o *options) { o.runsPerPoint = n }
}

// WithWorkers bounds the number of concurrently simulated paths.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithSeed fixes the random stream; 0 picks a time-based seed.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithTargetRiskOfRuin sets the threshold Recommendation uses to pick the best run.
func WithTargetRiskOfRuin(pct float64) Option {
	return func(o *options) { o.target = pct }
}

// WithPolicy overrides the pass/fail thresholds.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithPickers injects the sampling service.
func WithPickers(f PickerFactory) Option {
	return func(o *options) { o.pickers = f }
}

// WithWeights switches to weighted resampling; one weight per trade.
func WithWeights(weights []float64) Option {
	return func(o *options) { o.weights = weights }
}

// WithProgress registers a callback fired after each capital level.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewEngine validates the trade list and options. No simulation runs here.
func NewEngine(trades TradeList, opts ...Option) (*Engine, error) {
	o := options{
		runsPerPoint: DefaultRunsPerPoint,
		target:       DefaultTargetRiskOfRuinPct,
		policy:       DefaultPolicy(),
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(trades) == 0 {
		return nil, ErrEmptyTrades
	}
	if o.runsPerPoint <= 0 {
		return nil, configError("RunsPerPoint must be > 0, got %d", o.runsPerPoint)
	}
	if o.target <= 0 || o.target > 100 {
		return nil, configError("target risk of ruin must be in (0, 100], got %v", o.target)
	}

	if o.weights != nil {
		if o.pickers != nil {
			return nil, configError("WithWeights and WithPickers are mutually exclusive")
		}
		if len(o.weights) != len(trades) {
			return nil, configError("got %d weights for %d trades", len(o.weights), len(trades))
		}
		pickers, err := WeightedPickers(o.weights)
		if err != nil {
			return nil, err
		}
		o.pickers = pickers
	}
	if o.pickers == nil {
		o.pickers = UniformPickers
	}

	if o.seed == 0 {
		o.seed = uint64(time.Now().UnixNano())
	}

	// 호출자 슬라이스와 분리
	owned := make(TradeList, len(trades))
	copy(owned, trades)

	o.logger.WithFields(map[string]interface{}{
		"trades":         len(owned),
		"runs_per_point": o.runsPerPoint,
		"weighted":       o.weights != nil,
	}).Info("MonteCarlo initialized")

	return &Engine{trades: owned, opts: o}, nil
}

// Seed returns the resolved seed; rerunning with it reproduces the table.
func (e *Engine) Seed() uint64 {
	return e.opts.seed
}

// NumTrades returns the historical trade count.
func (e *Engine) NumTrades() int {
	return len(e.trades)
}

// Configure derives TradesPerYear from the historical span and fixes the
// ruin floor.
func (e *Engine) Configure(ruinEquity float64, start, end time.Time) error {
	perYear, err := TradesPerYear(len(e.trades), start, end)
	if err != nil {
		return err
	}

	cfg := SimulationConfig{
		RuinEquity:    ruinEquity,
		TradesPerYear: perYear,
		RunsPerPoint:  e.opts.runsPerPoint,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	e.config = &cfg
	e.points = nil
	e.mu.Unlock()

	e.opts.logger.WithFields(map[string]interface{}{
		"ruin_equity":     cfg.RuinEquity,
		"trades_per_year": cfg.TradesPerYear,
		"days":            DaysBetween(start, end),
	}).Info("MonteCarlo settings")

	return nil
}

// Config returns the active configuration, or nil before Configure.
func (e *Engine) Config() *SimulationConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.config == nil {
		return nil
	}
	cfg := *e.config
	return &cfg
}

// Run sweeps steps capital levels starting at baseEquity and keeps the table
// for BestRun and Recommendation.
func (e *Engine) Run(ctx context.Context, baseEquity float64, steps int) ([]AggregatePoint, error) {
	cfg := e.Config()
	if cfg == nil {
		return nil, ErrNotConfigured
	}

	aggregator, err := NewAggregator(*cfg, e.opts.pickers, e.opts.workers)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := e.opts.logger.WithField("run_id", runID)

	progress := func(i, total int, p AggregatePoint) {
		log.WithFields(map[string]interface{}{
			"level":                i + 1,
			"levels":               total,
			"starting_equity":      p.StartingEquity,
			"profit":               p.Profit,
			"returns_pct":          p.ReturnsPct,
			"drawdown_pct":         p.DrawdownPct,
			"returns_per_drawdown": p.ReturnsPerDrawdown,
			"is_ruined_pct":        p.IsRuinedPct,
			"is_profitable_pct":    p.IsProfitablePct,
		}).Debug("MonteCarlo level median")
		if e.opts.progress != nil {
			e.opts.progress(i, total, p)
		}
	}

	started := time.Now()
	points, err := NewSweeper(aggregator, e.opts.seed, progress).Sweep(ctx, e.trades, baseEquity, steps)
	if err != nil {
		log.WithError(err).Warn("MonteCarlo sweep failed")
		return nil, fmt.Errorf("montecarlo sweep: %w", err)
	}

	e.mu.Lock()
	e.points = points
	e.runID = runID
	e.mu.Unlock()

	log.WithFields(map[string]interface{}{
		"base_equity": baseEquity,
		"steps":       steps,
		"duration":    time.Since(started),
	}).Info("MonteCarlo sweep completed")

	return clonePoints(points), nil
}

// Points returns the table from the last successful Run.
func (e *Engine) Points() []AggregatePoint {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return clonePoints(e.points)
}

// RunID identifies the last successful Run.
func (e *Engine) RunID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runID
}

// BestRun returns the lowest capital level under targetRiskOfRuinPct, or nil.
func (e *Engine) BestRun(targetRiskOfRuinPct float64) (*AggregatePoint, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.points == nil {
		return nil, ErrNotRun
	}
	return Best(e.points, targetRiskOfRuinPct), nil
}

// Recommendation renders the verdict for the last Run over [start, end].
func (e *Engine) Recommendation(start, end time.Time) (*RecommendationResult, error) {
	e.mu.RLock()
	points := e.points
	e.mu.RUnlock()

	if points == nil {
		return nil, ErrNotRun
	}

	rec, err := RecommendWith(points, start, end, e.opts.target, e.opts.policy)
	if err != nil {
		return nil, err
	}

	log := e.opts.logger.WithFields(map[string]interface{}{
		"starting_equity":      rec.StartingEquity,
		"is_ruined_pct":        rec.IsRuinedPct,
		"returns_per_drawdown": rec.ReturnsPerDrawdown,
		"avg_monthly_profit":   rec.AvgMonthlyProfit,
	})
	if rec.IsPass {
		log.Info("MonteCarlo Risk Assessment: PASSED")
	} else {
		log.Info("MonteCarlo Risk Assessment: FAILED")
	}

	return rec, nil
}

func clonePoints(points []AggregatePoint) []AggregatePoint {
	if points == nil {
		return nil
	}
	out := make([]AggregatePoint, len(points))
	copy(out, points)
	return out
}
