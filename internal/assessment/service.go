package assessment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/decisiveml/ruinlab/internal/montecarlo"
	"github.com/decisiveml/ruinlab/internal/profile"
	"github.com/decisiveml/ruinlab/internal/trades"
	"github.com/decisiveml/ruinlab/pkg/config"
	"github.com/decisiveml/ruinlab/pkg/logger"
	"github.com/decisiveml/ruinlab/pkg/redis"
)

// Verdicts
const (
	VerdictPass                = "PASS"
	VerdictFail                = "FAIL"
	VerdictExcessiveBaseEquity = "EXCESSIVE_BASE_EQUITY"
)

// Assessment is one completed sweep plus its verdict.
type Assessment struct {
	ID             string                           `json:"id"`
	ProfileID      string                           `json:"profile_id"`
	StrategyID     string                           `json:"strategy_id"`
	RunID          string                           `json:"run_id"`
	Seed           uint64                           `json:"seed"`
	Trades         int                              `json:"trades"`
	Config         montecarlo.SimulationConfig      `json:"config"`
	Start          time.Time                        `json:"start"`
	End            time.Time                        `json:"end"`
	Table          []montecarlo.AggregatePoint      `json:"table"`
	Best           *montecarlo.AggregatePoint       `json:"best,omitempty"`
	Recommendation *montecarlo.RecommendationResult `json:"recommendation,omitempty"`
	Verdict        string                           `json:"verdict"`
	Cached         bool                             `json:"cached"`
	Duration       time.Duration                    `json:"duration"`
	CreatedAt      time.Time                        `json:"created_at"`
}

// Request is one assessment to run.
type Request struct {
	Profile  *profile.Profile
	Source   trades.Source // nil = resolve from Profile.Source
	Progress montecarlo.ProgressFunc
}

// Service loads trades, runs the sweep and renders the verdict.
// ⭐ SSOT: 프로필 → 엔진 → 판정 흐름은 여기서만
type Service struct {
	sources  Sources
	cache    *redis.Cache
	ttl      time.Duration
	defaults config.SimulationConfig
	logger   *logger.Logger
}

// NewService creates an assessment service. cache may wrap a disabled client.
func NewService(sources Sources, cache *redis.Cache, defaults config.SimulationConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		sources:  sources,
		cache:    cache,
		ttl:      defaults.CacheTTL,
		defaults: defaults,
		logger:   log,
	}
}

// Assess runs the request. When even the lowest level is too risky it
// returns the assessment with its table together with an error wrapping
// montecarlo.ErrExcessiveBaseEquity.
func (s *Service) Assess(ctx context.Context, req Request) (*Assessment, error) {
	if req.Profile == nil {
		return nil, fmt.Errorf("%w: profile is required", montecarlo.ErrInvalidConfig)
	}

	p := *req.Profile
	p.ApplyDefaults(s.defaults)
	if err := profile.Validate(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", montecarlo.ErrInvalidConfig, err)
	}

	log := s.logger.WithFields(map[string]interface{}{
		"profile_id":  p.Meta.ProfileID,
		"strategy_id": p.Meta.StrategyID,
	})

	source := req.Source
	if source == nil {
		var err error
		if source, err = s.sources.For(&p); err != nil {
			return nil, err
		}
	}

	series, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	from, to, err := p.Source.Window()
	if err != nil {
		return nil, err
	}
	if err := series.Window(from, to); err != nil {
		return nil, err
	}
	pnl := series.PnL()

	cacheKey, err := inputHash(&p, pnl, series.Start, series.End)
	if err != nil {
		return nil, err
	}

	// 시드 고정 시에만 결과가 결정적 → 캐시 가능
	cacheable := p.Simulation.Seed != 0 && s.cache != nil
	if cacheable {
		var cached Assessment
		found, err := s.cache.Get(ctx, redis.SweepKey(cacheKey), &cached)
		if err != nil {
			log.WithError(err).Warn("Sweep cache read failed")
		}
		if found {
			cached.Cached = true
			log.WithField("assessment_id", cached.ID).Info("Assessment served from cache")
			return &cached, verdictError(&cached)
		}
	}

	opts, err := p.EngineOptions(len(pnl))
	if err != nil {
		return nil, err
	}
	opts = append(opts, montecarlo.WithLogger(log))
	if req.Progress != nil {
		opts = append(opts, montecarlo.WithProgress(req.Progress))
	}

	engine, err := montecarlo.NewEngine(pnl, opts...)
	if err != nil {
		return nil, err
	}
	if err := engine.Configure(p.Simulation.RuinEquity, series.Start, series.End); err != nil {
		return nil, err
	}

	started := time.Now()
	table, err := engine.Run(ctx, p.Simulation.BaseEquity, p.Simulation.Steps)
	if err != nil {
		return nil, err
	}

	a := &Assessment{
		ID:         uuid.New().String(),
		ProfileID:  p.Meta.ProfileID,
		StrategyID: p.Meta.StrategyID,
		RunID:      engine.RunID(),
		Seed:       engine.Seed(),
		Trades:     engine.NumTrades(),
		Config:     *engine.Config(),
		Start:      series.Start,
		End:        series.End,
		Table:      table,
		CreatedAt:  time.Now(),
	}

	a.Best, err = engine.BestRun(p.Simulation.TargetRiskOfRuinPct)
	if err != nil {
		return nil, err
	}

	rec, err := engine.Recommendation(series.Start, series.End)
	switch {
	case errors.Is(err, montecarlo.ErrExcessiveBaseEquity):
		a.Verdict = VerdictExcessiveBaseEquity
	case err != nil:
		return nil, err
	case rec.IsPass:
		a.Verdict = VerdictPass
		a.Recommendation = rec
	default:
		a.Verdict = VerdictFail
		a.Recommendation = rec
	}
	a.Duration = time.Since(started)

	if cacheable {
		if err := s.cache.Set(ctx, redis.SweepKey(cacheKey), a, s.ttl); err != nil {
			log.WithError(err).Warn("Sweep cache write failed")
		}
	}

	log.WithFields(map[string]interface{}{
		"assessment_id": a.ID,
		"verdict":       a.Verdict,
		"duration":      a.Duration,
	}).Info("Assessment completed")

	return a, verdictError(a)
}

func verdictError(a *Assessment) error {
	if a.Verdict == VerdictExcessiveBaseEquity {
		return fmt.Errorf("%w (lowest level %v)", montecarlo.ErrExcessiveBaseEquity, lowestLevel(a.Table))
	}
	return nil
}

func lowestLevel(table []montecarlo.AggregatePoint) float64 {
	if len(table) == 0 {
		return 0
	}
	return table[0].StartingEquity
}

// inputHash covers everything that determines a sweep table.
func inputHash(p *profile.Profile, pnl []float64, start, end time.Time) (string, error) {
	profileHash, err := profile.Hash(p)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(struct {
		Profile string    `json:"profile"`
		PnL     []float64 `json:"pnl"`
		Start   time.Time `json:"start"`
		End     time.Time `json:"end"`
	}{profileHash, pnl, start.UTC(), end.UTC()})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
