package profile

import (
	"time"

	"github.com/decisiveml/ruinlab/internal/montecarlo"
	"github.com/decisiveml/ruinlab/pkg/config"
)

// Source kinds
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceLedger   = "ledger"
	SourceInline   = "inline" // API 요청 본문의 거래 목록
)

// Sampling weightings
const (
	WeightingUniform = "uniform"
	WeightingRecency = "recency"
)

const dateLayout = "2006-01-02"

// Profile is one risk-of-ruin assessment: where the trades come from, how
// the sweep runs and what counts as a pass.
type Profile struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Source     Source     `yaml:"source" json:"source"`
	Simulation Simulation `yaml:"simulation" json:"simulation"`
	Policy     Policy     `yaml:"policy" json:"policy"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID  string `yaml:"profile_id" json:"profile_id"`
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Schedule   string `yaml:"schedule,omitempty" json:"schedule,omitempty"` // cron (초 포함), 비우면 스케줄러 제외
}

// Source 거래 데이터 위치
type Source struct {
	Kind string `yaml:"kind" json:"kind"`                     // csv | postgres | ledger | inline
	Path string `yaml:"path,omitempty" json:"path,omitempty"` // csv 전용
	From string `yaml:"from,omitempty" json:"from,omitempty"` // YYYY-MM-DD
	To   string `yaml:"to,omitempty" json:"to,omitempty"`     // YYYY-MM-DD
}

// Simulation 몬테카를로 파라미터. 0 값은 환경 설정 기본값으로 채움
type Simulation struct {
	RuinEquity          float64  `yaml:"ruin_equity" json:"ruin_equity"`
	BaseEquity          float64  `yaml:"base_equity" json:"base_equity"`
	Steps               int      `yaml:"steps" json:"steps"`
	RunsPerPoint        int      `yaml:"runs_per_point" json:"runs_per_point"`
	Seed                uint64   `yaml:"seed" json:"seed"`
	Workers             int      `yaml:"workers" json:"workers"`
	TargetRiskOfRuinPct float64  `yaml:"target_risk_of_ruin_pct" json:"target_risk_of_ruin_pct"`
	Sampling            Sampling `yaml:"sampling" json:"sampling"`
}

// Sampling 부트스트랩 가중 방식
type Sampling struct {
	Weighting      string  `yaml:"weighting" json:"weighting"` // uniform | recency
	HalfLifeTrades float64 `yaml:"half_life_trades,omitempty" json:"half_life_trades,omitempty"`
}

// Policy 판정 기준
type Policy struct {
	MaxRuinPct            float64 `yaml:"max_ruin_pct" json:"max_ruin_pct"`
	MinReturnsPerDrawdown float64 `yaml:"min_returns_per_drawdown" json:"min_returns_per_drawdown"`
}

// ApplyDefaults fills unset simulation and policy fields from the
// environment's simulation defaults.
func (p *Profile) ApplyDefaults(defaults config.SimulationConfig) {
	s := &p.Simulation
	if s.Steps == 0 {
		s.Steps = defaults.Steps
	}
	if s.RunsPerPoint == 0 {
		s.RunsPerPoint = defaults.RunsPerPoint
	}
	if s.Seed == 0 {
		s.Seed = defaults.Seed
	}
	if s.Workers == 0 {
		s.Workers = defaults.Workers
	}
	if s.TargetRiskOfRuinPct == 0 {
		s.TargetRiskOfRuinPct = defaults.TargetRiskOfRuinPct
	}
	if s.Sampling.Weighting == "" {
		s.Sampling.Weighting = WeightingUniform
	}

	// 판정 기준은 필드별로 채움 (일부만 지정해도 나머지 규칙 유지)
	def := montecarlo.DefaultPolicy()
	if p.Policy.MaxRuinPct == 0 {
		p.Policy.MaxRuinPct = def.MaxRuinPct
	}
	if p.Policy.MinReturnsPerDrawdown == 0 {
		p.Policy.MinReturnsPerDrawdown = def.MinReturnsPerDrawdown
	}
}

// Window returns the parsed from/to dates. Unset dates are zero.
func (s Source) Window() (from, to time.Time, err error) {
	if s.From != "" {
		if from, err = time.Parse(dateLayout, s.From); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if s.To != "" {
		if to, err = time.Parse(dateLayout, s.To); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}

// EnginePolicy converts to the simulator's policy.
func (p Policy) EnginePolicy() montecarlo.Policy {
	return montecarlo.Policy{
		MaxRuinPct:            p.MaxRuinPct,
		MinReturnsPerDrawdown: p.MinReturnsPerDrawdown,
	}
}

// Weights returns per-trade sampling weights for n trades, or nil for
// uniform resampling.
func (s Sampling) Weights(n int) ([]float64, error) {
	if s.Weighting != WeightingRecency {
		return nil, nil
	}
	return montecarlo.RecencyWeights(n, s.HalfLifeTrades)
}

// EngineOptions builds the engine options for a trade list of n trades.
func (p *Profile) EngineOptions(n int) ([]montecarlo.Option, error) {
	opts := []montecarlo.Option{
		montecarlo.WithRunsPerPoint(p.Simulation.RunsPerPoint),
		montecarlo.WithWorkers(p.Simulation.Workers),
		montecarlo.WithSeed(p.Simulation.Seed),
		montecarlo.WithTargetRiskOfRuin(p.Simulation.TargetRiskOfRuinPct),
		montecarlo.WithPolicy(p.Policy.EnginePolicy()),
	}

	weights, err := p.Simulation.Sampling.Weights(n)
	if err != nil {
		return nil, err
	}
	if weights != nil {
		opts = append(opts, montecarlo.WithWeights(weights))
	}
	return opts, nil
}
