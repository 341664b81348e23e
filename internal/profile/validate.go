package profile

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks required constraints. Zero simulation fields are allowed
// here and filled later by ApplyDefaults.
func Validate(p *Profile) error {
	// === Meta ===
	if p.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}
	if p.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Source ===
	switch p.Source.Kind {
	case SourceCSV:
		if p.Source.Path == "" {
			return ValidationError{"source.path", "required for csv source"}
		}
	case SourcePostgres, SourceLedger, SourceInline:
	default:
		return ValidationError{"source.kind", "must be csv, postgres, ledger or inline"}
	}

	from, to, err := p.Source.Window()
	if err != nil {
		return ValidationError{"source", fmt.Sprintf("from/to must be YYYY-MM-DD: %v", err)}
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return ValidationError{"source", "from must be before to"}
	}

	// === Simulation ===
	s := p.Simulation
	if s.RuinEquity < 0 || math.IsNaN(s.RuinEquity) {
		return ValidationError{"simulation.ruin_equity", "must be >= 0"}
	}
	if s.BaseEquity <= 0 {
		return ValidationError{"simulation.base_equity", "must be > 0"}
	}
	if math.Floor(s.BaseEquity/4) < 1 {
		return ValidationError{"simulation.base_equity", "must be >= 4 so the ladder step is at least 1"}
	}
	if s.Steps < 0 {
		return ValidationError{"simulation.steps", "must be >= 0"}
	}
	if s.RunsPerPoint < 0 {
		return ValidationError{"simulation.runs_per_point", "must be >= 0"}
	}
	if s.Workers < 0 {
		return ValidationError{"simulation.workers", "must be >= 0"}
	}
	if s.TargetRiskOfRuinPct < 0 || s.TargetRiskOfRuinPct > 100 {
		return ValidationError{"simulation.target_risk_of_ruin_pct", "must be in [0, 100]"}
	}

	switch s.Sampling.Weighting {
	case "", WeightingUniform:
	case WeightingRecency:
		if s.Sampling.HalfLifeTrades <= 0 {
			return ValidationError{"simulation.sampling.half_life_trades", "must be > 0 for recency weighting"}
		}
	default:
		return ValidationError{"simulation.sampling.weighting", "must be uniform or recency"}
	}

	// === Policy ===
	if p.Policy.MaxRuinPct < 0 || p.Policy.MaxRuinPct > 100 {
		return ValidationError{"policy.max_ruin_pct", "must be in [0, 100]"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(p *Profile) []Warning {
	var warnings []Warning

	if p.Simulation.RuinEquity >= p.Simulation.BaseEquity {
		warnings = append(warnings, Warning{
			Code:    "RUIN_ABOVE_BASE",
			Message: "ruin_equity >= base_equity: 첫 레벨은 시작부터 파산 위험",
		})
	}

	if p.Simulation.RunsPerPoint > 0 && p.Simulation.RunsPerPoint < 500 {
		warnings = append(warnings, Warning{
			Code:    "FEW_RUNS",
			Message: "runs_per_point < 500: 파산 확률 추정 오차 큼",
		})
	}

	if p.Simulation.Seed == 0 {
		warnings = append(warnings, Warning{
			Code:    "UNSEEDED",
			Message: "seed 미지정: 실행마다 결과가 달라지고 캐시되지 않음",
		})
	}

	return warnings
}
