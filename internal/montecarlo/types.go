package montecarlo

import (
	"math"
	"time"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultRunsPerPoint 레벨당 시뮬레이션 경로 수
	DefaultRunsPerPoint = 2500

	// DefaultSteps 자본 래더 단계 수
	DefaultSteps = 11

	// DefaultTargetRiskOfRuinPct best run 선택 기준 (파산 확률 %)
	DefaultTargetRiskOfRuinPct = 10.0

	daysPerYear  = 365
	daysPerMonth = 30
)

// =============================================================================
// Input Types
// =============================================================================

// TradeList 청산된 거래별 손익 (계좌 통화 단위, 순서 유지)
type TradeList []float64

// SimulationConfig 시뮬레이션 설정
// ⭐ RunsPerPoint는 한 sweep 안에서 모든 자본 레벨에 동일하게 적용
type SimulationConfig struct {
	RuinEquity    float64 `json:"ruin_equity"`     // 이 값 미만으로 떨어지면 파산
	TradesPerYear int     `json:"trades_per_year"` // 경로당 샘플 크기
	RunsPerPoint  int     `json:"runs_per_point"`  // 레벨당 경로 수 (기본: 2500)
}

// Policy decides whether the qualifying point passes.
type Policy struct {
	MaxRuinPct            float64 `json:"max_ruin_pct"`             // is_ruined_pct <= 이 값
	MinReturnsPerDrawdown float64 `json:"min_returns_per_drawdown"` // returns/drawdown >= 이 값
}

// DefaultPolicy 기본 판정 기준
func DefaultPolicy() Policy {
	return Policy{
		MaxRuinPct:            10,
		MinReturnsPerDrawdown: 2.0,
	}
}

// =============================================================================
// Output Types
// =============================================================================

// PathResult 단일 경로 결과 (집계 후 폐기)
type PathResult struct {
	Profit             float64 `json:"profit"`
	ReturnsPct         int     `json:"returns_pct"` // 정수 절삭 (반올림 아님)
	DrawdownPct        float64 `json:"drawdown_pct"`
	IsRuined           bool    `json:"is_ruined"`
	IsProfitable       bool    `json:"is_profitable"`
	ReturnsPerDrawdown float64 `json:"returns_per_drawdown"`
}

// AggregatePoint 자본 레벨 하나에 대한 집계 결과
type AggregatePoint struct {
	StartingEquity     float64 `json:"starting_equity"`
	Profit             float64 `json:"profit"`               // median
	ReturnsPct         float64 `json:"returns_pct"`          // median
	DrawdownPct        float64 `json:"drawdown_pct"`         // median
	ReturnsPerDrawdown float64 `json:"returns_per_drawdown"` // median
	IsRuinedPct        float64 `json:"is_ruined_pct"`        // 0..100
	IsProfitablePct    float64 `json:"is_profitable_pct"`    // 0..100
}

// RecommendationResult 최초 적격 포인트 + 판정 결과
type RecommendationResult struct {
	AggregatePoint
	IsPass           bool      `json:"is_pass"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	Months           float64   `json:"months"`
	AvgMonthlyProfit float64   `json:"avg_monthly_profit"`
}

// =============================================================================
// Calendar helpers
// =============================================================================

// DaysBetween returns the whole number of days from start to end, floored.
func DaysBetween(start, end time.Time) int {
	return int(math.Floor(end.Sub(start).Hours() / 24))
}

// TradesPerYear annualizes a historical trade count over the given span.
func TradesPerYear(numTrades int, start, end time.Time) (int, error) {
	days := DaysBetween(start, end)
	if days <= 0 {
		return 0, configError("day span must be > 0, got %d", days)
	}
	return numTrades * daysPerYear / days, nil
}
