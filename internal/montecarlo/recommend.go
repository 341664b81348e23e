package montecarlo

import (
	"fmt"
	"time"
)

// Best returns the first point, in ascending equity order, whose risk of ruin
// is strictly below targetRiskOfRuinPct. nil when none qualifies.
func Best(points []AggregatePoint, targetRiskOfRuinPct float64) *AggregatePoint {
	for i := range points {
		if points[i].IsRuinedPct < targetRiskOfRuinPct {
			p := points[i]
			return &p
		}
	}
	return nil
}

// Recommend renders the verdict on the best point under the default target.
func Recommend(points []AggregatePoint, start, end time.Time) (*RecommendationResult, error) {
	return RecommendWith(points, start, end, DefaultTargetRiskOfRuinPct, DefaultPolicy())
}

// RecommendWith is Recommend with an explicit target and pass policy.
func RecommendWith(points []AggregatePoint, start, end time.Time, targetRiskOfRuinPct float64, policy Policy) (*RecommendationResult, error) {
	best := Best(points, targetRiskOfRuinPct)
	if best == nil {
		return nil, ErrExcessiveBaseEquity
	}

	months := float64(DaysBetween(start, end)) / daysPerMonth
	if months == 0 {
		return nil, fmt.Errorf("%w: recommendation period is zero months (%s ~ %s)",
			ErrInvalidConfig, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	return &RecommendationResult{
		AggregatePoint:   *best,
		IsPass:           best.IsRuinedPct <= policy.MaxRuinPct && best.ReturnsPerDrawdown >= policy.MinReturnsPerDrawdown,
		StartDate:        start,
		EndDate:          end,
		Months:           months,
		AvgMonthlyProfit: best.Profit / months,
	}, nil
}
