package montecarlo

import "math"

// SimulatePath walks one sampled trade sequence from startingEquity.
//
// Ruin is flagged the first time equity drops below ruinEquity, but the path
// is not truncated there: profit, drawdown and returns always cover the whole
// sample. A path that never draws down gets ReturnsPerDrawdown = 0.
func SimulatePath(sample []float64, startingEquity, ruinEquity float64) PathResult {
	var result PathResult

	equity := startingEquity
	hwm := startingEquity
	profit := 0.0
	maxDrawdown := 0.0

	for _, trade := range sample {
		equity += trade
		profit += trade

		if !result.IsRuined && equity < ruinEquity {
			result.IsRuined = true
		}

		if equity > hwm {
			hwm = equity
		}
		if equity < hwm {
			if dd := 100 * (1 - equity/hwm); dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	result.Profit = profit
	result.ReturnsPct = int(math.Trunc(100 * ((startingEquity+profit)/startingEquity - 1)))
	result.DrawdownPct = maxDrawdown
	result.IsProfitable = profit >= 0
	if maxDrawdown != 0 {
		result.ReturnsPerDrawdown = float64(result.ReturnsPct) / maxDrawdown
	}

	return result
}
