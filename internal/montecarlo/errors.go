package montecarlo

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidConfig covers every rejected input; nothing is simulated after it.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyTrades is returned when there is nothing to resample.
	ErrEmptyTrades = fmt.Errorf("%w: trade list is empty", ErrInvalidConfig)

	// ErrExcessiveBaseEquity means even the lowest capital level was too risky.
	// Raise the base equity and run again.
	ErrExcessiveBaseEquity = errors.New("excessive base equity: no run under the risk of ruin target")

	// ErrNotConfigured is returned by Run before Configure.
	ErrNotConfigured = errors.New("engine not configured")

	// ErrNotRun is returned by BestRun/Recommendation before Run.
	ErrNotRun = errors.New("no simulation results")
)

func configError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks a SimulationConfig before any simulation work starts.
func (c SimulationConfig) Validate() error {
	if c.RunsPerPoint <= 0 {
		return configError("RunsPerPoint must be > 0, got %d", c.RunsPerPoint)
	}
	if c.TradesPerYear <= 0 {
		return configError("TradesPerYear must be > 0, got %d", c.TradesPerYear)
	}
	if c.RuinEquity < 0 || math.IsNaN(c.RuinEquity) {
		return configError("RuinEquity must be >= 0, got %v", c.RuinEquity)
	}
	return nil
}
