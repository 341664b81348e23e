package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/decisiveml/ruinlab/internal/assessment"
	"github.com/decisiveml/ruinlab/internal/montecarlo"
	"github.com/decisiveml/ruinlab/internal/profile"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "파산 확률 시뮬레이션 실행",
	Long: `체결 손익을 재표본추출하여 시작 자본 사다리별 통계를 계산합니다.

입력 (택1):
  --trades   CSV 파일 (closed_at,pnl[,symbol])
  --strategy PostgreSQL trading.closed_trades 의 전략 ID
  --profile  YAML 프로필 (플래그로 개별 항목 덮어쓰기 가능)

Example:
  go run ./cmd/ruinlab simulate --trades trades.csv --ruin 5000 --base 10000
  go run ./cmd/ruinlab simulate --trades trades.csv --ruin 5000 --base 10000 --steps 11 --runs 2500 --seed 42
  go run ./cmd/ruinlab simulate --profile config/profiles/es_trend.yaml --runs 500
  go run ./cmd/ruinlab simulate --strategy es-trend --ruin 5000 --base 10000 --from 2023-01-01`,
	RunE: runSimulate,
}

var (
	simTrades    string
	simStrategy  string
	simProfile   string
	simRuin      float64
	simBase      float64
	simSteps     int
	simRuns      int
	simSeed      uint64
	simTarget    float64
	simWorkers   int
	simWeighting string
	simHalfLife  float64
	simFrom      string
	simTo        string
	simJSON      bool
	simQuiet     bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	f := simulateCmd.Flags()
	f.StringVar(&simTrades, "trades", "", "closed trades CSV file")
	f.StringVar(&simStrategy, "strategy", "", "strategy ID (postgres source, or label for --trades)")
	f.StringVar(&simProfile, "profile", "", "profile YAML file")
	f.Float64Var(&simRuin, "ruin", 0, "ruin equity: a path is ruined once equity drops below it")
	f.Float64Var(&simBase, "base", 0, "lowest starting equity of the ladder")
	f.IntVar(&simSteps, "steps", 0, "number of capital levels (default MC_STEPS)")
	f.IntVar(&simRuns, "runs", 0, "paths per level (default MC_RUNS_PER_POINT)")
	f.Uint64Var(&simSeed, "seed", 0, "random seed, 0 = time-based (default MC_SEED)")
	f.Float64Var(&simTarget, "target", 0, "target risk of ruin in percent (default MC_TARGET_RISK_PCT)")
	f.IntVar(&simWorkers, "workers", 0, "concurrent paths (default MC_WORKERS)")
	f.StringVar(&simWeighting, "weighting", "", "uniform | recency")
	f.Float64Var(&simHalfLife, "half-life", 0, "recency half-life in trades")
	f.StringVar(&simFrom, "from", "", "period start YYYY-MM-DD")
	f.StringVar(&simTo, "to", "", "period end YYYY-MM-DD")
	f.BoolVar(&simJSON, "json", false, "print the assessment as JSON")
	f.BoolVarP(&simQuiet, "quiet", "q", false, "hide per-level progress")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	p, err := simulationProfile(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	stderr := cmd.ErrOrStderr()
	for _, w := range profile.Warn(p) {
		PrintWarning(stderr, fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	req := assessment.Request{Profile: p}
	if !simQuiet && !simJSON {
		req.Progress = func(i, total int, point montecarlo.AggregatePoint) {
			PrintProgress(stderr, "Sweep", fmt.Sprintf("equity %.0f: ruin %.1f%%", point.StartingEquity, point.IsRuinedPct), i+1, total)
		}
	}

	result, err := a.service.Assess(ctx, req)
	if result == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if simJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil {
			return encErr
		}
	} else {
		PrintAssessment(out, result)
	}

	if errors.Is(err, montecarlo.ErrExcessiveBaseEquity) {
		return err
	}
	if result.Verdict == assessment.VerdictFail {
		return errors.New("risk assessment failed")
	}
	return err
}

// simulationProfile builds the profile from --profile and the overriding flags
func simulationProfile(cmd *cobra.Command) (*profile.Profile, error) {
	flags := cmd.Flags()

	var p *profile.Profile
	switch {
	case simProfile != "":
		loaded, err := profile.Load(simProfile)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		p = loaded
	case simTrades != "":
		strategyID := simStrategy
		if strategyID == "" {
			strategyID = strings.TrimSuffix(filepath.Base(simTrades), filepath.Ext(simTrades))
		}
		p = &profile.Profile{
			Meta:   profile.Meta{ProfileID: "cli:" + strategyID, StrategyID: strategyID},
			Source: profile.Source{Kind: profile.SourceCSV, Path: simTrades},
		}
	case simStrategy != "":
		p = &profile.Profile{
			Meta:   profile.Meta{ProfileID: "cli:" + simStrategy, StrategyID: simStrategy},
			Source: profile.Source{Kind: profile.SourcePostgres},
		}
	default:
		return nil, errors.New("one of --trades, --strategy or --profile is required")
	}

	if simProfile == "" && !flags.Changed("ruin") {
		return nil, errors.New("--ruin is required without --profile")
	}

	s := &p.Simulation
	if flags.Changed("ruin") {
		s.RuinEquity = simRuin
	}
	if flags.Changed("base") {
		s.BaseEquity = simBase
	}
	if flags.Changed("steps") {
		s.Steps = simSteps
	}
	if flags.Changed("runs") {
		s.RunsPerPoint = simRuns
	}
	if flags.Changed("seed") {
		s.Seed = simSeed
	}
	if flags.Changed("target") {
		s.TargetRiskOfRuinPct = simTarget
	}
	if flags.Changed("workers") {
		s.Workers = simWorkers
	}
	if flags.Changed("weighting") {
		s.Sampling.Weighting = simWeighting
	}
	if flags.Changed("half-life") {
		s.Sampling.HalfLifeTrades = simHalfLife
	}
	if flags.Changed("from") {
		p.Source.From = simFrom
	}
	if flags.Changed("to") {
		p.Source.To = simTo
	}

	if err := profile.Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}
