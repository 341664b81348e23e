package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilesDir string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ruinlab",
	Short: "ruinlab - Monte Carlo risk-of-ruin 분석",
	Long: `ruinlab Unified CLI

과거 체결 손익을 부트스트랩 재표본추출하여
시작 자본별 파산 확률과 수익/드로다운을 추정합니다.

Usage:
  go run ./cmd/ruinlab [command]

Examples:
  go run ./cmd/ruinlab simulate --trades trades.csv --ruin 5000 --base 10000
  go run ./cmd/ruinlab simulate --profile config/profiles/es_trend.yaml
  go run ./cmd/ruinlab api
  go run ./cmd/ruinlab scheduler start
  go run ./cmd/ruinlab test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&profilesDir, "profiles-dir", "config/profiles", "profile YAML directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}
