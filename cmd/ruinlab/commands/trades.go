package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/decisiveml/ruinlab/internal/trades"
)

// tradesCmd represents the trades command
var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "체결 내역 관리 (PostgreSQL)",
	Long: `trading.closed_trades 테이블의 체결 손익을 관리합니다.
DATABASE_URL 이 필요합니다.

Example:
  go run ./cmd/ruinlab trades import --strategy es-trend --file config/profiles/es_trend.csv
  go run ./cmd/ruinlab trades list`,
}

var (
	tradesImportCmd = &cobra.Command{
		Use:   "import",
		Short: "CSV 체결 내역 적재",
		RunE:  runTradesImport,
	}

	tradesListCmd = &cobra.Command{
		Use:   "list",
		Short: "전략별 체결 요약",
		RunE:  runTradesList,
	}

	importStrategy string
	importFile     string
)

func init() {
	rootCmd.AddCommand(tradesCmd)
	tradesCmd.AddCommand(tradesImportCmd)
	tradesCmd.AddCommand(tradesListCmd)

	tradesImportCmd.Flags().StringVar(&importStrategy, "strategy", "", "strategy ID")
	tradesImportCmd.Flags().StringVar(&importFile, "file", "", "CSV file (closed_at,pnl[,symbol])")
	_ = tradesImportCmd.MarkFlagRequired("strategy")
	_ = tradesImportCmd.MarkFlagRequired("file")
}

func openRepository(ctx context.Context) (*app, *trades.Repository, error) {
	a, err := setup(ctx)
	if err != nil {
		return nil, nil, err
	}
	if a.db == nil {
		a.close()
		return nil, nil, errors.New("DATABASE_URL is not set")
	}
	return a, trades.NewRepository(a.db.Pool), nil
}

func runTradesImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(importFile)
	if err != nil {
		return err
	}
	defer f.Close()

	list, err := trades.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", importFile, err)
	}

	ctx := cmd.Context()
	a, repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := repo.Save(ctx, importStrategy, list); err != nil {
		return err
	}

	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Imported %d trades for %s", len(list), importStrategy))
	return nil
}

func runTradesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	summaries, err := repo.ListStrategies(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	columns := []string{"Strategy", "Trades", "First", "Last"}
	widths := []int{24, 8, 12, 12}
	PrintTableHeader(out, columns, widths)
	for _, s := range summaries {
		PrintTableRow(out, []string{
			s.StrategyID,
			fmt.Sprintf("%d", s.Trades),
			s.FirstClose.Format(dateLayout),
			s.LastClose.Format(dateLayout),
		}, widths)
	}
	return nil
}
