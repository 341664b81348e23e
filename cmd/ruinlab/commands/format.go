package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/decisiveml/ruinlab/internal/assessment"
	"github.com/decisiveml/ruinlab/internal/montecarlo"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const dateLayout = "2006-01-02"

var (
	sweepColumns = []string{"Equity", "Profit", "Return%", "Drawdown%", "Ret/DD", "Ruin%", "Profitable%"}
	sweepWidths  = []int{12, 12, 9, 10, 8, 7, 11}
)

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════════════════════")
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────────────────────")
}

// PrintHeader prints a titled header block
func PrintHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  %s\n", title)
	PrintSeparator(w)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "❌ %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintProgress prints a progress step with counter
// Example: [Sweep] equity 12500: ruin 4.2% [2/11]
func PrintProgress(w io.Writer, tag string, message string, current int, total int) {
	fmt.Fprintf(w, "[%s] %s [%d/%d]\n", tag, message, current, total)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row (right-aligned, numeric columns)
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// sweepRow formats one aggregate point for the sweep table
func sweepRow(p montecarlo.AggregatePoint) []string {
	return []string{
		fmt.Sprintf("%.0f", p.StartingEquity),
		fmt.Sprintf("%.2f", p.Profit),
		fmt.Sprintf("%.1f", p.ReturnsPct),
		fmt.Sprintf("%.2f", p.DrawdownPct),
		fmt.Sprintf("%.2f", p.ReturnsPerDrawdown),
		fmt.Sprintf("%.1f", p.IsRuinedPct),
		fmt.Sprintf("%.1f", p.IsProfitablePct),
	}
}

// PrintAssessment renders the sweep table and the verdict
func PrintAssessment(w io.Writer, a *assessment.Assessment) {
	PrintHeader(w, fmt.Sprintf("Risk of Ruin: %s", a.StrategyID))
	PrintKeyValue(w, "Profile", a.ProfileID, 16)
	PrintKeyValue(w, "Period", fmt.Sprintf("%s ~ %s", a.Start.Format(dateLayout), a.End.Format(dateLayout)), 16)
	PrintKeyValue(w, "Trades", fmt.Sprintf("%d (%d / year)", a.Trades, a.Config.TradesPerYear), 16)
	PrintKeyValue(w, "Ruin equity", fmt.Sprintf("%.2f", a.Config.RuinEquity), 16)
	PrintKeyValue(w, "Runs / level", fmt.Sprintf("%d", a.Config.RunsPerPoint), 16)
	PrintKeyValue(w, "Seed", fmt.Sprintf("%d", a.Seed), 16)
	if a.Cached {
		PrintKeyValue(w, "Cached", "yes", 16)
	}
	PrintSeparator(w)

	PrintTableHeader(w, sweepColumns, sweepWidths)
	for _, p := range a.Table {
		PrintTableRow(w, sweepRow(p), sweepWidths)
	}
	PrintSeparator(w)

	if a.Recommendation == nil {
		PrintError(w, "No starting equity keeps risk of ruin under the target; raise --base")
		return
	}

	rec := a.Recommendation
	PrintKeyValue(w, "Starting equity", fmt.Sprintf("%.0f", rec.StartingEquity), 16)
	PrintKeyValue(w, "Risk of ruin", fmt.Sprintf("%.1f%%", rec.IsRuinedPct), 16)
	PrintKeyValue(w, "Return / DD", fmt.Sprintf("%.2f", rec.ReturnsPerDrawdown), 16)
	PrintKeyValue(w, "Months", fmt.Sprintf("%.1f", rec.Months), 16)
	PrintKeyValue(w, "Avg monthly P&L", fmt.Sprintf("%.2f", rec.AvgMonthlyProfit), 16)
	fmt.Fprintln(w)

	if rec.IsPass {
		PrintSuccess(w, "MonteCarlo Risk Assessment: PASSED")
	} else {
		PrintError(w, "MonteCarlo Risk Assessment: FAILED")
	}
}
