package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/fundscreen/internal/contracts"
	"github.com/wonny/fundscreen/internal/s0_data/quality"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted command header
func PrintHeader(title string, fields map[string]string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-10s: %s\n", k, fields[k])
	}
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

var rankingColumns = []string{"#", "Ticker", "EY", "ROC", "DY", "D/E", "Ranks", "Score"}
var rankingWidths = []int{4, 10, 9, 9, 9, 9, 15, 5}

// PrintRankingTable prints ranked results as a console table
func PrintRankingTable(results []contracts.RankedResult) {
	PrintTableHeader(rankingColumns, rankingWidths)
	for _, r := range results {
		PrintTableRow([]string{
			strconv.Itoa(r.OverallRank),
			r.Identifier,
			formatRatio(r.Metrics.EarningsYield),
			formatRatio(r.Metrics.ReturnOnCapital),
			formatRatio(r.Metrics.DividendYield),
			formatRatio(r.Metrics.DebtRisk),
			fmt.Sprintf("%d/%d/%d/%d", r.Ranks.EarningsYield, r.Ranks.ReturnOnCapital, r.Ranks.DividendYield, r.Ranks.DebtRisk),
			strconv.Itoa(r.CompositeScore),
		}, rankingWidths)
	}
}

// PrintExclusions prints the exclusion summary and each dropped record
func PrintExclusions(report contracts.ExclusionReport) {
	if report.Count() == 0 {
		return
	}

	PrintWarning(fmt.Sprintf("%d of %d records excluded", report.Count(), report.TotalInput))

	counts := report.CountsByReason()
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Printf("   %-22s : %d\n", reason, counts[reason])
	}

	items := make([]string, 0, len(report.Excluded))
	for _, e := range report.Excluded {
		items = append(items, fmt.Sprintf("%s (%s)", e.Identifier, e.Reason))
	}
	PrintList(items)
}

// PrintQuality prints a quality gate snapshot
func PrintQuality(snap *quality.Snapshot) {
	fmt.Println()
	fmt.Printf("📊 Data Quality (score %.2f, %d/%d complete)\n", snap.QualityScore, snap.CompleteRecords, snap.TotalRecords)

	for _, f := range quality.Fields() {
		fmt.Printf("   %-18s : %5.1f%%\n", f, snap.Coverage[f]*100)
	}

	if !snap.Passed() {
		PrintWarning("Below threshold: " + strings.Join(snap.Failures, ", "))
	}
}

// formatRatio prints a ratio with four decimals
func formatRatio(d decimal.Decimal) string {
	return d.StringFixed(4)
}
