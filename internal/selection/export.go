package selection

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wonny/fundscreen/internal/contracts"
)

// ExportHeader is the column order of WriteCSV
var ExportHeader = []string{
	"Ticker", "Company Name",
	"Earnings Yield", "Return On Capital", "Dividend Yield", "Debt Risk",
	"Earnings Yield Rank", "Return On Capital Rank", "Dividend Yield Rank", "Debt Risk Rank",
	"Composite Score", "Overall Rank",
}

// WriteCSV writes ranked results in ranked order
func WriteCSV(w io.Writer, results []contracts.RankedResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ExportHeader); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Identifier, r.Name,
			r.Metrics.EarningsYield.String(),
			r.Metrics.ReturnOnCapital.String(),
			r.Metrics.DividendYield.String(),
			r.Metrics.DebtRisk.String(),
			strconv.Itoa(r.Ranks.EarningsYield),
			strconv.Itoa(r.Ranks.ReturnOnCapital),
			strconv.Itoa(r.Ranks.DividendYield),
			strconv.Itoa(r.Ranks.DebtRisk),
			strconv.Itoa(r.CompositeScore),
			strconv.Itoa(r.OverallRank),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes `<dir>/<region>_screened.csv` and returns its path
func WriteCSVFile(dir, region string, results []contracts.RankedResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, ScreenedFileName(region))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}

// ScreenedFileName 지역별 순위 결과 파일 이름
func ScreenedFileName(region string) string {
	return region + "_screened.csv"
}
