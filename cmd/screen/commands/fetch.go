package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscreen/internal/s0_data"
	"github.com/wonny/fundscreen/internal/s0_data/collector"
	"github.com/wonny/fundscreen/internal/s0_data/quality"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [tickers...]",
	Short: "Yahoo Finance 재무 수집",
	Long: `Yahoo Finance 에서 종목별 재무 데이터를 수집합니다.

인자가 없으면 전략 파일의 universe (tickers + tickers_file) 를 사용합니다.
결과는 <data_dir>/<region>_fundamentals_<timestamp>.csv 로 저장하고,
DATABASE_URL 이 설정되어 있으면 data.fundamentals 에도 저장합니다.

Example:
  go run ./cmd/screen fetch AAPL MSFT KO
  go run ./cmd/screen fetch --strategy config/strategy/us_default.yaml --workers 8
  go run ./cmd/screen fetch --page 0700.HK   # quoteSummary 차단 시 quote 페이지만 사용`,
	RunE: runFetch,
}

var (
	fetchWorkers int
	fetchPage    bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVar(&fetchWorkers, "workers", 0, "concurrent workers (default SCREEN_WORKERS)")
	fetchCmd.Flags().BoolVar(&fetchPage, "page", false, "parse the Yahoo quote page only (skip quoteSummary and cache)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	tickers := args
	if len(tickers) == 0 {
		if tickers, err = a.strategy.ResolveTickers(); err != nil {
			return err
		}
	}
	if len(tickers) == 0 {
		return errors.New("no tickers: pass tickers or configure universe in the strategy file")
	}

	workers := fetchWorkers
	if workers <= 0 {
		workers = a.cfg.Screen.Workers
	}

	col, source := a.collector(), "quoteSummary"
	if fetchPage {
		col, source = a.collectorFrom(a.yahooClient().PageOnly(), "yahoo_page"), "quote page"
	}

	PrintHeader("Fundamental Fetch", map[string]string{
		"Region":  a.region(),
		"Tickers": fmt.Sprintf("%d", len(tickers)),
		"Workers": fmt.Sprintf("%d", workers),
		"Source":  source,
	})

	start := time.Now()
	results, err := col.Collect(ctx, tickers, collector.Config{Workers: workers})
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	records := collector.Records(results)
	PrintQuality(quality.NewGate(a.strategy.Quality).Check(records, time.Now()))

	if len(records) > 0 {
		path := filepath.Join(a.cfg.Screen.DataDir, s0_data.SnapshotFileName(a.region(), time.Now()))
		if err := s0_data.WriteRecordsFile(path, records); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		PrintInfo("Snapshot: " + path)
	}

	if failed := collector.Failed(results); len(failed) > 0 {
		PrintWarning(fmt.Sprintf("%d tickers failed", len(failed)))
		PrintList(failed)
	}

	PrintSuccess(fmt.Sprintf("Fetched %d/%d tickers in %.2fs", len(records), len(tickers), time.Since(start).Seconds()))
	return nil
}
