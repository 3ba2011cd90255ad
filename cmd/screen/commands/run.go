package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscreen/internal/s0_data"
	"github.com/wonny/fundscreen/internal/selection"
	"github.com/wonny/fundscreen/internal/strategyconfig"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "CSV 스냅샷 스크리닝",
	Long: `정리된 재무 CSV 를 읽어 4개 지표 순위를 계산합니다.

이 명령어는:
- CSV 레코드 로드 (기본: <data_dir>/<region>_screen_data.csv)
- 지표 계산 + 제외 사유 집계
- 종합 순위 계산 (sum | blended)
- <output_dir>/<region>_screened.csv 저장 및 콘솔 출력

Example:
  go run ./cmd/screen run
  go run ./cmd/screen run --input data/us_screen_data.csv --top 20
  go run ./cmd/screen run --method blended --save`,
	RunE: runScreen,
}

var (
	runInput  string
	runOutput string
	runTop    int
	runMethod string
	runSave   bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runInput, "input", "", "input CSV (default <data_dir>/<region>_screen_data.csv)")
	runCmd.Flags().StringVar(&runOutput, "output", "", "output directory (default strategy output.dir)")
	runCmd.Flags().IntVar(&runTop, "top", -1, "rows to print (default strategy ranking.top_n, 0 = all)")
	runCmd.Flags().StringVar(&runMethod, "method", "", "ranking method override (sum|blended)")
	runCmd.Flags().BoolVar(&runSave, "save", false, "store the run in the database")
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	a, err := newApp(ctx, runSave)
	if err != nil {
		return err
	}
	defer a.Close()

	if runMethod != "" {
		a.strategy.Ranking.Method = runMethod
		if err := strategyconfig.Validate(a.strategy); err != nil {
			return err
		}
		if a.snapshot, err = strategyconfig.NewDecisionSnapshot(a.strategy, nil); err != nil {
			return err
		}
	}

	input := runInput
	if input == "" {
		input = filepath.Join(a.cfg.Screen.DataDir, s0_data.CleanFileName(a.region()))
	}
	outDir := runOutput
	if outDir == "" {
		outDir = a.strategy.Output.Dir
	}
	top := runTop
	if top < 0 {
		top = a.strategy.Ranking.TopN
	}

	PrintHeader("Fundamental Screen", map[string]string{
		"Region": a.region(),
		"Method": string(a.method()),
		"Input":  input,
	})

	records, err := s0_data.ReadRecordsFile(input, a.region())
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}

	run, err := a.engine().Screen(ctx, records)
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}

	path, err := selection.WriteCSVFile(outDir, a.region(), run.Results)
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	fmt.Println()
	PrintRankingTable(run.Top(top))
	if tied := run.TiedBeyond(top); tied > 0 {
		PrintInfo(fmt.Sprintf("%d more companies share rank %d (raise --top to include them)", tied, run.Results[top-1].OverallRank))
	}
	if a.strategy.Output.ReportExclusions {
		PrintExclusions(run.Exclusions)
	}

	if runSave {
		if a.db == nil {
			return errors.New("--save requires DATABASE_URL")
		}
		if err := selection.NewRepository(a.db.Pool).SaveRun(ctx, run); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		PrintInfo("Run stored: " + run.RunID)
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Ranked %d of %d records → %s", len(run.Results), len(records), path))
	return nil
}
