package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscreen/internal/s0_data"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "수집 스냅샷 정리",
	Long: `<region>_fundamentals_<timestamp>.csv 스냅샷들을 하나로 합칩니다.

같은 종목이 여러 스냅샷에 있으면 가장 최근 파일의 행을 사용하고,
결과를 <data_dir>/<region>_screen_data.csv 로 저장합니다.

Example:
  go run ./cmd/screen clean
  go run ./cmd/screen clean --region hk --dir data`,
	RunE: runClean,
}

var cleanDir string

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringVar(&cleanDir, "dir", "", "snapshot directory (default SCREEN_DATA_DIR)")
}

func runClean(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	dir := cleanDir
	if dir == "" {
		dir = a.cfg.Screen.DataDir
	}

	snapshots, err := s0_data.ListSnapshots(dir, a.region())
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		PrintWarning(fmt.Sprintf("No %s snapshots in %s", a.region(), dir))
		return nil
	}

	records, err := s0_data.Consolidate(dir, a.region())
	if err != nil {
		return fmt.Errorf("consolidate: %w", err)
	}

	out := filepath.Join(dir, s0_data.CleanFileName(a.region()))
	if err := s0_data.WriteRecordsFile(out, records); err != nil {
		return fmt.Errorf("write clean file: %w", err)
	}

	a.log.WithFields(map[string]interface{}{
		"snapshots": len(snapshots),
		"records":   len(records),
		"output":    out,
	}).Info("Snapshots consolidated")

	PrintSuccess(fmt.Sprintf("%d snapshots → %d records → %s", len(snapshots), len(records), out))
	return nil
}
