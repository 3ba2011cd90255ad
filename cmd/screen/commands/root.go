package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile   string
	env          string
	region       string
	strategyPath string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screen",
	Short: "fundscreen - 재무지표 기반 종목 스크리닝",
	Long: `fundscreen Unified CLI

재무제표 4개 지표(이익수익률, 자본수익률, 배당수익률, 부채위험)로
종목을 순위화하는 스크리닝 엔진.

Usage:
  go run ./cmd/screen [command]

Examples:
  go run ./cmd/screen run --input data/us_screen_data.csv
  go run ./cmd/screen fetch AAPL MSFT KO
  go run ./cmd/screen clean
  go run ./cmd/screen api --with-scheduler
  go run ./cmd/screen test-db --migrate`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C / SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "region override (us|cn|hk)")
	rootCmd.PersistentFlags().StringVar(&strategyPath, "strategy", "", "strategy YAML (default SCREEN_STRATEGY_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
