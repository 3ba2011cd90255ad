package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscreen/internal/contracts"
	"github.com/wonny/fundscreen/internal/s0_data/quality"
	"github.com/wonny/fundscreen/internal/scheduler"
	"github.com/wonny/fundscreen/internal/scheduler/jobs"
)

// cachePurgeSchedule 매주 일요일 03:00
const cachePurgeSchedule = "0 0 3 * * 0"

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/screen scheduler start
  go run ./cmd/screen scheduler list
  go run ./cmd/screen scheduler run fundamental_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- fundamental_refresh: REFRESH_CRON (기본 평일 06:30, 수집 → 순위 → 저장)
- cache_purge: 매주 일요일 03:00 (Redis 재무 캐시 삭제, Redis 활성 시)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// newScheduler registers the refresh job (and cache purge when Redis is on)
func (a *app) newScheduler(rankings contracts.RankingRepository, broadcaster jobs.Broadcaster) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log,
		scheduler.WithRetry(2, 30*time.Second),
		scheduler.WithJobTimeout(30*time.Minute),
	)

	refresh := jobs.NewFundamentalRefreshJob(
		jobs.RefreshConfig{
			Region:   a.region(),
			Schedule: a.cfg.Screen.RefreshCron,
			Workers:  a.cfg.Screen.Workers,
			Tickers:  a.strategy.ResolveTickers,
			Quality:  quality.NewGate(a.strategy.Quality),
			Strict:   a.strategy.Quality.Strict,
		},
		a.collector(),
		a.fundamentalRepo(),
		a.engine(),
		rankings,
		broadcaster,
		a.log,
	)
	if err := sched.AddJob(refresh); err != nil {
		return nil, err
	}

	if a.redis.Enabled() {
		purge := jobs.NewCachePurgeJob(a.cache(), a.region(), cachePurgeSchedule, a.log)
		if err := sched.AddJob(purge); err != nil {
			return nil, err
		}
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.newScheduler(a.rankingRepo(), nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start(ctx)

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.GetAllJobs() {
		next, _ := sched.NextRun(name)
		fmt.Printf("  - %s (next: %s)\n", name, next.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.newScheduler(a.rankingRepo(), nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()

	fmt.Println("Registered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %-20s %s\n", name, stats[name].Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jobName := args[0]

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.newScheduler(a.rankingRepo(), nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)

	result, err := sched.RunJobSync(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", jobName, result.Error)
	}

	PrintSuccess(fmt.Sprintf("Job %s finished in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}
