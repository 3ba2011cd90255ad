package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscreen/internal/api"
	"github.com/wonny/fundscreen/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 스크리닝 / 최신 순위 조회 엔드포인트 제공
- 완료된 순위를 WebSocket 으로 푸시
- --with-scheduler 시 정기 수집 Job 을 같은 프로세스에서 실행

Endpoints:
  GET  /health               - Health check
  GET  /api/rankings/latest  - 최신 순위 조회 (?region=&top=)
  POST /api/screen           - JSON 레코드 스크리닝
  GET  /ws/rankings          - 순위 실시간 스트림
  GET  /metrics              - Prometheus metrics

Example:
  go run ./cmd/screen api
  go run ./cmd/screen api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "run scheduled jobs in the API process")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port":   a.cfg.Port,
		"env":    a.cfg.Env,
		"region": a.region(),
	}).Info("Initializing API server")

	hub := handlers.NewHub(a.log)
	rankings := a.rankingRepo()
	rankingHandler := handlers.NewRankingHandler(a.engine(), rankings, hub, a.region(), a.log)

	deps := api.RouterDeps{
		Rankings: rankingHandler,
		Stream:   hub,
	}
	if a.cfg.MetricsEnabled {
		deps.Metrics = a.metrics.Handler()
	}
	deps.Checks = a.healthChecks()

	if apiWithScheduler {
		sched, err := a.newScheduler(rankings, hub)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	server := api.New(a.cfg, a.log, api.NewRouter(deps, a.log))

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	PrintList([]string{
		"GET  /health",
		"GET  /api/rankings/latest",
		"POST /api/screen",
		"GET  /ws/rankings",
		"GET  /metrics",
	})
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	a.log.WithField("ws_clients", hub.ClientCount()).Info("Server stopped")
	return nil
}
