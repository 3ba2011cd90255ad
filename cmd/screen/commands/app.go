package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/fundscreen/internal/api"
	"github.com/wonny/fundscreen/internal/contracts"
	"github.com/wonny/fundscreen/internal/external/yahoo"
	"github.com/wonny/fundscreen/internal/metrics"
	"github.com/wonny/fundscreen/internal/s0_data"
	"github.com/wonny/fundscreen/internal/s0_data/collector"
	"github.com/wonny/fundscreen/internal/screening"
	"github.com/wonny/fundscreen/internal/selection"
	"github.com/wonny/fundscreen/internal/strategyconfig"
	"github.com/wonny/fundscreen/pkg/config"
	"github.com/wonny/fundscreen/pkg/database"
	"github.com/wonny/fundscreen/pkg/httputil"
	"github.com/wonny/fundscreen/pkg/logger"
	"github.com/wonny/fundscreen/pkg/redis"
)

// app holds the dependencies shared by every command
// ⭐ SSOT: 커맨드 공통 의존성 조립은 여기서만
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	strategy  *strategyconfig.Config
	snapshot  *strategyconfig.DecisionSnapshot // hash + YAML stored with each run
	metrics   *metrics.Registry
	db        *database.DB // nil when DATABASE_URL is empty
	redis     *redis.Client
	yahooHTTP *httputil.Client // shared so /health sees the fetch breaker
}

// newApp loads config, logger and strategy.
// connectDB=false 인 커맨드는 DB 없이 동작한다.
func newApp(ctx context.Context, connectDB bool) (*app, error) {
	// 1. Load config
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if region != "" {
		cfg.Screen.Region = region
	}
	if strategyPath != "" {
		cfg.Screen.StrategyPath = strategyPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load strategy
	strategy := strategyconfig.Default(cfg.Screen.Region)
	var strategyYAML []byte
	if cfg.Screen.StrategyPath != "" {
		strategy, strategyYAML, err = strategyconfig.Load(cfg.Screen.StrategyPath)
		if err != nil {
			return nil, fmt.Errorf("load strategy: %w", err)
		}
		cfg.Screen.Region = strategy.Universe.Region
	}
	if err := strategyconfig.Validate(strategy); err != nil {
		return nil, fmt.Errorf("invalid strategy: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	snapshot, err := strategyconfig.NewDecisionSnapshot(strategy, strategyYAML)
	if err != nil {
		return nil, fmt.Errorf("snapshot strategy: %w", err)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		strategy: strategy,
		snapshot: snapshot,
		metrics:  metrics.New(),
		redis:    redis.Disabled(),
	}

	// 4. Connect to database (optional)
	if connectDB && cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.db = db
		log.Info("Connected to database")
	}

	// 5. Connect to Redis (optional)
	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
	} else {
		a.redis = rdb
	}

	return a, nil
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	_ = a.redis.Close()
}

// healthChecks lists the connected backing services for /health
func (a *app) healthChecks() map[string]api.HealthCheck {
	checks := make(map[string]api.HealthCheck)
	if a.db != nil {
		checks["postgres"] = a.db.Ping
	}
	if a.redis.Enabled() {
		checks["redis"] = a.redis.Ping
	}
	yahooHTTP := a.yahooHTTPClient()
	checks["yahoo"] = func(ctx context.Context) error {
		if state := yahooHTTP.BreakerState(); state == gobreaker.StateOpen.String() {
			return fmt.Errorf("circuit breaker %s", state)
		}
		return nil
	}
	return checks
}

func (a *app) region() string {
	return a.cfg.Screen.Region
}

func (a *app) method() contracts.RankingMethod {
	return contracts.RankingMethod(a.strategy.Ranking.Method)
}

func (a *app) engine() *screening.Engine {
	return screening.NewEngine(screening.EngineConfig{
		Method:       a.method(),
		Region:       a.region(),
		StrategyHash: a.snapshot.ConfigHash,
		StrategyYAML: a.snapshot.ConfigYAML,
	}, a.log, a.metrics)
}

// rankingRepo returns the Postgres repository, or process memory without a database
func (a *app) rankingRepo() contracts.RankingRepository {
	if a.db != nil && a.strategy.Output.PersistRankings {
		return selection.NewRepository(a.db.Pool)
	}
	return selection.NewMemoryRepository()
}

// fundamentalRepo returns nil without a database
func (a *app) fundamentalRepo() contracts.FundamentalRepository {
	if a.db == nil {
		return nil
	}
	return s0_data.NewFundamentalRepository(a.db.Pool)
}

func (a *app) cache() *redis.Cache {
	return redis.NewCache(a.redis, "fundscreen")
}

func (a *app) yahooHTTPClient() *httputil.Client {
	if a.yahooHTTP != nil {
		return a.yahooHTTP
	}

	a.yahooHTTP = httputil.NewWithTimeout(a.log, a.cfg.Yahoo.Timeout).
		WithLocalLimit(a.cfg.Yahoo.RateLimit).
		WithRateLimiter(redis.NewRateLimiter(a.redis, "fundscreen"), redis.YahooRateLimit(a.cfg.Yahoo.RateLimit)).
		WithCircuitBreaker("yahoo", 5, 30*time.Second)
	if !a.cfg.Yahoo.Retry {
		a.yahooHTTP.DisableRetry()
	}
	return a.yahooHTTP
}

func (a *app) yahooClient() *yahoo.Client {
	return yahoo.NewClient(a.yahooHTTPClient(), a.cache(), a.cfg.Yahoo, a.region(), a.log)
}

func (a *app) collector() *collector.Collector {
	return a.collectorFrom(a.yahooClient(), "yahoo")
}

// collectorFrom builds a collector over any source; name labels fetch metrics
func (a *app) collectorFrom(source contracts.FundamentalSource, name string) *collector.Collector {
	return collector.NewCollector(source, name, a.fundamentalRepo(), a.metrics, a.log)
}
