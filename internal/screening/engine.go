package screening

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/fundscreen/internal/contracts"
	"github.com/wonny/fundscreen/pkg/logger"
)

// Observer receives run statistics (implemented by internal/metrics)
type Observer interface {
	ObserveScreen(method string, duration time.Duration, ranked int, excluded map[string]int)
	ObserveScreenError(method string)
}

// EngineConfig selects ranking method and run labels
type EngineConfig struct {
	Method       contracts.RankingMethod
	Region       string
	StrategyHash string
	StrategyYAML string // strategy as applied, stored with each run
}

// Engine runs Derive then Rank on one batch and reports what it dropped.
// It holds no per-run state; one Engine may serve concurrent callers.
// ⭐ SSOT: 스크리닝 실행은 여기서만
type Engine struct {
	config   EngineConfig
	logger   *logger.Logger
	observer Observer
	now      func() time.Time
}

// NewEngine creates a new engine. observer may be nil.
// 빈 Method 는 네 순위 합산(sum).
func NewEngine(cfg EngineConfig, log *logger.Logger, observer Observer) *Engine {
	if cfg.Method == "" {
		cfg.Method = contracts.MethodSum
	}
	return &Engine{
		config:   cfg,
		logger:   log.Module("screening"),
		observer: observer,
		now:      time.Now,
	}
}

// Method returns the configured ranking method
func (e *Engine) Method() contracts.RankingMethod {
	return e.config.Method
}

// Screen derives metrics and ranks the batch
func (e *Engine) Screen(ctx context.Context, records []contracts.CompanyRecord) (*contracts.ScreenResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := e.now()
	method := string(e.config.Method)

	derived, report, err := Derive(records)
	if err != nil {
		if e.observer != nil {
			e.observer.ObserveScreenError(method)
		}
		var dupErr *DuplicateIdentifierError
		if errors.As(err, &dupErr) {
			e.logger.WithField("identifier", dupErr.Identifier).Error("Duplicate identifier rejected batch")
		}
		return nil, err
	}

	var ranked []contracts.RankedResult
	switch e.config.Method {
	case contracts.MethodBlended:
		ranked = RankBlended(derived)
	default:
		ranked = Rank(derived)
	}

	if report.Count() > 0 {
		e.logger.WithFields(map[string]interface{}{
			"total_input": report.TotalInput,
			"excluded":    report.Count(),
			"reasons":     report.CountsByReason(),
		}).Info("Records excluded before ranking")
	}

	duration := e.now().Sub(start)
	if e.observer != nil {
		e.observer.ObserveScreen(method, duration, len(ranked), report.CountsByReason())
	}

	result := &contracts.ScreenResult{
		RunID:        uuid.NewString(),
		Region:       e.config.Region,
		Method:       e.config.Method,
		StrategyHash: e.config.StrategyHash,
		StrategyYAML: e.config.StrategyYAML,
		Results:      ranked,
		Exclusions:   report,
		CreatedAt:    start.UTC(),
	}

	fields := map[string]interface{}{
		"run_id":   result.RunID,
		"method":   method,
		"ranked":   len(ranked),
		"duration": duration,
	}
	if len(ranked) > 0 {
		fields["top"] = ranked[0].Identifier
		fields["top_score"] = ranked[0].CompositeScore
	}
	e.logger.WithFields(fields).Info("Screening completed")

	return result, nil
}
