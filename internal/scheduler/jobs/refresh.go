package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/fundscreen/internal/contracts"
	"github.com/wonny/fundscreen/internal/s0_data/collector"
	"github.com/wonny/fundscreen/internal/s0_data/quality"
	"github.com/wonny/fundscreen/pkg/logger"
)

// Broadcaster pushes a completed run to live subscribers
type Broadcaster interface {
	Broadcast(result *contracts.ScreenResult)
}

// RefreshConfig wires the fundamental refresh job
type RefreshConfig struct {
	Region   string
	Schedule string
	Workers  int
	// Tickers resolves the universe at run time (strategy file may change)
	Tickers func() ([]string, error)
	// Quality gate for the batch about to be ranked (nil = skip)
	Quality *quality.Gate
	Strict  bool
}

// FundamentalRefreshJob collects fundamentals, re-ranks the region and publishes the run
// ⭐ SSOT: 정기 재무 수집 + 순위 갱신은 이 Job에서만
type FundamentalRefreshJob struct {
	cfg         RefreshConfig
	collector   *collector.Collector
	snapshots   contracts.FundamentalRepository
	screener    contracts.Screener
	rankings    contracts.RankingRepository
	broadcaster Broadcaster
	logger      *logger.Logger
}

// NewFundamentalRefreshJob creates a new refresh job.
// snapshots, rankings, broadcaster 는 nil 일 수 있다.
func NewFundamentalRefreshJob(
	cfg RefreshConfig,
	col *collector.Collector,
	snapshots contracts.FundamentalRepository,
	screener contracts.Screener,
	rankings contracts.RankingRepository,
	broadcaster Broadcaster,
	log *logger.Logger,
) *FundamentalRefreshJob {
	return &FundamentalRefreshJob{
		cfg:         cfg,
		collector:   col,
		snapshots:   snapshots,
		screener:    screener,
		rankings:    rankings,
		broadcaster: broadcaster,
		logger:      log.WithField("job", "fundamental_refresh"),
	}
}

// Name returns the job name
func (j *FundamentalRefreshJob) Name() string {
	return "fundamental_refresh"
}

// Schedule returns the cron schedule
func (j *FundamentalRefreshJob) Schedule() string {
	return j.cfg.Schedule
}

// Run executes collect → latest snapshot → quality gate → screen → save → broadcast
func (j *FundamentalRefreshJob) Run(ctx context.Context) error {
	tickers, err := j.cfg.Tickers()
	if err != nil {
		return fmt.Errorf("resolve tickers: %w", err)
	}
	if len(tickers) == 0 {
		return errors.New("resolve tickers: universe is empty")
	}

	j.logger.WithFields(map[string]interface{}{
		"region":  j.cfg.Region,
		"tickers": len(tickers),
	}).Info("Starting scheduled fundamental refresh")

	// 1. Collect
	results, err := j.collector.Collect(ctx, tickers, collector.Config{Workers: j.cfg.Workers})
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	if failed := collector.Failed(results); len(failed) > 0 {
		j.logger.WithFields(map[string]interface{}{
			"failed":  len(failed),
			"tickers": failed,
		}).Warn("Some tickers could not be fetched")
	}

	// 2. Latest snapshot (저장소가 있으면 이전 수집분까지 포함)
	records := collector.Records(results)
	if j.snapshots != nil {
		records, err = j.snapshots.LatestSnapshot(ctx, j.cfg.Region)
		if err != nil {
			return fmt.Errorf("latest snapshot: %w", err)
		}
	}

	// 3. Quality gate
	if j.cfg.Quality != nil {
		snap := j.cfg.Quality.Check(records, time.Now())
		log := j.logger.WithFields(map[string]interface{}{
			"records":  snap.TotalRecords,
			"complete": snap.CompleteRecords,
			"score":    snap.QualityScore,
		})
		if err := snap.Err(); err != nil {
			if j.cfg.Strict {
				return fmt.Errorf("quality gate: %w", err)
			}
			log.WithError(err).Warn("Quality gate failed, ranking anyway")
		} else {
			log.Info("Quality gate passed")
		}
	}

	// 4. Screen
	run, err := j.screener.Screen(ctx, records)
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}

	// 5. Save
	if j.rankings != nil {
		if err := j.rankings.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}

	// 6. Broadcast
	if j.broadcaster != nil {
		j.broadcaster.Broadcast(run)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   run.RunID,
		"ranked":   len(run.Results),
		"excluded": run.Exclusions.Count(),
	}).Info("Fundamental refresh completed")

	return nil
}
