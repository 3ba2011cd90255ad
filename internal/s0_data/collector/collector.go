package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wonny/fundscreen/internal/contracts"
	"github.com/wonny/fundscreen/pkg/logger"
)

// FetchObserver receives one event per fetched ticker
type FetchObserver interface {
	ObserveFetch(source string, ok bool)
}

// Collector orchestrates fundamental collection from a data source
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	source     contracts.FundamentalSource
	sourceName string
	repo       contracts.FundamentalRepository
	observer   FetchObserver
	logger     *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers int // Number of concurrent workers
}

// NewCollector creates a new Collector instance.
// repo 와 observer 는 nil 일 수 있다 (CSV 전용 실행).
func NewCollector(
	source contracts.FundamentalSource,
	sourceName string,
	repo contracts.FundamentalRepository,
	observer FetchObserver,
	log *logger.Logger,
) *Collector {
	return &Collector{
		source:     source,
		sourceName: sourceName,
		repo:       repo,
		observer:   observer,
		logger:     log.Module("collector"),
	}
}

// FetchResult represents the result of a fetch operation
type FetchResult struct {
	Ticker string
	Record *contracts.CompanyRecord
	Error  error
}

type job struct {
	index  int
	ticker string
}

// Collect fetches every ticker with a worker pool and saves the successful
// records. Results keep the input order; failed tickers carry their error.
func (c *Collector) Collect(ctx context.Context, tickers []string, cfg Config) ([]FetchResult, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tickers) && len(tickers) > 0 {
		workers = len(tickers)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker_count": len(tickers),
		"workers":      workers,
		"source":       c.sourceName,
	}).Info("Starting fundamental collection")

	results := make([]FetchResult, len(tickers))
	jobCh := make(chan job, len(tickers))
	resultCh := make(chan job, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.worker(ctx, workerID, jobCh, resultCh, results)
		}(i)
	}

	for i, t := range tickers {
		jobCh <- job{index: i, ticker: t}
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	successCount := 0
	failCount := 0
	for j := range resultCh {
		if results[j.index].Error != nil {
			failCount++
		} else {
			successCount++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success": successCount,
		"failed":  failCount,
		"total":   len(results),
	}).Info("Fundamental collection completed")

	if err := ctx.Err(); err != nil {
		return results, err
	}

	if c.repo != nil {
		records := Records(results)
		if len(records) > 0 {
			if err := c.repo.SaveBatch(ctx, records); err != nil {
				return results, fmt.Errorf("save fundamentals: %w", err)
			}
			c.logger.WithField("count", len(records)).Info("Fundamentals saved")
		}
	}

	return results, nil
}

// worker 는 results[index] 에만 쓰므로 별도 잠금이 필요 없다
func (c *Collector) worker(ctx context.Context, workerID int, jobCh <-chan job, resultCh chan<- job, results []FetchResult) {
	for j := range jobCh {
		result := FetchResult{Ticker: j.ticker}

		select {
		case <-ctx.Done():
			result.Error = ctx.Err()
			results[j.index] = result
			resultCh <- j
			continue
		default:
		}

		rec, err := c.source.FetchFundamentals(ctx, j.ticker)
		if err != nil {
			result.Error = err
			fields := map[string]interface{}{
				"worker": workerID,
				"ticker": j.ticker,
			}
			if errors.Is(err, contracts.ErrTickerNotFound) {
				c.logger.WithFields(fields).Warn("Ticker not found")
			} else {
				c.logger.WithError(err).WithFields(fields).Error("Failed to fetch fundamentals")
			}
		} else {
			result.Record = rec
			c.logger.WithFields(map[string]interface{}{
				"worker": workerID,
				"ticker": j.ticker,
			}).Debug("Fetched fundamentals")
		}

		if c.observer != nil {
			c.observer.ObserveFetch(c.sourceName, err == nil)
		}

		results[j.index] = result
		resultCh <- j
	}
}

// Records returns the successfully fetched records in input order
func Records(results []FetchResult) []contracts.CompanyRecord {
	records := make([]contracts.CompanyRecord, 0, len(results))
	for _, r := range results {
		if r.Error == nil && r.Record != nil {
			records = append(records, *r.Record)
		}
	}
	return records
}

// Failed returns the tickers that could not be fetched
func Failed(results []FetchResult) []string {
	var failed []string
	for _, r := range results {
		if r.Error != nil {
			failed = append(failed, r.Ticker)
		}
	}
	return failed
}
