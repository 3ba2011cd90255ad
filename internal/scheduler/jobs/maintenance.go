package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/fundscreen/pkg/logger"
	"github.com/wonny/fundscreen/pkg/redis"
)

// CachePurgeJob drops cached fundamentals so the next refresh hits Yahoo
type CachePurgeJob struct {
	cache    *redis.Cache
	region   string
	schedule string
	logger   *logger.Logger
}

// NewCachePurgeJob creates a new cache purge job
func NewCachePurgeJob(cache *redis.Cache, region, schedule string, log *logger.Logger) *CachePurgeJob {
	return &CachePurgeJob{
		cache:    cache,
		region:   region,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *CachePurgeJob) Name() string {
	return "cache_purge"
}

// Schedule returns the cron schedule
func (j *CachePurgeJob) Schedule() string {
	return j.schedule
}

// Run executes the cache purge
func (j *CachePurgeJob) Run(ctx context.Context) error {
	count, err := j.cache.Purge(ctx, redis.FundamentalPrefix(j.region))
	if err != nil {
		return fmt.Errorf("purge fundamentals cache: %w", err)
	}

	if count > 0 {
		j.logger.WithFields(map[string]interface{}{
			"region":  j.region,
			"removed": count,
		}).Info("Cache purge completed")
	}

	return nil
}
