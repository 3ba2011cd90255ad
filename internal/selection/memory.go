package selection

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/fundscreen/internal/contracts"
)

// MemoryRepository keeps the latest run per region in process memory.
// DATABASE_URL 이 없을 때 API/스케줄러가 사용한다.
type MemoryRepository struct {
	mu     sync.RWMutex
	latest map[string]*contracts.ScreenResult
}

var _ contracts.RankingRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory ranking store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{latest: make(map[string]*contracts.ScreenResult)}
}

// SaveRun replaces the latest run of the run's region
func (m *MemoryRepository) SaveRun(ctx context.Context, run *contracts.ScreenResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[run.Region] = run
	return nil
}

// LatestRun returns the latest stored run of a region
func (m *MemoryRepository) LatestRun(ctx context.Context, region string) (*contracts.ScreenResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.latest[region]
	if !ok {
		return nil, fmt.Errorf("region %s: %w", region, contracts.ErrNoSnapshot)
	}
	return run, nil
}
