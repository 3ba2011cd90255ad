package collector

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscreen/internal/contracts"
	"github.com/wonny/fundscreen/pkg/logger"
)

type fakeSource struct {
	failing map[string]error
}

func (f *fakeSource) FetchFundamentals(ctx context.Context, ticker string) (*contracts.CompanyRecord, error) {
	if err, ok := f.failing[ticker]; ok {
		return nil, err
	}
	return &contracts.CompanyRecord{Identifier: ticker, Price: contracts.KnownFloat(1)}, nil
}

type fakeRepo struct {
	saved []contracts.CompanyRecord
	err   error
}

func (f *fakeRepo) SaveBatch(ctx context.Context, records []contracts.CompanyRecord) error {
	f.saved = append(f.saved, records...)
	return f.err
}

func (f *fakeRepo) LatestSnapshot(ctx context.Context, region string) ([]contracts.CompanyRecord, error) {
	return f.saved, nil
}

type countingObserver struct {
	mu     sync.Mutex
	ok     int
	failed int
}

func (o *countingObserver) ObserveFetch(source string, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ok {
		o.ok++
	} else {
		o.failed++
	}
}

func TestCollect(t *testing.T) {
	source := &fakeSource{failing: map[string]error{
		"GONE":  contracts.ErrTickerNotFound,
		"FLAKY": errors.New("upstream 503"),
	}}
	repo := &fakeRepo{}
	obs := &countingObserver{}

	c := NewCollector(source, "yahoo", repo, obs, logger.Nop())
	tickers := []string{"AAPL", "GONE", "MSFT", "FLAKY", "KO"}

	results, err := c.Collect(context.Background(), tickers, Config{Workers: 3})
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, r := range results {
		assert.Equal(t, tickers[i], r.Ticker, "results keep input order")
	}
	assert.ErrorIs(t, results[1].Error, contracts.ErrTickerNotFound)

	records := Records(results)
	require.Len(t, records, 3)
	assert.Equal(t, "AAPL", records[0].Identifier)
	assert.Equal(t, "MSFT", records[1].Identifier)
	assert.Equal(t, "KO", records[2].Identifier)

	assert.Equal(t, []string{"GONE", "FLAKY"}, Failed(results))
	assert.Len(t, repo.saved, 3)
	assert.Equal(t, 3, obs.ok)
	assert.Equal(t, 2, obs.failed)
}

func TestCollect_NoRepo(t *testing.T) {
	c := NewCollector(&fakeSource{}, "yahoo", nil, nil, logger.Nop())

	results, err := c.Collect(context.Background(), []string{"A", "B"}, Config{Workers: 0})
	require.NoError(t, err)
	assert.Len(t, Records(results), 2)
}

func TestCollect_Empty(t *testing.T) {
	repo := &fakeRepo{}
	c := NewCollector(&fakeSource{}, "yahoo", repo, nil, logger.Nop())

	results, err := c.Collect(context.Background(), nil, Config{Workers: 4})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, repo.saved)
}

func TestCollect_SaveError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	c := NewCollector(&fakeSource{}, "yahoo", repo, nil, logger.Nop())

	results, err := c.Collect(context.Background(), []string{"A"}, Config{Workers: 1})
	assert.Error(t, err)
	assert.Len(t, results, 1)
}

func TestCollect_Canceled(t *testing.T) {
	repo := &fakeRepo{}
	c := NewCollector(&fakeSource{}, "yahoo", repo, nil, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := c.Collect(ctx, []string{"A", "B", "C"}, Config{Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
	for _, r := range results {
		assert.ErrorIs(t, r.Error, context.Canceled)
	}
	assert.Empty(t, repo.saved)
}
