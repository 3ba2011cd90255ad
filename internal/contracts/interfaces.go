package contracts

import (
	"context"
	"errors"
)

var (
	// ErrTickerNotFound is returned by a source that has no data for a ticker
	ErrTickerNotFound = errors.New("ticker not found")
	// ErrNoSnapshot is returned when no stored fundamentals or ranking exist
	ErrNoSnapshot = errors.New("no snapshot available")
)

// FundamentalSource supplies raw fundamentals for one ticker
// ⭐ SSOT: 외부 데이터 소스 인터페이스
type FundamentalSource interface {
	FetchFundamentals(ctx context.Context, ticker string) (*CompanyRecord, error)
}

// FundamentalRepository persists fetched fundamentals snapshots
type FundamentalRepository interface {
	SaveBatch(ctx context.Context, records []CompanyRecord) error
	LatestSnapshot(ctx context.Context, region string) ([]CompanyRecord, error)
}

// RankingRepository persists screening runs
type RankingRepository interface {
	SaveRun(ctx context.Context, run *ScreenResult) error
	LatestRun(ctx context.Context, region string) (*ScreenResult, error)
}

// Screener turns a batch of records into a ranked run
type Screener interface {
	Screen(ctx context.Context, records []CompanyRecord) (*ScreenResult, error)
}
