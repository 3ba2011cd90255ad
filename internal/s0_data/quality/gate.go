package quality

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fundscreen/internal/contracts"
)

// ErrBelowThreshold is returned by Snapshot.Err when a coverage threshold is missed
var ErrBelowThreshold = errors.New("data quality below threshold")

// Field names used in coverage maps
const (
	FieldPrice           = "price"
	FieldEarnings        = "earnings"
	FieldInvestedCapital = "invested_capital"
	FieldDividends       = "dividends"
	FieldDebt            = "debt"
	FieldEquity          = "equity"
)

// Config holds quality gate thresholds (0..1 share of records with the field present)
type Config struct {
	MinPriceCoverage    float64 `yaml:"min_price_coverage"`
	MinEarningsCoverage float64 `yaml:"min_earnings_coverage"`
	MinCapitalCoverage  float64 `yaml:"min_capital_coverage"`
	MinDividendCoverage float64 `yaml:"min_dividend_coverage"`
	MinBalanceCoverage  float64 `yaml:"min_balance_coverage"` // debt and equity
	// Strict 실패 시 스케줄 갱신을 중단 (false 면 경고만)
	Strict bool `yaml:"strict"`
}

// DefaultConfig returns the thresholds used by fetch and the refresh job
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:    0.95,
		MinEarningsCoverage: 0.80,
		MinCapitalCoverage:  0.80,
		MinDividendCoverage: 0.70,
		MinBalanceCoverage:  0.80,
	}
}

// 가중치 (합계 = 1.0). 순서 고정: 점수 합산과 Failures 순서가 실행마다 같아야 한다
var fieldWeights = []struct {
	field  string
	weight float64
}{
	{FieldPrice, 0.25},
	{FieldEarnings, 0.25},
	{FieldInvestedCapital, 0.15},
	{FieldDividends, 0.10},
	{FieldDebt, 0.125},
	{FieldEquity, 0.125},
}

// Fields returns the checked fields in report order
func Fields() []string {
	out := make([]string, len(fieldWeights))
	for i, fw := range fieldWeights {
		out[i] = fw.field
	}
	return out
}

func (c Config) threshold(field string) float64 {
	switch field {
	case FieldPrice:
		return c.MinPriceCoverage
	case FieldEarnings:
		return c.MinEarningsCoverage
	case FieldInvestedCapital:
		return c.MinCapitalCoverage
	case FieldDividends:
		return c.MinDividendCoverage
	default: // debt, equity
		return c.MinBalanceCoverage
	}
}

// Snapshot is the coverage report of one batch
type Snapshot struct {
	Date            time.Time          `json:"date"`
	TotalRecords    int                `json:"total_records"`
	CompleteRecords int                `json:"complete_records"`
	Coverage        map[string]float64 `json:"coverage"`
	QualityScore    float64            `json:"quality_score"`
	Failures        []string           `json:"failures,omitempty"`
}

// Passed reports whether every threshold was met
func (s *Snapshot) Passed() bool {
	return len(s.Failures) == 0
}

// Err returns ErrBelowThreshold with the failed fields, or nil
func (s *Snapshot) Err() error {
	if s.Passed() {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrBelowThreshold, s.Failures)
}

// Gate validates field coverage of a fetched batch before ranking
// ⭐ SSOT: 수집 → 스크리닝 품질 검증
type Gate struct {
	config Config
}

// NewGate creates a new Gate instance
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// Check computes per-field coverage, the weighted score and failed thresholds.
// 빈 배치는 coverage 0 으로 모든 임계값에 실패한다.
func (g *Gate) Check(records []contracts.CompanyRecord, date time.Time) *Snapshot {
	snap := &Snapshot{
		Date:         date,
		TotalRecords: len(records),
		Coverage:     make(map[string]float64, len(fieldWeights)),
	}

	present := make(map[string]int, len(fieldWeights))
	for i := range records {
		r := &records[i]
		count(present, FieldPrice, r.Price)
		count(present, FieldEarnings, r.Earnings)
		count(present, FieldInvestedCapital, r.InvestedCapital)
		count(present, FieldDividends, r.Dividends)
		count(present, FieldDebt, r.Debt)
		count(present, FieldEquity, r.Equity)
		if r.HasAllFields() {
			snap.CompleteRecords++
		}
	}

	for _, fw := range fieldWeights {
		cov := 0.0
		if len(records) > 0 {
			cov = float64(present[fw.field]) / float64(len(records))
		}
		snap.Coverage[fw.field] = cov
		snap.QualityScore += cov * fw.weight

		if cov < g.config.threshold(fw.field) {
			snap.Failures = append(snap.Failures, fw.field)
		}
	}

	return snap
}

func count(present map[string]int, field string, v decimal.NullDecimal) {
	if v.Valid {
		present[field]++
	}
}
