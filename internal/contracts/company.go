package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompanyRecord is one company's raw fundamentals handed from the data source
// to the screening engine.
// ⭐ SSOT: 데이터 소스 → 스크리닝 엔진 입력
//
// Numeric fields are NullDecimal: Valid=false means the provider did not supply
// the value. Missing values are never substituted with zero.
type CompanyRecord struct {
	Identifier string `json:"identifier"` // ticker, unique within a batch
	Name       string `json:"name,omitempty"`
	Industry   string `json:"industry,omitempty"`
	Currency   string `json:"currency,omitempty"`
	Region     string `json:"region,omitempty"`

	Price           decimal.NullDecimal `json:"price"`    // yield denominator; adapters supply market capitalization
	Earnings        decimal.NullDecimal `json:"earnings"` // trailing EBIT, may be negative
	InvestedCapital decimal.NullDecimal `json:"invested_capital"`
	Dividends       decimal.NullDecimal `json:"dividends"` // trailing dividends, same scale as Price
	Debt            decimal.NullDecimal `json:"debt"`
	Equity          decimal.NullDecimal `json:"equity"`

	AsOf time.Time `json:"as_of,omitempty"`
}

// Known wraps a present value
func Known(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// KnownFloat wraps a present float value
func KnownFloat(f float64) decimal.NullDecimal {
	return Known(decimal.NewFromFloat(f))
}

// Missing is an absent value
var Missing = decimal.NullDecimal{}

// HasAllFields reports whether every numeric input is present
func (c *CompanyRecord) HasAllFields() bool {
	return c.Identifier != "" &&
		c.Price.Valid &&
		c.Earnings.Valid &&
		c.InvestedCapital.Valid &&
		c.Dividends.Valid &&
		c.Debt.Valid &&
		c.Equity.Valid
}

// MetricSet holds the four derived screening ratios of one company
type MetricSet struct {
	EarningsYield   decimal.Decimal `json:"earnings_yield"`    // earnings / price
	ReturnOnCapital decimal.Decimal `json:"return_on_capital"` // earnings / invested capital
	DividendYield   decimal.Decimal `json:"dividend_yield"`    // dividends / price
	DebtRisk        decimal.Decimal `json:"debt_risk"`         // debt / equity, lower is better
}

// DerivedCompany pairs a surviving record with its metrics
// ⭐ SSOT: Deriver → Ranker 전달 단위
type DerivedCompany struct {
	Record  CompanyRecord
	Metrics MetricSet
}

// ExclusionReason explains why a record was dropped before ranking
type ExclusionReason string

const (
	ReasonMissingField      ExclusionReason = "missing_field"
	ReasonNonPositivePrice  ExclusionReason = "non_positive_price"
	ReasonNonPositiveCap    ExclusionReason = "non_positive_capital"
	ReasonNonPositiveEquity ExclusionReason = "non_positive_equity"
)

// Exclusion is one dropped record
type Exclusion struct {
	Identifier string          `json:"identifier"`
	Reason     ExclusionReason `json:"reason"`
}

// ExclusionReport summarizes records dropped by the deriver.
// Exclusions are a business rule, not a failure.
type ExclusionReport struct {
	TotalInput int                     `json:"total_input"`
	Excluded   []Exclusion             `json:"excluded"`
	ByReason   map[ExclusionReason]int `json:"by_reason"`
}

// Count returns the number of excluded records
func (r *ExclusionReport) Count() int {
	return len(r.Excluded)
}

// Add records one exclusion
func (r *ExclusionReport) Add(identifier string, reason ExclusionReason) {
	if r.ByReason == nil {
		r.ByReason = make(map[ExclusionReason]int)
	}
	r.Excluded = append(r.Excluded, Exclusion{Identifier: identifier, Reason: reason})
	r.ByReason[reason]++
}

// CountsByReason returns per-reason counts keyed by plain strings (logging, JSON)
func (r *ExclusionReport) CountsByReason() map[string]int {
	out := make(map[string]int, len(r.ByReason))
	for reason, n := range r.ByReason {
		out[string(reason)] = n
	}
	return out
}
