package screening

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/fundscreen/internal/contracts"
)

// metricPrecision is the number of decimal places kept by every ratio.
// Fixed rounding keeps tie detection exact and reproducible.
const metricPrecision int32 = 12

// Derive computes the four screening ratios for every economically valid
// record. Records with a missing field or a non-positive price, invested capital
// or equity are dropped and listed in the returned report; they are not errors.
// A repeated identifier rejects the whole batch with *DuplicateIdentifierError.
// ⭐ SSOT: 지표 산출 로직은 여기서만
func Derive(records []contracts.CompanyRecord) ([]contracts.DerivedCompany, contracts.ExclusionReport, error) {
	if err := checkUnique(records); err != nil {
		return nil, contracts.ExclusionReport{}, err
	}

	report := contracts.ExclusionReport{
		TotalInput: len(records),
		Excluded:   []contracts.Exclusion{},
		ByReason:   make(map[contracts.ExclusionReason]int),
	}
	derived := make([]contracts.DerivedCompany, 0, len(records))

	for i := range records {
		rec := records[i]
		if reason, excluded := exclusionReason(&rec); excluded {
			report.Add(rec.Identifier, reason)
			continue
		}

		derived = append(derived, contracts.DerivedCompany{
			Record:  rec,
			Metrics: computeMetrics(&rec),
		})
	}

	return derived, report, nil
}

// checkUnique fails on the first identifier seen twice.
// Empty identifiers are left to exclusionReason.
func checkUnique(records []contracts.CompanyRecord) error {
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		id := records[i].Identifier
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			return &DuplicateIdentifierError{Identifier: id}
		}
		seen[id] = struct{}{}
	}
	return nil
}

// exclusionReason returns the first failed precondition, in a fixed order
func exclusionReason(rec *contracts.CompanyRecord) (contracts.ExclusionReason, bool) {
	switch {
	case !rec.HasAllFields():
		return contracts.ReasonMissingField, true
	case !rec.Price.Decimal.IsPositive():
		return contracts.ReasonNonPositivePrice, true
	case !rec.InvestedCapital.Decimal.IsPositive():
		return contracts.ReasonNonPositiveCap, true
	case !rec.Equity.Decimal.IsPositive():
		return contracts.ReasonNonPositiveEquity, true
	}
	return "", false
}

func computeMetrics(rec *contracts.CompanyRecord) contracts.MetricSet {
	return contracts.MetricSet{
		EarningsYield:   ratio(rec.Earnings.Decimal, rec.Price.Decimal),
		ReturnOnCapital: ratio(rec.Earnings.Decimal, rec.InvestedCapital.Decimal),
		DividendYield:   ratio(rec.Dividends.Decimal, rec.Price.Decimal),
		DebtRisk:        ratio(rec.Debt.Decimal, rec.Equity.Decimal),
	}
}

// ratio assumes a positive denominator (guaranteed by exclusionReason)
func ratio(num, den decimal.Decimal) decimal.Decimal {
	return num.DivRound(den, metricPrecision)
}
