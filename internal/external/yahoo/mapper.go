package yahoo

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fundscreen/internal/contracts"
)

// toRecord maps one quoteSummary result to a company-level record.
// Price 는 시가총액, Dividends 는 주당배당 × 발행주식수로 맞춘다.
func toRecord(ticker, region string, r *quoteResult, asOf time.Time) contracts.CompanyRecord {
	rec := contracts.CompanyRecord{
		Identifier: strings.ToUpper(ticker),
		Name:       firstNonEmpty(r.Price.LongName, r.Price.ShortName),
		Industry:   r.SummaryProfile.Industry,
		Currency:   r.Price.Currency,
		Region:     region,
		AsOf:       asOf,
	}

	sharePrice := known(r.Price.RegularMarketPrice)
	marketCap := known(r.Price.MarketCap)
	rec.Price = marketCap

	// 무배당 종목은 Yahoo 가 필드를 생략한다
	dps := known(r.SummaryDetail.TrailingAnnualDividendRate)
	if !dps.Valid {
		dps = contracts.Known(decimal.Zero)
	}
	if sharePrice.Valid && marketCap.Valid && sharePrice.Decimal.IsPositive() {
		rec.Dividends = contracts.Known(dps.Decimal.Mul(marketCap.Decimal).Div(sharePrice.Decimal))
	}

	if len(r.IncomeStatementHistory.Statements) > 0 {
		rec.Earnings = ebit(r.IncomeStatementHistory.Statements[0])
	}

	var bs balanceSheet
	if len(r.BalanceSheetHistory.Statements) > 0 {
		bs = r.BalanceSheetHistory.Statements[0]
	}

	rec.Debt = known(r.FinancialData.TotalDebt)
	if !rec.Debt.Valid {
		rec.Debt = sumKnown(known(bs.ShortLongTermDebt), known(bs.LongTermDebt))
	}
	rec.Equity = known(bs.TotalStockholderEquity)

	if rec.Debt.Valid && rec.Equity.Valid {
		rec.InvestedCapital = contracts.Known(rec.Debt.Decimal.Add(rec.Equity.Decimal))
	}

	return rec
}

// ebit = revenue - cost of revenue - operating expenses; reported ebit when a line is missing
func ebit(is incomeStatement) decimal.NullDecimal {
	revenue := known(is.TotalRevenue)
	cogs := known(is.CostOfRevenue)
	opex := known(is.TotalOperatingExpenses)

	if revenue.Valid && cogs.Valid && opex.Valid {
		return contracts.Known(revenue.Decimal.Sub(cogs.Decimal).Sub(opex.Decimal))
	}
	return known(is.Ebit)
}

func known(v rawValue) decimal.NullDecimal {
	f, ok := v.value()
	if !ok {
		return contracts.Missing
	}
	return contracts.KnownFloat(f)
}

// sumKnown adds the present values; missing when none is present
func sumKnown(values ...decimal.NullDecimal) decimal.NullDecimal {
	total := contracts.Missing
	for _, v := range values {
		if !v.Valid {
			continue
		}
		total = contracts.Known(total.Decimal.Add(v.Decimal))
	}
	return total
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
