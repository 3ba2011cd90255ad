package yahoo

// rawValue Yahoo 숫자 필드 ({"raw": 123.4, "fmt": "123.40"}); 빈 객체는 값 없음
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v rawValue) value() (float64, bool) {
	if v.Raw == nil {
		return 0, false
	}
	return *v.Raw, true
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"quoteSummary"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type quoteResult struct {
	Price                  priceModule          `json:"price"`
	SummaryDetail          summaryDetailModule  `json:"summaryDetail"`
	SummaryProfile         summaryProfileModule `json:"summaryProfile"`
	FinancialData          financialDataModule  `json:"financialData"`
	IncomeStatementHistory struct {
		Statements []incomeStatement `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	BalanceSheetHistory struct {
		Statements []balanceSheet `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistory"`
}

type priceModule struct {
	Symbol             string   `json:"symbol"`
	LongName           string   `json:"longName"`
	ShortName          string   `json:"shortName"`
	Currency           string   `json:"currency"`
	RegularMarketPrice rawValue `json:"regularMarketPrice"`
	MarketCap          rawValue `json:"marketCap"`
}

type summaryDetailModule struct {
	TrailingAnnualDividendRate rawValue `json:"trailingAnnualDividendRate"`
}

type summaryProfileModule struct {
	Industry string `json:"industry"`
	Sector   string `json:"sector"`
}

type financialDataModule struct {
	TotalDebt rawValue `json:"totalDebt"`
}

// incomeStatement 연간 손익계산서 (index 0 = 최신)
type incomeStatement struct {
	EndDate                rawValue `json:"endDate"`
	TotalRevenue           rawValue `json:"totalRevenue"`
	CostOfRevenue          rawValue `json:"costOfRevenue"`
	TotalOperatingExpenses rawValue `json:"totalOperatingExpenses"`
	Ebit                   rawValue `json:"ebit"`
}

// balanceSheet 연간 재무상태표 (index 0 = 최신)
type balanceSheet struct {
	EndDate                rawValue `json:"endDate"`
	ShortLongTermDebt      rawValue `json:"shortLongTermDebt"`
	LongTermDebt           rawValue `json:"longTermDebt"`
	TotalStockholderEquity rawValue `json:"totalStockholderEquity"`
}
