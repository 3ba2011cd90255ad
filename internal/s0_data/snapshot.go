package s0_data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fundscreen/internal/contracts"
)

// CSV 컬럼 이름 (수집 스크립트 산출물과 동일)
const (
	ColTicker          = "Ticker"
	ColCompanyName     = "Company Name"
	ColIndustry        = "Industry"
	ColCurrency        = "Market Currency"
	ColMarketPrice     = "Market Price"
	ColMarketCap       = "Market Cap"
	ColEBIT            = "EBIT"
	ColSales           = "Past Annual Sales"
	ColCogs            = "Past Annual Cogs"
	ColOpex            = "Past Annual Opex"
	ColDividendsPS     = "Past Financial Year Dividends"
	ColDividendsPaid   = "Dividends Paid"
	ColInvestedCapital = "Latest Invested Capital"
	ColTotalDebt       = "Latest Total Debt"
	ColCommonEquity    = "Latest Common Equity"
	ColAsOf            = "As Of"
)

// 동일 의미의 대체 컬럼 이름
var columnAliases = map[string][]string{
	ColMarketCap: {"Market Capitalization"},
	ColSales:     {"Past Annual Sales (Total Revenue)"},
	ColCogs:      {"Past Annual Cost of Goods Sold (COGS)"},
	ColOpex:      {"Past Annual Operating Expenses"},
}

// SnapshotHeader is the column order written by WriteRecords
var SnapshotHeader = []string{
	ColTicker, ColCompanyName, ColIndustry, ColCurrency,
	ColMarketCap, ColEBIT, ColDividendsPaid,
	ColInvestedCapital, ColTotalDebt, ColCommonEquity, ColAsOf,
}

var (
	// ErrMissingTickerColumn is returned when a CSV has no Ticker column
	ErrMissingTickerColumn = errors.New("csv has no Ticker column")

	snapshotFilePattern = regexp.MustCompile(`_(\d{14})\.csv$`)
)

const snapshotTimestampLayout = "20060102150405"

type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		h[strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))] = i
	}
	for canonical, aliases := range columnAliases {
		if _, ok := h[canonical]; ok {
			continue
		}
		for _, a := range aliases {
			if i, ok := h[a]; ok {
				h[canonical] = i
				break
			}
		}
	}
	return h
}

func (h header) get(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (h header) number(row []string, col string) (decimal.NullDecimal, error) {
	return ParseNumber(h.get(row, col))
}

// ParseNumber parses one CSV cell; blank, N/A, NaN and None are missing
func ParseNumber(s string) (decimal.NullDecimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	switch strings.ToLower(s) {
	case "", "n/a", "na", "nan", "none", "null", "-":
		return contracts.Missing, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return contracts.Missing, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return contracts.Known(d), nil
}

// ReadRecords reads a cleaned snapshot CSV into company-level records.
// Price 는 Market Cap, 주당배당은 Market Cap / Market Price 로 환산한다.
func ReadRecords(r io.Reader, region string) ([]contracts.CompanyRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	cols, err := reader.Read()
	if err == io.EOF {
		return []contracts.CompanyRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	h := newHeader(cols)
	if _, ok := h[ColTicker]; !ok {
		return nil, ErrMissingTickerColumn
	}

	records := make([]contracts.CompanyRecord, 0)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}

		rec, err := h.record(row, region)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func (h header) record(row []string, region string) (contracts.CompanyRecord, error) {
	rec := contracts.CompanyRecord{
		Identifier: strings.ToUpper(h.get(row, ColTicker)),
		Name:       h.get(row, ColCompanyName),
		Industry:   h.get(row, ColIndustry),
		Currency:   h.get(row, ColCurrency),
		Region:     region,
	}

	var err error
	numbers := []struct {
		col  string
		dest *decimal.NullDecimal
	}{
		{ColMarketCap, &rec.Price},
		{ColInvestedCapital, &rec.InvestedCapital},
		{ColTotalDebt, &rec.Debt},
		{ColCommonEquity, &rec.Equity},
	}
	for _, n := range numbers {
		if *n.dest, err = h.number(row, n.col); err != nil {
			return rec, fmt.Errorf("%s: %w", n.col, err)
		}
	}

	if rec.Earnings, err = h.earnings(row); err != nil {
		return rec, err
	}
	if rec.Dividends, err = h.dividends(row, rec.Price); err != nil {
		return rec, err
	}

	if s := h.get(row, ColAsOf); s != "" {
		if rec.AsOf, err = time.Parse("2006-01-02", s); err != nil {
			return rec, fmt.Errorf("%s: %w", ColAsOf, err)
		}
	}

	return rec, nil
}

// earnings EBIT 컬럼 우선, 없으면 Sales - Cogs - Opex
func (h header) earnings(row []string) (decimal.NullDecimal, error) {
	if _, ok := h[ColEBIT]; ok {
		return h.number(row, ColEBIT)
	}

	var parts [3]decimal.NullDecimal
	for i, col := range []string{ColSales, ColCogs, ColOpex} {
		v, err := h.number(row, col)
		if err != nil {
			return contracts.Missing, fmt.Errorf("%s: %w", col, err)
		}
		if !v.Valid {
			return contracts.Missing, nil
		}
		parts[i] = v
	}
	return contracts.Known(parts[0].Decimal.Sub(parts[1].Decimal).Sub(parts[2].Decimal)), nil
}

// dividends Dividends Paid 컬럼 우선, 없으면 주당배당 × 발행주식수
func (h header) dividends(row []string, marketCap decimal.NullDecimal) (decimal.NullDecimal, error) {
	if _, ok := h[ColDividendsPaid]; ok {
		return h.number(row, ColDividendsPaid)
	}

	dps, err := h.number(row, ColDividendsPS)
	if err != nil {
		return contracts.Missing, fmt.Errorf("%s: %w", ColDividendsPS, err)
	}
	price, err := h.number(row, ColMarketPrice)
	if err != nil {
		return contracts.Missing, fmt.Errorf("%s: %w", ColMarketPrice, err)
	}
	if !dps.Valid || !price.Valid || !marketCap.Valid || !price.Decimal.IsPositive() {
		return contracts.Missing, nil
	}
	return contracts.Known(dps.Decimal.Mul(marketCap.Decimal).Div(price.Decimal)), nil
}

// ReadRecordsFile reads a snapshot CSV from disk
func ReadRecordsFile(path, region string) ([]contracts.CompanyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadRecords(f, region)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// WriteRecords writes records with SnapshotHeader columns; missing values are blank
func WriteRecords(w io.Writer, records []contracts.CompanyRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(SnapshotHeader); err != nil {
		return err
	}

	for _, rec := range records {
		asOf := ""
		if !rec.AsOf.IsZero() {
			asOf = rec.AsOf.Format("2006-01-02")
		}
		row := []string{
			rec.Identifier, rec.Name, rec.Industry, rec.Currency,
			formatNumber(rec.Price), formatNumber(rec.Earnings), formatNumber(rec.Dividends),
			formatNumber(rec.InvestedCapital), formatNumber(rec.Debt), formatNumber(rec.Equity),
			asOf,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteRecordsFile writes records to path, creating parent directories
func WriteRecordsFile(path string, records []contracts.CompanyRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRecords(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatNumber(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// SnapshotFile is a scraped CSV with the timestamp from its file name
type SnapshotFile struct {
	Path      string
	Timestamp time.Time
}

// ListSnapshots finds `<region>*_YYYYMMDDHHMMSS.csv` files, oldest first
func ListSnapshots(dir, region string) ([]SnapshotFile, error) {
	matches, err := filepath.Glob(filepath.Join(dir, region+"*_*.csv"))
	if err != nil {
		return nil, err
	}

	files := make([]SnapshotFile, 0, len(matches))
	for _, path := range matches {
		m := snapshotFilePattern.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			continue
		}
		ts, err := time.Parse(snapshotTimestampLayout, m[1])
		if err != nil {
			continue
		}
		files = append(files, SnapshotFile{Path: path, Timestamp: ts})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].Timestamp.Equal(files[j].Timestamp) {
			return files[i].Timestamp.Before(files[j].Timestamp)
		}
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// Consolidate merges every scraped snapshot of a region, keeping the row from
// the most recent file per ticker. Output is sorted by ticker.
func Consolidate(dir, region string) ([]contracts.CompanyRecord, error) {
	files, err := ListSnapshots(dir, region)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("region %s in %s: %w", region, dir, contracts.ErrNoSnapshot)
	}

	latest := make(map[string]contracts.CompanyRecord)
	for _, file := range files {
		records, err := ReadRecordsFile(file.Path, region)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if rec.Identifier == "" {
				continue
			}
			if rec.AsOf.IsZero() {
				rec.AsOf = file.Timestamp.Truncate(24 * time.Hour)
			}
			latest[rec.Identifier] = rec
		}
	}

	merged := make([]contracts.CompanyRecord, 0, len(latest))
	for _, rec := range latest {
		merged = append(merged, rec)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Identifier < merged[j].Identifier
	})

	return merged, nil
}

// SnapshotFileName builds the scraped file name for a fetch run
func SnapshotFileName(region string, at time.Time) string {
	return fmt.Sprintf("%s_fundamentals_%s.csv", region, at.Format(snapshotTimestampLayout))
}

// CleanFileName is the consolidated file read by the run command
func CleanFileName(region string) string {
	return region + "_screen_data.csv"
}
