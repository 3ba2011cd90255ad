package s0_data

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscreen/internal/contracts"
)

const scrapedCSV = `Ticker,Company Name,Industry,Market Price,Market Cap,Market Currency,Past Annual Sales,Past Annual Cogs,Past Annual Opex,Past Financial Year Dividends,Latest Invested Capital,Latest Total Debt,Latest Common Equity
aapl,Apple Inc.,Consumer Electronics,200,"3,000,000",USD,1000,400,300,1,5000,100,800
MSFT,Microsoft,Software,400,2000,USD,N/A,10,10,2,900,50,700
`

func TestReadRecords_ScrapedColumns(t *testing.T) {
	records, err := ReadRecords(strings.NewReader(scrapedCSV), "us")
	require.NoError(t, err)
	require.Len(t, records, 2)

	apple := records[0]
	assert.Equal(t, "AAPL", apple.Identifier)
	assert.Equal(t, "Apple Inc.", apple.Name)
	assert.Equal(t, "USD", apple.Currency)
	assert.Equal(t, "us", apple.Region)
	assert.Equal(t, "3000000", apple.Price.Decimal.String())
	assert.Equal(t, "300", apple.Earnings.Decimal.String())
	assert.Equal(t, "15000", apple.Dividends.Decimal.String(), "1 per share × 3,000,000 / 200")
	assert.Equal(t, "5000", apple.InvestedCapital.Decimal.String())
	assert.True(t, apple.HasAllFields())

	msft := records[1]
	assert.False(t, msft.Earnings.Valid, "N/A sales leaves earnings missing")
	assert.Equal(t, "10", msft.Dividends.Decimal.String())
}

func TestReadRecords_EBITColumnWins(t *testing.T) {
	csv := "Ticker,EBIT,Past Annual Sales,Past Annual Cogs,Past Annual Opex\nX,42,1,1,1\n"

	records, err := ReadRecords(strings.NewReader(csv), "hk")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "42", records[0].Earnings.Decimal.String())
	assert.False(t, records[0].Price.Valid)
	assert.False(t, records[0].Dividends.Valid)
}

func TestReadRecords_Errors(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("Name,Price\nA,1\n"), "us")
	assert.ErrorIs(t, err, ErrMissingTickerColumn)

	_, err = ReadRecords(strings.NewReader("Ticker,Market Cap\nA,abc\n"), "us")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	records, err := ReadRecords(strings.NewReader(""), "us")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestWriteRecords_ReadBack(t *testing.T) {
	in := []contracts.CompanyRecord{
		{
			Identifier:      "KO",
			Name:            "Coca-Cola, The",
			Currency:        "USD",
			Price:           contracts.KnownFloat(1500),
			Earnings:        contracts.KnownFloat(-12.5),
			InvestedCapital: contracts.KnownFloat(1000),
			Dividends:       contracts.KnownFloat(20),
			Debt:            contracts.KnownFloat(200),
			Equity:          contracts.Missing,
			AsOf:            time.Date(2025, 4, 18, 0, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(SnapshotHeader, ",")))

	out, err := ReadRecords(&buf, "us")
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, "Coca-Cola, The", got.Name)
	assert.Equal(t, "-12.5", got.Earnings.Decimal.String())
	assert.Equal(t, "20", got.Dividends.Decimal.String())
	assert.False(t, got.Equity.Valid)
	assert.Equal(t, in[0].AsOf, got.AsOf)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		want  string
	}{
		{"", false, ""},
		{"N/A", false, ""},
		{"nan", false, ""},
		{"None", false, ""},
		{"1,234.5", true, "1234.5"},
		{" -7 ", true, "-7"},
		{"0", true, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNumber(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, got.Decimal.String())
			}
		})
	}

	_, err := ParseNumber("12abc")
	assert.Error(t, err)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestConsolidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "us_batch1_20250101090000.csv", "Ticker,Market Cap\nAAPL,100\nMSFT,200\n")
	writeFile(t, dir, "us_batch2_20250418123045.csv", "Ticker,Market Cap\nAAPL,150\nKO,50\n")
	writeFile(t, dir, "hk_batch_20250418123045.csv", "Ticker,Market Cap\n0700.HK,999\n")
	writeFile(t, dir, "us_screen_data.csv", "Ticker,Market Cap\nIGNORED,1\n")

	files, err := ListSnapshots(dir, "us")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.True(t, files[0].Timestamp.Before(files[1].Timestamp))

	records, err := Consolidate(dir, "us")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "AAPL", records[0].Identifier)
	assert.Equal(t, "150", records[0].Price.Decimal.String(), "latest file wins")
	assert.Equal(t, time.Date(2025, 4, 18, 0, 0, 0, 0, time.UTC), records[0].AsOf)
	assert.Equal(t, "KO", records[1].Identifier)
	assert.Equal(t, "MSFT", records[2].Identifier)
	assert.Equal(t, "200", records[2].Price.Decimal.String())
}

func TestConsolidate_NoFiles(t *testing.T) {
	_, err := Consolidate(t.TempDir(), "cn")
	assert.ErrorIs(t, err, contracts.ErrNoSnapshot)
}

func TestFileNames(t *testing.T) {
	at := time.Date(2025, 4, 18, 12, 30, 45, 0, time.UTC)
	name := SnapshotFileName("hk", at)
	assert.Equal(t, "hk_fundamentals_20250418123045.csv", name)
	assert.Regexp(t, snapshotFilePattern, name)
	assert.Equal(t, "us_screen_data.csv", CleanFileName("us"))
}
