package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscreen/internal/contracts"
)

func full(id string) contracts.CompanyRecord {
	return contracts.CompanyRecord{
		Identifier:      id,
		Price:           contracts.KnownFloat(10),
		Earnings:        contracts.KnownFloat(1),
		InvestedCapital: contracts.KnownFloat(5),
		Dividends:       contracts.KnownFloat(0),
		Debt:            contracts.KnownFloat(1),
		Equity:          contracts.KnownFloat(4),
	}
}

func TestGate_AllPresent(t *testing.T) {
	gate := NewGate(DefaultConfig())
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	snap := gate.Check([]contracts.CompanyRecord{full("A"), full("B")}, date)

	assert.Equal(t, date, snap.Date)
	assert.Equal(t, 2, snap.TotalRecords)
	assert.Equal(t, 2, snap.CompleteRecords)
	assert.InDelta(t, 1.0, snap.QualityScore, 1e-9)
	assert.True(t, snap.Passed())
	assert.NoError(t, snap.Err())
}

func TestGate_MissingDividends(t *testing.T) {
	gate := NewGate(DefaultConfig())

	noDiv := full("B")
	noDiv.Dividends = contracts.Missing

	snap := gate.Check([]contracts.CompanyRecord{full("A"), noDiv}, time.Now())

	assert.Equal(t, 1, snap.CompleteRecords)
	assert.InDelta(t, 0.5, snap.Coverage[FieldDividends], 1e-9)
	assert.InDelta(t, 0.95, snap.QualityScore, 1e-9)
	require.False(t, snap.Passed())
	assert.Equal(t, []string{FieldDividends}, snap.Failures)
	assert.ErrorIs(t, snap.Err(), ErrBelowThreshold)
}

func TestGate_Empty(t *testing.T) {
	snap := NewGate(DefaultConfig()).Check(nil, time.Now())

	assert.Equal(t, 0, snap.TotalRecords)
	assert.Equal(t, 0.0, snap.QualityScore)
	assert.Len(t, snap.Failures, 6)
}

func TestGate_DeterministicOrder(t *testing.T) {
	// 비율이 2진 소수로 딱 떨어지지 않는 배치: 합산 순서가 바뀌면 하위 비트가 달라진다
	records := make([]contracts.CompanyRecord, 0, 7)
	for i := 0; i < 7; i++ {
		rec := full(string(rune('A' + i)))
		if i%3 == 0 {
			rec.Price = contracts.Missing
			rec.Debt = contracts.Missing
		}
		if i%2 == 0 {
			rec.Dividends = contracts.Missing
			rec.InvestedCapital = contracts.Missing
		}
		records = append(records, rec)
	}

	gate := NewGate(DefaultConfig())
	first := gate.Check(records, time.Now())
	require.Equal(t, []string{FieldPrice, FieldInvestedCapital, FieldDividends, FieldDebt}, first.Failures)

	for i := 0; i < 50; i++ {
		snap := gate.Check(records, time.Now())
		assert.Equal(t, first.QualityScore, snap.QualityScore)
		assert.Equal(t, first.Failures, snap.Failures)
	}
}

func TestFields(t *testing.T) {
	assert.Equal(t, []string{
		FieldPrice, FieldEarnings, FieldInvestedCapital, FieldDividends, FieldDebt, FieldEquity,
	}, Fields())
}

func TestGate_ZeroThresholdsAlwaysPass(t *testing.T) {
	rec := contracts.CompanyRecord{Identifier: "X"}
	snap := NewGate(Config{}).Check([]contracts.CompanyRecord{rec}, time.Now())

	assert.True(t, snap.Passed())
	assert.Equal(t, 0, snap.CompleteRecords)
}
