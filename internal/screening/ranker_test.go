package screening

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscreen/internal/contracts"
)

func rankRecords(t *testing.T, records []contracts.CompanyRecord) []contracts.RankedResult {
	t.Helper()
	derived, _, err := Derive(records)
	require.NoError(t, err)
	return Rank(derived)
}

func byIdentifier(results []contracts.RankedResult) map[string]contracts.RankedResult {
	out := make(map[string]contracts.RankedResult, len(results))
	for _, r := range results {
		out[r.Identifier] = r
	}
	return out
}

func TestRank_Scenario(t *testing.T) {
	results := rankRecords(t, scenarioRecords())
	require.Len(t, results, 3)

	got := byIdentifier(results)

	assert.Equal(t, contracts.MetricRanks{EarningsYield: 1, ReturnOnCapital: 1, DividendYield: 1, DebtRisk: 2}, got["A"].Ranks)
	assert.Equal(t, contracts.MetricRanks{EarningsYield: 2, ReturnOnCapital: 2, DividendYield: 2, DebtRisk: 3}, got["B"].Ranks)
	assert.Equal(t, contracts.MetricRanks{EarningsYield: 3, ReturnOnCapital: 3, DividendYield: 2, DebtRisk: 1}, got["C"].Ranks)

	assert.Equal(t, 5, got["A"].CompositeScore)
	assert.Equal(t, 9, got["B"].CompositeScore)
	assert.Equal(t, 9, got["C"].CompositeScore)

	// B and C tie on 9: shared overall rank, identifier orders them
	assert.Equal(t, []string{"A", "B", "C"}, []string{results[0].Identifier, results[1].Identifier, results[2].Identifier})
	assert.Equal(t, []int{1, 2, 2}, []int{results[0].OverallRank, results[1].OverallRank, results[2].OverallRank})
}

func TestRank_Empty(t *testing.T) {
	results := Rank(nil)
	require.NotNil(t, results)
	assert.Empty(t, results)

	results = RankBlended([]contracts.DerivedCompany{})
	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestCompetitionRanks(t *testing.T) {
	tests := []struct {
		name   string
		values []int // lower is better
		want   []int
	}{
		{"distinct", []int{3, 1, 2}, []int{3, 1, 2}},
		{"tie group skips", []int{1, 2, 3, 3, 4}, []int{1, 2, 3, 3, 5}},
		{"all tied", []int{7, 7, 7}, []int{1, 1, 1}},
		{"leading tie", []int{0, 0, 5, 9}, []int{1, 1, 3, 4}},
		{"single", []int{4}, []int{1}},
		{"empty", []int{}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := competitionRanks(len(tt.values), func(i, j int) int {
				return compareInt(tt.values[i], tt.values[j])
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRank_Deterministic(t *testing.T) {
	records := []contracts.CompanyRecord{
		company("MSFT", 400, 100, 300, 3, 50, 200),
		company("AAPL", 190, 120, 150, 1, 110, 60),
		company("KO", 60, 12, 40, 2, 40, 25),
		company("T", 17, 5, 30, 1, 130, 100),
		company("PEP", 170, 14, 50, 5, 44, 20),
		company("XOM", 110, 50, 200, 4, 40, 200),
	}

	first, err := json.Marshal(rankRecords(t, records))
	require.NoError(t, err)

	// same records, different input order
	reversed := make([]contracts.CompanyRecord, len(records))
	for i := range records {
		reversed[len(records)-1-i] = records[i]
	}

	second, err := json.Marshal(rankRecords(t, reversed))
	require.NoError(t, err)
	third, err := json.Marshal(rankRecords(t, records))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, string(first), string(third))
}

func TestRank_DominanceMonotonicity(t *testing.T) {
	// STRONG beats WEAK on every metric; filler companies shuffle the field
	records := []contracts.CompanyRecord{
		company("STRONG", 10, 3, 6, 1, 1, 10),
		company("WEAK", 10, 1, 10, 0.5, 5, 10),
		company("MID1", 10, 2, 8, 0.8, 2, 10),
		company("MID2", 20, 2, 4, 0.1, 9, 10),
	}

	got := byIdentifier(rankRecords(t, records))
	assert.LessOrEqual(t, got["STRONG"].OverallRank, got["WEAK"].OverallRank)
	assert.Less(t, got["STRONG"].CompositeScore, got["WEAK"].CompositeScore)
}

func TestRank_TieConsistency(t *testing.T) {
	records := []contracts.CompanyRecord{
		company("ZED", 10, 2, 5, 1, 2, 10),
		company("ALPHA", 20, 4, 10, 2, 4, 20), // same ratios as ZED
		company("OTHER", 10, 1, 5, 0, 5, 10),
	}

	results := rankRecords(t, records)
	got := byIdentifier(results)

	assert.Equal(t, got["ZED"].Ranks, got["ALPHA"].Ranks)
	assert.Equal(t, got["ZED"].CompositeScore, got["ALPHA"].CompositeScore)
	assert.Equal(t, got["ZED"].OverallRank, got["ALPHA"].OverallRank)

	assert.Equal(t, "ALPHA", results[0].Identifier)
	assert.Equal(t, "ZED", results[1].Identifier)
}

func TestRank_DebtRiskLowerIsBetter(t *testing.T) {
	records := []contracts.CompanyRecord{
		company("LOWDEBT", 10, 2, 5, 1, 1, 10),
		company("HIGHDEBT", 10, 2, 5, 1, 9, 10),
	}

	got := byIdentifier(rankRecords(t, records))
	assert.Equal(t, 1, got["LOWDEBT"].Ranks.DebtRisk)
	assert.Equal(t, 2, got["HIGHDEBT"].Ranks.DebtRisk)
	assert.Less(t, got["LOWDEBT"].OverallRank, got["HIGHDEBT"].OverallRank)
}

func TestRank_DoesNotMutatePairs(t *testing.T) {
	derived, _, err := Derive(scenarioRecords())
	require.NoError(t, err)

	order := []string{derived[0].Record.Identifier, derived[1].Record.Identifier, derived[2].Record.Identifier}
	_ = Rank(derived)
	assert.Equal(t, order, []string{derived[0].Record.Identifier, derived[1].Record.Identifier, derived[2].Record.Identifier})
}

func TestRankBlended_Scenario(t *testing.T) {
	derived, _, err := Derive(scenarioRecords())
	require.NoError(t, err)

	results := RankBlended(derived)
	got := byIdentifier(results)

	// shareholder factor: A=1+2=3, B=2+3=5, C=2+1=3 -> ranks A1, C1, B3
	assert.Equal(t, 3, got["A"].CompositeScore)
	assert.Equal(t, 7, got["B"].CompositeScore)
	assert.Equal(t, 7, got["C"].CompositeScore)

	assert.Equal(t, "A", results[0].Identifier)
	assert.Equal(t, []int{1, 2, 2}, []int{results[0].OverallRank, results[1].OverallRank, results[2].OverallRank})

	// per-metric ranks are the same as the sum method
	assert.Equal(t, byIdentifier(Rank(derived))["C"].Ranks, got["C"].Ranks)
}
