package screening

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/fundscreen/internal/contracts"
)

// metricSpec describes how one metric is read and which direction is better
type metricSpec struct {
	name      string
	value     func(m *contracts.MetricSet) decimal.Decimal
	ascending bool // true when lower values are better
	assign    func(r *contracts.MetricRanks, rank int)
}

var metricSpecs = []metricSpec{
	{
		name:   "earnings_yield",
		value:  func(m *contracts.MetricSet) decimal.Decimal { return m.EarningsYield },
		assign: func(r *contracts.MetricRanks, rank int) { r.EarningsYield = rank },
	},
	{
		name:   "return_on_capital",
		value:  func(m *contracts.MetricSet) decimal.Decimal { return m.ReturnOnCapital },
		assign: func(r *contracts.MetricRanks, rank int) { r.ReturnOnCapital = rank },
	},
	{
		name:   "dividend_yield",
		value:  func(m *contracts.MetricSet) decimal.Decimal { return m.DividendYield },
		assign: func(r *contracts.MetricRanks, rank int) { r.DividendYield = rank },
	},
	{
		name:      "debt_risk",
		value:     func(m *contracts.MetricSet) decimal.Decimal { return m.DebtRisk },
		ascending: true,
		assign:    func(r *contracts.MetricRanks, rank int) { r.DebtRisk = rank },
	},
}

// Rank orders companies by the sum of their four per-metric ranks.
//
// Every rank uses standard competition ranking ("1224"): equal values share a
// rank and the next distinct value skips by the size of the tie group, so two
// companies tied at 3 are both 3 and the next one is 5. The composite score
// therefore always sums ranks on the same 1..N scale regardless of how many
// ties occur. The final order is composite score ascending, then identifier
// ascending; tied scores share the overall rank.
// ⭐ SSOT: 종합 순위 로직은 여기서만
func Rank(pairs []contracts.DerivedCompany) []contracts.RankedResult {
	results := newResults(pairs)
	assignMetricRanks(pairs, results)

	for i := range results {
		results[i].CompositeScore = results[i].Ranks.Sum()
	}

	orderOverall(results)
	return results
}

// RankBlended is the three-factor variant: earnings yield rank + return on
// capital rank + the rank of (dividend yield rank + debt risk rank).
// Per-metric ranks are reported exactly as in Rank.
func RankBlended(pairs []contracts.DerivedCompany) []contracts.RankedResult {
	results := newResults(pairs)
	assignMetricRanks(pairs, results)

	shareholder := make([]int, len(results))
	for i := range results {
		shareholder[i] = results[i].Ranks.DividendYield + results[i].Ranks.DebtRisk
	}
	shareholderRanks := competitionRanks(len(shareholder), func(i, j int) int {
		return compareInt(shareholder[i], shareholder[j])
	})

	for i := range results {
		r := &results[i]
		r.CompositeScore = r.Ranks.EarningsYield + r.Ranks.ReturnOnCapital + shareholderRanks[i]
	}

	orderOverall(results)
	return results
}

func newResults(pairs []contracts.DerivedCompany) []contracts.RankedResult {
	results := make([]contracts.RankedResult, len(pairs))
	for i := range pairs {
		results[i] = contracts.RankedResult{
			Identifier: pairs[i].Record.Identifier,
			Name:       pairs[i].Record.Name,
			Metrics:    pairs[i].Metrics,
		}
	}
	return results
}

func assignMetricRanks(pairs []contracts.DerivedCompany, results []contracts.RankedResult) {
	for _, spec := range metricSpecs {
		values := make([]decimal.Decimal, len(pairs))
		for i := range pairs {
			values[i] = spec.value(&pairs[i].Metrics)
		}

		ascending := spec.ascending
		ranks := competitionRanks(len(values), func(i, j int) int {
			if ascending {
				return values[i].Cmp(values[j])
			}
			return values[j].Cmp(values[i])
		})

		for i := range results {
			spec.assign(&results[i].Ranks, ranks[i])
		}
	}
}

// competitionRanks returns the 1-based competition rank of each of n items.
// cmp(i, j) < 0 means item i is better than item j; 0 means a tie.
func competitionRanks(n int, cmp func(i, j int) int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cmp(order[a], order[b]) < 0
	})

	ranks := make([]int, n)
	for pos, idx := range order {
		if pos > 0 && cmp(order[pos-1], idx) == 0 {
			ranks[idx] = ranks[order[pos-1]]
			continue
		}
		ranks[idx] = pos + 1
	}
	return ranks
}

// orderOverall sorts by composite score then identifier, and assigns
// competition ranks on the composite score
func orderOverall(results []contracts.RankedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CompositeScore != results[j].CompositeScore {
			return results[i].CompositeScore < results[j].CompositeScore
		}
		return results[i].Identifier < results[j].Identifier
	})

	for i := range results {
		if i > 0 && results[i].CompositeScore == results[i-1].CompositeScore {
			results[i].OverallRank = results[i-1].OverallRank
			continue
		}
		results[i].OverallRank = i + 1
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
