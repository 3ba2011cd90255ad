package contracts

import "time"

// MetricRanks holds one company's competition rank on each metric (1 = best)
type MetricRanks struct {
	EarningsYield   int `json:"earnings_yield"`
	ReturnOnCapital int `json:"return_on_capital"`
	DividendYield   int `json:"dividend_yield"`
	DebtRisk        int `json:"debt_risk"`
}

// Sum returns the composite score contribution of the four ranks
func (m MetricRanks) Sum() int {
	return m.EarningsYield + m.ReturnOnCapital + m.DividendYield + m.DebtRisk
}

// RankedResult is the final, read-only ranking entry of one company
// ⭐ SSOT: Ranker → 표시/저장 계층 전달
type RankedResult struct {
	Identifier     string      `json:"identifier"`
	Name           string      `json:"name,omitempty"`
	Metrics        MetricSet   `json:"metrics"`
	Ranks          MetricRanks `json:"ranks"`
	CompositeScore int         `json:"composite_score"` // lower is better
	OverallRank    int         `json:"overall_rank"`    // 1-based
}

// IsTopRanked checks if the company is in the top N overall ranks
func (r *RankedResult) IsTopRanked(n int) bool {
	return r.OverallRank <= n && r.OverallRank > 0
}

// RankingMethod selects how per-metric ranks combine into the composite score
type RankingMethod string

const (
	// MethodSum adds the four per-metric ranks
	MethodSum RankingMethod = "sum"
	// MethodBlended ranks dividend yield + debt risk as one shareholder factor
	MethodBlended RankingMethod = "blended"
)

// ScreenResult is one full screening run
type ScreenResult struct {
	RunID        string          `json:"run_id"`
	Region       string          `json:"region,omitempty"`
	Method       RankingMethod   `json:"method"`
	StrategyHash string          `json:"strategy_hash,omitempty"`
	StrategyYAML string          `json:"strategy_yaml,omitempty"`
	Results      []RankedResult  `json:"results"`
	Exclusions   ExclusionReport `json:"exclusions"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Top returns the first n results (all when n <= 0)
func (s *ScreenResult) Top(n int) []RankedResult {
	if n <= 0 || n >= len(s.Results) {
		return s.Results
	}
	return s.Results[:n]
}

// TiedBeyond counts results cut off by Top(n) that still share a top-n overall rank
func (s *ScreenResult) TiedBeyond(n int) int {
	if n <= 0 || n >= len(s.Results) {
		return 0
	}
	count := 0
	for i := n; i < len(s.Results) && s.Results[i].IsTopRanked(n); i++ {
		count++
	}
	return count
}
