package strategyconfig

import (
	"fmt"
	"regexp"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var strategyIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if !strategyIDPattern.MatchString(cfg.Meta.StrategyID) {
		return ValidationError{"meta.strategy_id", "must match [a-z0-9_]+"}
	}

	// === Universe ===
	switch cfg.Universe.Region {
	case "us", "cn", "hk":
	default:
		return ValidationError{"universe.region", "must be one of us, cn, hk"}
	}

	// === Ranking ===
	switch cfg.Ranking.Method {
	case "sum", "blended":
	default:
		return ValidationError{"ranking.method", "must be sum or blended"}
	}
	if cfg.Ranking.TopN < 0 {
		return ValidationError{"ranking.top_n", "must be >= 0"}
	}

	// === Quality ===
	// YAML 순서대로 검사 (첫 번째 위반 필드를 보고)
	coverages := []struct {
		field string
		value float64
	}{
		{"quality.min_price_coverage", cfg.Quality.MinPriceCoverage},
		{"quality.min_earnings_coverage", cfg.Quality.MinEarningsCoverage},
		{"quality.min_capital_coverage", cfg.Quality.MinCapitalCoverage},
		{"quality.min_dividend_coverage", cfg.Quality.MinDividendCoverage},
		{"quality.min_balance_coverage", cfg.Quality.MinBalanceCoverage},
	}
	for _, c := range coverages {
		if c.value < 0 || c.value > 1 {
			return ValidationError{c.field, "must be between 0 and 1"}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Universe.TickersFile == "" && len(cfg.Universe.Tickers) == 0 {
		warnings = append(warnings, Warning{
			Code:    "EMPTY_UNIVERSE",
			Message: "no tickers configured: fetch has nothing to collect",
		})
	}

	if cfg.Ranking.Method == "blended" {
		warnings = append(warnings, Warning{
			Code:    "BLENDED_METHOD",
			Message: "blended method weights shareholder factors half as much as the sum method",
		})
	}

	if !cfg.Output.ReportExclusions {
		warnings = append(warnings, Warning{
			Code:    "SILENT_EXCLUSIONS",
			Message: "excluded records will not be listed in output",
		})
	}

	return warnings
}
