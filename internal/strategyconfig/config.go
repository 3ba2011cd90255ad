package strategyconfig

import (
	"time"

	"github.com/wonny/fundscreen/internal/s0_data/quality"
)

// Config는 스크리닝 전략의 전체 설정
type Config struct {
	Meta     Meta           `yaml:"meta" json:"meta"`
	Universe Universe       `yaml:"universe" json:"universe"`
	Ranking  Ranking        `yaml:"ranking" json:"ranking"`
	Output   Output         `yaml:"output" json:"output"`
	Quality  quality.Config `yaml:"quality" json:"quality"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Universe 스크리닝 대상
type Universe struct {
	Region      string   `yaml:"region" json:"region"`             // us, cn, hk
	TickersFile string   `yaml:"tickers_file" json:"tickers_file"` // JSON array of tickers
	Tickers     []string `yaml:"tickers" json:"tickers"`           // inline tickers (merged with file)
}

// Ranking 종합 순위 설정
type Ranking struct {
	Method string `yaml:"method" json:"method"` // sum | blended
	TopN   int    `yaml:"top_n" json:"top_n"`   // 0 = all
}

// Output 결과 출력 설정
type Output struct {
	Dir              string `yaml:"dir" json:"dir"`
	ReportExclusions bool   `yaml:"report_exclusions" json:"report_exclusions"`
	PersistRankings  bool   `yaml:"persist_rankings" json:"persist_rankings"`
}

// Default returns the built-in strategy used when no YAML is configured
func Default(region string) *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "fundamental_" + region,
			Version:    "1",
		},
		Universe: Universe{Region: region},
		Ranking:  Ranking{Method: "sum"},
		Output: Output{
			Dir:              "data",
			ReportExclusions: true,
			PersistRankings:  true,
		},
		Quality: quality.DefaultConfig(),
	}
}

// DecisionSnapshot 전략 스냅샷 (재현성용)
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	CreatedAt  time.Time `json:"created_at"`
}
