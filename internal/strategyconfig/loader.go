package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/fundscreen/internal/s0_data/quality"
)

// Load reads YAML file and returns Config with raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}

	return cfg, data, nil
}

// Parse decodes and validates strategy YAML
func Parse(data []byte) (*Config, error) {
	// quality 섹션 생략 시 기본 임계값 유지
	cfg := Config{Quality: quality.DefaultConfig()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode strategy: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// NewDecisionSnapshot creates the snapshot stored alongside each ranking run.
// yamlData 가 nil 이면 (기본 전략, CLI override) cfg 를 YAML 로 렌더링한다.
func NewDecisionSnapshot(cfg *Config, yamlData []byte) (*DecisionSnapshot, error) {
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}

	if yamlData == nil {
		if yamlData, err = yaml.Marshal(cfg); err != nil {
			return nil, fmt.Errorf("render strategy: %w", err)
		}
	}

	return &DecisionSnapshot{
		ConfigHash: hash,
		ConfigYAML: string(yamlData),
		StrategyID: cfg.Meta.StrategyID,
		CreatedAt:  time.Now(),
	}, nil
}

// ResolveTickers merges the inline tickers with the JSON tickers file.
// Tickers are upper-cased, de-duplicated and sorted.
func (c *Config) ResolveTickers() ([]string, error) {
	all := append([]string{}, c.Universe.Tickers...)

	if c.Universe.TickersFile != "" {
		data, err := os.ReadFile(c.Universe.TickersFile)
		if err != nil {
			return nil, fmt.Errorf("read tickers file: %w", err)
		}
		var fromFile []string
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("parse tickers file %s: %w", c.Universe.TickersFile, err)
		}
		all = append(all, fromFile...)
	}

	seen := make(map[string]struct{}, len(all))
	tickers := make([]string, 0, len(all))
	for _, t := range all {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	return tickers, nil
}
