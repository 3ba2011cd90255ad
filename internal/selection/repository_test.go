package selection

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscreen/internal/contracts"
	"github.com/wonny/fundscreen/pkg/config"
	"github.com/wonny/fundscreen/pkg/database"
)

func TestNewExclusionReport(t *testing.T) {
	report := newExclusionReport(4)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_input":4,"excluded":[],"by_reason":{}}`, string(data))
}

func allRanks(r int) contracts.MetricRanks {
	return contracts.MetricRanks{EarningsYield: r, ReturnOnCapital: r, DividendYield: r, DebtRisk: r}
}

func rankedRow(id string, ey, roc, dy, dr string, ranks contracts.MetricRanks, overall int) contracts.RankedResult {
	return contracts.RankedResult{
		Identifier: id,
		Name:       id + " Corp",
		Metrics: contracts.MetricSet{
			EarningsYield:   decimal.RequireFromString(ey),
			ReturnOnCapital: decimal.RequireFromString(roc),
			DividendYield:   decimal.RequireFromString(dy),
			DebtRisk:        decimal.RequireFromString(dr),
		},
		Ranks:          ranks,
		CompositeScore: ranks.Sum(),
		OverallRank:    overall,
	}
}

func TestRepository_Integration(t *testing.T) {
	if testing.Short() || os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	region := "test_" + time.Now().Format("150405")
	defer db.Pool.Exec(context.Background(), "DELETE FROM selection.ranking_runs WHERE region = $1", region)

	repo := NewRepository(db.Pool)

	_, err = repo.LatestRun(ctx, region)
	assert.ErrorIs(t, err, contracts.ErrNoSnapshot)

	created := time.Date(2025, 4, 18, 15, 30, 0, 0, time.UTC)

	// 1) 제외 없음: 빈 목록/맵으로 복원되어야 한다
	clean := &contracts.ScreenResult{
		RunID:        uuid.NewString(),
		Region:       region,
		Method:       contracts.MethodSum,
		StrategyHash: "hash-1",
		StrategyYAML: "meta:\n  strategy_id: fundamental_us\n",
		Results: []contracts.RankedResult{
			rankedRow("ZED", "0.333333333333", "0.4", "0.1", "0.2", allRanks(1), 1),
			rankedRow("ALPHA", "0.05", "0.1", "0", "0.8", allRanks(2), 2),
		},
		Exclusions: contracts.ExclusionReport{TotalInput: 2, Excluded: []contracts.Exclusion{}},
		CreatedAt:  created,
	}
	require.NoError(t, repo.SaveRun(ctx, clean))

	got, err := repo.LatestRun(ctx, region)
	require.NoError(t, err)
	assert.Equal(t, clean.RunID, got.RunID)
	assert.Equal(t, region, got.Region)
	assert.Equal(t, contracts.MethodSum, got.Method)
	assert.Equal(t, "hash-1", got.StrategyHash)
	assert.Equal(t, clean.StrategyYAML, got.StrategyYAML)
	assert.True(t, created.Equal(got.CreatedAt))

	require.Len(t, got.Results, 2)
	assert.Equal(t, "ZED", got.Results[0].Identifier, "rows keep saved position, not name order")
	assert.Equal(t, "ALPHA", got.Results[1].Identifier)
	assert.Equal(t, "ZED Corp", got.Results[0].Name)
	assert.True(t, decimal.RequireFromString("0.333333333333").Equal(got.Results[0].Metrics.EarningsYield))
	assert.True(t, decimal.RequireFromString("0.8").Equal(got.Results[1].Metrics.DebtRisk))
	assert.True(t, got.Results[1].Metrics.DividendYield.IsZero())
	assert.Equal(t, allRanks(2), got.Results[1].Ranks)
	assert.Equal(t, 8, got.Results[1].CompositeScore)
	assert.Equal(t, 2, got.Results[1].OverallRank)

	assert.Equal(t, 2, got.Exclusions.TotalInput)
	assert.NotNil(t, got.Exclusions.Excluded)
	assert.NotNil(t, got.Exclusions.ByReason)
	assert.Zero(t, got.Exclusions.Count())

	// 2) 제외 있음, 더 최신 실행
	var report contracts.ExclusionReport
	report.TotalInput = 3
	report.Add("BROKE", contracts.ReasonNonPositivePrice)
	report.Add("GHOST", contracts.ReasonMissingField)

	latest := &contracts.ScreenResult{
		RunID:      uuid.NewString(),
		Region:     region,
		Method:     contracts.MethodBlended,
		Results:    []contracts.RankedResult{rankedRow("ONLY", "0.1", "0.2", "0.03", "0.5", allRanks(1), 1)},
		Exclusions: report,
		CreatedAt:  created.Add(time.Hour),
	}
	require.NoError(t, repo.SaveRun(ctx, latest))

	got, err = repo.LatestRun(ctx, region)
	require.NoError(t, err)
	assert.Equal(t, latest.RunID, got.RunID)
	assert.Equal(t, contracts.MethodBlended, got.Method)
	require.Len(t, got.Results, 1)
	assert.Equal(t, 3, got.Exclusions.TotalInput)
	assert.Equal(t, report.Excluded, got.Exclusions.Excluded)
	assert.Equal(t, 1, got.Exclusions.ByReason[contracts.ReasonNonPositivePrice])
	assert.Equal(t, 1, got.Exclusions.ByReason[contracts.ReasonMissingField])
}
