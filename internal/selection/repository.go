package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/fundscreen/internal/contracts"
)

// Repository handles ranking run persistence
// ⭐ SSOT: 순위 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

var _ contracts.RankingRepository = (*Repository)(nil)

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRun stores the run header and every ranked row in one transaction
func (r *Repository) SaveRun(ctx context.Context, run *contracts.ScreenResult) error {
	exclusionsJSON, err := json.Marshal(run.Exclusions.Excluded)
	if err != nil {
		return fmt.Errorf("failed to marshal exclusions: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO selection.ranking_runs (
			run_id, region, method, strategy_hash, strategy_yaml, total_input, exclusions, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.RunID, run.Region, string(run.Method), run.StrategyHash, run.StrategyYAML,
		run.Exclusions.TotalInput, exclusionsJSON, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ranking run: %w", err)
	}

	query := `
		INSERT INTO selection.ranking_results (
			run_id, position, identifier, name,
			earnings_yield, return_on_capital, dividend_yield, debt_risk,
			rank_ey, rank_roc, rank_dy, rank_dr,
			composite_score, overall_rank
		) VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric,
			$9, $10, $11, $12, $13, $14)`

	for i, res := range run.Results {
		_, err := tx.Exec(ctx, query,
			run.RunID, i+1, res.Identifier, res.Name,
			res.Metrics.EarningsYield.String(), res.Metrics.ReturnOnCapital.String(),
			res.Metrics.DividendYield.String(), res.Metrics.DebtRisk.String(),
			res.Ranks.EarningsYield, res.Ranks.ReturnOnCapital,
			res.Ranks.DividendYield, res.Ranks.DebtRisk,
			res.CompositeScore, res.OverallRank,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ranking result %s: %w", res.Identifier, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// newExclusionReport returns an empty, non-nil report ("excluded": [], "by_reason": {})
func newExclusionReport(totalInput int) contracts.ExclusionReport {
	return contracts.ExclusionReport{
		TotalInput: totalInput,
		Excluded:   []contracts.Exclusion{},
		ByReason:   make(map[contracts.ExclusionReason]int),
	}
}

// LatestRun returns the most recent run of a region with its rows in ranked order
func (r *Repository) LatestRun(ctx context.Context, region string) (*contracts.ScreenResult, error) {
	var (
		run            contracts.ScreenResult
		method         string
		totalInput     int
		exclusionsJSON []byte
	)

	err := r.pool.QueryRow(ctx, `
		SELECT run_id::text, region, method, strategy_hash, strategy_yaml, total_input, exclusions, created_at
		FROM selection.ranking_runs
		WHERE region = $1
		ORDER BY created_at DESC
		LIMIT 1`, region,
	).Scan(&run.RunID, &run.Region, &method, &run.StrategyHash, &run.StrategyYAML,
		&totalInput, &exclusionsJSON, &run.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("region %s: %w", region, contracts.ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ranking run: %w", err)
	}

	run.Method = contracts.RankingMethod(method)
	run.Exclusions = newExclusionReport(totalInput)

	var excluded []contracts.Exclusion
	if err := json.Unmarshal(exclusionsJSON, &excluded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal exclusions: %w", err)
	}
	for _, e := range excluded {
		run.Exclusions.Add(e.Identifier, e.Reason)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT identifier, name,
			earnings_yield::text, return_on_capital::text, dividend_yield::text, debt_risk::text,
			rank_ey, rank_roc, rank_dy, rank_dr, composite_score, overall_rank
		FROM selection.ranking_results
		WHERE run_id = $1
		ORDER BY position ASC`, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking results: %w", err)
	}
	defer rows.Close()

	run.Results = make([]contracts.RankedResult, 0)
	for rows.Next() {
		var (
			res     contracts.RankedResult
			metrics [4]string
		)
		if err := rows.Scan(
			&res.Identifier, &res.Name,
			&metrics[0], &metrics[1], &metrics[2], &metrics[3],
			&res.Ranks.EarningsYield, &res.Ranks.ReturnOnCapital,
			&res.Ranks.DividendYield, &res.Ranks.DebtRisk,
			&res.CompositeScore, &res.OverallRank,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		dest := []*decimal.Decimal{
			&res.Metrics.EarningsYield, &res.Metrics.ReturnOnCapital,
			&res.Metrics.DividendYield, &res.Metrics.DebtRisk,
		}
		for i, d := range dest {
			if *d, err = decimal.NewFromString(metrics[i]); err != nil {
				return nil, fmt.Errorf("failed to parse metric %q: %w", metrics[i], err)
			}
		}

		run.Results = append(run.Results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &run, nil
}
