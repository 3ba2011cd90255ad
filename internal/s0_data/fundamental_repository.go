package s0_data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/fundscreen/internal/contracts"
)

// FundamentalRepository implements contracts.FundamentalRepository
// ⭐ SSOT: 재무 스냅샷 저장소는 여기서만
type FundamentalRepository struct {
	pool *pgxpool.Pool
}

var _ contracts.FundamentalRepository = (*FundamentalRepository)(nil)

// NewFundamentalRepository creates a new fundamental repository
func NewFundamentalRepository(pool *pgxpool.Pool) *FundamentalRepository {
	return &FundamentalRepository{pool: pool}
}

// SaveBatch upserts snapshots keyed by (ticker, region, as_of).
// 누락 값은 NULL 로 저장된다.
func (r *FundamentalRepository) SaveBatch(ctx context.Context, records []contracts.CompanyRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO data.fundamentals
			(ticker, region, as_of, name, industry, currency,
			 price, earnings, invested_capital, dividends, debt, equity, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			$7::numeric, $8::numeric, $9::numeric, $10::numeric, $11::numeric, $12::numeric, NOW())
		ON CONFLICT (ticker, region, as_of) DO UPDATE SET
			name = EXCLUDED.name,
			industry = EXCLUDED.industry,
			currency = EXCLUDED.currency,
			price = EXCLUDED.price,
			earnings = EXCLUDED.earnings,
			invested_capital = EXCLUDED.invested_capital,
			dividends = EXCLUDED.dividends,
			debt = EXCLUDED.debt,
			equity = EXCLUDED.equity,
			fetched_at = NOW()`

	for _, rec := range records {
		asOf := rec.AsOf
		if asOf.IsZero() {
			asOf = time.Now().UTC()
		}
		batch.Queue(query,
			strings.ToUpper(rec.Identifier), rec.Region, asOf.Format("2006-01-02"),
			rec.Name, rec.Industry, rec.Currency,
			numericParam(rec.Price), numericParam(rec.Earnings), numericParam(rec.InvestedCapital),
			numericParam(rec.Dividends), numericParam(rec.Debt), numericParam(rec.Equity),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, rec := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save fundamentals %s: %w", rec.Identifier, err)
		}
	}

	return nil
}

// LatestSnapshot returns the most recent snapshot per ticker in a region
func (r *FundamentalRepository) LatestSnapshot(ctx context.Context, region string) ([]contracts.CompanyRecord, error) {
	query := `
		SELECT DISTINCT ON (ticker)
			ticker, region, as_of, name, industry, currency,
			price::text, earnings::text, invested_capital::text,
			dividends::text, debt::text, equity::text
		FROM data.fundamentals
		WHERE region = $1
		ORDER BY ticker, as_of DESC`

	rows, err := r.pool.Query(ctx, query, region)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	defer rows.Close()

	records := make([]contracts.CompanyRecord, 0)
	for rows.Next() {
		var (
			rec     contracts.CompanyRecord
			numeric [6]*string
		)
		if err := rows.Scan(
			&rec.Identifier, &rec.Region, &rec.AsOf, &rec.Name, &rec.Industry, &rec.Currency,
			&numeric[0], &numeric[1], &numeric[2], &numeric[3], &numeric[4], &numeric[5],
		); err != nil {
			return nil, fmt.Errorf("scan fundamentals: %w", err)
		}

		fields := []*decimal.NullDecimal{
			&rec.Price, &rec.Earnings, &rec.InvestedCapital,
			&rec.Dividends, &rec.Debt, &rec.Equity,
		}
		for i, f := range fields {
			if *f, err = parseNumeric(numeric[i]); err != nil {
				return nil, fmt.Errorf("ticker %s: %w", rec.Identifier, err)
			}
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fundamentals: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("region %s: %w", region, contracts.ErrNoSnapshot)
	}

	return records, nil
}

// numericParam NULL 또는 정확한 decimal 문자열
func numericParam(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func parseNumeric(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return contracts.Missing, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return contracts.Missing, fmt.Errorf("parse numeric %q: %w", *s, err)
	}
	return contracts.Known(d), nil
}
