package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

var maxStored = decimal.NewFromInt(math.MaxInt64)

// upsertAndDiffQuery reads the previous day and writes today in one
// statement. The prev CTE sees the snapshot taken before the insert, and
// concurrent writers for the same date serialize on the unique key.
const upsertAndDiffQuery = `
	WITH prev AS (
		SELECT gold, silver
		FROM metal_prices
		WHERE date = $1::date - 1
	), up AS (
		INSERT INTO metal_prices (date, gold, silver, created_at, updated_at)
		VALUES ($1::date, $2, $3, $4, $4)
		ON CONFLICT (date) DO UPDATE SET
			gold = EXCLUDED.gold,
			silver = EXCLUDED.silver,
			updated_at = EXCLUDED.updated_at
		RETURNING id, date, gold, silver, created_at, updated_at
	)
	SELECT up.id, up.date, up.gold, up.silver, up.created_at, up.updated_at,
	       prev.gold AS prev_gold, prev.silver AS prev_silver
	FROM up
	LEFT JOIN prev ON true
`

const priceColumns = `id, date, gold, silver, created_at, updated_at`

type upsertRow struct {
	models.PriceRecord
	PrevGold   sql.NullInt64 `db:"prev_gold"`
	PrevSilver sql.NullInt64 `db:"prev_silver"`
}

// UpsertAndDiff stores the quote for date and returns the stored record with
// the delta against date minus one calendar day. Values are rounded half
// away from zero first. A second call for the same date overwrites the first.
func (db *DB) UpsertAndDiff(ctx context.Context, date time.Time, q models.Quote) (*models.PriceRecord, models.DiffResult, error) {
	gold, err := roundPrice("gold", q.Gold)
	if err != nil {
		return nil, models.DiffResult{}, &StoreError{Op: "round quote", Err: err}
	}
	silver, err := roundPrice("silver", q.Silver)
	if err != nil {
		return nil, models.DiffResult{}, &StoreError{Op: "round quote", Err: err}
	}

	var row upsertRow
	err = db.conn.GetContext(ctx, &row, upsertAndDiffQuery,
		date.Format(models.DateLayout), gold, silver, time.Now().UTC(),
	)
	if err != nil {
		return nil, models.DiffResult{}, &StoreError{Op: "upsert price", Err: err}
	}

	var diff models.DiffResult
	if row.PrevGold.Valid && row.PrevSilver.Valid {
		g := row.Gold - row.PrevGold.Int64
		s := row.Silver - row.PrevSilver.Int64
		diff = models.DiffResult{GoldDiff: &g, SilverDiff: &s}
	}

	record := row.PriceRecord
	return &record, diff, nil
}

func roundPrice(name string, v decimal.Decimal) (int64, error) {
	r := v.Round(0)
	if !r.IsPositive() {
		return 0, fmt.Errorf("%s rounds to %s, must be positive", name, r)
	}
	if r.GreaterThan(maxStored) {
		return 0, fmt.Errorf("%s %s out of range", name, r)
	}
	return r.IntPart(), nil
}

// GetPriceByDate retrieves the price stored for a calendar date
func (db *DB) GetPriceByDate(ctx context.Context, date time.Time) (*models.PriceRecord, error) {
	query := `SELECT ` + priceColumns + ` FROM metal_prices WHERE date = $1::date`

	var p models.PriceRecord
	err := db.conn.GetContext(ctx, &p, query, date.Format(models.DateLayout))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("price not found for %s: %w", date.Format(models.DateLayout), ErrNotFound)
	}
	if err != nil {
		return nil, &StoreError{Op: "get price", Err: err}
	}
	return &p, nil
}

// GetLatestPrice retrieves the most recent stored price
func (db *DB) GetLatestPrice(ctx context.Context) (*models.PriceRecord, error) {
	query := `SELECT ` + priceColumns + ` FROM metal_prices ORDER BY date DESC LIMIT 1`

	var p models.PriceRecord
	err := db.conn.GetContext(ctx, &p, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no price recorded yet: %w", ErrNotFound)
	}
	if err != nil {
		return nil, &StoreError{Op: "get latest price", Err: err}
	}
	return &p, nil
}

// GetPriceRange retrieves prices between two dates inclusive, oldest first
func (db *DB) GetPriceRange(ctx context.Context, from, to time.Time) ([]*models.PriceRecord, error) {
	query := `
		SELECT ` + priceColumns + `
		FROM metal_prices
		WHERE date >= $1::date AND date <= $2::date
		ORDER BY date ASC
	`
	prices := []*models.PriceRecord{}
	err := db.conn.SelectContext(ctx, &prices, query,
		from.Format(models.DateLayout), to.Format(models.DateLayout),
	)
	if err != nil {
		return nil, &StoreError{Op: "get price range", Err: err}
	}
	return prices, nil
}
