package database

import (
	"context"
	"fmt"
	"time"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

// CreateDeliveryResults records the outcome of each delivery for a price date
func (db *DB) CreateDeliveryResults(ctx context.Context, date time.Time, results []models.DeliveryResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO delivery_log (price_date, recipient, channel, status, reason, message_id, sent_at)
		VALUES ($1::date, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	day := date.Format(models.DateLayout)
	for _, r := range results {
		sentAt := r.SentAt
		if sentAt.IsZero() {
			sentAt = time.Now().UTC()
		}
		_, err := stmt.ExecContext(ctx, day, r.Recipient, r.Channel, r.Status, r.Reason, r.MessageID, sentAt)
		if err != nil {
			return fmt.Errorf("failed to record delivery for %s: %w", r.Recipient, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetDeliveriesByDate retrieves delivery outcomes for a price date in the
// order they were recorded
func (db *DB) GetDeliveriesByDate(ctx context.Context, date time.Time) ([]models.DeliveryResult, error) {
	query := `
		SELECT id, price_date, recipient, channel, status, reason, message_id, sent_at
		FROM delivery_log
		WHERE price_date = $1::date
		ORDER BY id ASC
	`
	results := []models.DeliveryResult{}
	if err := db.conn.SelectContext(ctx, &results, query, date.Format(models.DateLayout)); err != nil {
		return nil, fmt.Errorf("failed to get deliveries: %w", err)
	}
	return results, nil
}
