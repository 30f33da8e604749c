// Package cache keeps recently served daily prices for the HTTP API.
package cache

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTTL applies when no TTL is configured
const DefaultTTL = 10 * time.Minute

// PriceCache stores PriceRecords by calendar date. Failures are treated as
// misses, the database stays the source of truth.
type PriceCache interface {
	Get(ctx context.Context, date time.Time) (*models.PriceRecord, bool)
	Set(ctx context.Context, record *models.PriceRecord)
	Close() error
}

func key(date time.Time) string {
	return "metal-price:" + date.Format(models.DateLayout)
}
