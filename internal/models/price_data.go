package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used in keys, URLs and events
const DateLayout = "2006-01-02"

// Quote is a gold/silver quote as extracted from the upstream response,
// before rounding to the stored integral unit
type Quote struct {
	Gold   decimal.Decimal `json:"gold"`
	Silver decimal.Decimal `json:"silver"`
}

// PriceRecord is the stored daily price, keyed by calendar date
type PriceRecord struct {
	ID        int       `json:"id" db:"id"`
	Date      time.Time `json:"date" db:"date"`
	Gold      int64     `json:"gold" db:"gold"`
	Silver    int64     `json:"silver" db:"silver"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DiffResult holds the day-over-day deltas. A nil field means there was
// no record for the previous calendar day, which is not the same as zero.
type DiffResult struct {
	GoldDiff   *int64 `json:"gold_diff"`
	SilverDiff *int64 `json:"silver_diff"`
}

// HasPrevious reports whether a prior-day record existed
func (d DiffResult) HasPrevious() bool {
	return d.GoldDiff != nil && d.SilverDiff != nil
}

// Event type constants
const (
	EventPriceRecorded = "PRICE_RECORDED"
	EventRunRequested  = "RUN_REQUESTED"
)

// PriceEvent is published after a price has been stored
type PriceEvent struct {
	EventType string       `json:"event_type"`
	Date      string       `json:"date"`
	Record    *PriceRecord `json:"record"`
	Diff      DiffResult   `json:"diff"`
	RunID     string       `json:"run_id,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// TriggerEvent asks a tracker instance to run the pipeline once
type TriggerEvent struct {
	EventType   string    `json:"event_type"`
	RequestedBy string    `json:"requested_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
