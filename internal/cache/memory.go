package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

// Memory is an in-process PriceCache
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates a Memory cache whose entries expire after ttl
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{c: gocache.New(ttl, 2*ttl)}
}

// Get returns a copy of the cached record
func (m *Memory) Get(_ context.Context, date time.Time) (*models.PriceRecord, bool) {
	v, ok := m.c.Get(key(date))
	if !ok {
		return nil, false
	}
	record := v.(models.PriceRecord)
	return &record, true
}

// Set stores a copy of record
func (m *Memory) Set(_ context.Context, record *models.PriceRecord) {
	m.c.SetDefault(key(record.Date), *record)
}

// Close drops all entries
func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
