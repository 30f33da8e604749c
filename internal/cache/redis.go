package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trogers1052/metal-price-tracker/internal/logx"
	"github.com/trogers1052/metal-price-tracker/internal/models"
)

// Redis is a PriceCache shared between tracker instances
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions configures NewRedis
type RedisOptions struct {
	Address  string
	Username string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedis connects to Redis and verifies the connection
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Network:  "tcp",
		Addr:     opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logx.FromContext(ctx).Info("redis connected",
		slog.String("address", opts.Address),
		slog.Int("database", opts.DB),
	)

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}, nil
}

// Get loads and decodes the record for date
func (r *Redis) Get(ctx context.Context, date time.Time) (*models.PriceRecord, bool) {
	data, err := r.client.Get(ctx, key(date)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logx.FromContext(ctx).Warn("redis get failed", logx.Error(err))
		}
		return nil, false
	}

	var record models.PriceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		logx.FromContext(ctx).Warn("redis entry undecodable", logx.Error(err))
		return nil, false
	}
	return &record, true
}

// Set encodes and stores record with the configured TTL
func (r *Redis) Set(ctx context.Context, record *models.PriceRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		logx.FromContext(ctx).Warn("failed to encode price for cache", logx.Error(err))
		return
	}
	if err := r.client.Set(ctx, key(record.Date), data, r.ttl).Err(); err != nil {
		logx.FromContext(ctx).Warn("redis set failed", logx.Error(err))
	}
}

// Close closes the client
func (r *Redis) Close() error {
	return r.client.Close()
}
