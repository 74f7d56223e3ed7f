package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ashmitsharp/classtrib-api/internal/config"
	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/redis/go-redis/v9"
)

const reportKeyPrefix = "report:company"

// ReportCache holds built reports per company, one entry per upload batch
type ReportCache interface {
	GetReport(ctx context.Context, companyID int64, batchAt time.Time) (*models.Report, bool, error)
	SetReport(ctx context.Context, companyID int64, batchAt time.Time, report *models.Report) error
	Invalidate(ctx context.Context, companyID int64) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

// NewReportCache returns a redis-backed cache, or a no-op one when caching is disabled
func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReportCache{client: client, ttl: ttl}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) GetReport(ctx context.Context, companyID int64, batchAt time.Time) (*models.Report, bool, error) {
	payload, err := c.client.Get(ctx, reportKey(companyID, batchAt)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode report cache: %w", err)
	}

	return &report, true, nil
}

func (c *redisReportCache) SetReport(ctx context.Context, companyID int64, batchAt time.Time, report *models.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.client.Set(ctx, reportKey(companyID, batchAt), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Invalidate removes the entries of every batch of the company
func (c *redisReportCache) Invalidate(ctx context.Context, companyID int64) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, companyPattern(companyID), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (n *noopReportCache) GetReport(ctx context.Context, companyID int64, batchAt time.Time) (*models.Report, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetReport(ctx context.Context, companyID int64, batchAt time.Time, report *models.Report) error {
	return nil
}

func (n *noopReportCache) Invalidate(ctx context.Context, companyID int64) error {
	return nil
}

func reportKey(companyID int64, batchAt time.Time) string {
	return fmt.Sprintf("%s:%d:%d", reportKeyPrefix, companyID, batchAt.UTC().UnixMicro())
}

func companyPattern(companyID int64) string {
	return fmt.Sprintf("%s:%d:*", reportKeyPrefix, companyID)
}
