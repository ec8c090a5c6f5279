package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/exportai/backend/internal/metrics"
	"github.com/exportai/backend/pkg/logger"
)

// Client caches analysis list reads per company. Every key embeds the
// company id so one invalidation call clears everything a fresh analysis
// run may have made stale.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func analysisKey(companyID int64, listKey string) string {
	return fmt.Sprintf("analysis:%d:%s", companyID, listKey)
}

// SetAnalysisList caches one serialized list response for a company. A nil
// Client is a no-op so callers never branch on whether caching is enabled.
func (c *Client) SetAnalysisList(ctx context.Context, companyID int64, listKey string, response interface{}) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal cached list: %w", err)
	}

	err = c.client.Set(ctx, analysisKey(companyID, listKey), data, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set analysis cache: %w", err)
	}

	logger.Debug("Analysis list cached",
		zap.Int64("company_id", companyID),
		zap.String("key", listKey),
	)
	return nil
}

func (c *Client) GetAnalysisList(ctx context.Context, companyID int64, listKey string, response interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}

	data, err := c.client.Get(ctx, analysisKey(companyID, listKey)).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("analysis").Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get analysis cache: %w", err)
	}

	if err := json.Unmarshal(data, response); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached list: %w", err)
	}

	metrics.CacheHits.WithLabelValues("analysis").Inc()
	return true, nil
}

// InvalidateCompany drops every cached analysis list for one company.
func (c *Client) InvalidateCompany(ctx context.Context, companyID int64) {
	if c == nil {
		return
	}

	pattern := fmt.Sprintf("analysis:%d:*", companyID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		logger.Warn("Failed to iterate cache keys",
			zap.Int64("company_id", companyID),
			zap.Error(err),
		)
		return
	}

	logger.Debug("Company analysis cache invalidated", zap.Int64("company_id", companyID))
}
