package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"ecotrace/internal/model"
)

// SummaryCache keeps tracker summaries in redis with a short TTL. A dirty
// marker set at write time suppresses re-caching until in-flight readers that
// raced the write have drained.
type SummaryCache struct {
	client         *redisv9.Client
	summaryTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewSummaryCache(client *redisv9.Client, summaryTTL, dirtyMarkerTTL time.Duration) *SummaryCache {
	if summaryTTL <= 0 {
		summaryTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &SummaryCache{
		client:         client,
		summaryTTL:     summaryTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *SummaryCache) GetSummary(ctx context.Context, userID uint) (*model.TrackerSummary, bool, error) {
	key := c.summaryKey(userID)
	raw, err := c.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get summary failed: %w", err)
	}

	var summary model.TrackerSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached summary failed: %w", err)
	}
	return &summary, true, nil
}

func (c *SummaryCache) SetSummary(ctx context.Context, userID uint, summary *model.TrackerSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.summaryKey(userID), payload, c.summaryTTL).Err(); err != nil {
		return fmt.Errorf("redis set summary failed: %w", err)
	}
	return nil
}

func (c *SummaryCache) DeleteSummary(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, c.summaryKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete summary failed: %w", err)
	}
	return nil
}

func (c *SummaryCache) MarkDirty(ctx context.Context, userID uint) error {
	if err := c.client.Set(ctx, c.dirtyKey(userID), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *SummaryCache) IsDirty(ctx context.Context, userID uint) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *SummaryCache) summaryKey(userID uint) string {
	return fmt.Sprintf("tracker:summary:%d", userID)
}

func (c *SummaryCache) dirtyKey(userID uint) string {
	return fmt.Sprintf("tracker:summary:dirty:%d", userID)
}
