package cache

import (
	"context"
	"fmt"
	"strconv"

	redisv9 "github.com/redis/go-redis/v9"
)

// CommunityStats are the site-wide counters folded together from everyone's
// disposal events. They are advisory numbers, maintained outside the tracker
// transaction by the stats worker.
type CommunityStats struct {
	TotalDevices int64 `json:"total_devices"`
	TotalCO2     int64 `json:"total_co2"`
	TotalKWh     int64 `json:"total_kwh"`
}

const (
	communityDevicesKey = "community:total_devices"
	communityCO2Key     = "community:total_co2"
	communityKWhKey     = "community:total_kwh"
)

type CommunityStatsStore struct {
	client *redisv9.Client
}

func NewCommunityStatsStore(client *redisv9.Client) *CommunityStatsStore {
	return &CommunityStatsStore{client: client}
}

func (s *CommunityStatsStore) Add(ctx context.Context, co2, kwh int64) error {
	pipe := s.client.Pipeline()
	pipe.IncrBy(ctx, communityDevicesKey, 1)
	pipe.IncrBy(ctx, communityCO2Key, co2)
	pipe.IncrBy(ctx, communityKWhKey, kwh)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis increment community stats failed: %w", err)
	}
	return nil
}

func (s *CommunityStatsStore) Get(ctx context.Context) (CommunityStats, error) {
	values, err := s.client.MGet(ctx, communityDevicesKey, communityCO2Key, communityKWhKey).Result()
	if err != nil {
		return CommunityStats{}, fmt.Errorf("redis get community stats failed: %w", err)
	}

	var stats CommunityStats
	targets := []*int64{&stats.TotalDevices, &stats.TotalCO2, &stats.TotalKWh}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			*targets[i] = n
		}
	}
	return stats, nil
}
