package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"challenge-server/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	leaderboardPrefix     = "leaderboard:top:"
	DefaultLeaderboardTTL = 30 * time.Second
)

type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = DefaultLeaderboardTTL
	}
	return &LeaderboardCache{client: client, ttl: ttl}
}

func leaderboardKey(limit int) string {
	return leaderboardPrefix + strconv.Itoa(limit)
}

func (c *LeaderboardCache) Get(ctx context.Context, limit int) ([]models.LeaderboardRow, bool, error) {
	raw, err := c.client.Get(ctx, leaderboardKey(limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var rows []models.LeaderboardRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false, err
	}
	return rows, true, nil
}

func (c *LeaderboardCache) Set(ctx context.Context, limit int, rows []models.LeaderboardRow) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, leaderboardKey(limit), raw, c.ttl).Err()
}

// Invalidate drops every cached page regardless of limit.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, leaderboardPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
