// Package cache provides a Redis-backed cache for daily emotion summaries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/justestif/go-voice-diary/internal/emotion"
)

const defaultTTL = 10 * time.Minute

// SummaryCache stores computed daily aggregates keyed by user and date.
// Only present aggregates are cached; "no data" is always recomputed.
type SummaryCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL, prefix string, ttl time.Duration) (*SummaryCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewWithClient(client, prefix, ttl), nil
}

// NewWithClient creates a cache from an existing Redis client.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &SummaryCache{client: client, prefix: prefix, ttl: ttl}
}

// key returns "<prefix>:summary:<user>:<date>".
func (c *SummaryCache) key(userID, date string) string {
	return c.prefix + ":summary:" + userID + ":" + date
}

// Get returns the cached aggregate. The bool is false on a miss.
func (c *SummaryCache) Get(ctx context.Context, userID, date string) (emotion.DailySummary, bool, error) {
	data, err := c.client.Get(ctx, c.key(userID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return emotion.DailySummary{}, false, nil
	}
	if err != nil {
		return emotion.DailySummary{}, false, fmt.Errorf("reading cached summary: %w", err)
	}

	var s emotion.DailySummary
	if err := json.Unmarshal(data, &s); err != nil {
		return emotion.DailySummary{}, false, fmt.Errorf("decoding cached summary: %w", err)
	}
	if s.EmotionDistribution == nil {
		s.EmotionDistribution = make(map[emotion.Emotion]int)
	}
	return s, true, nil
}

// Set caches an aggregate for the configured TTL.
func (c *SummaryCache) Set(ctx context.Context, userID, date string, s emotion.DailySummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if err := c.client.Set(ctx, c.key(userID, date), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching summary: %w", err)
	}
	return nil
}

// Invalidate drops the cached aggregate for a day.
func (c *SummaryCache) Invalidate(ctx context.Context, userID, date string) error {
	if err := c.client.Del(ctx, c.key(userID, date)).Err(); err != nil {
		return fmt.Errorf("invalidating summary: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (c *SummaryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *SummaryCache) Close() error {
	return c.client.Close()
}
