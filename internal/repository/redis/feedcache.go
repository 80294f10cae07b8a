package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/archillexx/reviewnest/internal/domain"
	apperrors "github.com/archillexx/reviewnest/pkg/errors"
)

const feedKey = "reviews:feed"

// FeedCache implements repository.FeedCache using Redis.
type FeedCache struct {
	client *redis.Client
}

// NewFeedCache creates a new Redis-backed feed cache.
func NewFeedCache(client *redis.Client) *FeedCache {
	return &FeedCache{client: client}
}

// Get retrieves the cached public feed from Redis.
func (c *FeedCache) Get(ctx context.Context) ([]domain.ReviewWithAuthor, error) {
	data, err := c.client.Get(ctx, feedKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get feed: %w", err)
	}

	var feed []domain.ReviewWithAuthor
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("unmarshal feed: %w", err)
	}

	return feed, nil
}

// Set stores the public feed in Redis with the given TTL.
func (c *FeedCache) Set(ctx context.Context, feed []domain.ReviewWithAuthor, ttl time.Duration) error {
	data, err := json.Marshal(feed)
	if err != nil {
		return fmt.Errorf("marshal feed: %w", err)
	}

	if err := c.client.Set(ctx, feedKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set feed: %w", err)
	}

	return nil
}

// Invalidate drops the cached feed so the next read rebuilds it.
func (c *FeedCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, feedKey).Err(); err != nil {
		return fmt.Errorf("redis del feed: %w", err)
	}

	return nil
}
