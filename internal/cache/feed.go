// Package cache provides a Redis-backed cache for the public feed.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/harborpost/harborpost/internal/model"
)

const publicFeedKey = "feed:public"

// FeedCache caches the public feed with a short TTL. All operations are
// best-effort: redis trouble degrades to a store read, never to an error.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies connectivity.
func New(redisURL string, ttl time.Duration) (*FeedCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing Redis client (used by tests).
func NewWithClient(client *redis.Client, ttl time.Duration) *FeedCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &FeedCache{client: client, ttl: ttl}
}

// Close releases the underlying client.
func (c *FeedCache) Close() error { return c.client.Close() }

// GetPublicFeed returns the cached feed and whether it was present.
func (c *FeedCache) GetPublicFeed(ctx context.Context) ([]*model.Post, bool) {
	raw, err := c.client.Get(ctx, publicFeedKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("feed cache read failed")
		}
		return nil, false
	}

	var posts []*model.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		log.Warn().Err(err).Msg("feed cache payload corrupt, dropping")
		_ = c.client.Del(ctx, publicFeedKey).Err()
		return nil, false
	}
	return posts, true
}

// SetPublicFeed stores the feed for the configured TTL.
func (c *FeedCache) SetPublicFeed(ctx context.Context, posts []*model.Post) {
	raw, err := json.Marshal(posts)
	if err != nil {
		log.Warn().Err(err).Msg("feed cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, publicFeedKey, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("feed cache write failed")
	}
}

// InvalidatePublicFeed drops the cached feed after a visibility-changing
// transition.
func (c *FeedCache) InvalidatePublicFeed(ctx context.Context) {
	if err := c.client.Del(ctx, publicFeedKey).Err(); err != nil {
		log.Warn().Err(err).Msg("feed cache invalidation failed")
	}
}
