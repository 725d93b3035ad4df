package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned by FeedCache.Get when nothing is stored.
var ErrCacheMiss = errors.New("calendar cache miss")

// FeedCache stores rendered feeds keyed by reader.
type FeedCache interface {
	Get(ctx context.Context, readerID string) (string, error)
	Set(ctx context.Context, readerID, feed string, ttl time.Duration) error
	Delete(ctx context.Context, readerID string) error
}

// RedisFeedCache keeps feeds under "ical:<readerId>".
type RedisFeedCache struct {
	Client *redis.Client
}

func NewRedisFeedCache(client *redis.Client) *RedisFeedCache {
	return &RedisFeedCache{Client: client}
}

func cacheKey(readerID string) string {
	return "ical:" + readerID
}

func (c *RedisFeedCache) Get(ctx context.Context, readerID string) (string, error) {
	feed, err := c.Client.Get(ctx, cacheKey(readerID)).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	return feed, err
}

func (c *RedisFeedCache) Set(ctx context.Context, readerID, feed string, ttl time.Duration) error {
	return c.Client.Set(ctx, cacheKey(readerID), feed, ttl).Err()
}

func (c *RedisFeedCache) Delete(ctx context.Context, readerID string) error {
	return c.Client.Del(ctx, cacheKey(readerID)).Err()
}
