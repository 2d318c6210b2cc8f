package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ccalu/channelpulse/internal/model"
)

// Cache key TTLs. The dashboard only changes once per run, so a generous
// TTL is safe; runs invalidate explicitly anyway.
const (
	TableCacheTTL = 15 * time.Minute
	FeedCacheTTL  = 2 * time.Minute

	tableCacheKey = "channelpulse:table"
	feedCacheKey  = "channelpulse:feed:unseen"
)

// CacheService is a Redis cache-aside layer for the dashboard table and the
// unseen notification feed.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService connects to Redis. If redisURL is empty or the connection
// fails, it returns a CacheService with a nil client and every operation
// becomes a no-op.
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Println("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("redis: invalid URL %q, caching disabled: %v", redisURL, err)
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis: connection failed, caching disabled: %v", err)
		return &CacheService{}
	}

	log.Println("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetTable returns the cached dashboard rows, or nil on miss or when the
// cache is disabled.
func (c *CacheService) GetTable(ctx context.Context) ([]model.ChannelTableRow, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, tableCacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []model.ChannelTableRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, nil
	}
	return rows, nil
}

// SetTable caches the dashboard rows.
func (c *CacheService) SetTable(ctx context.Context, rows []model.ChannelTableRow) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, tableCacheKey, data, TableCacheTTL).Err(); err != nil {
		log.Printf("redis: set table cache failed: %v", err)
	}
}

// GetFeed returns the cached unseen feed, or nil on miss.
func (c *CacheService) GetFeed(ctx context.Context) ([]model.Notification, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, feedCacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var feed []model.Notification
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, nil
	}
	return feed, nil
}

// SetFeed caches the unseen feed.
func (c *CacheService) SetFeed(ctx context.Context, feed []model.Notification) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(feed)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, feedCacheKey, data, FeedCacheTTL).Err(); err != nil {
		log.Printf("redis: set feed cache failed: %v", err)
	}
}

// Invalidate drops both cached views. Called after a run writes snapshots
// and after any notification state change.
func (c *CacheService) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, tableCacheKey, feedCacheKey).Err(); err != nil {
		log.Printf("redis: invalidate failed: %v", err)
	}
}
