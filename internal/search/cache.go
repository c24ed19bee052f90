package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/radar/internal/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "radar:search:"

// Cache stores raw provider responses keyed by query.
type Cache interface {
	Get(ctx context.Context, query string) (map[string]any, bool)
	Set(ctx context.Context, query string, resp map[string]any)
}

// RedisCache is a Cache backed by Redis with a fixed TTL.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache wraps an existing client.
func NewRedisCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger}
}

// DialRedis connects to addr and pings it.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// cacheKey hashes the trimmed, lowercased query so keys stay fixed-length.
func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached response for query. Misses and errors both report false.
func (c *RedisCache) Get(ctx context.Context, query string) (map[string]any, bool) {
	data, err := c.rdb.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("search cache get failed", zap.String("query", query), zap.Error(err))
		}
		return nil, false
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

// Set stores resp under query. Failures are logged and otherwise ignored.
func (c *RedisCache) Set(ctx context.Context, query string, resp map[string]any) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(query), data, c.ttl).Err(); err != nil {
		c.logger.Warn("search cache set failed", zap.String("query", query), zap.Error(err))
	}
}

// CachedProvider consults a Cache before calling the wrapped Provider.
type CachedProvider struct {
	Provider
	cache Cache
}

// NewCachedProvider wraps p. A nil cache returns p unchanged.
func NewCachedProvider(p Provider, cache Cache) Provider {
	if cache == nil {
		return p
	}
	return &CachedProvider{Provider: p, cache: cache}
}

// Search returns a cached response when present, otherwise calls through and caches the result.
func (c *CachedProvider) Search(ctx context.Context, query string) (map[string]any, error) {
	if resp, ok := c.cache.Get(ctx, query); ok {
		metrics.RecordSearch("cached", 0)
		return resp, nil
	}
	resp, err := c.Provider.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, query, resp)
	return resp, nil
}
