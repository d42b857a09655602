package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kevin42127/TinyLink/internal/domain"
	"github.com/Kevin42127/TinyLink/internal/logger"
	"github.com/Kevin42127/TinyLink/internal/repository"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "url:"

// URLCache is a cache-aside decorator over a record store. Only GetByCode is
// served from redis; every other call goes straight to the wrapped store.
// Cached click counts may lag the store by up to the cache TTL.
type URLCache struct {
	repository.Store
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

var _ repository.Store = (*URLCache)(nil)

func NewURLCache(store repository.Store, client *redis.Client, ttl time.Duration) *URLCache {
	return &URLCache{
		Store:  store,
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func cacheKey(shortCode string) string {
	return fmt.Sprintf("%s%s", keyPrefix, shortCode)
}

func (c *URLCache) GetByCode(ctx context.Context, shortCode string) (*domain.ShortURL, error) {
	url, err := c.getCached(ctx, shortCode)
	if err == nil {
		return url, nil
	}
	if !errors.Is(err, redis.Nil) {
		logger.FromContext(ctx).Warn("Cache lookup failed, falling back to store",
			slog.String("short_code", shortCode),
			slog.String("error", err.Error()),
		)
	}

	url, err = c.Store.GetByCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	c.setCached(ctx, url)

	return url, nil
}

func (c *URLCache) DeleteByCode(ctx context.Context, shortCode string) error {
	if err := c.Store.DeleteByCode(ctx, shortCode); err != nil {
		return err
	}

	if err := c.client.Del(ctx, cacheKey(shortCode)).Err(); err != nil {
		logger.FromContext(ctx).Warn("Failed to evict cached url",
			slog.String("short_code", shortCode),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

func (c *URLCache) DeleteAll(ctx context.Context) (int64, error) {
	removed, err := c.Store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	if err := c.evictAll(ctx); err != nil {
		logger.FromContext(ctx).Warn("Failed to evict cached urls", slog.String("error", err.Error()))
	}

	return removed, nil
}

// Ping checks redis and, when it can, the wrapped store.
func (c *URLCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if p, ok := c.Store.(repository.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *URLCache) getCached(ctx context.Context, shortCode string) (*domain.ShortURL, error) {
	data, err := c.client.Get(ctx, cacheKey(shortCode)).Bytes()
	if err != nil {
		return nil, err
	}

	var url domain.ShortURL
	if err := json.Unmarshal(data, &url); err != nil {
		c.client.Del(ctx, cacheKey(shortCode))
		return nil, fmt.Errorf("corrupt cache entry: %w", err)
	}

	return &url, nil
}

func (c *URLCache) setCached(ctx context.Context, url *domain.ShortURL) {
	ttl := c.ttl
	if url.ExpiresAt != nil {
		remaining := url.ExpiresAt.Sub(c.now())
		if remaining <= 0 {
			return
		}
		if remaining < ttl {
			ttl = remaining
		}
	}

	data, err := json.Marshal(url)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, cacheKey(url.ShortCode), data, ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("Failed to cache url",
			slog.String("short_code", url.ShortCode),
			slog.String("error", err.Error()),
		)
	}
}

func (c *URLCache) evictAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()

	keys := make([]string, 0, 100)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == cap(keys) {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}
