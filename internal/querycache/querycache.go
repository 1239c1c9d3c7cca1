// Package querycache keeps per-user read models (cart, shipping addresses,
// orders) in Redis and drops them when an event says they changed.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Cache) Get(ctx context.Context, userID, query string, dst any) error {
	data, err := c.client.Get(ctx, cacheKey(userID, query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", query, err)
	}
	return nil
}

func (c *Cache) Set(ctx context.Context, userID, query string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", query, err)
	}

	if err := c.client.Set(ctx, cacheKey(userID, query), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, userID string, queries ...string) error {
	if len(queries) == 0 {
		return nil
	}

	keys := make([]string, len(queries))
	for i, q := range queries {
		keys[i] = cacheKey(userID, q)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Publish drops every query the event made stale, so the cache can subscribe
// to a notify.Hub.
func (c *Cache) Publish(ctx context.Context, event domain.Event) error {
	return c.Invalidate(ctx, event.UserID, event.InvalidatedQueries()...)
}

// Load returns the cached value for the user's query, calling load on a miss
// and caching its result. Concurrent misses for the same key share one load.
// Redis failures degrade to calling load directly. A nil cache always loads.
func Load[T any](ctx context.Context, c *Cache, userID, query string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	var cached T
	err := c.Get(ctx, userID, query, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.WarnContext(ctx, "query cache read failed", "query", query, "user_id", userID, "error", err)
	}

	v, err, _ := c.group.Do(cacheKey(userID, query), func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return value, err
		}
		if err := c.Set(ctx, userID, query, value); err != nil {
			c.logger.WarnContext(ctx, "query cache write failed", "query", query, "user_id", userID, "error", err)
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func cacheKey(userID, query string) string {
	return fmt.Sprintf("storefront:query:%s:%s", userID, query)
}
