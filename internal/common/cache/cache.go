// Package cache implements the Redis read-through layer in front of the SQL store.
// Cache failures are logged and treated as misses; they never fail a request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tradehub/internal/common/logger"
	"tradehub/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// Key prefixes. Keys are <prefix><id>.
const (
	PrefixMatches      = "matches_"
	PrefixBuyer        = "buyer_"
	PrefixSeller       = "seller_"
	PrefixProduct      = "product_"
	PrefixSubscription = "sub_"
)

func MatchesKey(buyerID string) string     { return PrefixMatches + buyerID }
func BuyerKey(buyerID string) string       { return PrefixBuyer + buyerID }
func SellerKey(sellerID string) string     { return PrefixSeller + sellerID }
func ProductKey(productID string) string   { return PrefixProduct + productID }
func SubscriptionKey(userID string) string { return PrefixSubscription + userID }

// Cache wraps a Redis client with JSON read-through helpers. A nil *Cache or one
// built with a nil client behaves as an always-miss cache.
type Cache struct {
	rdb    redis.Cmdable
	logger logger.Logger
}

func New(rdb redis.Cmdable, log logger.Logger) *Cache {
	return &Cache{
		rdb:    rdb,
		logger: log.WithFields(map[string]interface{}{"component": "cache"}),
	}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil
}

// GetJSON decodes the cached value into dst. It reports false on a miss, a Redis
// failure, or an undecodable entry.
func (c *Cache) GetJSON(ctx context.Context, entity, key string, dst interface{}) bool {
	if !c.enabled() {
		return false
	}

	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed", map[string]interface{}{"key": key, "error": err.Error()})
			metrics.CacheLookups.WithLabelValues(entity, "error").Inc()
		} else {
			metrics.CacheLookups.WithLabelValues(entity, "miss").Inc()
		}
		return false
	}

	if err := json.Unmarshal(val, dst); err != nil {
		c.logger.Warn("cache entry undecodable", map[string]interface{}{"key": key, "error": err.Error()})
		metrics.CacheLookups.WithLabelValues(entity, "error").Inc()
		return false
	}

	metrics.CacheLookups.WithLabelValues(entity, "hit").Inc()
	return true
}

// SetJSON stores value under key with the given TTL. Failures are logged only.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// Invalidate deletes keys. Failures are logged only.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.enabled() || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", map[string]interface{}{"keys": keys, "error": err.Error()})
	}
}

// Fetch is the read-through helper: on a hit it decodes into dst and returns; on a
// miss it calls load, caches its result and decodes it into dst.
func Fetch[T any](ctx context.Context, c *Cache, entity, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.GetJSON(ctx, entity, key, &cached) {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	c.SetJSON(ctx, key, value, ttl)
	return value, nil
}
