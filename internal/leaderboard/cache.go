package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/logging"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "leaderboard:"
	DefaultTTL = 15 * time.Second
)

func globalKey(limit int) string  { return fmt.Sprintf("%sglobal:%d", keyPrefix, limit) }
func sportKey(sportID uint) string { return fmt.Sprintf("%ssport:%d", keyPrefix, sportID) }

// Cache stores computed leaderboards in redis. A nil *Cache is valid and
// caches nothing.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns nil when client is nil.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// get decodes key into dest and reports a hit.
func (c *Cache) get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.L().Warn().Err(err).Str("key", key).Msg("leaderboard cache read failed")
		}
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logging.L().Warn().Err(err).Str("key", key).Msg("leaderboard cache write failed")
	}
}

// Invalidate drops every cached leaderboard.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	keys, err := c.client.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		logging.L().Warn().Err(err).Msg("leaderboard cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logging.L().Warn().Err(err).Int("keys", len(keys)).Msg("leaderboard cache invalidation failed")
	}
}
