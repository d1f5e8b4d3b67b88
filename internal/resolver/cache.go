package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"cheatreport/backend/internal/models"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisCache is both a ProfileCache and a Source: profiles stored after a
// successful race are raced again on later lookups. A miss is a failure like
// any other, so the remote sources still decide.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func nameKey(name string) string   { return "profile:name:" + strings.ToLower(name) }
func userKey(userID string) string { return "profile:id:" + userID }

func (c *RedisCache) Name() string { return "redis-cache" }

func (c *RedisCache) ByName(ctx context.Context, name string) (models.Profile, error) {
	return c.load(ctx, nameKey(name))
}

func (c *RedisCache) ByUserID(ctx context.Context, userID string) (models.Profile, error) {
	return c.load(ctx, userKey(userID))
}

// Store caches p under both its name and its user id.
func (c *RedisCache) Store(ctx context.Context, p models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, nameKey(p.Name), data, c.ttl)
	pipe.Set(ctx, userKey(p.UserID), data, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RedisCache) load(ctx context.Context, key string) (models.Profile, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return models.Profile{}, err
	}
	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}
