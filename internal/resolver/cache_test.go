package resolver

import (
	"context"
	"testing"
	"time"

	"cheatreport/backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour), mr
}

func TestRedisCache_StoreAndLoad(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	p := models.Profile{Name: "Alice", UserID: "1001", PersonaID: "2001"}

	require.NoError(t, cache.Store(ctx, p))

	byName, err := cache.ByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, p, byName)

	byID, err := cache.ByUserID(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, p, byID)
}

func TestRedisCache_MissIsNotFound(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.ByName(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestRedisCache_Expires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.Store(ctx, models.Profile{Name: "Bob", UserID: "7"}))

	mr.FastForward(2 * time.Hour)

	_, err := cache.ByUserID(ctx, "7")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
