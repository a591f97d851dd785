package repository

import (
	"context"
	"testing"
	"time"

	"playhub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T) (*RedisScheduleCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisScheduleCache(client, time.Minute), mr
}

func sampleDay() []*models.Booking {
	return []*models.Booking{
		{ID: "b1", OwnerID: "u1", OwnerName: "Alice", ResourceID: "foosball", Date: "2026-09-01", Slot: "09:00"},
		{ID: "b2", OwnerID: "u2", OwnerName: "Bob", ResourceID: "foosball", Date: "2026-09-01", Slot: "10:00"},
	}
}

func TestRedisGetSetDay(t *testing.T) {
	cache, _ := setupRedisCache(t)
	ctx := context.Background()

	_, ok, err := cache.GetDay(ctx, "foosball", "2026-09-01")
	require.NoError(t, err)
	assert.False(t, ok, "cold cache misses")

	require.NoError(t, cache.SetDay(ctx, "foosball", "2026-09-01", sampleDay()))

	got, ok, err := cache.GetDay(ctx, "foosball", "2026-09-01")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "b1", got[0].ID)
	assert.Equal(t, "10:00", got[1].Slot)
}

func TestRedisInvalidateDay(t *testing.T) {
	cache, _ := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetDay(ctx, "foosball", "2026-09-01", sampleDay()))
	require.NoError(t, cache.InvalidateDay(ctx, "foosball", "2026-09-01"))

	_, ok, err := cache.GetDay(ctx, "foosball", "2026-09-01")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisDayTTL(t *testing.T) {
	cache, mr := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetDay(ctx, "foosball", "2026-09-01", sampleDay()))
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.GetDay(ctx, "foosball", "2026-09-01")
	require.NoError(t, err)
	assert.False(t, ok, "entry expires with its TTL")
}

func TestRedisCheckRateLimit(t *testing.T) {
	cache, mr := setupRedisCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := cache.CheckRateLimit(ctx, "u1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := cache.CheckRateLimit(ctx, "u1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "fourth request in the window is rejected")

	// Another client has its own window.
	allowed, err = cache.CheckRateLimit(ctx, "u2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	mr.FastForward(2 * time.Minute)
	allowed, err = cache.CheckRateLimit(ctx, "u1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "window reset after expiry")
}

func TestRedisNilClient(t *testing.T) {
	cache := NewRedisScheduleCache(nil, time.Minute)
	ctx := context.Background()

	_, _, err := cache.GetDay(ctx, "foosball", "2026-09-01")
	assert.Error(t, err)
	assert.Error(t, cache.SetDay(ctx, "foosball", "2026-09-01", nil))
	assert.Error(t, cache.InvalidateDay(ctx, "foosball", "2026-09-01"))
}
