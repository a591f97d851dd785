package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"playhub/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisScheduleCache keeps rendered day grids and rate-limit counters in
// Redis so read traffic stays off the booking store.
type RedisScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db, poolSize int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})
}

func NewRedisScheduleCache(client *redis.Client, ttl time.Duration) *RedisScheduleCache {
	return &RedisScheduleCache{client: client, ttl: ttl}
}

func dayKey(resourceID, date string) string {
	return fmt.Sprintf("schedule:%s:%s", resourceID, date)
}

func (r *RedisScheduleCache) GetDay(ctx context.Context, resourceID, date string) ([]*models.Booking, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, dayKey(resourceID, date)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get day from redis: %w", err)
	}

	var bookings []*models.Booking
	if err := json.Unmarshal([]byte(val), &bookings); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached day: %w", err)
	}
	return bookings, true, nil
}

func (r *RedisScheduleCache) SetDay(ctx context.Context, resourceID, date string, bookings []*models.Booking) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("failed to marshal day: %w", err)
	}
	if err := r.client.Set(ctx, dayKey(resourceID, date), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set day in redis: %w", err)
	}
	return nil
}

func (r *RedisScheduleCache) InvalidateDay(ctx context.Context, resourceID, date string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, dayKey(resourceID, date)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate day in redis: %w", err)
	}
	return nil
}

func (r *RedisScheduleCache) CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("rate_limit:%s", clientID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	if count == 1 {
		r.client.Expire(ctx, key, window)
	}
	return count <= int64(limit), nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
