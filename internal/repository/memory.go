package repository

import (
	"context"
	"sync"
	"time"

	"playhub/internal/models"
)

// MemoryScheduleCache is the in-process fallback used when Redis is not
// configured or unreachable.
type MemoryScheduleCache struct {
	days       sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

type dayEntry struct {
	bookings  []*models.Booking
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryScheduleCache(ttl time.Duration) *MemoryScheduleCache {
	return &MemoryScheduleCache{ttl: ttl}
}

func (m *MemoryScheduleCache) GetDay(ctx context.Context, resourceID, date string) ([]*models.Booking, bool, error) {
	val, ok := m.days.Load(dayKey(resourceID, date))
	if !ok {
		return nil, false, nil
	}
	entry := val.(*dayEntry)
	if m.ttl > 0 && time.Now().After(entry.expiresAt) {
		m.days.Delete(dayKey(resourceID, date))
		return nil, false, nil
	}
	return entry.bookings, true, nil
}

func (m *MemoryScheduleCache) SetDay(ctx context.Context, resourceID, date string, bookings []*models.Booking) error {
	m.days.Store(dayKey(resourceID, date), &dayEntry{
		bookings:  bookings,
		expiresAt: time.Now().Add(m.ttl),
	})
	return nil
}

func (m *MemoryScheduleCache) InvalidateDay(ctx context.Context, resourceID, date string) error {
	m.days.Delete(dayKey(resourceID, date))
	return nil
}

func (m *MemoryScheduleCache) CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := m.rateLimits.Load(clientID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	m.rateLimits.Store(clientID, entry)
	return entry.count <= limit, nil
}
