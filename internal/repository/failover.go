package repository

import (
	"context"
	"sync/atomic"
	"time"

	"playhub/internal/domain"
	"playhub/internal/models"

	"github.com/rs/zerolog"
)

// FailoverScheduleCache prefers the primary (Redis) cache and drops to
// the in-memory fallback when the primary errors, probing the primary
// again after a cooldown. Losing the cache only costs extra store reads.
type FailoverScheduleCache struct {
	primary   domain.ScheduleCache
	fallback  domain.ScheduleCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	downSince atomic.Int64
}

const recoveryProbeInterval = time.Minute

func NewFailoverScheduleCache(primary, fallback domain.ScheduleCache, logger *zerolog.Logger) *FailoverScheduleCache {
	return &FailoverScheduleCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverScheduleCache) markDown(err error) {
	f.logger.Error().Err(err).Msg("primary schedule cache failed, falling back to memory")
	f.isDown.Store(true)
	f.downSince.Store(time.Now().UnixNano())
}

func (f *FailoverScheduleCache) shouldProbe() bool {
	return time.Since(time.Unix(0, f.downSince.Load())) > recoveryProbeInterval
}

func (f *FailoverScheduleCache) GetDay(ctx context.Context, resourceID, date string) ([]*models.Booking, bool, error) {
	if !f.isDown.Load() {
		bookings, ok, err := f.primary.GetDay(ctx, resourceID, date)
		if err == nil {
			return bookings, ok, nil
		}
		f.markDown(err)
	} else if f.shouldProbe() {
		bookings, ok, err := f.primary.GetDay(ctx, resourceID, date)
		if err == nil {
			f.isDown.Store(false)
			return bookings, ok, nil
		}
		f.downSince.Store(time.Now().UnixNano())
	}

	return f.fallback.GetDay(ctx, resourceID, date)
}

func (f *FailoverScheduleCache) SetDay(ctx context.Context, resourceID, date string, bookings []*models.Booking) error {
	if !f.isDown.Load() {
		err := f.primary.SetDay(ctx, resourceID, date, bookings)
		if err == nil {
			return nil
		}
		f.markDown(err)
	}
	return f.fallback.SetDay(ctx, resourceID, date, bookings)
}

func (f *FailoverScheduleCache) InvalidateDay(ctx context.Context, resourceID, date string) error {
	// Invalidate both sides: a stale fallback entry would survive a
	// primary-only delete after a failover window.
	var primaryErr error
	if !f.isDown.Load() {
		if primaryErr = f.primary.InvalidateDay(ctx, resourceID, date); primaryErr != nil {
			f.markDown(primaryErr)
		}
	}
	return f.fallback.InvalidateDay(ctx, resourceID, date)
}

func (f *FailoverScheduleCache) CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error) {
	if !f.isDown.Load() {
		allowed, err := f.primary.CheckRateLimit(ctx, clientID, limit, window)
		if err == nil {
			return allowed, nil
		}
		f.markDown(err)
	}
	return f.fallback.CheckRateLimit(ctx, clientID, limit, window)
}
