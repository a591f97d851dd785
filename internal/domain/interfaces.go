package domain

import (
	"context"
	"time"

	"playhub/internal/models"
)

// BookingStore is the durable store contract the booking engine relies
// on. CreateBookingTx must run its natural-key check, the invariant
// predicate and the insert inside one isolation boundary.
type BookingStore interface {
	CreateBookingTx(ctx context.Context, booking *models.Booking, check func(ownerSlots []string) error) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	ListBookingsByResourceDate(ctx context.Context, resourceID, date string) ([]*models.Booking, error)
	ListBookingsByOwner(ctx context.Context, ownerID string) ([]*models.Booking, error)
	ListBookingsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Booking, error)
}

// ChallengeStore persists challenge records and their single terminal
// transition.
type ChallengeStore interface {
	CreateChallenge(ctx context.Context, challenge *models.Challenge) error
	GetChallenge(ctx context.Context, id string) (*models.Challenge, error)
	ResolveChallenge(ctx context.Context, id, status string) error
	ListChallengesForOwner(ctx context.Context, ownerID string) ([]*models.Challenge, error)
}

// ScheduleCache is the read-side cache for day grids. It is allowed to
// lag committed writes; writers invalidate the day they touched.
type ScheduleCache interface {
	GetDay(ctx context.Context, resourceID, date string) ([]*models.Booking, bool, error)
	SetDay(ctx context.Context, resourceID, date string, bookings []*models.Booking) error
	InvalidateDay(ctx context.Context, resourceID, date string) error
	CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error)
}

// EventPublisher lets services announce committed state changes.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier delivers a human-readable notification somewhere external.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
