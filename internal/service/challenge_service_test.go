package service

import (
	"context"
	"os"
	"testing"

	"playhub/internal/database"
	"playhub/internal/events"
	"playhub/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChallengeService(t *testing.T) (*ChallengeService, *BookingService) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bus := events.NewEventBus()
	bookings, err := NewBookingService(db, nil, bus, testResources(), testSlotConfig(), models.MaxConsecutiveSlots, 0, &logger)
	require.NoError(t, err)
	return NewChallengeService(db, db, bus, &logger), bookings
}

func TestCreateChallenge(t *testing.T) {
	svc, bookings := setupChallengeService(t)
	ctx := context.Background()

	booking, err := bookings.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:00")
	require.NoError(t, err)

	challenge, err := svc.Create(ctx, "u2", "Bo", booking.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, challenge.ID)
	assert.Equal(t, models.ChallengePending, challenge.Status)
	assert.Equal(t, "u2", challenge.FromOwnerID)
	assert.Equal(t, "u1", challenge.ToOwnerID)
	assert.Equal(t, "Asha", challenge.ToOwnerName)
	assert.Equal(t, "09:00", challenge.Slot)
}

func TestCreateChallengeErrors(t *testing.T) {
	svc, bookings := setupChallengeService(t)
	ctx := context.Background()

	booking, err := bookings.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:00")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "u1", "Asha", booking.ID)
	assert.ErrorIs(t, err, ErrSelfChallenge)

	_, err = svc.Create(ctx, "u2", "Bo", "no-such-booking")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestResolveChallenge(t *testing.T) {
	svc, bookings := setupChallengeService(t)
	ctx := context.Background()

	booking, err := bookings.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:00")
	require.NoError(t, err)
	challenge, err := svc.Create(ctx, "u2", "Bo", booking.ID)
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, challenge.ID, "u1", models.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeAccepted, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// Terminal: no second transition, whatever the decision.
	_, err = svc.Resolve(ctx, challenge.ID, "u1", models.DecisionDecline)
	assert.ErrorIs(t, err, database.ErrAlreadyResolved)
}

func TestResolveChallengeDecline(t *testing.T) {
	svc, bookings := setupChallengeService(t)
	ctx := context.Background()

	booking, err := bookings.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:00")
	require.NoError(t, err)
	challenge, err := svc.Create(ctx, "u2", "Bo", booking.ID)
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, challenge.ID, "u1", models.DecisionDecline)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeDeclined, resolved.Status)
}

func TestResolveChallengeErrors(t *testing.T) {
	svc, bookings := setupChallengeService(t)
	ctx := context.Background()

	booking, err := bookings.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:00")
	require.NoError(t, err)
	challenge, err := svc.Create(ctx, "u2", "Bo", booking.ID)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, challenge.ID, "u1", "maybe")
	assert.ErrorIs(t, err, ErrInvalidDecision)

	// Neither the challenger nor a bystander may resolve.
	_, err = svc.Resolve(ctx, challenge.ID, "u2", models.DecisionAccept)
	assert.ErrorIs(t, err, ErrNotTarget)
	_, err = svc.Resolve(ctx, challenge.ID, "u3", models.DecisionAccept)
	assert.ErrorIs(t, err, ErrNotTarget)

	_, err = svc.Resolve(ctx, "no-such-challenge", "u1", models.DecisionAccept)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestResolveAfterBookingCancelled(t *testing.T) {
	svc, bookings := setupChallengeService(t)
	ctx := context.Background()

	booking, err := bookings.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:00")
	require.NoError(t, err)
	challenge, err := svc.Create(ctx, "u2", "Bo", booking.ID)
	require.NoError(t, err)

	// The challenge snapshot outlives the booking.
	require.NoError(t, bookings.Cancel(ctx, booking.ID, "u1"))

	resolved, err := svc.Resolve(ctx, challenge.ID, "u1", models.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeAccepted, resolved.Status)
}

func TestListChallengesForOwner(t *testing.T) {
	svc, bookings := setupChallengeService(t)
	ctx := context.Background()

	b1, err := bookings.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:00")
	require.NoError(t, err)
	b2, err := bookings.Reserve(ctx, "u1", "Asha", "carrom", "2026-09-01", "10:00")
	require.NoError(t, err)
	b3, err := bookings.Reserve(ctx, "u2", "Bo", "foosball", "2026-09-01", "10:00")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "u2", "Bo", b1.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u3", "Cleo", b2.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", "Asha", b3.ID)
	require.NoError(t, err)

	incoming, err := svc.ListForOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, incoming, 2)
	for _, c := range incoming {
		assert.Equal(t, "u1", c.ToOwnerID)
	}
}

func TestChallengeEventsPublished(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bus := events.NewEventBus()
	var seen []string
	for _, eventType := range []string{events.EventChallengeCreated, events.EventChallengeResolved} {
		et := eventType
		bus.Subscribe(et, func(e *events.Event) error {
			seen = append(seen, et)
			return nil
		})
	}

	bookings, err := NewBookingService(db, nil, bus, testResources(), testSlotConfig(), models.MaxConsecutiveSlots, 0, &logger)
	require.NoError(t, err)
	svc := NewChallengeService(db, db, bus, &logger)
	ctx := context.Background()

	booking, err := bookings.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:00")
	require.NoError(t, err)
	challenge, err := svc.Create(ctx, "u2", "Bo", booking.ID)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, challenge.ID, "u1", models.DecisionAccept)
	require.NoError(t, err)

	assert.Equal(t, []string{events.EventChallengeCreated, events.EventChallengeResolved}, seen)
}
