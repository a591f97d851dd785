package database

import (
	"context"
	"errors"
	"os"
	"testing"

	"playhub/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	logger := zerolog.New(os.Stdout)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testBooking(ownerID, slot string) *models.Booking {
	return &models.Booking{
		OwnerID:    ownerID,
		OwnerName:  "Player " + ownerID,
		ResourceID: "foosball",
		Date:       "2026-09-01",
		Slot:       slot,
	}
}

func TestCreateBookingTx(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := testBooking("u1", "09:00")
	err := db.CreateBookingTx(ctx, booking, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID, "store assigns the identity")
	assert.False(t, booking.CreatedAt.IsZero(), "store assigns the timestamp")

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.OwnerID, got.OwnerID)
	assert.Equal(t, "09:00", got.Slot)
}

func TestCreateBookingTxSlotTaken(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBookingTx(ctx, testBooking("u1", "10:00"), nil))

	err := db.CreateBookingTx(ctx, testBooking("u2", "10:00"), nil)
	assert.ErrorIs(t, err, ErrSlotTaken)

	// A different slot on the same day is free.
	assert.NoError(t, db.CreateBookingTx(ctx, testBooking("u2", "10:30"), nil))
}

func TestCreateBookingTxInvariantCheck(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBookingTx(ctx, testBooking("u1", "09:00"), nil))

	sentinel := errors.New("invariant says no")
	var seen []string
	err := db.CreateBookingTx(ctx, testBooking("u1", "11:00"), func(ownerSlots []string) error {
		seen = ownerSlots
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, []string{"09:00"}, seen, "predicate sees the owner's existing slots")

	// Rejection by the predicate leaves no record behind.
	bookings, err := db.ListBookingsByResourceDate(ctx, "foosball", "2026-09-01")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestDeleteBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	booking := testBooking("u1", "09:00")
	require.NoError(t, db.CreateBookingTx(ctx, booking, nil))

	require.NoError(t, db.DeleteBooking(ctx, booking.ID))

	_, err := db.GetBooking(ctx, booking.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Second delete is not idempotent by contract.
	assert.ErrorIs(t, db.DeleteBooking(ctx, booking.ID), ErrNotFound)
}

func TestCancelThenRebookSameKey(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := testBooking("u1", "09:00")
	require.NoError(t, db.CreateBookingTx(ctx, first, nil))
	require.NoError(t, db.DeleteBooking(ctx, first.ID))

	second := testBooking("u2", "09:00")
	require.NoError(t, db.CreateBookingTx(ctx, second, nil))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestListBookingsByResourceDate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBookingTx(ctx, testBooking("u1", "10:00"), nil))
	require.NoError(t, db.CreateBookingTx(ctx, testBooking("u2", "09:00"), nil))

	other := testBooking("u3", "09:00")
	other.ResourceID = "carrom"
	require.NoError(t, db.CreateBookingTx(ctx, other, nil))

	bookings, err := db.ListBookingsByResourceDate(ctx, "foosball", "2026-09-01")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "09:00", bookings[0].Slot, "sorted by slot")
	assert.Equal(t, "10:00", bookings[1].Slot)

	empty, err := db.ListBookingsByResourceDate(ctx, "foosball", "2026-09-02")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListBookingsByOwner(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b1 := testBooking("u1", "10:00")
	b2 := testBooking("u1", "09:00")
	b2.Date = "2026-08-31"
	require.NoError(t, db.CreateBookingTx(ctx, b1, nil))
	require.NoError(t, db.CreateBookingTx(ctx, b2, nil))
	require.NoError(t, db.CreateBookingTx(ctx, testBooking("u2", "11:00"), nil))

	bookings, err := db.ListBookingsByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "2026-08-31", bookings[0].Date, "sorted by date then slot")
	assert.Equal(t, "2026-09-01", bookings[1].Date)
}

func TestListBookingsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i, date := range []string{"2026-09-01", "2026-09-02", "2026-09-05"} {
		b := testBooking("u1", "09:00")
		b.Date = date
		b.Slot = "09:00"
		b.ResourceID = []string{"foosball", "carrom", "table-tennis"}[i]
		require.NoError(t, db.CreateBookingTx(ctx, b, nil))
	}

	bookings, err := db.ListBookingsByDateRange(ctx, "2026-09-01", "2026-09-03")
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}
