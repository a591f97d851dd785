package service

import (
	"context"
	"os"
	"testing"
	"time"

	"playhub/internal/database"
	"playhub/internal/events"
	"playhub/internal/models"
	"playhub/internal/slots"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResources() []models.Resource {
	return []models.Resource{
		{ID: "foosball", Name: "Foosball", Bookable: true, SortOrder: 1},
		{ID: "carrom", Name: "Carrom", Bookable: true, SortOrder: 2},
		{ID: "table-tennis", Name: "Table Tennis", Bookable: true, SortOrder: 3},
		{ID: "chess", Name: "Chess", Bookable: false, SortOrder: 4},
	}
}

func testSlotConfig() slots.Config {
	return slots.Config{StartHour: 9, EndHour: 17.5, StepMinutes: 30}
}

func setupBookingService(t *testing.T, cfg slots.Config) (*BookingService, *database.DB) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc, err := NewBookingService(db, nil, events.NewEventBus(), testResources(), cfg, models.MaxConsecutiveSlots, 0, &logger)
	require.NoError(t, err)
	return svc, db
}

func TestNewBookingServiceInvalidGrid(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	_, err := NewBookingService(nil, nil, nil, testResources(), slots.Config{StartHour: 17, EndHour: 9, StepMinutes: 30}, 2, 0, &logger)
	assert.ErrorIs(t, err, slots.ErrInvalidConfig)
}

func TestResourcesOrderedBySortOrder(t *testing.T) {
	svc, _ := setupBookingService(t, testSlotConfig())

	got := svc.Resources()
	require.Len(t, got, 4)
	assert.Equal(t, "foosball", got[0].ID)
	assert.Equal(t, "chess", got[3].ID)
}

func TestReserve(t *testing.T) {
	svc, _ := setupBookingService(t, testSlotConfig())
	ctx := context.Background()

	booking, err := svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:00")
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, "09:00", booking.Slot)
}

func TestReserveValidation(t *testing.T) {
	svc, _ := setupBookingService(t, slots.Config{
		StartHour:   9,
		EndHour:     17.5,
		StepMinutes: 30,
		Blocked:     []slots.Interval{{Start: "11:00", End: "13:00"}},
	})
	ctx := context.Background()

	tests := []struct {
		name       string
		resourceID string
		date       string
		slot       string
		wantErr    error
	}{
		{"unknown resource", "billiards", "2026-09-01", "09:00", ErrNotBookable},
		{"not yet bookable", "chess", "2026-09-01", "09:00", ErrNotBookable},
		{"bad date", "foosball", "01-09-2026", "09:00", ErrInvalidDate},
		{"garbage slot", "foosball", "2026-09-01", "9am", ErrInvalidSlot},
		{"off-grid slot", "foosball", "2026-09-01", "09:15", ErrInvalidSlot},
		{"before opening", "foosball", "2026-09-01", "08:30", ErrInvalidSlot},
		{"blocked start", "foosball", "2026-09-01", "11:00", ErrBlockedTime},
		{"inside block", "foosball", "2026-09-01", "12:30", ErrBlockedTime},
		{"block end is free", "foosball", "2026-09-01", "13:00", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reserve(ctx, "u1", "Asha", tt.resourceID, tt.date, tt.slot)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestReserveSlotTaken(t *testing.T) {
	svc, _ := setupBookingService(t, testSlotConfig())
	ctx := context.Background()

	_, err := svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "10:00")
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, "u2", "Bo", "foosball", "2026-09-01", "10:00")
	assert.ErrorIs(t, err, database.ErrSlotTaken)

	// The same slot on another resource is independent.
	_, err = svc.Reserve(ctx, "u2", "Bo", "carrom", "2026-09-01", "10:00")
	assert.NoError(t, err)
}

func TestReserveConsecutiveLimit(t *testing.T) {
	svc, _ := setupBookingService(t, testSlotConfig())
	ctx := context.Background()

	_, err := svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:00")
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:30")
	require.NoError(t, err)

	// A third contiguous slot would make a run of three.
	_, err = svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "10:00")
	assert.ErrorIs(t, err, ErrConsecutiveLimit)

	// Leaving a gap starts a new run.
	_, err = svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "10:30")
	assert.NoError(t, err)

	// Filling the gap would bridge the runs into four.
	_, err = svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "11:00")
	assert.NoError(t, err)
	_, err = svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "10:00")
	assert.ErrorIs(t, err, ErrConsecutiveLimit)
}

func TestReserveConsecutiveLimitPerResource(t *testing.T) {
	svc, _ := setupBookingService(t, testSlotConfig())
	ctx := context.Background()

	for _, slot := range []string{"09:00", "09:30"} {
		_, err := svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", slot)
		require.NoError(t, err)
	}

	// The limit counts per resource and day; other grids stay open.
	_, err := svc.Reserve(ctx, "u1", "Asha", "carrom", "2026-09-01", "10:00")
	assert.NoError(t, err)
	_, err = svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-02", "10:00")
	assert.NoError(t, err)
}

func TestReserveMaxAdvanceDays(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc, err := NewBookingService(db, nil, nil, testResources(), testSlotConfig(), models.MaxConsecutiveSlots, 7, &logger)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Reserve(ctx, "u1", "Asha", "foosball", time.Now().AddDate(0, 0, 2).Format(models.DateLayout), "09:00")
	assert.NoError(t, err)

	_, err = svc.Reserve(ctx, "u1", "Asha", "foosball", time.Now().AddDate(0, 0, 30).Format(models.DateLayout), "09:30")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCancel(t *testing.T) {
	svc, _ := setupBookingService(t, testSlotConfig())
	ctx := context.Background()

	booking, err := svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:00")
	require.NoError(t, err)

	err = svc.Cancel(ctx, booking.ID, "u2")
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, svc.Cancel(ctx, booking.ID, "u1"))
	assert.ErrorIs(t, svc.Cancel(ctx, booking.ID, "u1"), database.ErrNotFound)

	// Cancelled slot is immediately reservable again.
	_, err = svc.Reserve(ctx, "u2", "Bo", "foosball", "2026-09-01", "09:00")
	assert.NoError(t, err)
}

func TestSchedule(t *testing.T) {
	svc, _ := setupBookingService(t, testSlotConfig())
	ctx := context.Background()

	booking, err := svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-01", "09:30")
	require.NoError(t, err)

	grid, err := svc.Schedule(ctx, "foosball", "2026-09-01")
	require.NoError(t, err)
	require.Len(t, grid, 18)

	assert.Equal(t, "09:00", grid[0].Slot)
	assert.False(t, grid[0].Booked)
	assert.Equal(t, "09:30", grid[1].Slot)
	assert.True(t, grid[1].Booked)
	assert.Equal(t, booking.ID, grid[1].BookingID)
	assert.Equal(t, "Asha", grid[1].OwnerName)

	_, err = svc.Schedule(ctx, "billiards", "2026-09-01")
	assert.ErrorIs(t, err, ErrNotBookable)
	_, err = svc.Schedule(ctx, "foosball", "bad-date")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestScheduleUnbookableResourceVisible(t *testing.T) {
	svc, _ := setupBookingService(t, testSlotConfig())

	// Catalogued but not yet bookable resources still render an empty grid.
	grid, err := svc.Schedule(context.Background(), "chess", "2026-09-01")
	require.NoError(t, err)
	assert.Len(t, grid, 18)
}

func TestListByOwner(t *testing.T) {
	svc, _ := setupBookingService(t, testSlotConfig())
	ctx := context.Background()

	_, err := svc.Reserve(ctx, "u1", "Asha", "foosball", "2026-09-02", "09:00")
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, "u1", "Asha", "carrom", "2026-09-01", "10:00")
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, "u2", "Bo", "foosball", "2026-09-01", "10:00")
	require.NoError(t, err)

	mine, err := svc.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2026-09-01", mine[0].Date)
	assert.Equal(t, "2026-09-02", mine[1].Date)
}
