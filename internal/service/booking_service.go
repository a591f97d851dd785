package service

import (
	"context"
	"sort"
	"time"

	"playhub/internal/domain"
	"playhub/internal/events"
	"playhub/internal/metrics"
	"playhub/internal/models"
	"playhub/internal/slots"

	"github.com/rs/zerolog"
)

// BookingService is the booking engine: it owns the slot grid, the
// bookable catalog and the per-owner contiguity limit, and commits
// reservations through the store's transactional primitive. It keeps no
// in-process locks; correctness under concurrent callers comes from the
// store transaction alone.
type BookingService struct {
	store          domain.BookingStore
	cache          domain.ScheduleCache
	eventBus       domain.EventPublisher
	slotCfg        slots.Config
	grid           []string
	catalog        map[string]models.Resource
	resources      []models.Resource
	maxConsecutive int
	maxAdvanceDays int
	logger         *zerolog.Logger
}

// SlotStatus is one cell of a rendered day grid.
type SlotStatus struct {
	Slot      string `json:"slot"`
	Booked    bool   `json:"booked"`
	BookingID string `json:"booking_id,omitempty"`
	OwnerID   string `json:"owner_id,omitempty"`
	OwnerName string `json:"owner_name,omitempty"`
}

// NewBookingService validates the slot configuration up front; an invalid
// grid is a startup failure, never a per-request one.
func NewBookingService(
	store domain.BookingStore,
	cache domain.ScheduleCache,
	eventBus domain.EventPublisher,
	resources []models.Resource,
	slotCfg slots.Config,
	maxConsecutive, maxAdvanceDays int,
	logger *zerolog.Logger,
) (*BookingService, error) {
	grid, err := slots.Generate(slotCfg)
	if err != nil {
		return nil, err
	}
	if maxConsecutive <= 0 {
		maxConsecutive = models.MaxConsecutiveSlots
	}

	catalog := make(map[string]models.Resource, len(resources))
	ordered := append([]models.Resource(nil), resources...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].SortOrder == ordered[j].SortOrder {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].SortOrder < ordered[j].SortOrder
	})
	for _, r := range resources {
		catalog[r.ID] = r
	}

	return &BookingService{
		store:          store,
		cache:          cache,
		eventBus:       eventBus,
		slotCfg:        slotCfg,
		grid:           grid,
		catalog:        catalog,
		resources:      ordered,
		maxConsecutive: maxConsecutive,
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
	}, nil
}

// Resources returns the catalog in display order.
func (s *BookingService) Resources() []models.Resource {
	return s.resources
}

// Slots returns the day grid labels. The sequence is deterministic, so
// clients can render consistent grids without persisting it.
func (s *BookingService) Slots() []string {
	return s.grid
}

// Reserve validates the request and commits the booking inside one store
// transaction: natural-key uniqueness, the contiguity limit and the
// insert cannot interleave with a concurrent reservation.
func (s *BookingService) Reserve(ctx context.Context, ownerID, ownerName, resourceID, date, slot string) (*models.Booking, error) {
	resource, ok := s.catalog[resourceID]
	if !ok || !resource.Bookable {
		metrics.IncReservation("not_bookable")
		return nil, ErrNotBookable
	}

	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		metrics.IncReservation("invalid_date")
		return nil, ErrInvalidDate
	}
	if s.maxAdvanceDays > 0 && day.After(time.Now().AddDate(0, 0, s.maxAdvanceDays)) {
		metrics.IncReservation("invalid_date")
		return nil, ErrInvalidDate
	}

	// Clients normally pick from the generated grid; these checks stop
	// anyone posting labels directly.
	if _, err := slots.ParseLabel(slot); err != nil {
		metrics.IncReservation("invalid_slot")
		return nil, ErrInvalidSlot
	}
	if slots.IsBlocked(slot, s.slotCfg.Blocked) {
		metrics.IncReservation("blocked")
		return nil, ErrBlockedTime
	}
	if !slots.OnGrid(s.slotCfg, slot) {
		metrics.IncReservation("invalid_slot")
		return nil, ErrInvalidSlot
	}

	booking := &models.Booking{
		OwnerID:    ownerID,
		OwnerName:  ownerName,
		ResourceID: resourceID,
		Date:       date,
		Slot:       slot,
	}

	err = s.store.CreateBookingTx(ctx, booking, func(ownerSlots []string) error {
		merged := append(append([]string(nil), ownerSlots...), slot)
		if slots.LongestRun(merged, s.slotCfg.StepMinutes) > s.maxConsecutive {
			return ErrConsecutiveLimit
		}
		return nil
	})
	if err != nil {
		metrics.IncReservation("rejected")
		return nil, err
	}

	metrics.IncReservation("ok")
	s.publishBookingEvent(events.EventBookingReserved, booking)
	s.invalidateDay(ctx, resourceID, date)

	return booking, nil
}

// Cancel deletes a booking on behalf of its owner. Cancelling an already
// cancelled booking surfaces the store's ErrNotFound.
func (s *BookingService) Cancel(ctx context.Context, bookingID, requesterID string) error {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.OwnerID != requesterID {
		return ErrNotOwner
	}

	if err := s.store.DeleteBooking(ctx, bookingID); err != nil {
		return err
	}

	s.publishBookingEvent(events.EventBookingCancelled, booking)
	s.invalidateDay(ctx, booking.ResourceID, booking.Date)
	return nil
}

// ListByResourceDate returns committed bookings for one resource and day.
// Served through the day cache: reads may briefly lag writes, which is
// acceptable for grid rendering.
func (s *BookingService) ListByResourceDate(ctx context.Context, resourceID, date string) ([]*models.Booking, error) {
	if s.cache != nil {
		if cached, ok, err := s.cache.GetDay(ctx, resourceID, date); err == nil && ok {
			return cached, nil
		}
	}

	bookings, err := s.store.ListBookingsByResourceDate(ctx, resourceID, date)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetDay(ctx, resourceID, date, bookings); err != nil {
			s.logger.Warn().Err(err).Str("resource", resourceID).Str("date", date).Msg("schedule cache set failed")
		}
	}
	return bookings, nil
}

// Schedule renders the full day grid for a resource: every slot label
// with its booking, if any.
func (s *BookingService) Schedule(ctx context.Context, resourceID, date string) ([]SlotStatus, error) {
	if _, ok := s.catalog[resourceID]; !ok {
		return nil, ErrNotBookable
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, ErrInvalidDate
	}

	bookings, err := s.ListByResourceDate(ctx, resourceID, date)
	if err != nil {
		return nil, err
	}

	bySlot := make(map[string]*models.Booking, len(bookings))
	for _, b := range bookings {
		bySlot[b.Slot] = b
	}

	grid := make([]SlotStatus, 0, len(s.grid))
	for _, label := range s.grid {
		cell := SlotStatus{Slot: label}
		if b, ok := bySlot[label]; ok {
			cell.Booked = true
			cell.BookingID = b.ID
			cell.OwnerID = b.OwnerID
			cell.OwnerName = b.OwnerName
		}
		grid = append(grid, cell)
	}
	return grid, nil
}

func (s *BookingService) ListByOwner(ctx context.Context, ownerID string) ([]*models.Booking, error) {
	return s.store.ListBookingsByOwner(ctx, ownerID)
}

func (s *BookingService) ListByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Booking, error) {
	return s.store.ListBookingsByDateRange(ctx, startDate, endDate)
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:  booking.ID,
		OwnerID:    booking.OwnerID,
		OwnerName:  booking.OwnerName,
		ResourceID: booking.ResourceID,
		Date:       booking.Date,
		Slot:       booking.Slot,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) invalidateDay(ctx context.Context, resourceID, date string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDay(ctx, resourceID, date); err != nil {
		s.logger.Warn().Err(err).Str("resource", resourceID).Str("date", date).Msg("schedule cache invalidate failed")
	}
}
