package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"playhub/internal/models"

	"github.com/google/uuid"
)

const bookingColumns = `id, owner_id, owner_name, resource_id, date, slot, created_at`

// CreateBookingTx commits a booking under the store's isolation boundary:
// the natural-key check, the caller-supplied invariant check over the
// owner's existing slots and the insert all happen in one transaction, so
// concurrent reservations cannot interleave between check and write.
func (db *DB) CreateBookingTx(ctx context.Context, booking *models.Booking, check func(ownerSlots []string) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Nobody else may hold this (resource, date, slot).
	var existingID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM bookings WHERE resource_id = ? AND date = ? AND slot = ?`,
		booking.ResourceID, booking.Date, booking.Slot,
	).Scan(&existingID)
	switch {
	case err == nil:
		return ErrSlotTaken
	case !errors.Is(err, sql.ErrNoRows):
		return wrapStoreErr(fmt.Errorf("check slot in tx: %w", err))
	}

	// 2. The owner's other slots for this resource and day feed the
	// caller's invariant predicate.
	rows, err := tx.QueryContext(ctx,
		`SELECT slot FROM bookings WHERE owner_id = ? AND resource_id = ? AND date = ?`,
		booking.OwnerID, booking.ResourceID, booking.Date,
	)
	if err != nil {
		return wrapStoreErr(fmt.Errorf("load owner slots in tx: %w", err))
	}
	var ownerSlots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			rows.Close()
			return wrapStoreErr(fmt.Errorf("scan owner slot: %w", err))
		}
		ownerSlots = append(ownerSlots, slot)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return wrapStoreErr(fmt.Errorf("iterate owner slots: %w", err))
	}
	rows.Close()

	if check != nil {
		if err := check(ownerSlots); err != nil {
			return err
		}
	}

	// 3. Commit the record with a server-assigned identity and timestamp.
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		booking.ID, booking.OwnerID, booking.OwnerName,
		booking.ResourceID, booking.Date, booking.Slot, now,
	)
	if err != nil {
		return wrapStoreErr(fmt.Errorf("insert booking in tx: %w", err))
	}
	booking.CreatedAt = now

	if err := tx.Commit(); err != nil {
		return wrapStoreErr(fmt.Errorf("commit booking: %w", err))
	}
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)

	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapStoreErr(fmt.Errorf("get booking: %w", err))
	}
	return booking, nil
}

// DeleteBooking removes a booking by identity. ErrNotFound when the
// booking is already gone; deleting twice is not idempotent by contract.
func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return wrapStoreErr(fmt.Errorf("delete booking: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapStoreErr(fmt.Errorf("delete booking rows affected: %w", err))
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListBookingsByResourceDate(ctx context.Context, resourceID, date string) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
         WHERE resource_id = ? AND date = ? ORDER BY slot ASC`,
		resourceID, date)
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("list bookings by resource/date: %w", err))
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (db *DB) ListBookingsByOwner(ctx context.Context, ownerID string) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
         WHERE owner_id = ? ORDER BY date ASC, slot ASC`,
		ownerID)
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("list bookings by owner: %w", err))
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (db *DB) ListBookingsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
         WHERE date >= ? AND date <= ? ORDER BY date ASC, resource_id ASC, slot ASC`,
		startDate, endDate)
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("list bookings by date range: %w", err))
	}
	defer rows.Close()

	return collectBookings(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(&b.ID, &b.OwnerID, &b.OwnerName, &b.ResourceID, &b.Date, &b.Slot, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, wrapStoreErr(fmt.Errorf("scan booking: %w", err))
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr(fmt.Errorf("iterate bookings: %w", err))
	}
	return bookings, nil
}
