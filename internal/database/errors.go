package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrSlotTaken reports that another booking already holds the
	// (resource, date, slot) natural key.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrNotFound reports that no record exists for the given identity.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyResolved reports that a challenge left the pending state
	// before this transition could apply.
	ErrAlreadyResolved = errors.New("challenge already resolved")

	// ErrStoreUnavailable marks transient storage failures. Operations are
	// conditional and idempotent on their key, so callers may retry with
	// backoff.
	ErrStoreUnavailable = errors.New("storage temporarily unavailable")
)

// wrapStoreErr classifies low-level sqlite failures. Lock contention and
// busy timeouts become ErrStoreUnavailable; a unique-constraint violation
// on the bookings natural key becomes ErrSlotTaken.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		case sqlite3.ErrConstraint:
			if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
				return ErrSlotTaken
			}
		}
	}
	return err
}
