package service

import "errors"

// Engine-level caller errors. Store-level ones (ErrSlotTaken, ErrNotFound,
// ErrAlreadyResolved, ErrStoreUnavailable) live in the database package
// and pass through unchanged so callers always get a specific kind.
var (
	ErrNotBookable      = errors.New("resource is not open for booking")
	ErrBlockedTime      = errors.New("slot falls inside blocked hours")
	ErrInvalidSlot      = errors.New("slot is not on the schedule grid")
	ErrInvalidDate      = errors.New("invalid booking date")
	ErrConsecutiveLimit = errors.New("consecutive slot limit reached")
	ErrNotOwner         = errors.New("booking belongs to another member")
	ErrSelfChallenge    = errors.New("cannot challenge your own booking")
	ErrNotTarget        = errors.New("challenge is addressed to another member")
	ErrInvalidDecision  = errors.New("decision must be accept or decline")
)
