package models

import "time"

// Challenge is an invitation from one member to the holder of a booking.
// It snapshots the booking's key at creation time and does not own the
// booking: the booking may be cancelled while the challenge stays around.
type Challenge struct {
	ID            string     `json:"id"`
	FromOwnerID   string     `json:"from_owner_id"`
	FromOwnerName string     `json:"from_owner_name"`
	ToOwnerID     string     `json:"to_owner_id"`
	ToOwnerName   string     `json:"to_owner_name"`
	ResourceID    string     `json:"resource_id"`
	Date          string     `json:"date"`
	Slot          string     `json:"slot"`
	Status        string     `json:"status"` // pending, accepted, declined
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}
