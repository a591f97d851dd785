package models

import "time"

// Booking is a committed reservation of one slot on one resource for one day.
// (ResourceID, Date, Slot) is the natural key and is unique across the store.
type Booking struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	OwnerName  string    `json:"owner_name"`
	ResourceID string    `json:"resource_id"`
	Date       string    `json:"date"` // YYYY-MM-DD, no time component
	Slot       string    `json:"slot"` // HH:MM slot start label
	CreatedAt  time.Time `json:"created_at"`
}
