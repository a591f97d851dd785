package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingReserved   = "booking_reserved"
	EventBookingCancelled  = "booking_cancelled"
	EventChallengeCreated  = "challenge_created"
	EventChallengeResolved = "challenge_resolved"
)

// BookingEventPayload is the booking snapshot handed to event consumers.
type BookingEventPayload struct {
	BookingID  string `json:"booking_id"`
	OwnerID    string `json:"owner_id"`
	OwnerName  string `json:"owner_name"`
	ResourceID string `json:"resource_id"`
	Date       string `json:"date"`
	Slot       string `json:"slot"`
}

// ChallengeEventPayload is the challenge snapshot handed to event consumers.
type ChallengeEventPayload struct {
	ChallengeID   string `json:"challenge_id"`
	FromOwnerID   string `json:"from_owner_id"`
	FromOwnerName string `json:"from_owner_name"`
	ToOwnerID     string `json:"to_owner_id"`
	ToOwnerName   string `json:"to_owner_name"`
	ResourceID    string `json:"resource_id"`
	Date          string `json:"date"`
	Slot          string `json:"slot"`
	Status        string `json:"status,omitempty"`
}

// Event is a lightweight in-process domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub. Handlers run synchronously on the
// publisher's goroutine; subscribers that need concurrency bring their own.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for an event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event's type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event. Safe on a
// nil bus so event wiring stays optional.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
