package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"playhub/internal/domain"
	"playhub/internal/events"
	"playhub/internal/metrics"
	"playhub/internal/models"

	"github.com/rs/zerolog"
)

// NotifyWorker consumes domain events and delivers human-readable
// notifications through a Notifier, retrying transient failures with
// exponential backoff. Delivery order follows enqueue order; a message
// that exhausts its retries is dropped, never requeued.
type NotifyWorker struct {
	notifier    domain.Notifier
	retryPolicy RetryPolicy
	queue       chan string
	logger      *zerolog.Logger
}

// NewNotifyWorker builds a worker with sane defaults.
func NewNotifyWorker(notifier domain.Notifier, retry RetryPolicy, logger *zerolog.Logger) *NotifyWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &NotifyWorker{
		notifier:    notifier,
		retryPolicy: retry,
		queue:       make(chan string, models.WorkerQueueSize),
		logger:      logger,
	}
}

// Subscribe registers handlers for all reservation and challenge events.
func (w *NotifyWorker) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingReserved, w.handleBookingEvent("reserved"))
	bus.Subscribe(events.EventBookingCancelled, w.handleBookingEvent("cancelled"))
	bus.Subscribe(events.EventChallengeCreated, w.handleChallengeCreated)
	bus.Subscribe(events.EventChallengeResolved, w.handleChallengeResolved)
}

func (w *NotifyWorker) handleBookingEvent(action string) events.EventHandler {
	return func(event *events.Event) error {
		var p events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return fmt.Errorf("decode booking event: %w", err)
		}
		w.Enqueue(fmt.Sprintf("%s %s %s on %s %s", p.OwnerName, action, p.ResourceID, p.Date, p.Slot))
		return nil
	}
}

func (w *NotifyWorker) handleChallengeCreated(event *events.Event) error {
	var p events.ChallengeEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("decode challenge event: %w", err)
	}
	w.Enqueue(fmt.Sprintf("%s challenged %s for %s on %s %s",
		p.FromOwnerName, p.ToOwnerName, p.ResourceID, p.Date, p.Slot))
	return nil
}

func (w *NotifyWorker) handleChallengeResolved(event *events.Event) error {
	var p events.ChallengeEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("decode challenge event: %w", err)
	}
	w.Enqueue(fmt.Sprintf("%s %s the challenge from %s for %s on %s %s",
		p.ToOwnerName, p.Status, p.FromOwnerName, p.ResourceID, p.Date, p.Slot))
	return nil
}

// Enqueue schedules a text for delivery. Non-blocking: when the queue is
// full the message is dropped with a log entry.
func (w *NotifyWorker) Enqueue(text string) {
	select {
	case w.queue <- text:
	default:
		metrics.IncNotification("dropped")
		w.logger.Warn().Str("text", text).Msg("notify queue full, message dropped")
	}
}

// Start launches the delivery loop; stops when ctx is done.
func (w *NotifyWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("notify worker started")
	defer w.logger.Info().Msg("notify worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case text := <-w.queue:
			w.deliver(ctx, text)
		}
	}
}

func (w *NotifyWorker) deliver(ctx context.Context, text string) {
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		err := w.notifier.Notify(ctx, text)
		if err == nil {
			metrics.IncNotification("delivered")
			return
		}

		w.logger.Warn().Err(err).Int("attempt", attempt).Msg("notification delivery failed")
		if attempt == w.retryPolicy.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryPolicy.NextDelay(attempt)):
		}
	}

	metrics.IncNotification("failed")
	w.logger.Error().Str("text", text).Msg("notification dropped after retries")
}
