package service

import (
	"context"

	"playhub/internal/domain"
	"playhub/internal/events"
	"playhub/internal/metrics"
	"playhub/internal/models"

	"github.com/rs/zerolog"
)

// ChallengeService runs the challenge state machine:
// pending -> accepted | declined, both terminal. It reads booking
// identity to validate targets but never owns the booking: a challenge
// against a since-cancelled booking may still be resolved.
type ChallengeService struct {
	challenges domain.ChallengeStore
	bookings   domain.BookingStore
	eventBus   domain.EventPublisher
	logger     *zerolog.Logger
}

func NewChallengeService(
	challenges domain.ChallengeStore,
	bookings domain.BookingStore,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *ChallengeService {
	return &ChallengeService{
		challenges: challenges,
		bookings:   bookings,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Create opens a pending challenge against an existing booking,
// snapshotting its (resource, date, slot, owner) at creation time.
func (s *ChallengeService) Create(ctx context.Context, fromOwnerID, fromOwnerName, bookingID string) (*models.Challenge, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID == fromOwnerID {
		return nil, ErrSelfChallenge
	}

	challenge := &models.Challenge{
		FromOwnerID:   fromOwnerID,
		FromOwnerName: fromOwnerName,
		ToOwnerID:     booking.OwnerID,
		ToOwnerName:   booking.OwnerName,
		ResourceID:    booking.ResourceID,
		Date:          booking.Date,
		Slot:          booking.Slot,
		Status:        models.ChallengePending,
	}
	if err := s.challenges.CreateChallenge(ctx, challenge); err != nil {
		return nil, err
	}

	metrics.IncChallenge("created")
	s.publishChallengeEvent(events.EventChallengeCreated, challenge)
	return challenge, nil
}

// Resolve applies the single allowed transition. Only the challenged
// member may resolve, and only while the challenge is pending. The
// referenced booking is deliberately not re-checked here.
func (s *ChallengeService) Resolve(ctx context.Context, challengeID, resolverID, decision string) (*models.Challenge, error) {
	var status string
	switch decision {
	case models.DecisionAccept:
		status = models.ChallengeAccepted
	case models.DecisionDecline:
		status = models.ChallengeDeclined
	default:
		return nil, ErrInvalidDecision
	}

	challenge, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge.ToOwnerID != resolverID {
		return nil, ErrNotTarget
	}

	if err := s.challenges.ResolveChallenge(ctx, challengeID, status); err != nil {
		return nil, err
	}

	resolved, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	metrics.IncChallenge(status)
	s.publishChallengeEvent(events.EventChallengeResolved, resolved)
	return resolved, nil
}

func (s *ChallengeService) ListForOwner(ctx context.Context, ownerID string) ([]*models.Challenge, error) {
	return s.challenges.ListChallengesForOwner(ctx, ownerID)
}

func (s *ChallengeService) publishChallengeEvent(eventType string, challenge *models.Challenge) {
	if s.eventBus == nil {
		return
	}

	payload := events.ChallengeEventPayload{
		ChallengeID:   challenge.ID,
		FromOwnerID:   challenge.FromOwnerID,
		FromOwnerName: challenge.FromOwnerName,
		ToOwnerID:     challenge.ToOwnerID,
		ToOwnerName:   challenge.ToOwnerName,
		ResourceID:    challenge.ResourceID,
		Date:          challenge.Date,
		Slot:          challenge.Slot,
		Status:        challenge.Status,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("challenge_id", challenge.ID).Msg("publish event error")
	}
}
