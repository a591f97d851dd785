package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"playhub/internal/database"
	"playhub/internal/models"
	"playhub/internal/service"
)

const ownerHeader = "X-Owner-ID"

func (s *HTTPServer) handleResources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"resources": s.bookings.Resources()})
}

func (s *HTTPServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	const prefix = "/api/v1/schedule/"
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "expected /api/v1/schedule/{resource_id}/{date}")
		return
	}
	resourceID, date := parts[0], parts[1]

	grid, err := s.bookings.Schedule(r.Context(), resourceID, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"resource_id": resourceID,
		"date":        date,
		"slots":       grid,
	})
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	type request struct {
		OwnerID    string `json:"owner_id"`
		OwnerName  string `json:"owner_name"`
		ResourceID string `json:"resource_id"`
		Date       string `json:"date"`
		Slot       string `json:"slot"`
	}

	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if body.OwnerID == "" || body.OwnerName == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "owner_id and owner_name are required")
		return
	}

	if !s.allowOwner(r, body.OwnerID) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many booking requests")
		return
	}

	booking, err := s.bookings.Reserve(r.Context(), body.OwnerID, body.OwnerName, body.ResourceID, body.Date, body.Slot)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"booking": booking})
}

func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/bookings/"
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", "booking id is required")
		return
	}

	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	ownerID := strings.TrimSpace(r.Header.Get(ownerHeader))
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("%s header is required", ownerHeader))
		return
	}

	if err := s.bookings.Cancel(r.Context(), id, ownerID); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *HTTPServer) handleChallenges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	type request struct {
		FromOwnerID   string `json:"from_owner_id"`
		FromOwnerName string `json:"from_owner_name"`
		BookingID     string `json:"booking_id"`
	}

	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if body.FromOwnerID == "" || body.FromOwnerName == "" || body.BookingID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "from_owner_id, from_owner_name and booking_id are required")
		return
	}

	challenge, err := s.challenges.Create(r.Context(), body.FromOwnerID, body.FromOwnerName, body.BookingID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"challenge": challenge})
}

func (s *HTTPServer) handleChallengeResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	const prefix = "/api/v1/challenges/"
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "resolve" {
		writeError(w, http.StatusBadRequest, "bad_request", "expected /api/v1/challenges/{id}/resolve")
		return
	}
	challengeID := parts[0]

	ownerID := strings.TrimSpace(r.Header.Get(ownerHeader))
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("%s header is required", ownerHeader))
		return
	}

	type request struct {
		Decision string `json:"decision"`
	}
	var body request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	challenge, err := s.challenges.Resolve(r.Context(), challengeID, ownerID, body.Decision)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"challenge": challenge})
}

func (s *HTTPServer) handleOwner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	const prefix = "/api/v1/owners/"
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "expected /api/v1/owners/{owner_id}/bookings or /challenges")
		return
	}
	ownerID := parts[0]

	switch parts[1] {
	case "bookings":
		bookings, err := s.bookings.ListByOwner(r.Context(), ownerID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
	case "challenges":
		challenges, err := s.challenges.ListForOwner(r.Context(), ownerID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"challenges": challenges})
	default:
		writeError(w, http.StatusNotFound, "not_found", "not found")
	}
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusNotFound, "not_found", "export is not configured")
		return
	}

	from, err := time.Parse(models.DateLayout, strings.TrimSpace(r.URL.Query().Get("from")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse(models.DateLayout, strings.TrimSpace(r.URL.Query().Get("to")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid to date; expected YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "bad_request", "to date is before from date")
		return
	}

	fileName := fmt.Sprintf("schedule_%s_to_%s.xlsx",
		from.Format(models.DateLayout), to.Format(models.DateLayout))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := s.exporter.Write(r.Context(), from, to, w); err != nil {
		s.logger.Error().Err(err).Msg("schedule export failed")
	}
}

// allowOwner applies the per-owner booking rate limit through the cache
// backend. Open when no cache or limit is configured; open on cache errors
// so a degraded cache never blocks bookings.
func (s *HTTPServer) allowOwner(r *http.Request, ownerID string) bool {
	if s.cache == nil || s.bookingCfg.OwnerRateLimit <= 0 {
		return true
	}

	window := time.Duration(s.bookingCfg.OwnerRateLimitWindow) * time.Second
	allowed, err := s.cache.CheckRateLimit(r.Context(), "owner:"+ownerID, s.bookingCfg.OwnerRateLimit, window)
	if err != nil {
		return true
	}
	return allowed
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", "slot is already booked")
	case errors.Is(err, service.ErrConsecutiveLimit):
		writeError(w, http.StatusConflict, "consecutive_limit", err.Error())
	case errors.Is(err, database.ErrAlreadyResolved):
		writeError(w, http.StatusConflict, "already_resolved", "challenge is already resolved")
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, service.ErrNotTarget):
		writeError(w, http.StatusForbidden, "not_target", err.Error())
	case errors.Is(err, service.ErrNotBookable):
		writeError(w, http.StatusUnprocessableEntity, "not_bookable", err.Error())
	case errors.Is(err, service.ErrBlockedTime):
		writeError(w, http.StatusUnprocessableEntity, "blocked_time", err.Error())
	case errors.Is(err, service.ErrInvalidSlot):
		writeError(w, http.StatusUnprocessableEntity, "invalid_slot", err.Error())
	case errors.Is(err, service.ErrInvalidDate):
		writeError(w, http.StatusUnprocessableEntity, "invalid_date", err.Error())
	case errors.Is(err, service.ErrSelfChallenge):
		writeError(w, http.StatusUnprocessableEntity, "self_challenge", err.Error())
	case errors.Is(err, service.ErrInvalidDecision):
		writeError(w, http.StatusUnprocessableEntity, "invalid_decision", err.Error())
	case errors.Is(err, database.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "storage is temporarily unavailable")
	default:
		s.logger.Error().Err(err).Msg("unhandled api error")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
