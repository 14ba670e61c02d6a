package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bookery/internal/database"
	"bookery/internal/events"
	"bookery/internal/metrics"
	"bookery/internal/models"
	"bookery/internal/recurrence"
	"bookery/internal/timeutil"
)

// RecurrencePayload is the editor-shaped recurrence descriptor carried by a
// booking create request. Frequency may still be "custom" here; the server
// normalizes it before anything is stored.
type RecurrencePayload struct {
	Frequency    string   `json:"frequency" validate:"required,oneof=daily weekly monthly custom"`
	Interval     int      `json:"interval" validate:"omitempty,min=1"`
	IntervalUnit string   `json:"interval_unit,omitempty" validate:"omitempty,oneof=days weeks"`
	Weekdays     []string `json:"weekdays,omitempty"`
	Until        string   `json:"until" validate:"required"` // RFC3339
}

// CreateBookingRequest is the booking creation body.
type CreateBookingRequest struct {
	ServiceID      int64              `json:"service_id" validate:"required"`
	CustomerID     int64              `json:"customer_id" validate:"required"`
	StartTime      string             `json:"start_time" validate:"required"` // RFC3339
	Note           string             `json:"note,omitempty"`
	IsRecurring    bool               `json:"is_recurring"`
	RecurrenceRule *RecurrencePayload `json:"recurrence_rule,omitempty"`
}

// CreateBookingResponse reports the created booking(s).
type CreateBookingResponse struct {
	PublicID    string   `json:"public_id"`
	SeriesID    string   `json:"series_id,omitempty"`
	Occurrences int      `json:"occurrences"`
	Rule        any      `json:"rule,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// editorStateFromPayload reconstructs editor state from the wire shape so the
// same normalization path serves both the preview endpoint and creation.
func editorStateFromPayload(p *RecurrencePayload) (recurrence.EditorState, error) {
	state := recurrence.NewEditorState()
	state.Recurring = true
	state.SetFrequency(recurrence.Frequency(p.Frequency))

	if state.Frequency == recurrence.FrequencyCustom {
		unit := recurrence.UnitDays
		if p.IntervalUnit == string(recurrence.UnitWeeks) {
			unit = recurrence.UnitWeeks
		}
		interval := p.Interval
		if interval < 1 {
			interval = 1
		}
		state.SetInterval(interval, unit)
		for _, day := range p.Weekdays {
			state.ToggleWeekday(day)
		}
	}

	until, err := parseUntil(p.Until)
	if err != nil {
		return state, err
	}
	state.SetUntil(until)
	return state, nil
}

// parseUntil accepts RFC3339 or a bare date from the editor's date picker.
// A bare date means the end of that day, so its occurrences are included.
func parseUntil(value string) (time.Time, error) {
	until, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return until, nil
	}
	day, err := timeutil.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid until: %w", err)
	}
	return timeutil.CombineDateTime(day, "23:59")
}

// handleCreateBooking creates a booking, expanding a recurring rule into a
// series inside one transaction.
// POST /api/v1/merchants/{merchantID}/bookings
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	merchantID, err := s.merchantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	var req CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time; expected RFC3339")
		return
	}

	service, err := s.db.GetService(r.Context(), req.ServiceID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "service not found")
			return
		}
		s.logger.Error().Err(err).Msg("get service")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if service.MerchantID != merchantID {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}

	if _, err := s.db.GetCustomer(r.Context(), req.CustomerID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		s.logger.Error().Err(err).Msg("get customer")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !req.IsRecurring || req.RecurrenceRule == nil {
		end := timeutil.AddMinutes(start, service.DurationMinutes)
		blocked, err := s.db.IsBlocked(r.Context(), merchantID, start, end)
		if err != nil {
			s.logger.Error().Err(err).Msg("check blocked time")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if blocked {
			writeError(w, http.StatusConflict, "requested time falls in a blocked interval")
			return
		}

		booking := s.newBooking(merchantID, service, &req, start, "")
		if err := s.db.CreateBooking(r.Context(), booking); err != nil {
			s.logger.Error().Err(err).Msg("create booking")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		metrics.IncBookingCreated(booking.Status)
		s.bus.Publish(events.NewEvent(events.BookingCreated, merchantID, booking))
		writeJSON(w, http.StatusCreated, CreateBookingResponse{
			PublicID:    booking.PublicID,
			Occurrences: 1,
		})
		return
	}

	state, err := editorStateFromPayload(req.RecurrenceRule)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule := state.Normalize()
	metrics.IncRecurrenceNormalized(string(rule.Frequency))

	occurrences, truncated, err := rule.Occurrences(start, s.cfg.Booking.MaxSeriesOccurrences)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(occurrences) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "recurrence rule produces no occurrences")
		return
	}

	var warnings []string
	if truncated {
		warnings = append(warnings, "series truncated at occurrence cap")
	}

	// Every occurrence honors blocked intervals, not just the first.
	occurrences, skipped, err := s.dropBlockedOccurrences(r.Context(), merchantID, occurrences, service.DurationMinutes)
	if err != nil {
		s.logger.Error().Err(err).Msg("check blocked time")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d occurrences skipped: blocked interval", skipped))
	}
	if len(occurrences) == 0 {
		writeError(w, http.StatusConflict, "every occurrence falls in a blocked interval")
		return
	}

	seriesID := uuid.NewString()
	series := make([]*models.Booking, 0, len(occurrences))
	for _, occ := range occurrences {
		series = append(series, s.newBooking(merchantID, service, &req, occ, seriesID))
	}

	if err := s.db.CreateBookingSeries(r.Context(), series); err != nil {
		s.logger.Error().Err(err).Msg("create booking series")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	for range series {
		metrics.IncBookingCreated(models.BookingPending)
	}
	s.bus.Publish(events.NewEvent(events.BookingCreated, merchantID, series[0]))

	writeJSON(w, http.StatusCreated, CreateBookingResponse{
		PublicID:    series[0].PublicID,
		SeriesID:    seriesID,
		Occurrences: len(series),
		Rule:        rule,
		Warnings:    warnings,
	})
}

func (s *Server) newBooking(merchantID int64, service *models.Service, req *CreateBookingRequest, start time.Time, seriesID string) *models.Booking {
	end := timeutil.AddMinutes(start, service.DurationMinutes)
	return &models.Booking{
		PublicID:   uuid.NewString(),
		MerchantID: merchantID,
		ServiceID:  service.ID,
		CustomerID: req.CustomerID,
		StartTime:  start,
		EndTime:    &end,
		Status:     models.BookingPending,
		SeriesID:   seriesID,
		Note:       req.Note,
	}
}

// dropBlockedOccurrences filters out occurrences overlapping a blocked
// interval. One query covers the whole series range.
func (s *Server) dropBlockedOccurrences(ctx context.Context, merchantID int64, occurrences []time.Time, durationMinutes int) ([]time.Time, int, error) {
	last := timeutil.AddMinutes(occurrences[len(occurrences)-1], durationMinutes)
	blocks, err := s.db.ListBlockedTimes(ctx, merchantID, occurrences[0], last)
	if err != nil {
		return nil, 0, err
	}
	if len(blocks) == 0 {
		return occurrences, 0, nil
	}

	kept := occurrences[:0]
	for _, occ := range occurrences {
		end := timeutil.AddMinutes(occ, durationMinutes)
		overlaps := false
		for _, b := range blocks {
			if occ.Before(b.EndTime) && b.StartTime.Before(end) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, occ)
		}
	}
	return kept, len(occurrences) - len(kept), nil
}

// handleListBookings lists a merchant's bookings in a date range.
// GET /api/v1/merchants/{merchantID}/bookings?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_bookings")

	merchantID, err := s.merchantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	from, to, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.db.ListBookings(r.Context(), merchantID, from, to)
	if err != nil {
		s.logger.Error().Err(err).Msg("list bookings")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// MaxListRangeDays caps the booking list window.
const MaxListRangeDays = 90

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("from and to are required")
	}
	from, err := timeutil.ParseDate(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := timeutil.ParseDate(toStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("from must be before or equal to to")
	}
	if int(to.Sub(from).Hours()/24) > MaxListRangeDays {
		return time.Time{}, time.Time{}, fmt.Errorf("date range exceeds maximum of %d days", MaxListRangeDays)
	}
	// Make the range end-exclusive on the day after `to`.
	return from, to.AddDate(0, 0, 1), nil
}

// handleCancelBooking cancels a booking by public ID.
// DELETE /api/v1/bookings/{publicID}
func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cancel_booking")

	publicID := chi.URLParam(r, "publicID")
	booking, err := s.db.GetBookingByPublicID(r.Context(), publicID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		s.logger.Error().Err(err).Msg("get booking")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.db.CancelBooking(r.Context(), publicID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusConflict, "booking is not active")
			return
		}
		s.logger.Error().Err(err).Msg("cancel booking")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	metrics.IncBookingCancelled()
	s.bus.Publish(events.NewEvent(events.BookingCancelled, booking.MerchantID, booking))
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": publicID})
}

// RecurrencePreviewRequest asks for the normalized form of an editor state.
type RecurrencePreviewRequest struct {
	StartTime   string            `json:"start_time" validate:"required"` // RFC3339
	EndTime     string            `json:"end_time" validate:"required"`
	ClockFormat string            `json:"clock_format,omitempty" validate:"omitempty,oneof=12h 24h"`
	Rule        RecurrencePayload `json:"rule" validate:"required"`
}

// RecurrencePreviewResponse carries the normalized rule, its summary
// sentence, and the first expanded occurrences.
type RecurrencePreviewResponse struct {
	Rule        recurrence.Rule `json:"rule"`
	Summary     string          `json:"summary"`
	Occurrences []string        `json:"occurrences"`
}

// handleRecurrencePreview normalizes an editor payload without persisting.
// POST /api/v1/recurrence/preview
func (s *Server) handleRecurrencePreview(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("recurrence_preview")

	var req RecurrencePreviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time; expected RFC3339")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_time; expected RFC3339")
		return
	}

	state, err := editorStateFromPayload(&req.Rule)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	format := timeutil.Clock24h
	if req.ClockFormat == "12h" {
		format = timeutil.Clock12h
	}

	rule := state.Normalize()
	metrics.IncRecurrenceNormalized(string(rule.Frequency))

	occurrences, _, err := rule.Occurrences(start, 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rendered := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		rendered = append(rendered, occ.Format(time.RFC3339))
	}

	writeJSON(w, http.StatusOK, RecurrencePreviewResponse{
		Rule:        rule,
		Summary:     state.Describe(start, end, format),
		Occurrences: rendered,
	})
}
