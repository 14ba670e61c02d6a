package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bookery/internal/database"
	"bookery/internal/events"
	"bookery/internal/hours"
	"bookery/internal/metrics"
)

// HoursDay is one weekday's schedule in the hours API payload.
type HoursDay struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// ReplaceHoursRequest replaces a merchant's whole weekly schedule. Days not
// listed become closed.
type ReplaceHoursRequest struct {
	Days []HoursDay `json:"days" validate:"dive"`
}

func (s *Server) merchantID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "merchantID"), 10, 64)
}

// handleBusinessStatus derives the merchant's live status.
// GET /api/v1/merchants/{merchantID}/status[?at=RFC3339]
func (s *Server) handleBusinessStatus(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("business_status")

	merchantID, err := s.merchantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	now := time.Now()
	if at := r.URL.Query().Get("at"); at != "" {
		now, err = time.Parse(time.RFC3339, at)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid at parameter; expected RFC3339")
			return
		}
	}

	if _, err := s.db.GetMerchant(r.Context(), merchantID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "merchant not found")
			return
		}
		s.logger.Error().Err(err).Msg("get merchant")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	wh, err := s.db.GetWeeklyHours(r.Context(), merchantID)
	if err != nil {
		s.logger.Error().Err(err).Msg("get weekly hours")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status, err := hours.Calculate(wh, now)
	if err != nil {
		var malformed *hours.MalformedScheduleError
		if errors.As(err, &malformed) {
			metrics.IncStatusCalculated("malformed")
			writeError(w, http.StatusUnprocessableEntity, malformed.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch {
	case status.IsOpen:
		metrics.IncStatusCalculated("open")
	case status.PermanentlyClosed:
		metrics.IncStatusCalculated("permanently_closed")
	default:
		metrics.IncStatusCalculated("closed")
	}

	writeJSON(w, http.StatusOK, status)
}

// handleGetHours returns the weekly schedule rows.
// GET /api/v1/merchants/{merchantID}/hours
func (s *Server) handleGetHours(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_hours")

	merchantID, err := s.merchantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	rows, err := s.db.ListBusinessHours(r.Context(), merchantID)
	if err != nil {
		s.logger.Error().Err(err).Msg("list business hours")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	days := make([]HoursDay, 0, len(rows))
	for _, row := range rows {
		days = append(days, HoursDay{
			DayOfWeek: row.DayOfWeek,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// handleReplaceHours validates and swaps the weekly schedule.
// PUT /api/v1/merchants/{merchantID}/hours
func (s *Server) handleReplaceHours(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("replace_hours")

	merchantID, err := s.merchantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	var req ReplaceHoursRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wh := hours.WeeklyHours{}
	for _, day := range req.Days {
		if wh[day.DayOfWeek] != nil {
			writeError(w, http.StatusBadRequest, "duplicate day_of_week")
			return
		}
		wh[day.DayOfWeek] = &hours.Interval{Start: day.StartTime, End: day.EndTime}
	}
	if err := hours.Validate(wh); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.db.ReplaceWeeklyHours(r.Context(), merchantID, wh); err != nil {
		s.logger.Error().Err(err).Msg("replace weekly hours")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.bus.Publish(events.NewEvent(events.HoursUpdated, merchantID, req))
	writeJSON(w, http.StatusOK, map[string]any{"updated": len(req.Days)})
}
