package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bookery/internal/metrics"
	"bookery/internal/recurrence"
	"bookery/internal/timeutil"
)

// EditorStateResponse is the wire view of one user's editor session.
type EditorStateResponse struct {
	Phase        string   `json:"phase"`
	Recurring    bool     `json:"recurring"`
	Frequency    string   `json:"frequency"`
	Interval     int      `json:"interval"`
	IntervalUnit string   `json:"interval_unit"`
	Weekdays     []string `json:"weekdays"`
	Until        string   `json:"until,omitempty"`
}

// EditorUpdateRequest carries one or more form mutations. Absent fields leave
// the corresponding state untouched.
type EditorUpdateRequest struct {
	Frequency     string `json:"frequency,omitempty" validate:"omitempty,oneof=daily weekly monthly custom"`
	Interval      int    `json:"interval,omitempty" validate:"omitempty,min=1"`
	IntervalUnit  string `json:"interval_unit,omitempty" validate:"omitempty,oneof=days weeks"`
	ToggleWeekday string `json:"toggle_weekday,omitempty"`
	Until         string `json:"until,omitempty"`
}

// EditorSubmitRequest ends the session, handing back the normalized rule.
type EditorSubmitRequest struct {
	StartTime   string `json:"start_time" validate:"required"` // RFC3339
	EndTime     string `json:"end_time" validate:"required"`
	ClockFormat string `json:"clock_format,omitempty" validate:"omitempty,oneof=12h 24h"`
}

// EditorSubmitResponse is the submitted descriptor plus its summary sentence.
type EditorSubmitResponse struct {
	Rule    recurrence.Rule `json:"rule"`
	Summary string          `json:"summary"`
}

func (s *Server) editorUserID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
}

func editorStateResponse(phase recurrence.Phase, state recurrence.EditorState) EditorStateResponse {
	days := make([]string, 0, len(state.Weekdays))
	for name, on := range state.Weekdays {
		if on {
			days = append(days, name)
		}
	}
	sort.Strings(days)

	resp := EditorStateResponse{
		Phase:        string(phase),
		Recurring:    state.Recurring,
		Frequency:    string(state.Frequency),
		Interval:     state.Interval,
		IntervalUnit: string(state.Unit),
		Weekdays:     days,
	}
	if !state.Until.IsZero() {
		resp.Until = state.Until.Format(time.RFC3339)
	}
	return resp
}

// handleEditorEnable opens (or reopens) the user's editing session.
// POST /api/v1/recurrence/sessions/{userID}
func (s *Server) handleEditorEnable(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("editor_enable")

	userID, err := s.editorUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	editor := s.editors.GetOrCreate(userID)
	editor.Enable()
	writeJSON(w, http.StatusCreated, editorStateResponse(editor.Phase(), editor.State()))
}

// handleEditorState returns the session's current form state.
// GET /api/v1/recurrence/sessions/{userID}
func (s *Server) handleEditorState(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("editor_state")

	userID, err := s.editorUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	editor := s.editors.Get(userID)
	if editor == nil {
		writeError(w, http.StatusNotFound, "no editor session")
		return
	}
	writeJSON(w, http.StatusOK, editorStateResponse(editor.Phase(), editor.State()))
}

// handleEditorUpdate applies form mutations while editing.
// PATCH /api/v1/recurrence/sessions/{userID}
func (s *Server) handleEditorUpdate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("editor_update")

	userID, err := s.editorUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req EditorUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var until time.Time
	if req.Until != "" {
		until, err = parseUntil(req.Until)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid until")
			return
		}
	}

	editor := s.editors.Get(userID)
	if editor == nil {
		writeError(w, http.StatusNotFound, "no editor session")
		return
	}

	err = editor.Update(func(state *recurrence.EditorState) {
		if req.Frequency != "" {
			state.SetFrequency(recurrence.Frequency(req.Frequency))
		}
		if req.Interval > 0 {
			unit := state.Unit
			if req.IntervalUnit != "" {
				unit = recurrence.IntervalUnit(req.IntervalUnit)
			}
			state.SetInterval(req.Interval, unit)
		}
		if req.ToggleWeekday != "" {
			state.ToggleWeekday(req.ToggleWeekday)
		}
		if !until.IsZero() {
			state.SetUntil(until)
		}
	})
	if err != nil {
		if errors.Is(err, recurrence.ErrNotEditing) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("editor update")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, editorStateResponse(editor.Phase(), editor.State()))
}

// handleEditorSubmit normalizes the session into a rule and ends it.
// POST /api/v1/recurrence/sessions/{userID}/submit
func (s *Server) handleEditorSubmit(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("editor_submit")

	userID, err := s.editorUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req EditorSubmitRequest
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

	editor := s.editors.Get(userID)
	if editor == nil {
		writeError(w, http.StatusNotFound, "no editor session")
		return
	}

	format := timeutil.Clock24h
	if req.ClockFormat == "12h" {
		format = timeutil.Clock12h
	}
	state := editor.State()

	rule, err := editor.Submit()
	if err != nil {
		if errors.Is(err, recurrence.ErrNotEditing) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("editor submit")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	metrics.IncRecurrenceNormalized(string(rule.Frequency))

	writeJSON(w, http.StatusOK, EditorSubmitResponse{
		Rule:    rule,
		Summary: state.Describe(start, end, format),
	})
}

// handleEditorCancel discards the session.
// DELETE /api/v1/recurrence/sessions/{userID}
func (s *Server) handleEditorCancel(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("editor_cancel")

	userID, err := s.editorUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	editor := s.editors.Get(userID)
	if editor == nil {
		writeError(w, http.StatusNotFound, "no editor session")
		return
	}
	editor.Cancel()
	w.WriteHeader(http.StatusNoContent)
}
