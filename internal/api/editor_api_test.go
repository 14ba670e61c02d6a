package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) sessionURL(userID int64) string {
	return fmt.Sprintf("%s/api/v1/recurrence/sessions/%d", e.URL, userID)
}

func TestEditorSessionLifecycle(t *testing.T) {
	env := setupTestServer(t)
	url := env.sessionURL(42)

	// Enable starts a fresh editing session with daily defaults.
	resp, body := doJSON(t, http.MethodPost, url, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var state EditorStateResponse
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, "editing", state.Phase)
	assert.True(t, state.Recurring)
	assert.Equal(t, "daily", state.Frequency)
	assert.Equal(t, 1, state.Interval)

	// Switch to custom, pick a weekly cadence and two weekdays.
	resp, body = doJSON(t, http.MethodPatch, url, EditorUpdateRequest{Frequency: "custom"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = doJSON(t, http.MethodPatch, url, EditorUpdateRequest{
		Interval:     2,
		IntervalUnit: "weeks",
		Until:        "2026-06-01",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, day := range []string{"Tuesday", "Thursday"} {
		resp, body = doJSON(t, http.MethodPatch, url, EditorUpdateRequest{ToggleWeekday: day})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, "custom", state.Frequency)
	assert.Equal(t, 2, state.Interval)
	assert.Equal(t, "weeks", state.IntervalUnit)
	assert.Equal(t, []string{"Thursday", "Tuesday"}, state.Weekdays)

	// Submit collapses custom-with-weeks onto weekly and ends the session.
	resp, body = doJSON(t, http.MethodPost, url+"/submit", EditorSubmitRequest{
		StartTime: "2026-03-10T09:00:00Z", // Tuesday
		EndTime:   "2026-03-10T10:30:00Z",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var submitted EditorSubmitResponse
	require.NoError(t, json.Unmarshal(body, &submitted))
	assert.Equal(t, "weekly", string(submitted.Rule.Frequency))
	assert.Equal(t, 2, submitted.Rule.Interval)
	assert.Equal(t, []string{"Tuesday", "Thursday"}, submitted.Rule.Weekdays)
	assert.Contains(t, submitted.Summary, "every 2 weeks")

	// The session is terminal now.
	resp, _ = doJSON(t, http.MethodPatch, url, EditorUpdateRequest{Frequency: "daily"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestEditorSessionCancel(t *testing.T) {
	env := setupTestServer(t)
	url := env.sessionURL(7)

	resp, _ := doJSON(t, http.MethodPost, url, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, url, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Mutations after cancel are rejected.
	resp, _ = doJSON(t, http.MethodPatch, url, EditorUpdateRequest{Frequency: "weekly"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Re-enabling replaces the cancelled session.
	resp, body := doJSON(t, http.MethodPost, url, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var state EditorStateResponse
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, "editing", state.Phase)
}

func TestEditorSessionNotFound(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, env.sessionURL(999), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPatch, env.sessionURL(999), EditorUpdateRequest{Frequency: "daily"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
