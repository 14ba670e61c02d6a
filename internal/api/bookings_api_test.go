package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookery/internal/models"
	"bookery/internal/recurrence"
)

func (e *testEnv) bookingsURL() string {
	return fmt.Sprintf("%s/api/v1/merchants/%d/bookings", e.URL, e.merchant.ID)
}

func TestCreateSingleBooking(t *testing.T) {
	env := setupTestServer(t)

	req := CreateBookingRequest{
		ServiceID:  env.service.ID,
		CustomerID: env.customer.ID,
		StartTime:  "2026-03-09T10:00:00Z",
		Note:       "first visit",
	}
	resp, body := doJSON(t, http.MethodPost, env.bookingsURL(), req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created CreateBookingResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.PublicID)
	assert.Empty(t, created.SeriesID)
	assert.Equal(t, 1, created.Occurrences)

	booking, err := env.db.GetBookingByPublicID(context.Background(), created.PublicID)
	require.NoError(t, err)
	// End time comes from the service duration.
	require.NotNil(t, booking.EndTime)
	assert.Equal(t, 45*time.Minute, booking.EndTime.Sub(booking.StartTime))
}

func TestCreateRecurringBookingExpandsSeries(t *testing.T) {
	env := setupTestServer(t)

	req := CreateBookingRequest{
		ServiceID:   env.service.ID,
		CustomerID:  env.customer.ID,
		StartTime:   "2026-03-09T10:00:00Z", // Monday
		IsRecurring: true,
		RecurrenceRule: &RecurrencePayload{
			Frequency: "weekly",
			Until:     "2026-03-31",
		},
	}
	resp, body := doJSON(t, http.MethodPost, env.bookingsURL(), req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created CreateBookingResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.SeriesID)
	assert.Equal(t, 4, created.Occurrences) // Mar 9, 16, 23, 30

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	bookings, err := env.db.ListBookings(context.Background(), env.merchant.ID, from, to)
	require.NoError(t, err)
	require.Len(t, bookings, 4)
	for _, b := range bookings {
		assert.Equal(t, created.SeriesID, b.SeriesID)
		assert.Equal(t, time.Monday, b.StartTime.Weekday())
	}
}

func TestCreateRecurringBookingSkipsBlockedOccurrences(t *testing.T) {
	env := setupTestServer(t)

	blockStart := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC) // the second Monday
	require.NoError(t, env.db.CreateBlockedTime(context.Background(), &models.BlockedTime{
		MerchantID: env.merchant.ID,
		StartTime:  blockStart,
		EndTime:    blockStart.Add(3 * time.Hour),
		Reason:     "renovation",
	}))

	req := CreateBookingRequest{
		ServiceID:   env.service.ID,
		CustomerID:  env.customer.ID,
		StartTime:   "2026-03-09T10:00:00Z", // Monday
		IsRecurring: true,
		RecurrenceRule: &RecurrencePayload{
			Frequency: "weekly",
			Until:     "2026-03-31",
		},
	}
	resp, body := doJSON(t, http.MethodPost, env.bookingsURL(), req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created CreateBookingResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, 3, created.Occurrences) // Mar 9, 23, 30 — the 16th is blocked
	require.Len(t, created.Warnings, 1)
	assert.Contains(t, created.Warnings[0], "blocked interval")

	from := time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 17, 0, 0, 0, 0, time.UTC)
	bookings, err := env.db.ListBookings(context.Background(), env.merchant.ID, from, to)
	require.NoError(t, err)
	assert.Empty(t, bookings, "no booking may land inside the blocked day")
}

func TestCreateRecurringBookingAllOccurrencesBlocked(t *testing.T) {
	env := setupTestServer(t)

	require.NoError(t, env.db.CreateBlockedTime(context.Background(), &models.BlockedTime{
		MerchantID: env.merchant.ID,
		StartTime:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}))

	req := CreateBookingRequest{
		ServiceID:   env.service.ID,
		CustomerID:  env.customer.ID,
		StartTime:   "2026-03-09T10:00:00Z",
		IsRecurring: true,
		RecurrenceRule: &RecurrencePayload{
			Frequency: "weekly",
			Until:     "2026-03-31",
		},
	}
	resp, _ := doJSON(t, http.MethodPost, env.bookingsURL(), req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateRecurringCustomCollapses(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name          string
		unit          string
		wantFrequency string
	}{
		{name: "weeks collapses to weekly", unit: "weeks", wantFrequency: "weekly"},
		{name: "days collapses to daily", unit: "days", wantFrequency: "daily"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := CreateBookingRequest{
				ServiceID:   env.service.ID,
				CustomerID:  env.customer.ID,
				StartTime:   "2026-03-09T10:00:00Z",
				IsRecurring: true,
				RecurrenceRule: &RecurrencePayload{
					Frequency:    "custom",
					Interval:     2,
					IntervalUnit: tt.unit,
					Until:        "2026-04-30",
				},
			}
			resp, body := doJSON(t, http.MethodPost, env.bookingsURL(), req)
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			var created CreateBookingResponse
			require.NoError(t, json.Unmarshal(body, &created))

			ruleJSON, err := json.Marshal(created.Rule)
			require.NoError(t, err)
			var rule recurrence.Rule
			require.NoError(t, json.Unmarshal(ruleJSON, &rule))
			assert.Equal(t, recurrence.Frequency(tt.wantFrequency), rule.Frequency)
			assert.Equal(t, 2, rule.Interval)
		})
	}
}

func TestCreateBookingValidation(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name       string
		req        CreateBookingRequest
		wantStatus int
	}{
		{
			name: "missing customer",
			req: CreateBookingRequest{
				ServiceID: env.service.ID,
				StartTime: "2026-03-09T10:00:00Z",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "bad start time",
			req: CreateBookingRequest{
				ServiceID:  env.service.ID,
				CustomerID: env.customer.ID,
				StartTime:  "tomorrow",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown service",
			req: CreateBookingRequest{
				ServiceID:  999,
				CustomerID: env.customer.ID,
				StartTime:  "2026-03-09T10:00:00Z",
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "recurring with bad frequency",
			req: CreateBookingRequest{
				ServiceID:   env.service.ID,
				CustomerID:  env.customer.ID,
				StartTime:   "2026-03-09T10:00:00Z",
				IsRecurring: true,
				RecurrenceRule: &RecurrencePayload{
					Frequency: "yearly",
					Until:     "2026-04-30",
				},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "recurring with until before start",
			req: CreateBookingRequest{
				ServiceID:   env.service.ID,
				CustomerID:  env.customer.ID,
				StartTime:   "2026-03-09T10:00:00Z",
				IsRecurring: true,
				RecurrenceRule: &RecurrencePayload{
					Frequency: "daily",
					Until:     "2026-01-01",
				},
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPost, env.bookingsURL(), tt.req)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestListAndCancelBooking(t *testing.T) {
	env := setupTestServer(t)

	req := CreateBookingRequest{
		ServiceID:  env.service.ID,
		CustomerID: env.customer.ID,
		StartTime:  "2026-03-09T10:00:00Z",
	}
	resp, body := doJSON(t, http.MethodPost, env.bookingsURL(), req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created CreateBookingResponse
	require.NoError(t, json.Unmarshal(body, &created))

	listURL := env.bookingsURL() + "?from=2026-03-01&to=2026-03-31"
	resp, body = doJSON(t, http.MethodGet, listURL, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed struct {
		Bookings []json.RawMessage `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(body, &listed))
	assert.Len(t, listed.Bookings, 1)

	cancelURL := fmt.Sprintf("%s/api/v1/bookings/%s", env.URL, created.PublicID)
	resp, _ = doJSON(t, http.MethodDelete, cancelURL, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Second cancel conflicts.
	resp, _ = doJSON(t, http.MethodDelete, cancelURL, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, env.URL+"/api/v1/bookings/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListBookingsRangeValidation(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{name: "missing params", query: ""},
		{name: "bad date", query: "?from=01-03-2026&to=2026-03-31"},
		{name: "inverted range", query: "?from=2026-03-31&to=2026-03-01"},
		{name: "range too wide", query: "?from=2026-01-01&to=2026-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodGet, env.bookingsURL()+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRecurrencePreview(t *testing.T) {
	env := setupTestServer(t)
	url := env.URL + "/api/v1/recurrence/preview"

	req := RecurrencePreviewRequest{
		StartTime:   "2026-03-09T09:00:00Z", // Monday
		EndTime:     "2026-03-09T10:30:00Z",
		ClockFormat: "24h",
		Rule: RecurrencePayload{
			Frequency: "weekly",
			Until:     "2026-06-01",
		},
	}
	resp, body := doJSON(t, http.MethodPost, url, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var preview RecurrencePreviewResponse
	require.NoError(t, json.Unmarshal(body, &preview))
	assert.Equal(t, recurrence.FrequencyWeekly, preview.Rule.Frequency)
	assert.Equal(t, 1, preview.Rule.Interval)
	assert.Equal(t, "Recurs every Monday at 09:00-10:30 from 2026-03-09 to 2026-06-01", preview.Summary)
	require.NotEmpty(t, preview.Occurrences)
	assert.Equal(t, "2026-03-09T09:00:00Z", preview.Occurrences[0])
}

func TestExportBookings(t *testing.T) {
	env := setupTestServer(t)

	req := CreateBookingRequest{
		ServiceID:  env.service.ID,
		CustomerID: env.customer.ID,
		StartTime:  "2026-03-09T10:00:00Z",
	}
	resp, _ := doJSON(t, http.MethodPost, env.bookingsURL(), req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	exportURL := env.bookingsURL() + "/export?from=2026-03-01&to=2026-03-31"
	resp, body := doJSON(t, http.MethodGet, exportURL, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, body)
}

func TestCreateBookingRejectedInBlockedInterval(t *testing.T) {
	env := setupTestServer(t)

	blockStart := time.Date(2026, 3, 9, 9, 30, 0, 0, time.UTC)
	require.NoError(t, env.db.CreateBlockedTime(context.Background(), &models.BlockedTime{
		MerchantID: env.merchant.ID,
		StartTime:  blockStart,
		EndTime:    blockStart.Add(time.Hour),
		Reason:     "maintenance",
	}))

	req := CreateBookingRequest{
		ServiceID:  env.service.ID,
		CustomerID: env.customer.ID,
		StartTime:  "2026-03-09T10:00:00Z", // overlaps the block by 30 minutes
	}
	resp, _ := doJSON(t, http.MethodPost, env.bookingsURL(), req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Just after the block ends is fine.
	req.StartTime = "2026-03-09T10:30:00Z"
	resp, _ = doJSON(t, http.MethodPost, env.bookingsURL(), req)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
