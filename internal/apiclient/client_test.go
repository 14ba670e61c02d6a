package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookery/internal/api"
	"bookery/internal/hours"
)

func newCachedClient(t *testing.T, handler http.Handler) (*Client, *miniredis.Miniredis) {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	client := New(ts.URL, "test-key")
	client.UseRedisCache(rdb, time.Minute)
	return client, mr
}

func TestGetHoursUsesCache(t *testing.T) {
	var hits int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		_ = json.NewEncoder(w).Encode(api.ReplaceHoursRequest{Days: []api.HoursDay{
			{DayOfWeek: 1, StartTime: "09:00:00", EndTime: "17:00:00"},
		}})
	})

	client, _ := newCachedClient(t, handler)
	ctx := context.Background()

	first, err := client.GetHours(ctx, 7)
	require.NoError(t, err)
	require.Len(t, first.Days, 1)

	second, err := client.GetHours(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, int64(1), atomic.LoadInt64(&hits), "second read must come from cache")
}

func TestReplaceHoursInvalidatesCache(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			_ = json.NewEncoder(w).Encode(map[string]int{"updated": 1})
			return
		}
		_ = json.NewEncoder(w).Encode(api.ReplaceHoursRequest{})
	})

	client, mr := newCachedClient(t, handler)
	ctx := context.Background()

	_, err := client.GetHours(ctx, 7)
	require.NoError(t, err)
	require.True(t, mr.Exists("hours:7"))

	require.NoError(t, client.ReplaceHours(ctx, 7, &api.ReplaceHoursRequest{}))
	assert.False(t, mr.Exists("hours:7"))
}

func TestGetBusinessStatusNeverCached(t *testing.T) {
	var hits int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		_ = json.NewEncoder(w).Encode(hours.Status{IsOpen: true, ClosesAt: "17:00"})
	})

	client, _ := newCachedClient(t, handler)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		status, err := client.GetBusinessStatus(ctx, 7)
		require.NoError(t, err)
		assert.True(t, status.IsOpen)
	}
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

func TestCreateBookingPostsPayload(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var req api.CreateBookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.IsRecurring)
		require.NotNil(t, req.RecurrenceRule)
		assert.Equal(t, "weekly", req.RecurrenceRule.Frequency)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.CreateBookingResponse{
			PublicID:    "b-1",
			SeriesID:    "s-1",
			Occurrences: 4,
		})
	})

	client, _ := newCachedClient(t, handler)

	resp, err := client.CreateBooking(context.Background(), 7, &api.CreateBookingRequest{
		ServiceID:   1,
		CustomerID:  2,
		StartTime:   "2026-03-09T10:00:00Z",
		IsRecurring: true,
		RecurrenceRule: &api.RecurrencePayload{
			Frequency: "weekly",
			Until:     "2026-03-31",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "s-1", resp.SeriesID)
	assert.Equal(t, 4, resp.Occurrences)
}

func TestErrorResponsesSurfaceMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "booking not found"})
	})

	client, _ := newCachedClient(t, handler)

	err := client.CancelBooking(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "booking not found")
}

func TestRequestsHonorContextCancellation(t *testing.T) {
	blocked := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	})
	t.Cleanup(func() { close(blocked) })

	client, _ := newCachedClient(t, handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.GetBusinessStatus(ctx, 7)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not abort after cancellation")
	}
}
