package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"bookery/internal/config"
	"bookery/internal/database"
	"bookery/internal/events"
	"bookery/internal/export"
	"bookery/internal/hours"
	"bookery/internal/models"
)

type testEnv struct {
	*httptest.Server
	db       *database.DB
	bus      *events.Bus
	merchant *models.Merchant
	service  *models.Service
	customer *models.Customer
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	merchant := &models.Merchant{Name: "Glow Studio", Slug: "glow-studio", Timezone: "UTC", IsActive: true}
	require.NoError(t, db.CreateMerchant(ctx, merchant))

	service := &models.Service{MerchantID: merchant.ID, Name: "Haircut", DurationMinutes: 45, IsActive: true}
	require.NoError(t, db.CreateService(ctx, service))

	customer := &models.Customer{MerchantID: merchant.ID, Name: "Dana"}
	require.NoError(t, db.CreateCustomer(ctx, customer))

	cfg := &config.Config{}
	cfg.Booking.MaxSeriesOccurrences = 52

	logger := zerolog.Nop()
	bus := events.NewBus()
	exports := export.NewService(db, export.NewExcelizeWriter, 0, &logger)

	server := NewServer(db, bus, cfg, exports, &logger)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	return &testEnv{
		Server:   ts,
		db:       db,
		bus:      bus,
		merchant: merchant,
		service:  service,
		customer: customer,
	}
}

func (e *testEnv) setHours(t *testing.T, wh hours.WeeklyHours) {
	t.Helper()
	require.NoError(t, e.db.ReplaceWeeklyHours(context.Background(), e.merchant.ID, wh))
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}
