// Package apiclient is a typed HTTP client for the bookery API, used by the
// dashboard gateway. GET endpoints can be served through an optional Redis
// read-through cache; mutations invalidate the affected keys. Every request
// is bound to the caller's context, so an abandoned view cancels its own
// in-flight requests.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"bookery/internal/api"
	"bookery/internal/hours"
)

// Client calls the bookery REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// New constructs a client for the given base URL.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// GetBusinessStatus fetches the merchant's live status. Status is derived
// from wall-clock time, so it is never cached.
func (c *Client) GetBusinessStatus(ctx context.Context, merchantID int64) (*hours.Status, error) {
	endpoint := fmt.Sprintf("%s/api/v1/merchants/%d/status", c.baseURL, merchantID)
	var status hours.Status
	if err := c.doGet(ctx, endpoint, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetHours fetches the merchant's weekly schedule, cached when Redis is
// configured.
func (c *Client) GetHours(ctx context.Context, merchantID int64) (*api.ReplaceHoursRequest, error) {
	endpoint := fmt.Sprintf("%s/api/v1/merchants/%d/hours", c.baseURL, merchantID)
	cacheKey := hoursCacheKey(merchantID)

	var resp api.ReplaceHoursRequest
	if c.readCache(ctx, cacheKey, &resp) {
		return &resp, nil
	}
	if err := c.doGet(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, resp)
	return &resp, nil
}

// ReplaceHours replaces the weekly schedule and drops the cached copy.
func (c *Client) ReplaceHours(ctx context.Context, merchantID int64, req *api.ReplaceHoursRequest) error {
	endpoint := fmt.Sprintf("%s/api/v1/merchants/%d/hours", c.baseURL, merchantID)
	if err := c.doJSON(ctx, http.MethodPut, endpoint, req, nil); err != nil {
		return err
	}
	c.invalidate(ctx, hoursCacheKey(merchantID))
	return nil
}

// CreateBooking submits a booking create request, recurring or not.
func (c *Client) CreateBooking(ctx context.Context, merchantID int64, req *api.CreateBookingRequest) (*api.CreateBookingResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/merchants/%d/bookings", c.baseURL, merchantID)
	var resp api.CreateBookingResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelBooking cancels a booking by its public ID.
func (c *Client) CancelBooking(ctx context.Context, publicID string) error {
	endpoint := fmt.Sprintf("%s/api/v1/bookings/%s", c.baseURL, url.PathEscape(publicID))
	return c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil)
}

// PreviewRecurrence asks the server to normalize and describe an editor
// payload.
func (c *Client) PreviewRecurrence(ctx context.Context, req *api.RecurrencePreviewRequest) (*api.RecurrencePreviewResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/recurrence/preview", c.baseURL)
	var resp api.RecurrencePreviewResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func hoursCacheKey(merchantID int64) string {
	return fmt.Sprintf("hours:%d", merchantID)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) invalidate(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, key).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(req, out)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out any) error {
	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.addHeaders(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("http %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
}
