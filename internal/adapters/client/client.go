// Package client is a typed HTTP client for the room booking API.
package client

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"room_booking/internal/adapters/observability"
	"room_booking/internal/domain"
)

const (
	service     = "roombooking-api"
	maxAttempts = 4
)

type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// APIError is a non-2xx answer decoded from the server's problem document.
type APIError struct {
	Status int                 `json:"status"`
	Title  string              `json:"title"`
	Detail string              `json:"detail"`
	Errors map[string][]string `json:"errors"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api %d %s", e.Status, e.Title)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is lets callers test API errors against the domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrOverlappingDates:
		for _, m := range e.Errors[domain.NonFieldErrors] {
			if m == domain.ErrOverlappingDates.Error() {
				return true
			}
		}
	}
	return false
}

// ---- Public API ----

func (c *Client) CreateRoom(ctx context.Context, description, price string) (domain.RoomView, error) {
	var out domain.RoomView
	body := map[string]string{"description": description, "price": price}
	return out, c.do(ctx, http.MethodPost, "/room", "room.create", body, &out)
}

func (c *Client) ListRooms(ctx context.Context, ordering string) ([]domain.RoomView, error) {
	var out []domain.RoomView
	return out, c.do(ctx, http.MethodGet, "/room"+query("ordering", ordering), "room.list", nil, &out)
}

func (c *Client) DeleteRoom(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/room/"+strconv.FormatInt(id, 10), "room.delete", nil, nil)
}

func (c *Client) CreateBooking(ctx context.Context, roomID int64, begin, end string) (domain.BookingView, error) {
	var out domain.BookingView
	body := map[string]any{"room_id": roomID, "begin_date": begin, "end_date": end}
	return out, c.do(ctx, http.MethodPost, "/booking", "booking.create", body, &out)
}

// ListBookings lists bookings; roomID 0 means all rooms.
func (c *Client) ListBookings(ctx context.Context, roomID int64, ordering string) ([]domain.BookingView, error) {
	q := url.Values{}
	if roomID != 0 {
		q.Set("room", strconv.FormatInt(roomID, 10))
	}
	if ordering != "" {
		q.Set("ordering", ordering)
	}
	path := "/booking"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []domain.BookingView
	return out, c.do(ctx, http.MethodGet, path, "booking.list", nil, &out)
}

func (c *Client) DeleteBooking(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/booking/"+strconv.FormatInt(id, 10), "booking.delete", nil, nil)
}

func query(k, v string) string {
	if v == "" {
		return ""
	}
	return "?" + url.Values{k: {v}}.Encode()
}

// ---- Internals ----

// retryable reports whether a response status is worth another attempt.
// Writes are retried only on 429, which the rate limiter sends before any
// handler runs. A 503 may come from the request timeout while the write still
// commits, so it is final for writes.
func retryable(method string, status int) bool {
	switch status {
	case http.StatusTooManyRequests:
		return true
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return method == http.MethodGet
	}
	return false
}

// do performs one logical call with client-side rate limiting and retries,
// decoding a 2xx body into out when out is non-nil. All attempts share one
// X-Request-Id.
func (c *Client) do(ctx context.Context, method, path, endpoint string, body, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}
	reqID := uuid.NewString()

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "roombooking-client/1.0")
		req.Header.Set("X-Request-Id", reqID)

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, endpoint, 0, time.Since(start))
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if method == http.MethodGet && i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusNoContent:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			defer resp.Body.Close()
			if out == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(out)

		case retryable(method, resp.StatusCode):
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			lastErr = decodeAPIError(resp)
			if wait == 0 {
				wait = backoff(i)
			}
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			return decodeAPIError(resp)
		}
	}

	return lastErr
}

// decodeAPIError reads and closes resp.Body.
func decodeAPIError(resp *http.Response) error {
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{}
	if err := json.Unmarshal(b, apiErr); err != nil || apiErr.Status == 0 {
		apiErr = &APIError{Title: http.StatusText(resp.StatusCode), Detail: strings.TrimSpace(string(b))}
	}
	apiErr.Status = resp.StatusCode
	return apiErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
