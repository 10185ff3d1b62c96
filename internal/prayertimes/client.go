// Package prayertimes implements salat.PrayerTimeProvider against the
// AlAdhan calendar API.
package prayertimes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"salat-go/internal/config"
	"salat-go/internal/salat"
)

// DefaultBaseURL is the public AlAdhan v1 endpoint.
const DefaultBaseURL = "https://api.aladhan.com/v1"

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("prayer time API returned %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("prayer time API returned %s", e.Status)
}

// Temporary reports whether the request may succeed if retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client fetches monthly calendars from AlAdhan.
type Client struct {
	httpClient *http.Client
	baseURL    string
	method     int
	school     int
	tune       string
	retries    int
	backoff    time.Duration
	logger     salat.Logger
}

var _ salat.PrayerTimeProvider = (*Client)(nil)

// NewClient creates a client from provider configuration.
func NewClient(cfg config.ProviderConfig, logger salat.Logger) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		method:     cfg.Method,
		school:     cfg.School,
		tune:       cfg.Tune,
		retries:    cfg.Retries,
		backoff:    500 * time.Millisecond,
		logger:     logger,
	}
}

// calendarURL builds GET {base}/calendar/{year}/{month}?latitude&longitude&method&school[&tune].
func (c *Client) calendarURL(req salat.MonthRequest) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(req.Location.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(req.Location.Longitude, 'f', -1, 64))
	q.Set("method", strconv.Itoa(c.method))
	q.Set("school", strconv.Itoa(c.school))
	if c.tune != "" {
		q.Set("tune", c.tune)
	}
	return fmt.Sprintf("%s/calendar/%d/%d?%s", c.baseURL, req.Year, int(req.Month), q.Encode())
}

// FetchMonth returns the calendar for req with clock times cleaned to HH:MM.
// Network errors and 5xx responses are retried with exponential backoff.
func (c *Client) FetchMonth(ctx context.Context, req salat.MonthRequest) ([]salat.PrayerDay, error) {
	endpoint := c.calendarURL(req)

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			c.logger.Debug("retrying prayer time request", "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		days, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return days, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var decodeErr *decodeError
	return !errors.As(err, &decodeErr)
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decoding calendar: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func (c *Client) fetchOnce(ctx context.Context, endpoint string) ([]salat.PrayerDay, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &decodeError{err}
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("requesting calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(body))}
	}

	var env calendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &decodeError{err}
	}
	if env.Code != 0 && env.Code != http.StatusOK {
		return nil, &APIError{StatusCode: env.Code, Status: env.Status}
	}

	days := make([]salat.PrayerDay, 0, len(env.Data))
	for _, d := range env.Data {
		days = append(days, d.prayerDay())
	}
	return days, nil
}
