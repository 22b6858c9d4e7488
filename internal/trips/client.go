// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package trips

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/voyantic/farewatch-tui/internal/model"
)

// =============================================================================
// CONSTANTS AND ERRORS
// =============================================================================

const (
	// DefaultTimeout bounds each trips request end to end.
	DefaultTimeout = 15 * time.Second

	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

// ErrRateLimited indicates the server throttled the request without saying
// how long to wait.
var ErrRateLimited = errors.New("rate limited by server")

// ErrNotFound indicates the requested trip does not exist.
var ErrNotFound = errors.New("trip not found")

// RateLimitError is a throttled response carrying the server's Retry-After.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %v", e.RetryAfter)
	}
	return "rate limited"
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// APIError is a non-2xx response with the server detail when available.
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("trips request failed (HTTP %d)", e.Status)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the trip-management endpoints under <base>/v1/trips.
// Requests pass through a client-side limiter so a busy dashboard cannot
// hammer the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport, typically to share the chat
// client's cookie jar so the CSRF token rides along.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithLimiter replaces the request limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a trips client for the given base URL. The default
// limiter allows two requests per second with a small burst.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 3),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRequest is the payload for adding a tracked trip.
type CreateRequest struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type listResponse struct {
	Trips []model.Trip `json:"trips"`
}

// List returns all tracked trips.
func (c *Client) List(ctx context.Context) ([]model.Trip, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, "/v1/trips", nil, &out); err != nil {
		return nil, err
	}
	return out.Trips, nil
}

// Get returns one trip by id.
func (c *Client) Get(ctx context.Context, id string) (*model.Trip, error) {
	var trip model.Trip
	if err := c.do(ctx, http.MethodGet, "/v1/trips/"+url.PathEscape(id), nil, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// Create registers a new trip for tracking and returns it.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*model.Trip, error) {
	var trip model.Trip
	if err := c.do(ctx, http.MethodPost, "/v1/trips", req, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// Delete stops tracking a trip.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/trips/"+url.PathEscape(id), nil, nil)
}

// RefreshPrices asks the server for an on-demand price check and returns
// the trip with its fresh quotes.
func (c *Client) RefreshPrices(ctx context.Context, id string) (*model.Trip, error) {
	var trip model.Trip
	if err := c.do(ctx, http.MethodPost, "/v1/trips/"+url.PathEscape(id)+"/refresh", nil, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		if token := c.csrfToken(); token != "" {
			req.Header.Set(csrfHeaderName, token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return rateLimitError(resp)
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return parseErrorBody(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// rateLimitError converts a 429 into a typed error, parsing Retry-After as
// either seconds or an HTTP date.
func rateLimitError(resp *http.Response) error {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return ErrRateLimited
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return &RateLimitError{RetryAfter: time.Duration(seconds) * time.Second}
	}
	if t, err := http.ParseTime(retryAfter); err == nil {
		return &RateLimitError{RetryAfter: time.Until(t)}
	}
	return ErrRateLimited
}

func (c *Client) csrfToken() string {
	if c.httpClient.Jar == nil {
		return ""
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	for _, cookie := range c.httpClient.Jar.Cookies(u) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

func parseErrorBody(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		apiErr.Detail = body.Detail
	}
	return apiErr
}
