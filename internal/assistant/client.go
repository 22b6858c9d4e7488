// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// Configuration constants for the chat endpoint.
const (
	// DefaultConnectTimeout bounds dialing and the response header; the body
	// read runs without a client timeout and is controlled via context.
	DefaultConnectTimeout = 30 * time.Second

	// csrfCookieName is the cookie whose value is echoed in the CSRF header.
	csrfCookieName = "csrf_token"

	// csrfHeaderName is the header carrying the CSRF token.
	csrfHeaderName = "X-CSRF-Token"
)

// Error variables for common chat transport errors.
var (
	// ErrEmptyBody indicates the server returned a response with no body.
	ErrEmptyBody = errors.New("empty response body")

	// ErrCanceled indicates the request was superseded or torn down.
	ErrCanceled = errors.New("request canceled")
)

// APIError represents an HTTP-level failure from the chat endpoint. Detail
// is the server-provided message when the error body was parseable.
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("chat request failed (HTTP %d)", e.Status)
}

// apiErrorBody is the JSON error body shape used by the backend.
type apiErrorBody struct {
	Detail string `json:"detail"`
}

// sendRequest is the outgoing JSON body of one chat send.
type sendRequest struct {
	Message  string  `json:"message"`
	ThreadID *string `json:"thread_id"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is the HTTP transport for the chat stream. It shares a cookie jar
// with the rest of the application so session cookies and the CSRF token
// ride along on every request.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a chat client for the given endpoint URL.
// A cookie jar is attached so credentials are included automatically.
func NewClient(endpoint string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Jar: jar,
			// No overall timeout: streaming reads are context-controlled.
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client, for tests and for
// sharing a jar with the trips client.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// Jar exposes the cookie jar so collaborators can share credentials.
func (c *Client) Jar() http.CookieJar {
	return c.httpClient.Jar
}

// Stream posts a message and returns the raw response body for frame
// decoding. Any non-2xx status is converted to an *APIError carrying the
// server detail when available.
func (c *Client) Stream(ctx context.Context, message, threadID string) (io.ReadCloser, error) {
	body := sendRequest{Message: message}
	if threadID != "" {
		body.ThreadID = &threadID
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if token := c.csrfToken(); token != "" {
		req.Header.Set(csrfHeaderName, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, parseErrorBody(resp)
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrEmptyBody
	}

	return resp.Body, nil
}

// csrfToken returns the value of the CSRF cookie for the endpoint, or empty.
func (c *Client) csrfToken() string {
	if c.httpClient.Jar == nil {
		return ""
	}
	u, err := url.Parse(c.endpoint)
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

// parseErrorBody extracts the detail message from a JSON error body, falling
// back to a generic message keyed by status.
func parseErrorBody(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body apiErrorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		apiErr.Detail = body.Detail
	}
	return apiErr
}
