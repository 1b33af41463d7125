// Package backend is the single point of contact with the hosted backend
// service that provides authentication (token issuance, refresh, recovery)
// and the auto-generated REST API over the application's Postgres tables.
//
// The application never talks to the backend from anywhere else: every
// repository and the session layer go through Client.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	authPath = "/auth/v1"
	restPath = "/rest/v1"

	defaultTimeout = 10 * time.Second
)

// ErrNotConfigured indicates the backend URL or key is missing. Callers must
// treat this as a degraded state, not a fatal one: the application still
// serves pages, with authentication reported as unavailable.
var ErrNotConfigured = errors.New("backend is not configured (set BACKEND_URL and BACKEND_ANON_KEY)")

// Client interfaces with the hosted backend's auth and data APIs.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewClient creates a backend client. Returns ErrNotConfigured when the URL
// or key is empty so the caller can degrade instead of crashing.
func NewClient(baseURL, anonKey string, timeout time.Duration) (*Client, error) {
	if baseURL == "" || anonKey == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// newRequest builds a request with the standard backend headers. The token
// parameter selects the Authorization identity: the anon key for
// unauthenticated calls, or a user's access token for row-level-authorized
// calls.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, token string, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// do executes the request and decodes a success response into dest (when
// dest is non-nil). Non-2xx responses are returned as *APIError; transport
// failures are wrapped so MapAuthError can classify them as network errors.
func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if dest == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
