// Package gateway is the typed CRUD facade over the hosted chore backend.
// It translates between backend rows (snake_case JSON) and domain objects,
// and is the only place that talks HTTP to the service.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// TokenSource supplies a bearer token for backend calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("backend: status %d", e.Status)
}

// ErrConflict marks a uniqueness violation (join code collision, duplicate
// member claim). Callers decide whether to retry or re-fetch.
var ErrConflict = errors.New("conflict")

// ErrNotFound marks a missing row.
var ErrNotFound = errors.New("not found")

type idemKey struct{}

// WithIdempotencyKey attaches an idempotency key to ctx. Mutating calls
// forward it as an Idempotency-Key header so the backend can deduplicate
// outbox replays.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idemKey{}, key)
}

func idempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idemKey{}).(string)
	return key
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

func New(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		tokens: tokens,
		logger: logger,
	}
}

// Ping is the connectivity monitor's probe: a cheap authenticated
// round-trip to the backend.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "GET", "/api/v1/health", nil, nil)
}

// do performs an authenticated JSON round-trip. A nil out discards the
// response body. Error mapping: 404 → ErrNotFound, 409 → ErrConflict,
// other non-2xx → *APIError with the backend's message.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key := idempotencyKey(ctx); key != "" && method != "GET" {
		req.Header.Set("Idempotency-Key", key)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%s %s: %w", method, path, ErrConflict)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

const dateFormat = "2006-01-02"

func formatDate(t time.Time) string {
	return t.UTC().Format(dateFormat)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func datePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

func parseDatePtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil
	}
	return &t
}
