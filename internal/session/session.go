// Package session consumes the hosted auth provider. The provider issues
// JWT access tokens; signature verification happens server-side, so the
// client only decodes claims to learn the user id and expiry.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned when an operation needs a signed-in user and
// there is none.
var ErrNoSession = errors.New("no active session")

// Session is the opaque auth state handed to the rest of the client.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Email        string
	ExpiresAt    time.Time
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Client tracks the current session and notifies subscribers on change.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client
	current    *Session
	listeners  map[int]func(*Session)
	nextID     int
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		listeners: make(map[int]func(*Session)),
		logger:    logger,
	}
}

// SetTokens installs a token pair, decoding the access token's claims.
func (c *Client) SetTokens(accessToken, refreshToken string) error {
	if accessToken == "" {
		c.setSession(nil)
		return nil
	}

	var cl claims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &cl); err != nil {
		return fmt.Errorf("parse access token: %w", err)
	}

	s := &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       cl.Subject,
		Email:        cl.Email,
	}
	if cl.ExpiresAt != nil {
		s.ExpiresAt = cl.ExpiresAt.Time
	}

	c.setSession(s)
	return nil
}

// Session returns the current session, or nil when signed out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	s := *c.current
	return &s
}

// UserID returns the signed-in user's id, or empty.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.UserID
}

// Token returns a bearer token for backend calls, refreshing first when
// the access token has expired and a refresh token is available.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.RLock()
	s := c.current
	c.mu.RUnlock()

	if s == nil {
		return "", ErrNoSession
	}

	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) && s.RefreshToken != "" {
		if err := c.Refresh(ctx); err != nil {
			return "", fmt.Errorf("refresh session: %w", err)
		}
		c.mu.RLock()
		s = c.current
		c.mu.RUnlock()
		if s == nil {
			return "", ErrNoSession
		}
	}

	return s.AccessToken, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges the refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.RLock()
	s := c.current
	c.mu.RUnlock()

	if s == nil || s.RefreshToken == "" {
		return ErrNoSession
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: s.RefreshToken})
	if err != nil {
		return fmt.Errorf("marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("refresh: status %d", resp.StatusCode)
	}

	var rr refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}

	return c.SetTokens(rr.AccessToken, rr.RefreshToken)
}

// SignOut revokes the session remotely (best effort) and clears it locally.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.RLock()
	s := c.current
	c.mu.RUnlock()

	if s == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/auth/signout", nil)
	if err != nil {
		return fmt.Errorf("create signout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)

	if resp, err := c.httpClient.Do(req); err != nil {
		c.logger.Warn("remote signout failed", "error", err)
	} else {
		resp.Body.Close()
	}

	c.setSession(nil)
	return nil
}

// OnAuthStateChange registers a callback invoked whenever the session
// changes (including sign-out, with a nil session). Returns an unsubscribe
// function.
func (c *Client) OnAuthStateChange(fn func(*Session)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.current = s
	listeners := make([]func(*Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}
