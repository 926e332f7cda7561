package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, sub, email string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSetTokensDecodesClaims(t *testing.T) {
	c := NewClient("http://localhost", discardLogger())

	exp := time.Now().Add(time.Hour)
	if err := c.SetTokens(signToken(t, "u1", "sam@example.com", exp), "refresh-1"); err != nil {
		t.Fatalf("set tokens: %v", err)
	}

	s := c.Session()
	if s == nil {
		t.Fatal("expected session")
	}
	if s.UserID != "u1" {
		t.Errorf("user id = %q", s.UserID)
	}
	if s.Email != "sam@example.com" {
		t.Errorf("email = %q", s.Email)
	}
	if s.ExpiresAt.Unix() != exp.Unix() {
		t.Errorf("expires = %v, want %v", s.ExpiresAt, exp)
	}
	if c.UserID() != "u1" {
		t.Errorf("UserID() = %q", c.UserID())
	}
}

func TestSetTokensRejectsGarbage(t *testing.T) {
	c := NewClient("http://localhost", discardLogger())
	if err := c.SetTokens("not-a-jwt", ""); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTokenNoSession(t *testing.T) {
	c := NewClient("http://localhost", discardLogger())
	_, err := c.Token(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestTokenReturnsValidAccessToken(t *testing.T) {
	c := NewClient("http://localhost", discardLogger())
	access := signToken(t, "u1", "", time.Now().Add(time.Hour))
	c.SetTokens(access, "")

	got, err := c.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if got != access {
		t.Error("token differs from the installed access token")
	}
}

func TestTokenRefreshesWhenExpired(t *testing.T) {
	fresh := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/refresh" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.RefreshToken != "refresh-1" {
			t.Errorf("refresh token = %q", req.RefreshToken)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  fresh,
			"refresh_token": "refresh-2",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, discardLogger())
	fresh = signToken(t, "u1", "", time.Now().Add(time.Hour))
	expired := signToken(t, "u1", "", time.Now().Add(-time.Minute))
	c.SetTokens(expired, "refresh-1")

	got, err := c.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if got != fresh {
		t.Error("expected the refreshed access token")
	}
	if s := c.Session(); s.RefreshToken != "refresh-2" {
		t.Errorf("refresh token = %q after rotation", s.RefreshToken)
	}
}

func TestOnAuthStateChange(t *testing.T) {
	c := NewClient("http://localhost", discardLogger())

	var events []*Session
	unsub := c.OnAuthStateChange(func(s *Session) {
		events = append(events, s)
	})

	c.SetTokens(signToken(t, "u1", "", time.Now().Add(time.Hour)), "")
	c.SetTokens("", "")

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0] == nil || events[0].UserID != "u1" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1] != nil {
		t.Errorf("sign-out event = %+v, want nil", events[1])
	}

	unsub()
	c.SetTokens(signToken(t, "u2", "", time.Now().Add(time.Hour)), "")
	if len(events) != 2 {
		t.Error("unsubscribed listener still notified")
	}
}
