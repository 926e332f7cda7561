package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func loggedRequest(t *testing.T, path string, status int, body string) string {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))

	req := httptest.NewRequest("GET", path, nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	return buf.String()
}

func TestRequestLoggerLevels(t *testing.T) {
	out := loggedRequest(t, "/api/status", http.StatusOK, "{}")
	if !strings.Contains(out, "level=INFO") {
		t.Errorf("2xx logged as %q, want INFO", out)
	}

	out = loggedRequest(t, "/api/tasks", http.StatusBadRequest, "")
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("4xx logged as %q, want WARN", out)
	}

	out = loggedRequest(t, "/api/sync", http.StatusInternalServerError, "")
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("5xx logged as %q, want ERROR", out)
	}
}

func TestRequestLoggerDemotesScrapes(t *testing.T) {
	for _, path := range []string{"/healthz", "/metrics"} {
		out := loggedRequest(t, path, http.StatusOK, "ok")
		if !strings.Contains(out, "level=DEBUG") {
			t.Errorf("%s logged as %q, want DEBUG", path, out)
		}
	}

	// Failures on scrape paths still surface.
	out := loggedRequest(t, "/healthz", http.StatusServiceUnavailable, "")
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("failing /healthz logged as %q, want ERROR", out)
	}
}

func TestRequestLoggerRecordsSize(t *testing.T) {
	out := loggedRequest(t, "/api/status", http.StatusOK, "hello")
	if !strings.Contains(out, "bytes=5") {
		t.Errorf("log = %q, want bytes=5", out)
	}
}
