package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shipshape-app/shipshape/internal/backup"
	"github.com/shipshape-app/shipshape/internal/cache"
	"github.com/shipshape-app/shipshape/internal/connectivity"
	"github.com/shipshape-app/shipshape/internal/gateway"
	"github.com/shipshape-app/shipshape/internal/outbox"
	"github.com/shipshape-app/shipshape/internal/repo"
	"github.com/shipshape-app/shipshape/internal/scheduler"
	"github.com/shipshape-app/shipshape/internal/session"
)

type downSignal struct{}

func (downSignal) Up() bool                          { return false }
func (downSignal) Subscribe(fn func(up bool)) func() { return func() {} }

// setupServer wires the full daemon stack over an in-memory cache with
// connectivity pinned offline.
func setupServer(t *testing.T) http.Handler {
	t.Helper()

	db, err := cache.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.NewClient("http://127.0.0.1:1", logger)
	gw := gateway.New("http://127.0.0.1:1", sess, logger)
	signal := downSignal{}
	monitor := connectivity.NewMonitor(signal, gw, time.Hour, logger)
	engine := outbox.NewEngine(cache.NewOutboxStore(db), gw, signal, logger)
	sched := scheduler.New(gw, logger)
	snaps := backup.NewSnapshotter(t.TempDir(), "unused.db", "")

	households := repo.NewHouseholdRepo(gw, cache.NewHouseholdStore(db), monitor, engine, sess, logger)
	srv := New(monitor, engine, sess, Repos{
		Households: households,
		Members:    repo.NewMemberRepo(gw, cache.NewMemberStore(db), monitor, sess, logger),
		Chores:     repo.NewChoreRepo(gw, cache.NewChoreStore(db), monitor, engine, logger),
		Tasks:      repo.NewTaskRepo(gw, cache.NewTaskStore(db), monitor, engine, sched, snaps, sess, logger),
		Areas:      repo.NewAreaRepo(gw, cache.NewAreaStore(db), monitor, logger),
	}, logger)
	return srv.Router()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := setupServer(t)
	rec := doRequest(t, h, "GET", "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	h := setupServer(t)
	rec := doRequest(t, h, "GET", "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Connectivity string `json:"connectivity"`
		Syncing      bool   `json:"syncing"`
		Queue        struct {
			Pending int `json:"pending"`
		} `json:"queue"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Connectivity != "offline" {
		t.Errorf("connectivity = %q, want offline", resp.Connectivity)
	}
	if resp.Syncing {
		t.Error("syncing = true with nothing running")
	}
}

func TestHouseholdLifecycleOffline(t *testing.T) {
	h := setupServer(t)

	// No household yet.
	rec := doRequest(t, h, "GET", "/api/household", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, h, "POST", "/api/households", `{"name":"The Burrow"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var created struct {
		Queued    bool `json:"queued"`
		Household struct {
			ID       string `json:"id"`
			JoinCode string `json:"join_code"`
		} `json:"household"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !created.Queued {
		t.Error("expected queued creation while offline")
	}
	if len(created.Household.JoinCode) != 6 {
		t.Errorf("join code = %q", created.Household.JoinCode)
	}

	rec = doRequest(t, h, "GET", "/api/household", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("current status = %d", rec.Code)
	}

	// The queued creation shows up in the sync queue.
	rec = doRequest(t, h, "GET", "/api/status", "")
	var status struct {
		Queue struct {
			Pending int `json:"pending"`
		} `json:"queue"`
	}
	json.Unmarshal(rec.Body.Bytes(), &status)
	if status.Queue.Pending != 1 {
		t.Errorf("pending = %d, want 1", status.Queue.Pending)
	}
}

func TestTaskFlowOffline(t *testing.T) {
	h := setupServer(t)

	rec := doRequest(t, h, "POST", "/api/households", `{"name":"The Burrow"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create household: %d", rec.Code)
	}

	rec = doRequest(t, h, "POST", "/api/tasks", `{"title":"Dishes","due_date":"2026-03-10"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task status = %d: %s", rec.Code, rec.Body)
	}
	var task struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &task)

	rec = doRequest(t, h, "POST", "/api/tasks/"+task.ID+"/complete", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("complete status = %d: %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, h, "GET", "/api/tasks?from=2026-03-10&to=2026-03-10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var tasks []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	json.Unmarshal(rec.Body.Bytes(), &tasks)
	if len(tasks) != 1 || tasks[0].Status != "done" {
		t.Errorf("tasks = %+v, want one done task", tasks)
	}
}

func TestOnlineOnlyActionsRejectedOffline(t *testing.T) {
	h := setupServer(t)

	rec := doRequest(t, h, "POST", "/api/households", `{"name":"The Burrow"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create household: %d", rec.Code)
	}

	rec = doRequest(t, h, "POST", "/api/tasks/purge-completed", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("purge status = %d, want 503", rec.Code)
	}

	rec = doRequest(t, h, "DELETE", "/api/tasks/t1", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("delete status = %d, want 503", rec.Code)
	}
}

func TestValidationErrors(t *testing.T) {
	h := setupServer(t)

	rec := doRequest(t, h, "POST", "/api/households", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty name status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, h, "POST", "/api/households", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json status = %d, want 400", rec.Code)
	}
}

func TestPurgeDoneEndpoint(t *testing.T) {
	h := setupServer(t)

	rec := doRequest(t, h, "POST", "/api/sync/purge-done", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["purged"] != 0 {
		t.Errorf("purged = %d on an empty outbox", resp["purged"])
	}

	rec = doRequest(t, h, "POST", "/api/sync/purge-done?older_than=banana", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad duration status = %d, want 400", rec.Code)
	}
}
