package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shipshape-app/shipshape/internal/connectivity"
	"github.com/shipshape-app/shipshape/internal/outbox"
	"github.com/shipshape-app/shipshape/internal/session"
)

type StatusHandler struct {
	monitor *connectivity.Monitor
	engine  *outbox.Engine
	session *session.Client
	logger  *slog.Logger
}

func NewStatusHandler(monitor *connectivity.Monitor, engine *outbox.Engine, sess *session.Client, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{monitor: monitor, engine: engine, session: sess, logger: logger}
}

type statusResponse struct {
	Connectivity string            `json:"connectivity"`
	Syncing      bool              `json:"syncing"`
	Queue        outbox.QueueState `json:"queue"`
	UserID       string            `json:"user_id,omitempty"`
	Email        string            `json:"email,omitempty"`
}

// Status reports connectivity, outbox queue depth, and the signed-in user.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	queue, err := h.engine.QueueState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read queue state")
		return
	}

	resp := statusResponse{
		Connectivity: string(h.monitor.Status()),
		Syncing:      h.engine.IsSyncing(),
		Queue:        queue,
	}
	if s := h.session.Session(); s != nil {
		resp.UserID = s.UserID
		resp.Email = s.Email
	}
	writeJSON(w, http.StatusOK, resp)
}

// Sync runs a sync pass and returns the resulting queue state. A pass
// already in flight is not an error; the response reflects whatever state
// the queue is in afterwards.
func (h *StatusHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.SyncNow(r.Context()); err != nil {
		h.logger.Warn("manual sync failed", "error", err)
	}
	queue, err := h.engine.QueueState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read queue state")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queue": queue})
}

// Probe forces a connectivity check and returns the new status.
func (h *StatusHandler) Probe(w http.ResponseWriter, r *http.Request) {
	h.monitor.Probe(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"connectivity": string(h.monitor.Status())})
}

// PurgeDone compacts synced outbox entries older than the optional
// older_than duration (default 30 days).
func (h *StatusHandler) PurgeDone(w http.ResponseWriter, r *http.Request) {
	olderThan := 30 * 24 * time.Hour
	if s := r.URL.Query().Get("older_than"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "older_than must be a duration like 720h")
			return
		}
		olderThan = d
	}
	n, err := h.engine.PurgeDone(olderThan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compact outbox")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"purged": n})
}
