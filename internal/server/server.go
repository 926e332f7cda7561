// Package server exposes the daemon's loopback control API: status and
// sync controls plus a thin REST surface over the repositories, so local
// clients (CLI, widgets) never talk to the backend directly.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shipshape-app/shipshape/internal/connectivity"
	"github.com/shipshape-app/shipshape/internal/handler"
	"github.com/shipshape-app/shipshape/internal/middleware"
	"github.com/shipshape-app/shipshape/internal/outbox"
	"github.com/shipshape-app/shipshape/internal/repo"
	"github.com/shipshape-app/shipshape/internal/session"
)

type Server struct {
	statusH    *handler.StatusHandler
	householdH *handler.HouseholdHandler
	choreH     *handler.ChoreHandler
	taskH      *handler.TaskHandler
	areaH      *handler.AreaHandler
	logger     *slog.Logger
}

type Repos struct {
	Households *repo.HouseholdRepo
	Members    *repo.MemberRepo
	Chores     *repo.ChoreRepo
	Tasks      *repo.TaskRepo
	Areas      *repo.AreaRepo
}

func New(monitor *connectivity.Monitor, engine *outbox.Engine, sess *session.Client, repos Repos, logger *slog.Logger) *Server {
	return &Server{
		statusH:    handler.NewStatusHandler(monitor, engine, sess, logger.With("component", "status")),
		householdH: handler.NewHouseholdHandler(repos.Households, repos.Members, logger.With("component", "household")),
		choreH:     handler.NewChoreHandler(repos.Chores, repos.Households, logger.With("component", "chore")),
		taskH:      handler.NewTaskHandler(repos.Tasks, repos.Households, logger.With("component", "task")),
		areaH:      handler.NewAreaHandler(repos.Areas, logger.With("component", "area")),
		logger:     logger,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/status", s.statusH.Status)
	mux.HandleFunc("POST /api/sync", s.statusH.Sync)
	mux.HandleFunc("POST /api/probe", s.statusH.Probe)
	mux.HandleFunc("POST /api/sync/purge-done", s.statusH.PurgeDone)

	mux.HandleFunc("GET /api/household", s.householdH.Current)
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("POST /api/households/join", s.householdH.Join)
	mux.HandleFunc("GET /api/members", s.householdH.Members)
	mux.HandleFunc("GET /api/members/me", s.householdH.CurrentMember)
	mux.HandleFunc("POST /api/members/me", s.householdH.EnsureMember)

	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("POST /api/chores/{id}/archive", s.choreH.Archive)

	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("GET /api/tasks/completed", s.taskH.ListCompleted)
	mux.HandleFunc("GET /api/tasks/deleted", s.taskH.ListDeleted)
	mux.HandleFunc("POST /api/tasks/purge-completed", s.taskH.PurgeCompleted)
	mux.HandleFunc("POST /api/tasks/purge-deleted", s.taskH.PurgeDeleted)

	mux.HandleFunc("GET /api/areas", s.areaH.List)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
