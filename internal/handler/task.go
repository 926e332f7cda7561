package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shipshape-app/shipshape/internal/model"
	"github.com/shipshape-app/shipshape/internal/repo"
)

type TaskHandler struct {
	tasks      *repo.TaskRepo
	households *repo.HouseholdRepo
	logger     *slog.Logger
}

func NewTaskHandler(tasks *repo.TaskRepo, households *repo.HouseholdRepo, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, households: households, logger: logger}
}

// List returns tasks due in the requested range. Without from/to it
// covers the current week starting today.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	household, ok := h.requireHousehold(w, r)
	if !ok {
		return
	}

	start := model.DateOnly(time.Now())
	end := start.AddDate(0, 0, 6)
	if s := r.URL.Query().Get("from"); s != "" {
		t, err := parseDateParam(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		start = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := parseDateParam(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		end = t
	}

	tasks, err := h.tasks.List(r.Context(), household.ID, start, end)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title          string `json:"title"`
		DueDate        string `json:"due_date"`
		AssignedUserID string `json:"assigned_user_id"`
		AreaID         string `json:"area_id"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	due, err := parseDateParam(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}
	household, ok := h.requireHousehold(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Create(r.Context(), model.CreateTaskInput{
		HouseholdID:    household.ID,
		Title:          req.Title,
		DueDate:        due,
		AssignedUserID: req.AssignedUserID,
		AreaID:         req.AreaID,
	})
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Complete(r.Context(), r.PathValue("id")); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	household, ok := h.requireHousehold(w, r)
	if !ok {
		return
	}
	tasks, err := h.tasks.ListCompleted(household.ID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	household, ok := h.requireHousehold(w, r)
	if !ok {
		return
	}
	end := model.DateOnly(time.Now())
	start := end.AddDate(0, 0, -30)
	tasks, err := h.tasks.ListDeleted(r.Context(), household.ID, start, end)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) PurgeCompleted(w http.ResponseWriter, r *http.Request) {
	h.purge(w, r, h.tasks.PurgeCompleted)
}

func (h *TaskHandler) PurgeDeleted(w http.ResponseWriter, r *http.Request) {
	h.purge(w, r, h.tasks.PurgeDeleted)
}

func (h *TaskHandler) purge(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, householdID string) (int64, error)) {
	household, ok := h.requireHousehold(w, r)
	if !ok {
		return
	}
	n, err := fn(r.Context(), household.ID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"purged": n})
}

func (h *TaskHandler) requireHousehold(w http.ResponseWriter, r *http.Request) (*model.Household, bool) {
	household, err := h.households.Current(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return nil, false
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "no household")
		return nil, false
	}
	return household, true
}
