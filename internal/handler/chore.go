package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shipshape-app/shipshape/internal/gateway"
	"github.com/shipshape-app/shipshape/internal/model"
	"github.com/shipshape-app/shipshape/internal/repo"
)

type ChoreHandler struct {
	chores     *repo.ChoreRepo
	households *repo.HouseholdRepo
	logger     *slog.Logger
}

func NewChoreHandler(chores *repo.ChoreRepo, households *repo.HouseholdRepo, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: chores, households: households, logger: logger}
}

type choreRequest struct {
	Name              string   `json:"name"`
	Frequency         string   `json:"frequency"`
	RotationMemberIDs []string `json:"rotation_member_ids"`
	StartDate         *string  `json:"start_date"`
	EndDate           *string  `json:"end_date"`
	AreaID            string   `json:"area_id"`
	Active            *bool    `json:"active"`
}

func (req choreRequest) dates(w http.ResponseWriter) (start, end *time.Time, ok bool) {
	parse := func(s *string) (*time.Time, bool) {
		if s == nil || *s == "" {
			return nil, true
		}
		t, err := parseDateParam(*s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
			return nil, false
		}
		return &t, true
	}
	if start, ok = parse(req.StartDate); !ok {
		return nil, nil, false
	}
	if end, ok = parse(req.EndDate); !ok {
		return nil, nil, false
	}
	return start, end, true
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	household, ok := h.requireHousehold(w, r)
	if !ok {
		return
	}
	chores, err := h.chores.List(r.Context(), household.ID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.RotationMemberIDs) == 0 {
		writeError(w, http.StatusBadRequest, "rotation needs at least one member")
		return
	}
	start, end, ok := req.dates(w)
	if !ok {
		return
	}
	household, ok := h.requireHousehold(w, r)
	if !ok {
		return
	}

	chore, err := h.chores.Create(r.Context(), household.ID, model.CreateChoreInput{
		Name:              req.Name,
		Frequency:         model.Frequency(req.Frequency),
		RotationMemberIDs: req.RotationMemberIDs,
		StartDate:         start,
		EndDate:           end,
		AreaID:            req.AreaID,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if !readJSON(w, r, &req) {
		return
	}
	start, end, ok := req.dates(w)
	if !ok {
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	chore, err := h.chores.Update(r.Context(), r.PathValue("id"), gateway.UpdateChoreInput{
		Name:              req.Name,
		Frequency:         model.Frequency(req.Frequency),
		RotationMemberIDs: req.RotationMemberIDs,
		StartDate:         start,
		EndDate:           end,
		AreaID:            req.AreaID,
		Active:            active,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if err := h.chores.Archive(r.Context(), r.PathValue("id")); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChoreHandler) requireHousehold(w http.ResponseWriter, r *http.Request) (*model.Household, bool) {
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
