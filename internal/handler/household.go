package handler

import (
	"log/slog"
	"net/http"

	"github.com/shipshape-app/shipshape/internal/gateway"
	"github.com/shipshape-app/shipshape/internal/repo"
)

type HouseholdHandler struct {
	households *repo.HouseholdRepo
	members    *repo.MemberRepo
	logger     *slog.Logger
}

func NewHouseholdHandler(households *repo.HouseholdRepo, members *repo.MemberRepo, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: households, members: members, logger: logger}
}

// Current returns the user's household, or 404 when they have none yet.
func (h *HouseholdHandler) Current(w http.ResponseWriter, r *http.Request) {
	household, err := h.households.Current(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "no household")
		return
	}
	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	household, queued, err := h.households.Create(r.Context(), req.Name)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"household": household, "queued": queued})
}

func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JoinCode string `json:"join_code"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.JoinCode == "" {
		writeError(w, http.StatusBadRequest, "join_code is required")
		return
	}

	household, queued, err := h.households.Join(r.Context(), req.JoinCode)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"household": household, "queued": queued})
}

func (h *HouseholdHandler) Members(w http.ResponseWriter, r *http.Request) {
	household, err := h.households.Current(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "no household")
		return
	}
	members, err := h.members.List(r.Context(), household.ID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// EnsureMember claims or creates the user's member profile.
func (h *HouseholdHandler) EnsureMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
		AvatarID    string `json:"avatar_id"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	household, err := h.households.Current(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "no household")
		return
	}

	member, err := h.members.Ensure(r.Context(), gateway.EnsureMemberInput{
		HouseholdID: household.ID,
		DisplayName: req.DisplayName,
		AvatarID:    req.AvatarID,
	})
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// CurrentMember returns the user's claimed member record, or 404.
func (h *HouseholdHandler) CurrentMember(w http.ResponseWriter, r *http.Request) {
	member, err := h.members.Current(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "no member profile")
		return
	}
	writeJSON(w, http.StatusOK, member)
}
