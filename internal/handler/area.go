package handler

import (
	"log/slog"
	"net/http"

	"github.com/shipshape-app/shipshape/internal/repo"
)

type AreaHandler struct {
	areas  *repo.AreaRepo
	logger *slog.Logger
}

func NewAreaHandler(areas *repo.AreaRepo, logger *slog.Logger) *AreaHandler {
	return &AreaHandler{areas: areas, logger: logger}
}

func (h *AreaHandler) List(w http.ResponseWriter, r *http.Request) {
	areas, err := h.areas.List(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, areas)
}
