// Package handler implements the daemon's local control API. It binds to
// loopback only; there is no auth layer because the backend tokens never
// leave the daemon.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shipshape-app/shipshape/internal/repo"
)

const dateFormat = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeRepoError maps well-known repository errors to status codes.
func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repo.ErrOffline) {
		writeError(w, http.StatusServiceUnavailable, "this action requires a connection")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func parseDateParam(s string) (time.Time, error) {
	return time.Parse(dateFormat, s)
}
