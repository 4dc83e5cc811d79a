package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shellboard/shellboard/internal/scheduler"
	"github.com/shellboard/shellboard/internal/terminal"
)

// TermMgr and Sched are set from main.go during init.
var (
	TermMgr *terminal.Manager
	Sched   *scheduler.Scheduler
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeSpawnError maps manager errors to HTTP responses. Validation
// rejections get a deliberately generic detail string so no internal path
// information reaches the caller.
func writeSpawnError(w http.ResponseWriter, err error) {
	var launchErr *terminal.LaunchError
	switch {
	case errors.Is(err, terminal.ErrPathNotAllowed), errors.Is(err, terminal.ErrCommandNotAllowed):
		writeError(w, http.StatusForbidden, "Working directory or command not allowed")
	case errors.Is(err, terminal.ErrSessionLimit):
		writeError(w, http.StatusTooManyRequests, "Terminal limit reached")
	case errors.As(err, &launchErr):
		writeError(w, http.StatusInternalServerError, "Failed to start terminal")
	default:
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}
