package handlers

import (
	"net/http"
	"strconv"

	"github.com/shellboard/shellboard/internal/logging"
)

// GetLogs returns the tail of the service log file.
// GET /api/v1/logs?lines=200
func GetLogs(w http.ResponseWriter, r *http.Request) {
	lines := 200
	if v := r.URL.Query().Get("lines"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 10000 {
			writeError(w, http.StatusBadRequest, "lines must be between 1 and 10000")
			return
		}
		lines = n
	}

	content, err := logging.ReadTail(lines)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"logs": content})
}

// ClearLogs truncates the service log file.
// DELETE /api/v1/logs
func ClearLogs(w http.ResponseWriter, r *http.Request) {
	if err := logging.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
