package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shellboard/shellboard/internal/logutil"
	"github.com/shellboard/shellboard/internal/procstat"
	"github.com/shellboard/shellboard/internal/terminal"
)

type spawnRequest struct {
	ProjectID  string `json:"project_id"`
	WorkingDir string `json:"working_dir"`
	Command    string `json:"command"`
}

// terminalStatus is the list/status representation: the session snapshot
// plus live process gauges.
type terminalStatus struct {
	terminal.SessionInfo
	procstat.Stats
}

// SpawnTerminal starts a new terminal session.
// POST /api/v1/terminals
func SpawnTerminal(w http.ResponseWriter, r *http.Request) {
	var req spawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.WorkingDir == "" || req.Command == "" {
		writeError(w, http.StatusBadRequest, "working_dir and command are required")
		return
	}

	sess, err := TermMgr.Spawn(req.ProjectID, req.WorkingDir, req.Command)
	if err != nil {
		log.Printf("[api] spawn rejected (dir=%s command=%s): %v",
			logutil.SanitizeForLog(req.WorkingDir), logutil.SanitizeForLog(req.Command), err)
		writeSpawnError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sess.Info())
}

// ListTerminals returns all live terminals with process stats.
// GET /api/v1/terminals
func ListTerminals(w http.ResponseWriter, r *http.Request) {
	sessions := TermMgr.List()
	result := make([]terminalStatus, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, terminalStatus{
			SessionInfo: sess.Info(),
			Stats:       procstat.Sample(sess.PID()),
		})
	}
	writeJSON(w, http.StatusOK, map[string][]terminalStatus{"terminals": result})
}

// GetTerminalStatus returns one terminal's status including process
// CPU and memory usage.
// GET /api/v1/terminals/{id}/status
func GetTerminalStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := TermMgr.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Terminal not found")
		return
	}

	writeJSON(w, http.StatusOK, terminalStatus{
		SessionInfo: sess.Info(),
		Stats:       procstat.Sample(sess.PID()),
	})
}

// GetTerminalOutput returns the terminal's buffered recent output.
// GET /api/v1/terminals/{id}/output
func GetTerminalOutput(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lines, err := TermMgr.Recent(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Terminal not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]terminal.OutputMessage{"lines": lines})
}

// StopTerminal stops a terminal session and waits for its cleanup.
// DELETE /api/v1/terminals/{id}
func StopTerminal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := TermMgr.Stop(id); err != nil {
		if errors.Is(err, terminal.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Terminal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to stop terminal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}
