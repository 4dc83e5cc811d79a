package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shellboard/shellboard/internal/config"
	"github.com/shellboard/shellboard/internal/database"
	"github.com/shellboard/shellboard/internal/logutil"
	"gorm.io/gorm"
)

type createProjectRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// CreateProject registers a project directory. The path must pass the
// same whitelist validation as a spawn, so a project can never point
// outside the allowed roots.
// POST /api/v1/projects
func CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Path == "" {
		writeError(w, http.StatusBadRequest, "name and path are required")
		return
	}

	if err := TermMgr.ValidateWorkDir(req.Path); err != nil {
		log.Printf("[api] project path rejected: %s", logutil.SanitizeForLog(req.Path))
		writeError(w, http.StatusForbidden, "Path not allowed")
		return
	}

	if _, err := database.GetProjectByPath(req.Path); err == nil {
		writeError(w, http.StatusConflict, "Project with this path already exists")
		return
	}

	project := &database.Project{
		ID:   uuid.New().String(),
		Name: req.Name,
		Path: req.Path,
	}
	if err := database.CreateProject(project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

// ListProjects returns all projects.
// GET /api/v1/projects
func ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := database.ListProjects()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]database.Project{"projects": projects})
}

// GetProject returns one project.
// GET /api/v1/projects/{id}
func GetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	project, err := database.GetProject(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "Project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// DeleteProject removes a project and stops any of its live terminals.
// DELETE /api/v1/projects/{id}
func DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := database.GetProject(id); err != nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}

	for _, sess := range TermMgr.List() {
		if sess.ProjectID == id {
			if err := TermMgr.Stop(sess.ID); err != nil {
				log.Printf("[api] stop session %s for deleted project %s: %v", sess.ID, id, err)
			}
		}
	}

	if err := database.DeleteProject(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// OpenProjectTerminal spawns a terminal in the project's directory with
// the configured default command.
// POST /api/v1/projects/{id}/open-terminal
func OpenProjectTerminal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	project, err := database.GetProject(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}

	sess, err := TermMgr.Spawn(project.ID, project.Path, config.Cfg.DefaultCommand)
	if err != nil {
		writeSpawnError(w, err)
		return
	}

	if err := database.TouchProjectOpened(project.ID); err != nil {
		log.Printf("[api] WARNING: touch project %s: %v", project.ID, err)
	}

	writeJSON(w, http.StatusCreated, sess.Info())
}
