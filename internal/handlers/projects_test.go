package handlers

import (
	"net/http"
	"testing"

	"github.com/shellboard/shellboard/internal/config"
	"github.com/shellboard/shellboard/internal/database"
	"github.com/shellboard/shellboard/internal/terminal"
)

func TestCreateProject(t *testing.T) {
	setupTestDB(t)
	workDir := setupManager(t, 4, 2)
	r := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/projects", map[string]string{
		"name": "api", "path": workDir,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var project database.Project
	decodeBody(t, rec, &project)
	if project.ID == "" || project.Name != "api" || project.Path != workDir {
		t.Errorf("project = %+v", project)
	}

	// Same path again conflicts.
	rec = doJSON(t, r, http.MethodPost, "/api/v1/projects", map[string]string{
		"name": "api-2", "path": workDir,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate path: %d, want 409", rec.Code)
	}
}

func TestCreateProject_Rejections(t *testing.T) {
	setupTestDB(t)
	setupManager(t, 4, 2)
	r := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/projects", map[string]string{"name": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing path: %d, want 400", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/projects", map[string]string{
		"name": "x", "path": t.TempDir(),
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("disallowed path: %d, want 403", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["detail"] != "Path not allowed" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestGetAndListProjects(t *testing.T) {
	setupTestDB(t)
	workDir := setupManager(t, 4, 2)
	r := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/projects", map[string]string{
		"name": "api", "path": workDir,
	})
	var created database.Project
	decodeBody(t, rec, &created)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/projects/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get: %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/projects/no-such-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get unknown: %d, want 404", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/projects", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	var list struct {
		Projects []database.Project `json:"projects"`
	}
	decodeBody(t, rec, &list)
	if len(list.Projects) != 1 {
		t.Errorf("list = %+v", list.Projects)
	}
}

func TestOpenProjectTerminal(t *testing.T) {
	setupTestDB(t)
	workDir := setupManager(t, 4, 2)
	config.Cfg.DefaultCommand = "spin"
	r := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/projects", map[string]string{
		"name": "api", "path": workDir,
	})
	var project database.Project
	decodeBody(t, rec, &project)

	rec = doJSON(t, r, http.MethodPost, "/api/v1/projects/"+project.ID+"/open-terminal", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open-terminal: %d, body %s", rec.Code, rec.Body.String())
	}
	var info terminal.SessionInfo
	decodeBody(t, rec, &info)
	if info.ProjectID != project.ID || info.Command != "spin" || info.WorkDir != workDir {
		t.Errorf("info = %+v", info)
	}

	got, err := database.GetProject(project.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if got.LastOpenedAt == nil {
		t.Error("LastOpenedAt not set after open-terminal")
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/projects/no-such-id/open-terminal", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("open unknown project: %d, want 404", rec.Code)
	}
}

func TestDeleteProject_StopsItsTerminals(t *testing.T) {
	setupTestDB(t)
	workDir := setupManager(t, 4, 2)
	config.Cfg.DefaultCommand = "spin"
	r := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/projects", map[string]string{
		"name": "api", "path": workDir,
	})
	var project database.Project
	decodeBody(t, rec, &project)

	rec = doJSON(t, r, http.MethodPost, "/api/v1/projects/"+project.ID+"/open-terminal", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open-terminal: %d", rec.Code)
	}
	if TermMgr.SessionCount() != 1 {
		t.Fatalf("SessionCount = %d", TermMgr.SessionCount())
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/projects/"+project.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	if TermMgr.SessionCount() != 0 {
		t.Errorf("SessionCount = %d after project delete, want 0", TermMgr.SessionCount())
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/projects/"+project.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: %d, want 404", rec.Code)
	}
}
