package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shellboard/shellboard/internal/database"
	"github.com/shellboard/shellboard/internal/scheduler"
	"github.com/shellboard/shellboard/internal/terminal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	database.DB = db
	if err := db.AutoMigrate(&database.Project{}, &database.TerminalRecord{}, &database.ScheduledTask{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
}

// setupManager wires TermMgr and Sched against test executables and
// returns an allowed working directory.
func setupManager(t *testing.T, maxSessions, maxSubscribers int) string {
	t.Helper()
	bin := t.TempDir()
	writeScript(t, bin, "greeter", "sleep 0.5\necho hello")
	writeScript(t, bin, "spin", "exec sleep 60")
	writeScript(t, bin, "chatty", "echo one\necho two\nexec sleep 60")
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	workDir := t.TempDir()
	TermMgr = terminal.NewManager(terminal.Policy{
		AllowedBaseDirs:          []string{workDir},
		AllowedCommands:          []string{"greeter", "spin", "chatty"},
		MaxSessions:              maxSessions,
		MaxSubscribersPerSession: maxSubscribers,
		SubscriberBuffer:         64,
		ScrollbackLines:          100,
		PublishTimeout:           200 * time.Millisecond,
		StopGracePeriod:          3 * time.Second,
	}, nil)
	Sched = scheduler.New(TermMgr)
	t.Cleanup(func() { TermMgr.Shutdown() })
	return workDir
}

func newTestRouter() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/projects", ListProjects)
		r.Post("/projects", CreateProject)
		r.Get("/projects/{id}", GetProject)
		r.Delete("/projects/{id}", DeleteProject)
		r.Post("/projects/{id}/open-terminal", OpenProjectTerminal)

		r.Get("/terminals", ListTerminals)
		r.Post("/terminals", SpawnTerminal)
		r.Get("/terminals/{id}/status", GetTerminalStatus)
		r.Get("/terminals/{id}/output", GetTerminalOutput)
		r.Get("/terminals/{id}/stream", StreamTerminal)
		r.Delete("/terminals/{id}", StopTerminal)

		r.Get("/tasks", ListTasks)
		r.Post("/tasks", CreateTask)
		r.Get("/tasks/{id}", GetTask)
		r.Delete("/tasks/{id}", DeleteTask)
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
