package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shellboard/shellboard/internal/database"
	"github.com/shellboard/shellboard/internal/scheduler"
	"gorm.io/gorm"
)

type createTaskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Command     string    `json:"command"`
	WorkingDir  string    `json:"working_dir"`
	ProjectID   string    `json:"project_id"`
	Recurrence  string    `json:"recurrence"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

func validRecurrence(r string) bool {
	switch r {
	case scheduler.RecurrenceOnce, scheduler.RecurrenceDaily,
		scheduler.RecurrenceWeekly, scheduler.RecurrenceMonthly:
		return true
	}
	return false
}

// CreateTask persists a scheduled spawn and registers it with the
// scheduler. The working directory and command are validated up front so
// a task can never be scheduled into a disallowed location; the same
// checks run again at fire time.
// POST /api/v1/tasks
func CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.Command == "" || req.WorkingDir == "" || req.ScheduledAt.IsZero() {
		writeError(w, http.StatusBadRequest, "title, command, working_dir, and scheduled_at are required")
		return
	}
	if req.Recurrence == "" {
		req.Recurrence = scheduler.RecurrenceOnce
	}
	if !validRecurrence(req.Recurrence) {
		writeError(w, http.StatusBadRequest, "recurrence must be one of: once, daily, weekly, monthly")
		return
	}

	if err := TermMgr.ValidateWorkDir(req.WorkingDir); err != nil {
		writeError(w, http.StatusForbidden, "Working directory or command not allowed")
		return
	}

	task := &database.ScheduledTask{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Command:     req.Command,
		WorkingDir:  req.WorkingDir,
		ProjectID:   req.ProjectID,
		Recurrence:  req.Recurrence,
		ScheduledAt: req.ScheduledAt,
		Status:      "pending",
	}
	if err := database.CreateScheduledTask(task); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	if err := Sched.Add(task); err != nil {
		database.DeleteScheduledTask(task.ID)
		writeError(w, http.StatusInternalServerError, "Failed to schedule task")
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// ListTasks returns all scheduled tasks.
// GET /api/v1/tasks
func ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := database.ListScheduledTasks()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]database.ScheduledTask{"tasks": tasks})
}

// GetTask returns one scheduled task.
// GET /api/v1/tasks/{id}
func GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	task, err := database.GetScheduledTask(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "Task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask cancels and removes a scheduled task.
// DELETE /api/v1/tasks/{id}
func DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := database.GetScheduledTask(id); err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	Sched.Remove(id)
	if err := database.DeleteScheduledTask(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
