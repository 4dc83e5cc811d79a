package database

import "time"

// Project is a vetted working-directory root an operator can spawn
// terminals in.
type Project struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Name         string     `gorm:"not null;size:255" json:"name"`
	Path         string     `gorm:"uniqueIndex;not null" json:"path"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastOpenedAt *time.Time `json:"last_opened_at,omitempty"`
}

// TerminalRecord is the audit row for one terminal session. Rows are
// written by the status observer on a best-effort basis and survive the
// session itself.
type TerminalRecord struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID      string    `gorm:"size:36;index" json:"project_id"`
	PID            int       `gorm:"not null" json:"pid"`
	WorkingDir     string    `gorm:"not null" json:"working_dir"`
	Command        string    `gorm:"not null" json:"command"`
	Status         string    `gorm:"not null;default:starting" json:"status"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// ScheduledTask is a command spawn scheduled for a future time, once or
// on a simple recurrence.
type ScheduledTask struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Title       string `gorm:"not null;size:255" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	Command    string `gorm:"not null" json:"command"`
	WorkingDir string `gorm:"not null" json:"working_dir"`
	ProjectID  string `gorm:"size:36;index" json:"project_id,omitempty"`

	// Recurrence is one of: once, daily, weekly, monthly. ScheduledAt
	// anchors the clock time (and weekday / day of month) of each run.
	Recurrence  string    `gorm:"not null;default:once;size:50" json:"recurrence"`
	ScheduledAt time.Time `gorm:"not null" json:"scheduled_at"`

	// Status is one of: pending, active, completed, failed, cancelled.
	Status    string     `gorm:"not null;default:pending;size:50" json:"status"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	RunCount  int        `gorm:"not null;default:0" json:"run_count"`
	LastError string     `json:"last_error,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
