// Package audit persists terminal session status transitions to the
// database. It implements terminal.StatusObserver and is strictly
// best-effort: every failure is logged and swallowed so session operation
// is never affected by a broken database.
package audit

import (
	"log"

	"github.com/shellboard/shellboard/internal/database"
	"github.com/shellboard/shellboard/internal/terminal"
	"gorm.io/gorm/clause"
)

// Recorder writes one TerminalRecord row per session and keeps its status
// column in step with the session's lifecycle.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// SessionStatusChanged upserts the session's audit row. Called by the
// Manager outside its locks.
func (r *Recorder) SessionStatusChanged(info terminal.SessionInfo) {
	if database.DB == nil {
		return
	}

	record := database.TerminalRecord{
		ID:             info.ID,
		ProjectID:      info.ProjectID,
		PID:            info.PID,
		WorkingDir:     info.WorkDir,
		Command:        info.Command,
		Status:         string(info.Status),
		CreatedAt:      info.CreatedAt,
		LastActivityAt: info.LastActivity,
	}

	err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "last_activity_at"}),
	}).Create(&record).Error
	if err != nil {
		log.Printf("[audit] WARNING: record session %s status %s: %v", info.ID, info.Status, err)
	}
}
