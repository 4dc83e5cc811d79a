package handlers

import (
	"net/http"

	"github.com/shellboard/shellboard/internal/database"
)

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	dbStatus := "disconnected"
	if database.DB != nil {
		sqlDB, err := database.DB.DB()
		if err == nil {
			if err := sqlDB.Ping(); err == nil {
				dbStatus = "connected"
			}
		}
	}

	status := "healthy"
	if dbStatus != "connected" {
		status = "unhealthy"
	}

	sessions := 0
	if TermMgr != nil {
		sessions = TermMgr.SessionCount()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        status,
		"database":      dbStatus,
		"live_sessions": sessions,
	})
}
