package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shellboard/shellboard/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init() error {
	dbPath := config.Cfg.DatabasePath
	dbDir := filepath.Dir(dbPath)
	if dbDir != "" {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}

	if err := DB.AutoMigrate(&Project{}, &TerminalRecord{}, &ScheduledTask{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	return nil
}

func Close() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Project helpers

func CreateProject(p *Project) error {
	return DB.Create(p).Error
}

func GetProject(id string) (*Project, error) {
	var p Project
	if err := DB.First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func GetProjectByPath(path string) (*Project, error) {
	var p Project
	if err := DB.First(&p, "path = ?", path).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func ListProjects() ([]Project, error) {
	var projects []Project
	if err := DB.Order("created_at").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func DeleteProject(id string) error {
	return DB.Delete(&Project{}, "id = ?", id).Error
}

func TouchProjectOpened(id string) error {
	now := time.Now().UTC()
	return DB.Model(&Project{}).Where("id = ?", id).Update("last_opened_at", &now).Error
}

// Scheduled task helpers

func CreateScheduledTask(t *ScheduledTask) error {
	return DB.Create(t).Error
}

func GetScheduledTask(id string) (*ScheduledTask, error) {
	var t ScheduledTask
	if err := DB.First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func ListScheduledTasks() ([]ScheduledTask, error) {
	var tasks []ScheduledTask
	if err := DB.Order("created_at").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// PendingScheduledTasks returns tasks that still have runs ahead of them.
func PendingScheduledTasks() ([]ScheduledTask, error) {
	var tasks []ScheduledTask
	if err := DB.Where("status IN ?", []string{"pending", "active"}).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func UpdateScheduledTask(t *ScheduledTask) error {
	return DB.Save(t).Error
}

func DeleteScheduledTask(id string) error {
	return DB.Delete(&ScheduledTask{}, "id = ?", id).Error
}

// Terminal record helpers

func ListTerminalRecords() ([]TerminalRecord, error) {
	var records []TerminalRecord
	if err := DB.Order("created_at desc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
