package database

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
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
	DB = db
	if err := db.AutoMigrate(&Project{}, &TerminalRecord{}, &ScheduledTask{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func TestProjectCRUD(t *testing.T) {
	setupTestDB(t)

	p := &Project{ID: uuid.New().String(), Name: "api", Path: "/home/dev/api"}
	if err := CreateProject(p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := GetProject(p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "api" || got.Path != "/home/dev/api" {
		t.Errorf("got %+v", got)
	}
	if got.LastOpenedAt != nil {
		t.Error("LastOpenedAt set on new project")
	}

	byPath, err := GetProjectByPath("/home/dev/api")
	if err != nil {
		t.Fatalf("get by path: %v", err)
	}
	if byPath.ID != p.ID {
		t.Errorf("lookup by path returned %s", byPath.ID)
	}

	if err := TouchProjectOpened(p.ID); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, _ = GetProject(p.ID)
	if got.LastOpenedAt == nil {
		t.Error("LastOpenedAt not set after touch")
	}

	if err := DeleteProject(p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetProject(p.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("get after delete: %v", err)
	}
}

func TestProjectPathUnique(t *testing.T) {
	setupTestDB(t)

	if err := CreateProject(&Project{ID: uuid.New().String(), Name: "a", Path: "/home/dev/x"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := CreateProject(&Project{ID: uuid.New().String(), Name: "b", Path: "/home/dev/x"}); err == nil {
		t.Error("expected unique constraint violation on duplicate path")
	}
}

func TestListProjectsOrdered(t *testing.T) {
	setupTestDB(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i, name := range []string{"first", "second", "third"} {
		p := &Project{
			ID:        uuid.New().String(),
			Name:      name,
			Path:      "/home/dev/" + name,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := DB.Create(p).Error; err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	projects, err := ListProjects()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("len = %d", len(projects))
	}
	for i, want := range []string{"first", "second", "third"} {
		if projects[i].Name != want {
			t.Errorf("projects[%d] = %s, want %s", i, projects[i].Name, want)
		}
	}
}

func TestScheduledTaskHelpers(t *testing.T) {
	setupTestDB(t)

	task := &ScheduledTask{
		ID:          uuid.New().String(),
		Title:       "nightly build",
		Command:     "git",
		WorkingDir:  "/home/dev/api",
		Recurrence:  "daily",
		ScheduledAt: time.Now().UTC().Add(time.Hour),
		Status:      "pending",
	}
	if err := CreateScheduledTask(task); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := GetScheduledTask(task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "nightly build" || got.Recurrence != "daily" {
		t.Errorf("got %+v", got)
	}

	got.Status = "active"
	got.RunCount = 1
	now := time.Now().UTC()
	got.LastRunAt = &now
	if err := UpdateScheduledTask(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = GetScheduledTask(task.ID)
	if got.Status != "active" || got.RunCount != 1 || got.LastRunAt == nil {
		t.Errorf("after update: %+v", got)
	}

	if err := DeleteScheduledTask(task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetScheduledTask(task.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("get after delete: %v", err)
	}
}

func TestPendingScheduledTasks(t *testing.T) {
	setupTestDB(t)

	for _, status := range []string{"pending", "active", "completed", "failed", "cancelled"} {
		task := &ScheduledTask{
			ID:          uuid.New().String(),
			Title:       status,
			Command:     "git",
			WorkingDir:  "/home/dev",
			Recurrence:  "once",
			ScheduledAt: time.Now().UTC(),
			Status:      status,
		}
		if err := CreateScheduledTask(task); err != nil {
			t.Fatalf("create %s: %v", status, err)
		}
	}

	pending, err := PendingScheduledTasks()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("len = %d, want 2", len(pending))
	}
	for _, task := range pending {
		if task.Status != "pending" && task.Status != "active" {
			t.Errorf("unexpected status %s", task.Status)
		}
	}
}

func TestListTerminalRecords(t *testing.T) {
	setupTestDB(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		rec := &TerminalRecord{
			ID:         uuid.New().String(),
			PID:        1000 + i,
			WorkingDir: "/home/dev",
			Command:    "git",
			Status:     "stopped",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := DB.Create(rec).Error; err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	records, err := ListTerminalRecords()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d", len(records))
	}
	// Newest first.
	if records[0].PID != 1002 || records[2].PID != 1000 {
		t.Errorf("order: pids %d, %d, %d", records[0].PID, records[1].PID, records[2].PID)
	}
}
