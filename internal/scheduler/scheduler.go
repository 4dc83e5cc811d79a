// Package scheduler runs scheduled terminal spawns. Tasks come from the
// scheduled_tasks table: one-shot tasks fire on a timer, recurring tasks
// (daily, weekly, monthly) are registered as cron entries. A run that is
// rejected at capacity is recorded as a failed run and never retried
// automatically.
package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shellboard/shellboard/internal/database"
	"github.com/shellboard/shellboard/internal/terminal"
)

const (
	RecurrenceOnce    = "once"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

type Scheduler struct {
	cron *cron.Cron
	mgr  *terminal.Manager

	mu      sync.Mutex
	entries map[string]cron.EntryID
	timers  map[string]*time.Timer
	stopped bool
}

func New(mgr *terminal.Manager) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		mgr:     mgr,
		entries: make(map[string]cron.EntryID),
		timers:  make(map[string]*time.Timer),
	}
}

// Start loads pending tasks from the database, registers them, and starts
// the cron loop.
func (s *Scheduler) Start() error {
	tasks, err := database.PendingScheduledTasks()
	if err != nil {
		return fmt.Errorf("load pending tasks: %w", err)
	}

	for i := range tasks {
		if err := s.Add(&tasks[i]); err != nil {
			log.Printf("[scheduler] WARNING: skip task %s (%s): %v", tasks[i].ID, tasks[i].Title, err)
		}
	}

	s.cron.Start()
	log.Printf("[scheduler] started with %d pending task(s)", len(tasks))
	return nil
}

// Stop halts the cron loop and cancels pending one-shot timers. Runs
// already in flight are left to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Printf("[scheduler] stopped")
}

// Add registers a task with the scheduler. The task must already be
// persisted.
func (s *Scheduler) Add(task *database.ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("scheduler stopped")
	}

	taskID := task.ID
	if task.Recurrence == RecurrenceOnce {
		delay := time.Until(task.ScheduledAt)
		if delay < 0 {
			delay = 0
		}
		s.timers[taskID] = time.AfterFunc(delay, func() {
			s.runTask(taskID)
		})
		return nil
	}

	spec, err := CronSpec(task.Recurrence, task.ScheduledAt)
	if err != nil {
		return err
	}
	entryID, err := s.cron.AddFunc(spec, func() {
		s.runTask(taskID)
	})
	if err != nil {
		return fmt.Errorf("register cron entry: %w", err)
	}
	s.entries[taskID] = entryID
	return nil
}

// Remove unregisters a task. Idempotent.
func (s *Scheduler) Remove(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[taskID]; ok {
		timer.Stop()
		delete(s.timers, taskID)
	}
	if entryID, ok := s.entries[taskID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, taskID)
	}
}

// CronSpec maps a recurrence kind and its anchor time to a cron
// expression. The anchor supplies the clock time, weekday, and day of
// month.
func CronSpec(recurrence string, at time.Time) (string, error) {
	switch recurrence {
	case RecurrenceDaily:
		return fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour()), nil
	case RecurrenceWeekly:
		return fmt.Sprintf("%d %d * * %d", at.Minute(), at.Hour(), int(at.Weekday())), nil
	case RecurrenceMonthly:
		return fmt.Sprintf("%d %d %d * *", at.Minute(), at.Hour(), at.Day()), nil
	default:
		return "", fmt.Errorf("unknown recurrence %q", recurrence)
	}
}

// runTask fires one scheduled spawn and records the outcome.
func (s *Scheduler) runTask(taskID string) {
	task, err := database.GetScheduledTask(taskID)
	if err != nil {
		log.Printf("[scheduler] task %s vanished: %v", taskID, err)
		s.Remove(taskID)
		return
	}
	if task.Status == "cancelled" {
		s.Remove(taskID)
		return
	}

	sess, spawnErr := s.mgr.Spawn(task.ProjectID, task.WorkingDir, task.Command)

	now := time.Now().UTC()
	task.LastRunAt = &now
	task.RunCount++

	if spawnErr != nil {
		task.LastError = spawnErr.Error()
		log.Printf("[scheduler] task %s (%s) run failed: %v", task.ID, task.Title, spawnErr)
	} else {
		task.LastError = ""
		log.Printf("[scheduler] task %s (%s) spawned session %s", task.ID, task.Title, sess.ID)
	}

	if task.Recurrence == RecurrenceOnce {
		if spawnErr != nil {
			task.Status = "failed"
		} else {
			task.Status = "completed"
		}
		s.Remove(taskID)
	} else {
		task.Status = "active"
		s.mu.Lock()
		if entryID, ok := s.entries[taskID]; ok {
			next := s.cron.Entry(entryID).Next
			task.NextRunAt = &next
		}
		s.mu.Unlock()
	}

	if err := database.UpdateScheduledTask(task); err != nil {
		log.Printf("[scheduler] WARNING: record run of task %s: %v", task.ID, err)
	}
}
