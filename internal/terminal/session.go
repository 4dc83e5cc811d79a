package terminal

import (
	"sync"
	"time"
)

// Status is the lifecycle state of a session. Transitions are monotonic
// in the order below, except StatusFailed which is reachable from any
// state.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
	StatusFailed   Status = "failed"
)

var statusOrder = map[Status]int{
	StatusStarting: 0,
	StatusRunning:  1,
	StatusStopping: 2,
	StatusStopped:  3,
}

// Session is one live spawned process together with its readers and
// subscribers. The process handle is exclusively owned by the session;
// it is released exactly once during cleanup, whichever path (caller
// stop, natural exit, or startup failure) triggers it.
type Session struct {
	ID        string
	ProjectID string
	WorkDir   string
	Command   string
	CreatedAt time.Time

	scrollback *Scrollback

	mu           sync.Mutex
	handle       *Handle
	pid          int
	status       Status
	lastActivity time.Time

	// launched is closed once the launch has settled: either the process
	// handle is set, or the failed spawn has been rolled back. The session
	// is retrievable from the registry before that point, so Stop must
	// wait on it before touching the handle.
	launched chan struct{}

	// stdoutDone and stderrDone are closed by the respective reader
	// goroutine when its stream reaches end-of-stream.
	stdoutDone chan struct{}
	stderrDone chan struct{}

	cleanupOnce sync.Once
	// finalized is closed after cleanup has run to completion.
	finalized chan struct{}
}

// PID returns the OS process ID, or zero while the launch is in flight.
func (s *Session) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// setLaunched publishes the process handle, unblocking any Stop that
// raced into the launch window.
func (s *Session) setLaunched(h *Handle) {
	s.mu.Lock()
	s.handle = h
	s.pid = h.PID()
	s.mu.Unlock()
	close(s.launched)
}

// abortLaunch settles a launch that failed before a handle existed.
func (s *Session) abortLaunch() {
	close(s.launched)
}

func (s *Session) processHandle() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// setStatus applies a state transition. Backward transitions are ignored
// so a racing natural exit cannot resurrect a stopped session; failed is
// terminal and always reachable.
func (s *Session) setStatus(status Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusFailed {
		return false
	}
	if status != StatusFailed && statusOrder[status] <= statusOrder[s.status] {
		return false
	}
	s.status = status
	s.lastActivity = time.Now().UTC()
	return true
}

// LastActivity returns the time of the last output line or state change.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now().UTC()
	s.mu.Unlock()
}

// Scrollback returns the session's recent-output buffer.
func (s *Session) Scrollback() *Scrollback {
	return s.scrollback
}

// Finalized is closed once the session's cleanup has completed.
func (s *Session) Finalized() <-chan struct{} {
	return s.finalized
}

// Info returns an immutable snapshot for observers and API responses.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	pid, status, last := s.pid, s.status, s.lastActivity
	s.mu.Unlock()
	return SessionInfo{
		ID:           s.ID,
		ProjectID:    s.ProjectID,
		WorkDir:      s.WorkDir,
		Command:      s.Command,
		PID:          pid,
		Status:       status,
		CreatedAt:    s.CreatedAt,
		LastActivity: last,
	}
}

// SessionInfo is a point-in-time snapshot of a session, safe to hand to
// observers and to serialize in API responses.
type SessionInfo struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id,omitempty"`
	WorkDir      string    `json:"working_dir"`
	Command      string    `json:"command"`
	PID          int       `json:"pid"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity_at"`
}
