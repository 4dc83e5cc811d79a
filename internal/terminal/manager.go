package terminal

import (
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StatusObserver receives session status transitions, e.g. for audit
// persistence. Observers are optional and strictly best-effort: they are
// invoked outside all manager locks and a panicking or failing observer
// never affects session operation.
type StatusObserver interface {
	SessionStatusChanged(info SessionInfo)
}

// Manager is the composition root for terminal sessions: it validates
// spawn requests, admits them against the global cap, launches the
// process, runs the two output readers, and tears everything down exactly
// once per session regardless of which path (caller stop, natural exit,
// or startup failure) triggers cleanup.
type Manager struct {
	policy      Policy
	validator   *Validator
	launcher    *Launcher
	registry    *Registry
	broadcaster *Broadcaster
	observer    StatusObserver
}

// NewManager creates a Manager for the given policy. observer may be nil.
func NewManager(policy Policy, observer StatusObserver) *Manager {
	policy = policy.withDefaults()
	return &Manager{
		policy:      policy,
		validator:   NewValidator(policy),
		launcher:    &Launcher{},
		registry:    NewRegistry(policy.MaxSessions),
		broadcaster: NewBroadcaster(policy.MaxSubscribersPerSession, policy.SubscriberBuffer, policy.PublishTimeout),
		observer:    observer,
	}
}

// Policy returns the manager's immutable policy.
func (m *Manager) Policy() Policy {
	return m.policy
}

// ValidateWorkDir checks a directory against the path whitelist without
// spawning anything. Used by project creation.
func (m *Manager) ValidateWorkDir(path string) error {
	if !m.validator.ValidatePath(path) {
		return ErrPathNotAllowed
	}
	return nil
}

// Spawn validates, admits, and starts a new session in workDir running
// command. Any failure after admission rolls the registration back; a
// failed spawn never leaves a partial session behind.
func (m *Manager) Spawn(projectID, workDir, command string) (*Session, error) {
	if !m.validator.ValidatePath(workDir) {
		log.Printf("[terminal] rejected spawn: path %q not allowed", workDir)
		return nil, ErrPathNotAllowed
	}
	if !m.validator.ValidateCommand(command) {
		log.Printf("[terminal] rejected spawn: command %q not allowed", command)
		return nil, ErrCommandNotAllowed
	}

	sess := &Session{
		ID:           uuid.New().String(),
		ProjectID:    projectID,
		WorkDir:      workDir,
		Command:      command,
		CreatedAt:    time.Now().UTC(),
		scrollback:   NewScrollback(m.policy.ScrollbackLines),
		status:       StatusStarting,
		lastActivity: time.Now().UTC(),
		launched:     make(chan struct{}),
		stdoutDone:   make(chan struct{}),
		stderrDone:   make(chan struct{}),
		finalized:    make(chan struct{}),
	}

	if err := m.registry.Admit(sess); err != nil {
		log.Printf("[terminal] rejected spawn: %d/%d sessions live", m.registry.Count(), m.policy.MaxSessions)
		return nil, err
	}
	m.broadcaster.Register(sess.ID)

	handle, err := m.launcher.Launch(workDir, command)
	if err != nil {
		// Full rollback: the failed spawn must not occupy a slot. Settle
		// the launch last so a Stop that raced in sees the session gone.
		m.broadcaster.Remove(sess.ID)
		m.registry.Remove(sess.ID)
		sess.abortLaunch()
		log.Printf("[terminal] launch failed for command %q: %v", command, err)
		return nil, err
	}
	sess.setLaunched(handle)

	m.notify(sess)

	go pumpStream(sess, StreamStdout, handle.Stdout, m.broadcaster, sess.stdoutDone)
	go pumpStream(sess, StreamStderr, handle.Stderr, m.broadcaster, sess.stderrDone)
	go m.monitor(sess)

	if sess.setStatus(StatusRunning) {
		m.notify(sess)
	}

	log.Printf("[terminal] spawned session %s pid=%d command=%q dir=%q", sess.ID, handle.PID(), command, workDir)
	return sess, nil
}

// monitor waits for both readers to report end-of-stream, reaps the
// process, and runs cleanup. This is the natural-exit path; it shares the
// once-only cleanup with Stop.
func (m *Manager) monitor(sess *Session) {
	<-sess.stdoutDone
	<-sess.stderrDone

	if err := sess.processHandle().Wait(); err != nil {
		log.Printf("[terminal] session %s exited: %v", sess.ID, err)
	} else {
		log.Printf("[terminal] session %s exited cleanly", sess.ID)
	}

	m.finalize(sess, StatusStopped)
}

// finalize releases all session resources exactly once and removes the
// session from the registry. Safe to call from any teardown path.
func (m *Manager) finalize(sess *Session, final Status) {
	sess.cleanupOnce.Do(func() {
		sess.scrollback.Close()
		m.broadcaster.Remove(sess.ID)
		m.registry.Remove(sess.ID)
		if sess.setStatus(final) {
			m.notify(sess)
		}
		close(sess.finalized)
	})
}

// Stop requests graceful termination, waits up to the grace period,
// escalates to SIGKILL, and waits for cleanup. Race-safe against natural
// exit: whichever path reaches cleanup first wins and the other is a
// no-op. Returns ErrNotFound if the session is already gone.
func (m *Manager) Stop(id string) error {
	sess, err := m.registry.Get(id)
	if err != nil {
		return err
	}

	// Spawn makes the session retrievable before the process exists; wait
	// for the launch to settle before signaling anything.
	<-sess.launched
	handle := sess.processHandle()
	if handle == nil {
		// The launch failed and the spawn path already rolled it back.
		return ErrNotFound
	}

	if sess.setStatus(StatusStopping) {
		m.notify(sess)
	}

	if err := handle.Terminate(); err != nil {
		// Process already gone; the monitor will finish cleanup.
		log.Printf("[terminal] session %s: SIGTERM: %v", id, err)
	}

	timer := time.NewTimer(m.policy.StopGracePeriod)
	select {
	case <-sess.finalized:
		timer.Stop()
		return nil
	case <-timer.C:
	}

	log.Printf("[terminal] session %s pid=%d did not exit within %s, killing", id, sess.PID(), m.policy.StopGracePeriod)
	if err := handle.Kill(); err != nil {
		log.Printf("[terminal] session %s: SIGKILL: %v", id, err)
	}

	timer = time.NewTimer(m.policy.StopGracePeriod)
	defer timer.Stop()
	select {
	case <-sess.finalized:
		return nil
	case <-timer.C:
	}

	// The one case where a resource leak is possible. Abandon the session
	// so the slot frees up, and say so loudly.
	log.Printf("[terminal] ERROR: session %s pid=%d survived SIGKILL; abandoning process, resources may leak", id, sess.PID())
	m.finalize(sess, StatusFailed)
	return nil
}

// Get returns a live session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	return m.registry.Get(id)
}

// List returns all live sessions, oldest first.
func (m *Manager) List() []*Session {
	sessions := m.registry.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// SessionCount returns the number of live sessions.
func (m *Manager) SessionCount() int {
	return m.registry.Count()
}

// Subscribe attaches a new output channel to a live session.
func (m *Manager) Subscribe(id string) (*Subscriber, error) {
	return m.broadcaster.Subscribe(id)
}

// Unsubscribe detaches a subscriber. Idempotent.
func (m *Manager) Unsubscribe(id string, sub *Subscriber) {
	m.broadcaster.Unsubscribe(id, sub)
}

// Subscribers returns the number of channels attached to a session.
func (m *Manager) Subscribers(id string) int {
	return m.broadcaster.SubscriberCount(id)
}

// Recent returns the session's buffered recent output, oldest first.
func (m *Manager) Recent(id string) ([]OutputMessage, error) {
	sess, err := m.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.scrollback.Snapshot(), nil
}

// Shutdown stops every live session and waits for their cleanup. Called
// once at service shutdown.
func (m *Manager) Shutdown() {
	sessions := m.registry.List()
	if len(sessions) == 0 {
		return
	}
	log.Printf("[terminal] shutting down %d live session(s)", len(sessions))

	var wg sync.WaitGroup
	for _, sess := range sessions {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := m.Stop(id); err != nil && !errors.Is(err, ErrNotFound) {
				log.Printf("[terminal] shutdown stop %s: %v", id, err)
			}
		}(sess.ID)
	}
	wg.Wait()
}

// notify hands a status snapshot to the observer, shielding sessions from
// any observer failure.
func (m *Manager) notify(sess *Session) {
	if m.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[terminal] WARNING: status observer panicked: %v", r)
		}
	}()
	m.observer.SessionStatusChanged(sess.Info())
}
