package terminal

import "sync"

// Registry is the authoritative map of live sessions. Admit is the single
// enforcement point for the global session cap: it checks the cap and
// inserts under one lock, so of N concurrent admits with k slots free,
// exactly k succeed.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	maxSessions int
}

// NewRegistry creates a Registry capped at maxSessions live sessions.
func NewRegistry(maxSessions int) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
	}
}

// Admit registers a new session, returning ErrSessionLimit when the
// registry is at capacity.
func (r *Registry) Admit(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) >= r.maxSessions {
		return ErrSessionLimit
	}
	r.sessions[s.ID] = s
	return nil
}

// Get returns the live session with the given ID, or ErrNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Remove deletes a session from the registry. Only valid once both
// readers have finished and the process handle has been released; the
// Manager's cleanup sequence is the sole caller on the happy path.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// List returns a snapshot of all live sessions.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
