package terminal

import "sync"

// Scrollback is a bounded per-session buffer of recent output lines,
// served over the REST recent-output endpoint. It is deliberately outside
// the broadcast ordering contract: a late subscriber's live channel still
// only carries lines published after it attached.
type Scrollback struct {
	mu       sync.Mutex
	lines    []OutputMessage
	maxLines int
	closed   bool
}

// NewScrollback creates a scrollback buffer holding at most maxLines
// lines, trimming the oldest first.
func NewScrollback(maxLines int) *Scrollback {
	if maxLines <= 0 {
		maxLines = DefaultScrollbackLines
	}
	return &Scrollback{maxLines: maxLines}
}

// Append records one output line, discarding the oldest line when full.
func (s *Scrollback) Append(msg OutputMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.lines = append(s.lines, msg)
	if len(s.lines) > s.maxLines {
		// Trim in chunks so append stays amortized O(1).
		excess := len(s.lines) - s.maxLines
		s.lines = append(s.lines[:0], s.lines[excess:]...)
	}
}

// Snapshot returns a copy of the buffered lines, oldest first.
func (s *Scrollback) Snapshot() []OutputMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OutputMessage, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len returns the number of buffered lines.
func (s *Scrollback) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Close stops accepting new lines. The existing contents stay readable.
func (s *Scrollback) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
