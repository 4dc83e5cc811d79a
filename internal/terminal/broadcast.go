package terminal

import (
	"log"
	"sync"
	"time"
)

// StreamKind identifies which output stream a line came from.
type StreamKind string

const (
	StreamStdout StreamKind = "stdout"
	StreamStderr StreamKind = "stderr"
)

// OutputMessage is one decoded line of process output. Immutable once
// published; consumed by zero or more subscriber channels.
type OutputMessage struct {
	SessionID string     `json:"terminal_id"`
	Stream    StreamKind `json:"type"`
	Line      string     `json:"line"`
	Timestamp time.Time  `json:"timestamp"`
}

// Subscriber is one bounded delivery queue attached to a session. The
// streaming layer owns its lifecycle: it reads from Out until Done is
// closed, then detaches.
type Subscriber struct {
	ch   chan OutputMessage
	done chan struct{}

	closeOnce sync.Once
	dropped   int
	dropMu    sync.Mutex
}

// Out returns the message channel. It is never closed; readers must also
// select on Done.
func (s *Subscriber) Out() <-chan OutputMessage {
	return s.ch
}

// Done is closed when the subscriber is detached or its session ends.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Dropped returns how many messages were dropped because this subscriber
// could not drain its channel within the publish timeout.
func (s *Subscriber) Dropped() int {
	s.dropMu.Lock()
	defer s.dropMu.Unlock()
	return s.dropped
}

func (s *Subscriber) markDropped() {
	s.dropMu.Lock()
	s.dropped++
	s.dropMu.Unlock()
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Broadcaster fans process output out to each session's subscriber
// channels. Publishing enqueues into every channel with a bounded
// per-channel timeout, so one stalled viewer can never slow the shell
// process or delay delivery to other viewers.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]map[*Subscriber]struct{}

	maxPerSession int
	buffer        int
	timeout       time.Duration
}

// NewBroadcaster creates a Broadcaster with the given per-session
// subscriber cap, channel capacity, and per-channel send timeout.
func NewBroadcaster(maxPerSession, buffer int, timeout time.Duration) *Broadcaster {
	return &Broadcaster{
		subs:          make(map[string]map[*Subscriber]struct{}),
		maxPerSession: maxPerSession,
		buffer:        buffer,
		timeout:       timeout,
	}
}

// Register creates the (empty) subscriber set for a new session. Must be
// called before any Subscribe or Publish for that session.
func (b *Broadcaster) Register(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sessionID]; !ok {
		b.subs[sessionID] = make(map[*Subscriber]struct{})
	}
}

// Subscribe attaches a new bounded channel to the session. Returns
// ErrNotFound if the session has already been removed, ErrSubscriberLimit
// if the session is at its subscriber cap.
func (b *Broadcaster) Subscribe(sessionID string) (*Subscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subs[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if len(set) >= b.maxPerSession {
		return nil, ErrSubscriberLimit
	}

	sub := &Subscriber{
		ch:   make(chan OutputMessage, b.buffer),
		done: make(chan struct{}),
	}
	set[sub] = struct{}{}
	return sub, nil
}

// Unsubscribe detaches a subscriber from the session. Idempotent; safe
// to call after the session has been removed.
func (b *Broadcaster) Unsubscribe(sessionID string, sub *Subscriber) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	if set, ok := b.subs[sessionID]; ok {
		delete(set, sub)
	}
	b.mu.Unlock()
	sub.close()
}

// Publish delivers one line to every channel currently subscribed to the
// session. The subscriber set is snapshotted up front, so channels added
// mid-publish see only later messages. Each enqueue is attempted with a
// bounded timeout: a channel that cannot accept in time has that one
// message dropped, without affecting delivery to any other channel.
// Per-stream order is preserved because each reader goroutine publishes
// its own lines sequentially.
func (b *Broadcaster) Publish(sessionID string, stream StreamKind, line string, ts time.Time) {
	b.mu.Lock()
	set := b.subs[sessionID]
	snapshot := make([]*Subscriber, 0, len(set))
	for sub := range set {
		snapshot = append(snapshot, sub)
	}
	b.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	msg := OutputMessage{
		SessionID: sessionID,
		Stream:    stream,
		Line:      line,
		Timestamp: ts,
	}

	for _, sub := range snapshot {
		select {
		case <-sub.done:
			continue
		case sub.ch <- msg:
			continue
		default:
		}

		// Channel is full; wait up to the timeout for it to drain.
		timer := time.NewTimer(b.timeout)
		select {
		case sub.ch <- msg:
		case <-sub.done:
		case <-timer.C:
			sub.markDropped()
			log.Printf("[broadcast] session %s: subscriber unresponsive, dropped one %s line", sessionID, stream)
		}
		timer.Stop()
	}
}

// Remove drops the session's subscriber set and signals every remaining
// subscriber that the session has ended.
func (b *Broadcaster) Remove(sessionID string) {
	b.mu.Lock()
	set := b.subs[sessionID]
	delete(b.subs, sessionID)
	b.mu.Unlock()

	for sub := range set {
		sub.close()
	}
}

// SubscriberCount returns the number of channels attached to the session.
func (b *Broadcaster) SubscriberCount(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sessionID])
}
