package terminal

import "time"

// Default limits, mirroring the environment defaults in internal/config.
const (
	DefaultMaxSessions              = 10
	DefaultMaxSubscribersPerSession = 5
	DefaultSubscriberBuffer         = 1000
	DefaultScrollbackLines          = 1000
	DefaultPublishTimeout           = 5 * time.Second
	DefaultStopGracePeriod          = 5 * time.Second
)

// Policy is the validation and resource policy for terminal sessions.
// It is loaded once at startup and never mutated afterwards; the Manager
// and Validator read it without locking.
type Policy struct {
	// AllowedBaseDirs are the canonical roots under which a session's
	// working directory must live.
	AllowedBaseDirs []string
	// AllowedCommands is the exact-match whitelist of executable names.
	AllowedCommands []string

	// MaxSessions caps concurrently live sessions across the service.
	MaxSessions int
	// MaxSubscribersPerSession caps subscriber channels per session.
	MaxSubscribersPerSession int
	// SubscriberBuffer is the per-subscriber channel capacity.
	SubscriberBuffer int
	// ScrollbackLines caps the per-session recent-output buffer.
	ScrollbackLines int

	// PublishTimeout bounds how long a publish waits on one slow
	// subscriber channel before dropping that message for that channel.
	PublishTimeout time.Duration
	// StopGracePeriod is how long a stop waits after SIGTERM before
	// escalating to SIGKILL.
	StopGracePeriod time.Duration
}

// withDefaults fills zero-valued limits so a partially specified policy
// is still safe to run with.
func (p Policy) withDefaults() Policy {
	if p.MaxSessions <= 0 {
		p.MaxSessions = DefaultMaxSessions
	}
	if p.MaxSubscribersPerSession <= 0 {
		p.MaxSubscribersPerSession = DefaultMaxSubscribersPerSession
	}
	if p.SubscriberBuffer <= 0 {
		p.SubscriberBuffer = DefaultSubscriberBuffer
	}
	if p.ScrollbackLines <= 0 {
		p.ScrollbackLines = DefaultScrollbackLines
	}
	if p.PublishTimeout <= 0 {
		p.PublishTimeout = DefaultPublishTimeout
	}
	if p.StopGracePeriod <= 0 {
		p.StopGracePeriod = DefaultStopGracePeriod
	}
	return p
}
