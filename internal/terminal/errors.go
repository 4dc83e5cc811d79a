package terminal

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Manager operations. Handlers map these to
// HTTP status codes via errors.Is; the error text is safe to log but is
// never sent verbatim to untrusted callers.
var (
	// ErrPathNotAllowed means the working directory is outside every
	// allowed base directory after symlink resolution.
	ErrPathNotAllowed = errors.New("working directory not allowed")
	// ErrCommandNotAllowed means the command is not in the whitelist.
	ErrCommandNotAllowed = errors.New("command not allowed")
	// ErrSessionLimit means the global session cap has been reached.
	ErrSessionLimit = errors.New("session limit reached")
	// ErrSubscriberLimit means the per-session subscriber cap has been reached.
	ErrSubscriberLimit = errors.New("subscriber limit reached")
	// ErrNotFound means no live session exists with the given ID.
	ErrNotFound = errors.New("session not found")
)

// LaunchError wraps an OS-level spawn failure (missing executable,
// permission denied). It is surfaced to the caller and never retried.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch failed: %v", e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
