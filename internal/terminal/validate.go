package terminal

import (
	"os"
	"path/filepath"
	"strings"
)

// Validator approves working directories and commands against the policy
// whitelists. Both checks are pure functions with no side effects; a
// denial is reported as false, never as an error carrying internal paths.
type Validator struct {
	policy Policy
}

// NewValidator creates a Validator for the given policy.
func NewValidator(policy Policy) *Validator {
	return &Validator{policy: policy}
}

// ValidatePath reports whether path, after resolving every symlink, is
// equal to or a strict descendant of one of the allowed base directories.
// Both sides are canonicalized before comparison; comparing the raw
// strings first would let a symlink inside an allowed root point anywhere
// on the filesystem.
func (v *Validator) ValidatePath(path string) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		// Nonexistent or unreadable paths are rejected outright.
		return false
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return false
	}

	for _, base := range v.policy.AllowedBaseDirs {
		resolvedBase, err := filepath.EvalSymlinks(base)
		if err != nil {
			continue
		}
		absBase, err := filepath.Abs(resolvedBase)
		if err != nil {
			continue
		}
		if abs == absBase || strings.HasPrefix(abs, absBase+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

// ValidateCommand reports whether command is an exact member of the
// allowed command list. Anything containing a path component is rejected
// before the membership check; the whitelist holds bare executable names
// only.
func (v *Validator) ValidateCommand(command string) bool {
	if command == "" {
		return false
	}
	if strings.ContainsAny(command, `/\`) {
		return false
	}
	for _, allowed := range v.policy.AllowedCommands {
		if command == allowed {
			return true
		}
	}
	return false
}
