package terminal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePath_AllowedDescendants(t *testing.T) {
	base := t.TempDir()
	sub := filepath.Join(base, "project-a")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	v := NewValidator(Policy{AllowedBaseDirs: []string{base}})

	if !v.ValidatePath(base) {
		t.Error("expected base directory itself to be allowed")
	}
	if !v.ValidatePath(sub) {
		t.Error("expected descendant of base to be allowed")
	}
}

func TestValidatePath_Rejections(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()

	v := NewValidator(Policy{AllowedBaseDirs: []string{base}})

	cases := []struct {
		name string
		path string
	}{
		{"outside base", outside},
		{"nonexistent", filepath.Join(base, "does-not-exist")},
		{"system dir", "/etc"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if v.ValidatePath(tc.path) {
				t.Errorf("expected %q to be rejected", tc.path)
			}
		})
	}
}

func TestValidatePath_SymlinkEscape(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()

	// A symlink living under the allowed base but pointing outside must
	// be rejected: the raw path looks allowed, the resolved one is not.
	link := filepath.Join(base, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	v := NewValidator(Policy{AllowedBaseDirs: []string{base}})
	if v.ValidatePath(link) {
		t.Error("expected outward-pointing symlink to be rejected")
	}
}

func TestValidatePath_SymlinkWithinBase(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "real")
	if err := os.MkdirAll(target, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(base, "alias")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	v := NewValidator(Policy{AllowedBaseDirs: []string{base}})
	if !v.ValidatePath(link) {
		t.Error("expected inward-pointing symlink to be allowed")
	}
}

func TestValidatePath_PrefixSibling(t *testing.T) {
	root := t.TempDir()
	allowed := filepath.Join(root, "data")
	sneaky := filepath.Join(root, "database")
	for _, dir := range []string{allowed, sneaky} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	// "database" shares the string prefix "data" but is not a descendant.
	v := NewValidator(Policy{AllowedBaseDirs: []string{allowed}})
	if v.ValidatePath(sneaky) {
		t.Error("expected prefix-sibling directory to be rejected")
	}
}

func TestValidateCommand(t *testing.T) {
	v := NewValidator(Policy{AllowedCommands: []string{"claude", "python", "git"}})

	cases := []struct {
		command string
		want    bool
	}{
		{"claude", true},
		{"git", true},
		{"bash", false},
		{"", false},
		{"/bin/claude", false},
		{"claude/../bash", false},
		{`tools\claude`, false},
		{"Claude", false},
		{"claude ", false},
	}
	for _, tc := range cases {
		if got := v.ValidateCommand(tc.command); got != tc.want {
			t.Errorf("ValidateCommand(%q) = %v, want %v", tc.command, got, tc.want)
		}
	}
}
