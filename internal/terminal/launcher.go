package terminal

import (
	"io"
	"os/exec"
	"sync"
	"syscall"
)

// Handle wraps a started child process with its output pipes. The owning
// session holds the only reference; Wait must be called exactly once,
// after both pipes have been drained.
type Handle struct {
	cmd    *exec.Cmd
	Stdout io.ReadCloser
	Stderr io.ReadCloser

	waitOnce sync.Once
	waitErr  error
}

// PID returns the OS process ID of the child.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// Terminate requests graceful shutdown via SIGTERM.
func (h *Handle) Terminate() error {
	return h.cmd.Process.Signal(syscall.SIGTERM)
}

// Kill force-kills the process.
func (h *Handle) Kill() error {
	return h.cmd.Process.Kill()
}

// Wait reaps the process and releases its resources. Idempotent; every
// call returns the result of the first.
func (h *Handle) Wait() error {
	h.waitOnce.Do(func() {
		h.waitErr = h.cmd.Wait()
	})
	return h.waitErr
}

// Launcher starts already-validated commands. Re-validation is the
// Manager's sequencing responsibility, not the Launcher's.
type Launcher struct{}

// Launch starts command in workDir with independent stdout and stderr
// pipes. The working directory is set directly on the child and the argv
// is the bare executable; neither is ever interpolated into a shell
// string. On any failure no partial process is left running.
func (l *Launcher) Launch(workDir, command string) (*Handle, error) {
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, &LaunchError{Err: err}
	}

	cmd := exec.Command(path)
	cmd.Dir = workDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, &LaunchError{Err: err}
	}

	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return nil, &LaunchError{Err: err}
	}

	return &Handle{cmd: cmd, Stdout: stdout, Stderr: stderr}, nil
}
