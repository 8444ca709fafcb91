package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/Cyclone1070/workspacerpc/internal/config"
)

// Result represents the outcome of a command execution.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
	TimedOut  bool
}

// OSCommandExecutor implements command execution using os/exec for real system commands.
type OSCommandExecutor struct {
	config *config.Config
}

// NewOSCommandExecutor creates a new OSCommandExecutor with injected config.
func NewOSCommandExecutor(cfg *config.Config) *OSCommandExecutor {
	if cfg == nil {
		panic("cfg is required")
	}
	return &OSCommandExecutor{config: cfg}
}

// RunWithTimeout executes a command, waiting at most timeout for it to finish.
// On timeout the process group is killed outright and the call returns only
// once the process has exited.
// The partial Result is returned together with ErrTimeout.
// A non-zero exit status is returned as the *exec.ExitError from Wait.
func (f *OSCommandExecutor) RunWithTimeout(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*Result, error) {
	return f.RunWithInput(ctx, command, dir, env, nil, timeout)
}

// RunWithInput is RunWithTimeout with stdin fed from input.
func (f *OSCommandExecutor) RunWithInput(ctx context.Context, command []string, dir string, env []string, input []byte, timeout time.Duration) (*Result, error) {
	if len(command) == 0 {
		return nil, ErrEmptyCommand
	}

	// Not CommandContext: the kill must reach the whole process group.
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	maxBytes := int(f.config.Tools.MaxCommandOutputSize)
	stdout := newCollector(maxBytes, f.config.Tools.BinarySampleSize)
	stderr := newCollector(maxBytes, f.config.Tools.BinarySampleSize)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = f.gracePeriod()
	setupProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, &CommandError{Cmd: command[0], Cause: err, Stage: "start"}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	var execErr error
	select {
	case err := <-done:
		execErr = err
	case <-ctx.Done():
		_ = killProcessGroup(cmd)
		<-done
		execErr = ctx.Err()
	case <-deadline:
		_ = killProcessGroup(cmd)
		<-done
		execErr = ErrTimeout
	}

	// The process exited but a grandchild kept the pipes open; the output we have is complete enough.
	if errors.Is(execErr, exec.ErrWaitDelay) {
		execErr = nil
	}

	res := &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.Truncated() || stderr.Truncated(),
	}
	switch {
	case execErr == nil:
	case errors.Is(execErr, ErrTimeout):
		res.ExitCode = -1
		res.TimedOut = true
	default:
		res.ExitCode = exitCode(execErr)
	}
	return res, execErr
}

func (f *OSCommandExecutor) gracePeriod() time.Duration {
	return time.Duration(f.config.Tools.GracefulShutdownMs) * time.Millisecond
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	type exitCoder interface {
		ExitCode() int
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}

// IsExitError reports whether err only signals a non-zero exit status.
func IsExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// LookPath resolves name to an executable on PATH.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
