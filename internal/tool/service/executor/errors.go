package executor

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when a command exceeds its timeout.
var ErrTimeout = errors.New("command timeout")

// ErrEmptyCommand is returned when no program name was supplied.
var ErrEmptyCommand = errors.New("empty command")

// ErrProcessExited is returned when writing to the stdin of a finished process.
var ErrProcessExited = errors.New("process has exited")

// CommandError represents a failure to launch or drive a process.
// A non-zero exit status is not a CommandError.
type CommandError struct {
	Cmd   string
	Cause error
	Stage string // "start", "stdin", "kill"
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed at %s: %v", e.Cmd, e.Stage, e.Cause)
}
func (e *CommandError) Unwrap() error       { return e.Cause }
func (e *CommandError) CommandFailed() bool { return true }
