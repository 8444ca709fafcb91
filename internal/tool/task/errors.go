package task

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrCommandRequired  = errors.New("command is required")
	ErrNegativeTimeout  = errors.New("timeout must be >= 0")
	ErrIDRequired       = errors.New("terminal id is required")
	ErrDataRequired     = errors.New("data is required")
	ErrEmptyCommandLine = errors.New("command line is empty")
)

// NotADirectoryError is returned when the working directory is not a directory.
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string      { return "working directory is not a directory: " + e.Path }
func (e *NotADirectoryError) NotDirectory() bool { return true }

// DirectoryMissingError is returned when the working directory does not exist.
type DirectoryMissingError struct {
	Path string
}

func (e *DirectoryMissingError) Error() string     { return "working directory does not exist: " + e.Path }
func (e *DirectoryMissingError) FileMissing() bool { return true }

// NoTaskCommandError is returned when no known build or test invocation is
// both detected and allowed.
type NoTaskCommandError struct {
	Task string
}

func (e *NoTaskCommandError) Error() string {
	return fmt.Sprintf("no allowed %s command found for this workspace", e.Task)
}
func (e *NoTaskCommandError) OperationDenied() bool { return true }

// SpawnError is returned when a process could not be started.
type SpawnError struct {
	Cmd   string
	Cause error
}

func (e *SpawnError) Error() string       { return fmt.Sprintf("failed to start %s: %v", e.Cmd, e.Cause) }
func (e *SpawnError) Unwrap() error       { return e.Cause }
func (e *SpawnError) CommandFailed() bool { return true }

// EnvFileError is returned when an env file cannot be read or parsed.
type EnvFileError struct {
	Path  string
	Line  int
	Cause error
}

func (e *EnvFileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("env file %s:%d: %v", e.Path, e.Line, e.Cause)
	}
	return fmt.Sprintf("env file %s: %v", e.Path, e.Cause)
}
func (e *EnvFileError) Unwrap() error      { return e.Cause }
func (e *EnvFileError) InvalidInput() bool { return true }

// TerminalNotFoundError is returned for unknown or already disposed terminal ids.
type TerminalNotFoundError struct {
	ID string
}

func (e *TerminalNotFoundError) Error() string     { return "terminal not found: " + e.ID }
func (e *TerminalNotFoundError) FileMissing() bool { return true }

// TerminalInputError is returned when data cannot be delivered to a terminal's process.
type TerminalInputError struct {
	ID    string
	Cause error
}

func (e *TerminalInputError) Error() string {
	return fmt.Sprintf("failed to write to terminal %s: %v", e.ID, e.Cause)
}
func (e *TerminalInputError) Unwrap() error { return e.Cause }
func (e *TerminalInputError) IOError() bool { return true }

// StatError is returned when the working directory cannot be inspected.
type StatError struct {
	Path  string
	Cause error
}

func (e *StatError) Error() string { return fmt.Sprintf("failed to stat %s: %v", e.Path, e.Cause) }
func (e *StatError) Unwrap() error { return e.Cause }
func (e *StatError) IOError() bool { return true }
