package policy

import "fmt"

// PathDeniedError is returned when a normalized path is rejected by the allow/deny globs.
type PathDeniedError struct {
	Path string
}

func (e *PathDeniedError) Error() string {
	return fmt.Sprintf("path %q is denied by policy", e.Path)
}
func (e *PathDeniedError) PolicyViolation() bool { return true }

// CommandDeniedError is returned when a program is not on the command allowlist.
type CommandDeniedError struct {
	Command  string
	Disabled bool
}

func (e *CommandDeniedError) Error() string {
	if e.Disabled {
		return fmt.Sprintf("command %q rejected: command execution is disabled by policy", e.Command)
	}
	return fmt.Sprintf("command %q is not in the policy allowlist", e.Command)
}
func (e *CommandDeniedError) PolicyViolation() bool { return true }

// ConfirmationRequiredError is returned when an operation needs confirmed=true.
type ConfirmationRequiredError struct {
	Operation string
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("operation %q requires explicit confirmation", e.Operation)
}
func (e *ConfirmationRequiredError) ConfirmationRequired() bool { return true }

// FileError is returned when the policy file exists but cannot be used.
type FileError struct {
	Path  string
	Cause error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to load policy file %s: %v", e.Path, e.Cause)
}
func (e *FileError) Unwrap() error { return e.Cause }

// InvalidPatternError is returned for a malformed glob in the policy file.
type InvalidPatternError struct {
	Pattern string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid glob pattern %q", e.Pattern)
}
