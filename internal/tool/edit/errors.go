package edit

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrEditsRequired      = errors.New("edits are required")
	ErrPathRequired       = errors.New("path is required")
	ErrOperationsRequired = errors.New("operations are required")
	ErrNegativeCount      = errors.New("expectedReplacements must be >= 0")
	ErrPatchRequired      = errors.New("patch is required")
	ErrNoPatchTargets     = errors.New("patch contains no file headers")
	ErrInvalidPattern     = errors.New("invalid glob pattern")
)

// -- Edit Errors --

// SnippetNotFoundError is returned when an operation's before text is absent.
type SnippetNotFoundError struct {
	Path    string
	Snippet string
}

func (e *SnippetNotFoundError) Error() string {
	return fmt.Sprintf("snippet not found in %s: %q", e.Path, e.Snippet)
}
func (e *SnippetNotFoundError) InvalidInput() bool { return true }

// ReplacementCountError is returned when the number of occurrences differs
// from expectedReplacements.
type ReplacementCountError struct {
	Path     string
	Expected int
	Found    int
}

func (e *ReplacementCountError) Error() string {
	return fmt.Sprintf("replacement count mismatch in %s: expected %d, found %d", e.Path, e.Expected, e.Found)
}
func (e *ReplacementCountError) InvalidInput() bool { return true }

// FormatError is returned when a source file cannot be parsed for formatting.
type FormatError struct {
	Path  string
	Cause error
}

func (e *FormatError) Error() string      { return fmt.Sprintf("cannot format %s: %v", e.Path, e.Cause) }
func (e *FormatError) Unwrap() error      { return e.Cause }
func (e *FormatError) InvalidInput() bool { return true }

// NotTextError is returned when a text operation targets a binary file.
type NotTextError struct {
	Path string
}

func (e *NotTextError) Error() string      { return "not a text file: " + e.Path }
func (e *NotTextError) InvalidInput() bool { return true }

// -- Patch Errors --

// PatchToolUnavailableError is returned when no patch tool can be executed.
type PatchToolUnavailableError struct {
	Tool  string
	Cause error
}

func (e *PatchToolUnavailableError) Error() string {
	return fmt.Sprintf("patch tool unavailable: %s: %v", e.Tool, e.Cause)
}
func (e *PatchToolUnavailableError) Unwrap() error         { return e.Cause }
func (e *PatchToolUnavailableError) OperationDenied() bool { return true }

// PatchRejectedError is returned when the patch does not apply cleanly.
type PatchRejectedError struct {
	Output string
}

func (e *PatchRejectedError) Error() string      { return "patch does not apply: " + e.Output }
func (e *PatchRejectedError) InvalidInput() bool { return true }

// PatchToolError is returned when the patch tool fails for reasons other than
// a rejected patch.
type PatchToolError struct {
	Cause error
}

func (e *PatchToolError) Error() string { return fmt.Sprintf("patch tool failed: %v", e.Cause) }
func (e *PatchToolError) Unwrap() error { return e.Cause }

// -- Resource Errors --

// NotFoundError is returned when a target file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string     { return "file does not exist: " + e.Path }
func (e *NotFoundError) FileMissing() bool { return true }

// NotAFileError is returned when a target is not a regular file.
type NotAFileError struct {
	Path string
}

func (e *NotAFileError) Error() string { return "not a regular file: " + e.Path }
func (e *NotAFileError) NotFile() bool { return true }

// TooLargeError is returned when content exceeds a policy size ceiling.
type TooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file %s is %d bytes, limit is %d", e.Path, e.Size, e.Limit)
}
func (e *TooLargeError) TooLarge() bool { return true }

// -- I/O Errors --

// StatError is returned when stat fails.
type StatError struct {
	Path  string
	Cause error
}

func (e *StatError) Error() string { return fmt.Sprintf("failed to stat %s: %v", e.Path, e.Cause) }
func (e *StatError) Unwrap() error { return e.Cause }
func (e *StatError) IOError() bool { return true }

// ReadError is returned when a file cannot be read.
type ReadError struct {
	Path  string
	Cause error
}

func (e *ReadError) Error() string { return fmt.Sprintf("failed to read %s: %v", e.Path, e.Cause) }
func (e *ReadError) Unwrap() error { return e.Cause }
func (e *ReadError) IOError() bool { return true }

// WriteError is returned when a file cannot be written.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string { return fmt.Sprintf("failed to write %s: %v", e.Path, e.Cause) }
func (e *WriteError) Unwrap() error { return e.Cause }
func (e *WriteError) IOError() bool { return true }

// RemoveError is returned when a file deleted by a patch cannot be removed.
type RemoveError struct {
	Path  string
	Cause error
}

func (e *RemoveError) Error() string { return fmt.Sprintf("failed to remove %s: %v", e.Path, e.Cause) }
func (e *RemoveError) Unwrap() error { return e.Cause }
func (e *RemoveError) IOError() bool { return true }

// ScratchError is returned when the scratch copy used to apply a patch fails.
type ScratchError struct {
	Cause error
}

func (e *ScratchError) Error() string { return fmt.Sprintf("patch scratch area: %v", e.Cause) }
func (e *ScratchError) Unwrap() error { return e.Cause }
func (e *ScratchError) IOError() bool { return true }
