package search

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrQueryRequired      = errors.New("query is required")
	ErrScopeRequired      = errors.New("scope is required")
	ErrInvalidPattern     = errors.New("invalid glob pattern")
	ErrNegativeMaxResults = errors.New("maxResults must be >= 0")
)

// InvalidQueryError is returned when a regex query does not compile.
type InvalidQueryError struct {
	Query string
	Cause error
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query %q: %v", e.Query, e.Cause)
}
func (e *InvalidQueryError) Unwrap() error      { return e.Cause }
func (e *InvalidQueryError) InvalidInput() bool { return true }

// FileMissingError implements the behavioral interface for missing files.
type FileMissingError struct {
	Path string
}

func (e *FileMissingError) Error() string     { return "path does not exist: " + e.Path }
func (e *FileMissingError) FileMissing() bool { return true }

// NotAFileError is returned when a symbol scope names something other than a regular file.
type NotAFileError struct {
	Path string
}

func (e *NotAFileError) Error() string { return "not a regular file: " + e.Path }
func (e *NotAFileError) NotFile() bool { return true }

// StatError is returned when stat fails.
type StatError struct {
	Path  string
	Cause error
}

func (e *StatError) Error() string { return fmt.Sprintf("failed to stat %s: %v", e.Path, e.Cause) }
func (e *StatError) Unwrap() error { return e.Cause }
func (e *StatError) IOError() bool { return true }

// WalkError is returned when a directory cannot be enumerated.
type WalkError struct {
	Path  string
	Cause error
}

func (e *WalkError) Error() string { return fmt.Sprintf("failed to walk %s: %v", e.Path, e.Cause) }
func (e *WalkError) Unwrap() error { return e.Cause }
func (e *WalkError) IOError() bool { return true }

// ReadError is returned when a scoped file cannot be read.
type ReadError struct {
	Path  string
	Cause error
}

func (e *ReadError) Error() string { return fmt.Sprintf("failed to read %s: %v", e.Path, e.Cause) }
func (e *ReadError) Unwrap() error { return e.Cause }
func (e *ReadError) IOError() bool { return true }

// TooLargeError is returned when a scoped file exceeds the read ceiling.
type TooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file %s is %d bytes, limit is %d", e.Path, e.Size, e.Limit)
}
func (e *TooLargeError) TooLarge() bool { return true }
