package directory

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrInvalidPattern     = errors.New("invalid glob pattern")
	ErrNegativeMaxEntries = errors.New("maxEntries must be >= 0")
)

// NotFoundError is returned when the directory does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string     { return fmt.Sprintf("path does not exist: %s", e.Path) }
func (e *NotFoundError) FileMissing() bool { return true }

// NotADirectoryError is returned when the listed path is not a directory.
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string      { return fmt.Sprintf("not a directory: %s", e.Path) }
func (e *NotADirectoryError) NotDirectory() bool { return true }

// ListDirError wraps an OS failure while reading a directory.
type ListDirError struct {
	Path  string
	Cause error
}

func (e *ListDirError) Error() string { return fmt.Sprintf("failed to list %s: %v", e.Path, e.Cause) }
func (e *ListDirError) Unwrap() error { return e.Cause }
func (e *ListDirError) IOError() bool { return true }
