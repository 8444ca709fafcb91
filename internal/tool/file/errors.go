package file

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrPathRequired        = errors.New("path is required")
	ErrSourceRequired      = errors.New("src is required")
	ErrDestinationRequired = errors.New("dst is required")
	ErrInvalidEncoding     = errors.New(`encoding must be "utf-8" or "base64"`)
	ErrInvalidType         = errors.New(`type must be "file" or "dir"`)
	ErrWorkspaceRoot       = errors.New("operation not permitted on the workspace root")
)

// -- Resource errors --

// NotFoundError is returned when the target path does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string     { return fmt.Sprintf("path does not exist: %s", e.Path) }
func (e *NotFoundError) FileMissing() bool { return true }

// AlreadyExistsError is returned when a path that must be absent exists.
type AlreadyExistsError struct {
	Path string
}

func (e *AlreadyExistsError) Error() string       { return fmt.Sprintf("path already exists: %s", e.Path) }
func (e *AlreadyExistsError) AlreadyExists() bool { return true }

// NotAFileError is returned when a regular file was expected.
type NotAFileError struct {
	Path string
}

func (e *NotAFileError) Error() string { return fmt.Sprintf("not a regular file: %s", e.Path) }
func (e *NotAFileError) NotFile() bool { return true }

// TooLargeError is returned when content exceeds the policy ceiling.
type TooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s is too large: %d bytes exceeds limit of %d", e.Path, e.Size, e.Limit)
}
func (e *TooLargeError) TooLarge() bool { return true }

// DirectoryNotEmptyError is returned by a non-recursive delete of a populated directory.
type DirectoryNotEmptyError struct {
	Path string
}

func (e *DirectoryNotEmptyError) Error() string {
	return fmt.Sprintf("directory is not empty: %s (set recursive=true to remove it)", e.Path)
}
func (e *DirectoryNotEmptyError) InvalidInput() bool { return true }

// -- I/O errors --

// StatError is returned when a path cannot be inspected.
type StatError struct {
	Path  string
	Cause error
}

func (e *StatError) Error() string { return fmt.Sprintf("failed to stat %s: %v", e.Path, e.Cause) }
func (e *StatError) Unwrap() error { return e.Cause }
func (e *StatError) IOError() bool { return true }

// ReadError is returned when file content cannot be read.
type ReadError struct {
	Path  string
	Cause error
}

func (e *ReadError) Error() string { return fmt.Sprintf("failed to read %s: %v", e.Path, e.Cause) }
func (e *ReadError) Unwrap() error { return e.Cause }
func (e *ReadError) IOError() bool { return true }

// WriteError is returned when file content cannot be written.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string { return fmt.Sprintf("failed to write %s: %v", e.Path, e.Cause) }
func (e *WriteError) Unwrap() error { return e.Cause }
func (e *WriteError) IOError() bool { return true }

// EnsureDirsError is returned when parent directories cannot be created.
type EnsureDirsError struct {
	Path  string
	Cause error
}

func (e *EnsureDirsError) Error() string {
	return fmt.Sprintf("failed to create directories %s: %v", e.Path, e.Cause)
}
func (e *EnsureDirsError) Unwrap() error { return e.Cause }
func (e *EnsureDirsError) IOError() bool { return true }

// RemoveError is returned when a path cannot be deleted.
type RemoveError struct {
	Path  string
	Cause error
}

func (e *RemoveError) Error() string { return fmt.Sprintf("failed to remove %s: %v", e.Path, e.Cause) }
func (e *RemoveError) Unwrap() error { return e.Cause }
func (e *RemoveError) IOError() bool { return true }

// RenameError is returned when a move fails.
type RenameError struct {
	Src   string
	Dst   string
	Cause error
}

func (e *RenameError) Error() string {
	return fmt.Sprintf("failed to move %s to %s: %v", e.Src, e.Dst, e.Cause)
}
func (e *RenameError) Unwrap() error { return e.Cause }
func (e *RenameError) IOError() bool { return true }
