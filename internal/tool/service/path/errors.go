package path

import (
	"errors"
	"fmt"
)

// -- Error Types --

// WorkspaceRootError is returned when the workspace root is invalid.
type WorkspaceRootError struct {
	Root  string
	Cause error
}

func (e *WorkspaceRootError) Error() string {
	return fmt.Sprintf("invalid workspace root %s: %v", e.Root, e.Cause)
}
func (e *WorkspaceRootError) Unwrap() error { return e.Cause }

// OutsideWorkspaceError is returned when a path, after cleaning and symlink
// resolution, lies outside the workspace root.
type OutsideWorkspaceError struct {
	Path string
}

func (e *OutsideWorkspaceError) Error() string {
	return fmt.Sprintf("path %q is outside workspace root", e.Path)
}
func (e *OutsideWorkspaceError) Unwrap() error   { return ErrOutsideWorkspace }
func (e *OutsideWorkspaceError) Traversal() bool { return true }

// SymlinkLoopError is returned when symlink resolution does not terminate.
type SymlinkLoopError struct {
	Path string
}

func (e *SymlinkLoopError) Error() string {
	return fmt.Sprintf("too many levels of symbolic links resolving %q", e.Path)
}
func (e *SymlinkLoopError) InvalidInput() bool { return true }

// -- Sentinels --

var (
	ErrOutsideWorkspace    = errors.New("path is outside workspace root")
	ErrWorkspaceRootNotSet = errors.New("workspace root not set")
	ErrNotADirectory       = errors.New("not a directory")
)
