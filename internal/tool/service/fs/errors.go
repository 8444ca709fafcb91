package fs

import "fmt"

// Stages of WriteFileAtomic, reported in AtomicWriteError.
const (
	StageCreateTemp = "create temp file"
	StageWriteTemp  = "write temp file"
	StageSync       = "sync temp file"
	StageClose      = "close temp file"
	StageChmod      = "set permissions"
	StageRename     = "rename into place"
)

// AtomicWriteError reports which step of an atomic write failed. The
// destination is untouched whenever this error is returned.
type AtomicWriteError struct {
	Path  string
	Stage string
	Cause error
}

func (e *AtomicWriteError) Error() string {
	return fmt.Sprintf("atomic write of %s failed to %s: %v", e.Path, e.Stage, e.Cause)
}
func (e *AtomicWriteError) Unwrap() error { return e.Cause }
func (e *AtomicWriteError) IOError() bool { return true }
