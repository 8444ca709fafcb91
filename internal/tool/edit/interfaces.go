package edit

import (
	"context"
	"os"
	"time"

	"github.com/Cyclone1070/workspacerpc/internal/tool/service/executor"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/git"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/snapshot"
)

// fileSystem defines the filesystem operations needed by the edit tools.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFileAtomic(path string, content []byte, perm os.FileMode) error
	EnsureDirs(path string) error
	Remove(path string) error
}

// pathPolicy resolves and authorizes every touched path.
type pathPolicy interface {
	Root() string
	Resolve(input string) (abs, rel string, err error)
	IsPathAllowed(rel string) bool
	MaxReadSize() int64
	MaxWriteSize() int64
	CheckConfirmation(operation string, confirmed bool) error
}

// auditor appends mutation records to the audit trail.
type auditor interface {
	Record(action, file string, oldSize, newSize int64)
}

// snapshotter remembers a file's content before the first mutation.
type snapshotter interface {
	Capture(rel string, content []byte, existed bool)
}

// snapshotSource lists captured originals for diffing without version control.
type snapshotSource interface {
	Paths() []string
	Get(rel string) (snapshot.Snapshot, bool)
}

// Repository exposes the committed state of the workspace.
type Repository interface {
	Changes() ([]git.Change, error)
	HeadContent(rel string) ([]byte, bool, error)
}

// commandRunner runs the patch tool with the patch on stdin.
type commandRunner interface {
	RunWithInput(ctx context.Context, command []string, dir string, env []string, input []byte, timeout time.Duration) (*executor.Result, error)
}
