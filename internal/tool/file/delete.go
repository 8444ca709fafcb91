package file

import (
	"context"
	"errors"
	"os"

	"github.com/Cyclone1070/workspacerpc/internal/policy"
	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/audit"
)

// entryRemover defines the minimal filesystem operations needed for fs.delete.
type entryRemover interface {
	Lstat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	ListDir(path string) ([]os.FileInfo, error)
	Remove(path string) error
	RemoveAll(path string) error
}

// DeleteTool handles fs.delete.
type DeleteTool struct {
	fileOps   entryRemover
	policy    pathPolicy
	audit     auditor
	snapshots snapshotter
}

// NewDeleteTool creates a new DeleteTool with injected dependencies.
func NewDeleteTool(fileOps entryRemover, policy pathPolicy, audit auditor, snapshots snapshotter) *DeleteTool {
	if fileOps == nil {
		panic("fileOps is required")
	}
	if policy == nil {
		panic("policy is required")
	}
	if audit == nil {
		panic("audit is required")
	}
	if snapshots == nil {
		panic("snapshots is required")
	}
	return &DeleteTool{fileOps: fileOps, policy: policy, audit: audit, snapshots: snapshots}
}

// Run removes a file, symlink or directory. A non-empty directory is only
// removed with Recursive set and when every entry below it is allowed;
// otherwise nothing is touched.
func (t *DeleteTool) Run(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	abs, rel, err := t.policy.ResolveEntry(req.Path)
	if err != nil {
		return nil, err
	}
	if rel == "." {
		return nil, errutil.Invalid(ErrWorkspaceRoot)
	}

	if err := t.policy.CheckConfirmation(policy.OpDelete, req.Confirmed); err != nil {
		return nil, err
	}

	info, err := t.fileOps.Lstat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: rel}
		}
		return nil, &StatError{Path: rel, Cause: err}
	}

	kind := TypeFile
	var oldSize int64
	switch {
	case info.IsDir():
		kind = TypeDir
		entries, err := t.fileOps.ListDir(abs)
		if err != nil {
			return nil, &ReadError{Path: rel, Cause: err}
		}
		if len(entries) > 0 && !req.Recursive {
			return nil, &DirectoryNotEmptyError{Path: rel}
		}
		if err := checkSubtree(ctx, t.fileOps, t.policy, abs, rel, ""); err != nil {
			return nil, err
		}
		err = t.fileOps.RemoveAll(abs)
		if err != nil {
			return nil, &RemoveError{Path: rel, Cause: err}
		}
	default:
		oldSize = info.Size()
		if info.Mode().IsRegular() {
			if data, err := t.fileOps.ReadFile(abs); err == nil {
				t.snapshots.Capture(rel, data, true)
			}
		}
		if err := t.fileOps.Remove(abs); err != nil {
			return nil, &RemoveError{Path: rel, Cause: err}
		}
	}

	t.audit.Record(audit.ActionDelete, rel, oldSize, 0)

	return &DeleteResponse{Path: rel, Type: kind}, nil
}
