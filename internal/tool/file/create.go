package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/audit"
)

// entryCreator defines the minimal filesystem operations needed for fs.create.
type entryCreator interface {
	Lstat(path string) (os.FileInfo, error)
	CreateExclusive(path string, perm os.FileMode) error
	Mkdir(path string) error
	EnsureDirs(path string) error
}

// CreateTool handles fs.create.
type CreateTool struct {
	fileOps   entryCreator
	policy    pathPolicy
	audit     auditor
	snapshots snapshotter
}

// NewCreateTool creates a new CreateTool with injected dependencies.
func NewCreateTool(fileOps entryCreator, policy pathPolicy, audit auditor, snapshots snapshotter) *CreateTool {
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
	return &CreateTool{fileOps: fileOps, policy: policy, audit: audit, snapshots: snapshots}
}

// Run creates an empty file or a directory. It fails if anything already
// exists at the path, including a dangling symlink.
func (t *CreateTool) Run(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	abs, rel, err := t.policy.ResolveEntry(req.Path)
	if err != nil {
		return nil, err
	}

	if _, err := t.fileOps.Lstat(abs); err == nil {
		return nil, &AlreadyExistsError{Path: rel}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, &StatError{Path: rel, Cause: err}
	}

	if req.CreateParents == nil || *req.CreateParents {
		parent := filepath.Dir(abs)
		if err := t.fileOps.EnsureDirs(parent); err != nil {
			return nil, &EnsureDirsError{Path: t.policy.RelOf(parent), Cause: err}
		}
	}

	kind := req.entryType()
	if kind == TypeDir {
		err = t.fileOps.Mkdir(abs)
	} else {
		err = t.fileOps.CreateExclusive(abs, 0o644)
	}
	if err != nil {
		switch {
		case errors.Is(err, os.ErrExist):
			return nil, &AlreadyExistsError{Path: rel}
		case errors.Is(err, os.ErrNotExist):
			return nil, &NotFoundError{Path: t.policy.RelOf(filepath.Dir(abs))}
		}
		return nil, &WriteError{Path: rel, Cause: err}
	}

	if kind == TypeFile {
		t.snapshots.Capture(rel, nil, false)
	}
	t.audit.Record(audit.ActionCreate, rel, 0, 0)

	return &CreateResponse{Path: rel, Type: kind}, nil
}
