package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/audit"
)

// entryMover defines the minimal filesystem operations needed for fs.move.
type entryMover interface {
	Lstat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	ListDir(path string) ([]os.FileInfo, error)
	EnsureDirs(path string) error
	Rename(oldpath, newpath string) error
}

// MoveTool handles fs.move.
type MoveTool struct {
	fileOps   entryMover
	policy    pathPolicy
	audit     auditor
	snapshots snapshotter
}

// NewMoveTool creates a new MoveTool with injected dependencies.
func NewMoveTool(fileOps entryMover, policy pathPolicy, audit auditor, snapshots snapshotter) *MoveTool {
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
	return &MoveTool{fileOps: fileOps, policy: policy, audit: audit, snapshots: snapshots}
}

// Run renames src to dst in a single rename. Both paths are policy checked
// before anything is inspected; a directory is moved only when every entry
// below it is allowed at both its old and its new location.
func (t *MoveTool) Run(ctx context.Context, req *MoveRequest) (*MoveResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	srcAbs, srcRel, err := t.policy.ResolveEntry(req.Src)
	if err != nil {
		return nil, err
	}
	dstAbs, dstRel, err := t.policy.ResolveEntry(req.Dst)
	if err != nil {
		return nil, err
	}
	if srcRel == "." || dstRel == "." {
		return nil, errutil.Invalid(ErrWorkspaceRoot)
	}

	srcInfo, err := t.fileOps.Lstat(srcAbs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: srcRel}
		}
		return nil, &StatError{Path: srcRel, Cause: err}
	}

	if srcAbs == dstAbs {
		return &MoveResponse{Src: srcRel, Dst: dstRel}, nil
	}
	if srcInfo.IsDir() {
		if err := checkSubtree(ctx, t.fileOps, t.policy, srcAbs, srcRel, dstRel); err != nil {
			return nil, err
		}
	}

	var dstOriginal []byte
	dstExisted := false
	if dstInfo, err := t.fileOps.Lstat(dstAbs); err == nil {
		if !req.Overwrite {
			return nil, &AlreadyExistsError{Path: dstRel}
		}
		dstExisted = true
		if dstInfo.Mode().IsRegular() {
			dstOriginal, _ = t.fileOps.ReadFile(dstAbs)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, &StatError{Path: dstRel, Cause: err}
	}

	parent := filepath.Dir(dstAbs)
	if err := t.fileOps.EnsureDirs(parent); err != nil {
		return nil, &EnsureDirsError{Path: t.policy.RelOf(parent), Cause: err}
	}

	if srcInfo.Mode().IsRegular() {
		if data, err := t.fileOps.ReadFile(srcAbs); err == nil {
			t.snapshots.Capture(srcRel, data, true)
		}
		t.snapshots.Capture(dstRel, dstOriginal, dstExisted)
	}

	if err := t.fileOps.Rename(srcAbs, dstAbs); err != nil {
		return nil, &RenameError{Src: srcRel, Dst: dstRel, Cause: err}
	}

	t.audit.Record(audit.ActionMove, srcRel+" -> "+dstRel, srcInfo.Size(), srcInfo.Size())

	return &MoveResponse{Src: srcRel, Dst: dstRel}, nil
}
