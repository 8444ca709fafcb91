package file

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"

	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/helper/content"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/audit"
)

// fileWriter defines the minimal filesystem operations needed for writing files.
type fileWriter interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFileAtomic(path string, content []byte, perm os.FileMode) error
	WriteFile(path string, content []byte, perm os.FileMode) error
	EnsureDirs(path string) error
}

// WriteFileTool handles fs.write.
type WriteFileTool struct {
	fileOps   fileWriter
	policy    pathPolicy
	audit     auditor
	snapshots snapshotter
}

// NewWriteFileTool creates a new WriteFileTool with injected dependencies.
func NewWriteFileTool(fileOps fileWriter, policy pathPolicy, audit auditor, snapshots snapshotter) *WriteFileTool {
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
	return &WriteFileTool{fileOps: fileOps, policy: policy, audit: audit, snapshots: snapshots}
}

// Run replaces the content of a file. With atomic (the default) the content is
// written to a sibling temp file that is renamed over the destination, so the
// destination is either fully replaced or left untouched.
//
// Note: ctx is accepted for API consistency but not used - file I/O is synchronous.
func (t *WriteFileTool) Run(ctx context.Context, req *WriteFileRequest) (*WriteFileResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	data := []byte(req.Content)
	if req.Encoding == EncodingBase64 {
		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			return nil, errutil.Invalidf("content is not valid base64: %v", err)
		}
		data = decoded
	}

	abs, rel, err := t.policy.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

	if limit := t.policy.MaxWriteSize(); int64(len(data)) > limit {
		return nil, &TooLargeError{Path: rel, Size: int64(len(data)), Limit: limit}
	}

	perm := os.FileMode(0o644)
	var oldSize int64
	var original []byte
	existed := false

	info, err := t.fileOps.Stat(abs)
	switch {
	case err == nil:
		if !info.Mode().IsRegular() {
			return nil, &NotAFileError{Path: rel}
		}
		existed = true
		perm = info.Mode().Perm()
		oldSize = info.Size()
		if original, err = t.fileOps.ReadFile(abs); err != nil {
			return nil, &ReadError{Path: rel, Cause: err}
		}
	case errors.Is(err, os.ErrNotExist):
		if !req.createIfMissing() {
			return nil, &NotFoundError{Path: rel}
		}
		parent := filepath.Dir(abs)
		if err := t.fileOps.EnsureDirs(parent); err != nil {
			return nil, &EnsureDirsError{Path: t.policy.RelOf(parent), Cause: err}
		}
	default:
		return nil, &StatError{Path: rel, Cause: err}
	}

	t.snapshots.Capture(rel, original, existed)

	if req.atomic() {
		err = t.fileOps.WriteFileAtomic(abs, data, perm)
	} else {
		err = t.fileOps.WriteFile(abs, data, perm)
	}
	if err != nil {
		return nil, &WriteError{Path: rel, Cause: err}
	}

	t.audit.Record(audit.ActionWrite, rel, oldSize, int64(len(data)))

	return &WriteFileResponse{
		Path:         rel,
		BytesWritten: len(data),
		Hash:         content.Hash(data),
		Created:      !existed,
	}, nil
}
