package edit

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/helper/content"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/audit"
)

// BatchEditTool handles code.batchEdit.
type BatchEditTool struct {
	fileOps   fileSystem
	policy    pathPolicy
	audit     auditor
	snapshots snapshotter
}

// NewBatchEditTool creates a new BatchEditTool with injected dependencies.
func NewBatchEditTool(fileOps fileSystem, policy pathPolicy, audit auditor, snapshots snapshotter) *BatchEditTool {
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
	return &BatchEditTool{fileOps: fileOps, policy: policy, audit: audit, snapshots: snapshots}
}

// plannedEdit is the in-memory result of applying every operation for one file.
type plannedEdit struct {
	abs      string
	rel      string
	perm     os.FileMode
	original []byte
	updated  []byte
}

// Run applies snippet replacements to existing files. Every edit is resolved
// and applied in memory first; nothing is written unless all of them succeed.
// Several edits naming the same file apply in order to the same content.
//
// Note: ctx is accepted for API consistency but not used - file I/O is synchronous.
func (t *BatchEditTool) Run(ctx context.Context, req *BatchEditRequest) (*BatchEditResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	var plans []*plannedEdit
	byPath := make(map[string]*plannedEdit)
	for _, e := range req.Edits {
		abs, rel, err := t.policy.Resolve(e.Path)
		if err != nil {
			return nil, err
		}
		plan, ok := byPath[abs]
		if !ok {
			plan, err = t.load(abs, rel)
			if err != nil {
				return nil, err
			}
			byPath[abs] = plan
			plans = append(plans, plan)
		}
		updated, err := applyOperations(rel, string(plan.updated), e.Operations)
		if err != nil {
			return nil, err
		}
		plan.updated = []byte(updated)
	}

	limit := t.policy.MaxWriteSize()
	for _, plan := range plans {
		if size := int64(len(plan.updated)); size > limit {
			return nil, &TooLargeError{Path: plan.rel, Size: size, Limit: limit}
		}
	}

	resp := &BatchEditResponse{DryRun: req.DryRun, Files: make([]FileChange, 0, len(plans))}
	for _, plan := range plans {
		change := describeChange(plan.rel, plan.original, plan.updated, true, true)
		if !req.DryRun && change.Change != ChangeUnchanged {
			t.snapshots.Capture(plan.rel, plan.original, true)
			if err := t.fileOps.WriteFileAtomic(plan.abs, plan.updated, plan.perm); err != nil {
				return nil, &WriteError{Path: plan.rel, Cause: err}
			}
			t.audit.Record(audit.ActionBatchEdit, plan.rel, change.OldSize, change.NewSize)
		}
		resp.Files = append(resp.Files, change)
	}
	return resp, nil
}

func (t *BatchEditTool) load(abs, rel string) (*plannedEdit, error) {
	info, err := t.fileOps.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: rel}
		}
		return nil, &StatError{Path: rel, Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &NotAFileError{Path: rel}
	}
	if limit := t.policy.MaxReadSize(); info.Size() > limit {
		return nil, &TooLargeError{Path: rel, Size: info.Size(), Limit: limit}
	}
	data, err := t.fileOps.ReadFile(abs)
	if err != nil {
		return nil, &ReadError{Path: rel, Cause: err}
	}
	if content.IsBinaryContent(data) {
		return nil, &NotTextError{Path: rel}
	}
	return &plannedEdit{abs: abs, rel: rel, perm: info.Mode().Perm(), original: data, updated: data}, nil
}

// applyOperations runs snippet replacements on normalized (LF) content and
// restores CRLF line endings when the input used them.
func applyOperations(rel, raw string, ops []Operation) (string, error) {
	hasCRLF := content.HasCRLF(raw)
	text := content.NormalizeNewlines(raw)

	for _, op := range ops {
		before := content.NormalizeNewlines(op.Before)
		after := content.NormalizeNewlines(op.After)
		expected := op.ExpectedReplacements
		if expected == 0 {
			expected = 1
		}

		// Empty Before appends; the end of file is a single target.
		if before == "" {
			if expected != 1 {
				return "", &ReplacementCountError{Path: rel, Expected: expected, Found: 1}
			}
			text += after
			continue
		}

		count := strings.Count(text, before)
		if count == 0 {
			return "", &SnippetNotFoundError{Path: rel, Snippet: op.Before}
		}
		if count != expected {
			return "", &ReplacementCountError{Path: rel, Expected: expected, Found: count}
		}
		text = strings.Replace(text, before, after, expected)
	}

	if hasCRLF {
		text = content.RestoreCRLF(text)
	}
	return text, nil
}
