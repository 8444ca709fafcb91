package edit

import (
	"context"
	"errors"
	"go/format"
	"os"
	"path"
	"strings"

	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/helper/content"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/audit"
)

// FormatTool handles code.format. Go sources are run through gofmt; every
// other text file only has trailing whitespace trimmed and a single final
// newline enforced. It is not a language-aware formatter.
type FormatTool struct {
	fileOps   fileSystem
	policy    pathPolicy
	audit     auditor
	snapshots snapshotter
}

// NewFormatTool creates a new FormatTool with injected dependencies.
func NewFormatTool(fileOps fileSystem, policy pathPolicy, audit auditor, snapshots snapshotter) *FormatTool {
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
	return &FormatTool{fileOps: fileOps, policy: policy, audit: audit, snapshots: snapshots}
}

// Run formats one file and writes it back unless DryRun is set or nothing changed.
//
// Note: ctx is accepted for API consistency but not used - file I/O is synchronous.
func (t *FormatTool) Run(ctx context.Context, req *FormatRequest) (*FormatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	abs, rel, err := t.policy.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

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

	original, err := t.fileOps.ReadFile(abs)
	if err != nil {
		return nil, &ReadError{Path: rel, Cause: err}
	}
	if content.IsBinaryContent(original) {
		return nil, &NotTextError{Path: rel}
	}

	formatted, err := formatSource(rel, original)
	if err != nil {
		return nil, err
	}

	change := describeChange(rel, original, formatted, true, true)
	resp := &FormatResponse{Path: rel, DryRun: req.DryRun, Changed: change.Change != ChangeUnchanged, Diff: change.Diff}
	if !resp.Changed || req.DryRun {
		return resp, nil
	}

	if limit := t.policy.MaxWriteSize(); int64(len(formatted)) > limit {
		return nil, &TooLargeError{Path: rel, Size: int64(len(formatted)), Limit: limit}
	}
	t.snapshots.Capture(rel, original, true)
	if err := t.fileOps.WriteFileAtomic(abs, formatted, info.Mode().Perm()); err != nil {
		return nil, &WriteError{Path: rel, Cause: err}
	}
	t.audit.Record(audit.ActionFormat, rel, change.OldSize, change.NewSize)
	return resp, nil
}

func formatSource(rel string, src []byte) ([]byte, error) {
	if path.Ext(rel) == ".go" {
		out, err := format.Source(src)
		if err != nil {
			return nil, &FormatError{Path: rel, Cause: err}
		}
		return out, nil
	}
	return trimWhitespace(string(src)), nil
}

// trimWhitespace strips trailing spaces and tabs from every line, drops
// trailing blank lines, and ends non-empty content with exactly one newline.
// CRLF files keep CRLF.
func trimWhitespace(raw string) []byte {
	newline := "\n"
	if content.HasCRLF(raw) {
		newline = "\r\n"
	}
	lines := content.SplitLines(raw)
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(lines, newline) + newline)
}
