package edit

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Cyclone1070/workspacerpc/internal/config"
	"github.com/Cyclone1070/workspacerpc/internal/policy"
	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/audit"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/executor"
)

const patchTool = "git"

// ApplyPatchTool handles fs.applyPatch.
type ApplyPatchTool struct {
	fileOps   fileSystem
	policy    pathPolicy
	runner    commandRunner
	audit     auditor
	snapshots snapshotter
	config    *config.Config
	lookPath  func(name string) (string, error)
}

// NewApplyPatchTool creates a new ApplyPatchTool with injected dependencies.
func NewApplyPatchTool(
	fileOps fileSystem,
	policy pathPolicy,
	runner commandRunner,
	audit auditor,
	snapshots snapshotter,
	cfg *config.Config,
) *ApplyPatchTool {
	if fileOps == nil {
		panic("fileOps is required")
	}
	if policy == nil {
		panic("policy is required")
	}
	if runner == nil {
		panic("runner is required")
	}
	if audit == nil {
		panic("audit is required")
	}
	if snapshots == nil {
		panic("snapshots is required")
	}
	if cfg == nil {
		panic("config is required")
	}
	return &ApplyPatchTool{
		fileOps:   fileOps,
		policy:    policy,
		runner:    runner,
		audit:     audit,
		snapshots: snapshots,
		config:    cfg,
		lookPath:  executor.LookPath,
	}
}

// patchFile is one target of a patch in the workspace and in the scratch copy.
type patchFile struct {
	name      string // as named by the patch, after prefix stripping
	abs       string
	rel       string
	perm      os.FileMode
	old       []byte
	oldExists bool
	updated   []byte
	newExists bool
}

// Run applies a unified patch. Every path the patch names is checked against
// policy before the patch tool runs. The patch is applied by git to a scratch
// copy of the targets, and only the resulting target contents are copied back
// into the workspace, so the patch tool never writes to the workspace itself.
// Without a git binary the call fails; it never reports success unapplied.
func (t *ApplyPatchTool) Run(ctx context.Context, req *ApplyPatchRequest) (*ApplyPatchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	targets, err := parsePatchTargets(req.Patch)
	if err != nil {
		return nil, errutil.Invalid(err)
	}

	files := make([]*patchFile, 0, len(targets.names))
	for _, name := range targets.names {
		abs, rel, err := t.policy.Resolve(name)
		if err != nil {
			return nil, err
		}
		files = append(files, &patchFile{name: name, abs: abs, rel: rel, perm: 0o644})
	}

	if !req.DryRun {
		if err := t.policy.CheckConfirmation(policy.OpApplyPatch, req.Confirmed); err != nil {
			return nil, err
		}
	}

	gitPath, err := t.lookPath(patchTool)
	if err != nil {
		return nil, &PatchToolUnavailableError{Tool: patchTool, Cause: err}
	}

	for _, f := range files {
		if err := t.loadOriginal(f); err != nil {
			return nil, err
		}
	}

	scratch, err := os.MkdirTemp("", "workspacerpc-patch-")
	if err != nil {
		return nil, &ScratchError{Cause: err}
	}
	defer os.RemoveAll(scratch)

	if err := stage(scratch, files); err != nil {
		return nil, err
	}
	if err := t.runPatchTool(ctx, gitPath, scratch, targets.strip, req.Patch); err != nil {
		return nil, err
	}
	if err := collect(scratch, files); err != nil {
		return nil, err
	}

	limit := t.policy.MaxWriteSize()
	resp := &ApplyPatchResponse{DryRun: req.DryRun, Files: make([]FileChange, 0, len(files))}
	changes := make([]FileChange, len(files))
	for i, f := range files {
		if size := int64(len(f.updated)); size > limit {
			return nil, &TooLargeError{Path: f.rel, Size: size, Limit: limit}
		}
		changes[i] = describeChange(f.rel, f.old, f.updated, f.oldExists, f.newExists)
	}

	for i, f := range files {
		change := changes[i]
		if !req.DryRun && change.Change != ChangeUnchanged {
			if err := t.commit(f); err != nil {
				return nil, err
			}
			t.audit.Record(audit.ActionApplyPatch, f.rel, change.OldSize, change.NewSize)
		}
		resp.Files = append(resp.Files, change)
		resp.Diff += change.Diff
	}
	return resp, nil
}

func (t *ApplyPatchTool) loadOriginal(f *patchFile) error {
	info, err := t.fileOps.Stat(f.abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &StatError{Path: f.rel, Cause: err}
	}
	if !info.Mode().IsRegular() {
		return &NotAFileError{Path: f.rel}
	}
	if limit := t.policy.MaxReadSize(); info.Size() > limit {
		return &TooLargeError{Path: f.rel, Size: info.Size(), Limit: limit}
	}
	data, err := t.fileOps.ReadFile(f.abs)
	if err != nil {
		return &ReadError{Path: f.rel, Cause: err}
	}
	f.old, f.oldExists, f.perm = data, true, info.Mode().Perm()
	return nil
}

// runPatchTool checks and then applies the patch inside scratch.
func (t *ApplyPatchTool) runPatchTool(ctx context.Context, gitPath, scratch string, strip int, patch string) error {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + scratch,
		"LC_ALL=C",
		"GIT_CEILING_DIRECTORIES=" + filepath.Dir(scratch),
		"GIT_CONFIG_NOSYSTEM=1",
	}
	timeout := time.Duration(t.config.Tools.DefaultCommandTimeout) * time.Second
	p := "-p" + strconv.Itoa(strip)

	for _, args := range [][]string{
		{gitPath, "apply", "--check", p, "-"},
		{gitPath, "apply", p, "-"},
	} {
		res, err := t.runner.RunWithInput(ctx, args, scratch, env, []byte(patch), timeout)
		if err != nil {
			if executor.IsExitError(err) && res != nil {
				return &PatchRejectedError{Output: strings.TrimSpace(res.Stderr)}
			}
			return &PatchToolError{Cause: err}
		}
	}
	return nil
}

// commit writes or removes one target in the workspace.
func (t *ApplyPatchTool) commit(f *patchFile) error {
	t.snapshots.Capture(f.rel, f.old, f.oldExists)
	if !f.newExists {
		if err := t.fileOps.Remove(f.abs); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &RemoveError{Path: f.rel, Cause: err}
		}
		return nil
	}
	if err := t.fileOps.EnsureDirs(filepath.Dir(f.abs)); err != nil {
		return &WriteError{Path: f.rel, Cause: err}
	}
	if err := t.fileOps.WriteFileAtomic(f.abs, f.updated, f.perm); err != nil {
		return &WriteError{Path: f.rel, Cause: err}
	}
	return nil
}

// stage copies the current content of every existing target into scratch.
func stage(scratch string, files []*patchFile) error {
	for _, f := range files {
		if !f.oldExists {
			continue
		}
		dst := filepath.Join(scratch, filepath.FromSlash(f.name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return &ScratchError{Cause: err}
		}
		if err := os.WriteFile(dst, f.old, 0o644); err != nil {
			return &ScratchError{Cause: err}
		}
	}
	return nil
}

// collect reads every target back from scratch and rejects patches that
// produced files under names the policy never saw.
func collect(scratch string, files []*patchFile) error {
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f.name] = true
		data, err := os.ReadFile(filepath.Join(scratch, filepath.FromSlash(f.name)))
		switch {
		case err == nil:
			f.updated, f.newExists = data, true
		case errors.Is(err, os.ErrNotExist):
		default:
			return &ScratchError{Cause: err}
		}
	}

	return filepath.WalkDir(scratch, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return &ScratchError{Cause: err}
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(scratch, p)
		if err != nil {
			return &ScratchError{Cause: err}
		}
		if !known[filepath.ToSlash(rel)] {
			return &PatchRejectedError{Output: "patch writes unlisted path " + filepath.ToSlash(rel)}
		}
		return nil
	})
}
