package edit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/helper/content"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/git"
)

// Statuses reported for snapshot diffs; git diffs use the git package's labels.
const (
	StatusModified = git.StatusModified
	StatusAdded    = git.StatusAdded
	StatusDeleted  = git.StatusDeleted
)

const binaryDiff = "Binary files differ\n"

// RepositoryOpener finds the version-control repository containing the workspace.
// It returns git.ErrNotRepository when there is none.
type RepositoryOpener func(root string) (Repository, error)

// OpenGitRepository is the production RepositoryOpener.
func OpenGitRepository(root string) (Repository, error) {
	repo, err := git.Open(root)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// DiffTool handles fs.diff.
type DiffTool struct {
	fileOps   fileSystem
	policy    pathPolicy
	snapshots snapshotSource
	openRepo  RepositoryOpener
}

// NewDiffTool creates a new DiffTool with injected dependencies.
func NewDiffTool(fileOps fileSystem, policy pathPolicy, snapshots snapshotSource, openRepo RepositoryOpener) *DiffTool {
	if fileOps == nil {
		panic("fileOps is required")
	}
	if policy == nil {
		panic("policy is required")
	}
	if snapshots == nil {
		panic("snapshots is required")
	}
	if openRepo == nil {
		panic("openRepo is required")
	}
	return &DiffTool{fileOps: fileOps, policy: policy, snapshots: snapshots, openRepo: openRepo}
}

// Run diffs the working tree against HEAD when the workspace is inside a git
// repository, and otherwise against the originals captured by edit operations
// during this server's lifetime.
//
// Note: ctx is accepted for API consistency but not used - file I/O is synchronous.
func (t *DiffTool) Run(ctx context.Context, req *DiffRequest) (*DiffResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	base := ""
	if req.BasePath != "" {
		_, rel, err := t.policy.Resolve(req.BasePath)
		if err != nil {
			return nil, err
		}
		if rel != "." {
			base = rel
		}
	}
	selected := func(rel string) bool {
		return underBase(base, rel) && t.policy.IsPathAllowed(rel) && matchGlobs(req.IncludeGlobs, req.ExcludeGlobs, rel)
	}

	repo, err := t.openRepo(t.policy.Root())
	switch {
	case err == nil:
		return t.gitDiff(repo, selected)
	case errors.Is(err, git.ErrNotRepository):
		return t.snapshotDiff(selected)
	default:
		return nil, err
	}
}

func (t *DiffTool) gitDiff(repo Repository, selected func(string) bool) (*DiffResponse, error) {
	changes, err := repo.Changes()
	if err != nil {
		return nil, err
	}

	resp := &DiffResponse{Source: SourceGit, Files: []FileDiff{}}
	for _, c := range changes {
		if !selected(c.Path) {
			continue
		}
		old, oldExists, err := repo.HeadContent(c.Path)
		if err != nil {
			return nil, err
		}
		current, newExists, err := t.readCurrent(c.Path)
		if err != nil {
			return nil, err
		}
		resp.add(c.Path, c.Status, old, current, oldExists, newExists)
	}
	return resp, nil
}

func (t *DiffTool) snapshotDiff(selected func(string) bool) (*DiffResponse, error) {
	resp := &DiffResponse{Source: SourceSnapshot, Files: []FileDiff{}}
	for _, rel := range t.snapshots.Paths() {
		if !selected(rel) {
			continue
		}
		snap, _ := t.snapshots.Get(rel)
		current, exists, err := t.readCurrent(rel)
		if err != nil {
			return nil, err
		}

		var status string
		switch {
		case !snap.Existed && !exists:
			continue
		case !snap.Existed:
			status = StatusAdded
		case !exists:
			status = StatusDeleted
		case string(snap.Content) == string(current):
			continue
		default:
			status = StatusModified
		}
		resp.add(rel, status, snap.Content, current, snap.Existed, exists)
	}
	return resp, nil
}

func (r *DiffResponse) add(rel, status string, old, current []byte, oldExists, newExists bool) {
	var diff string
	if content.IsBinaryContent(old) || content.IsBinaryContent(current) {
		diff = binaryDiff
	} else {
		diff, _, _ = unifiedDiff(rel, string(old), string(current), oldExists, newExists)
	}
	r.Files = append(r.Files, FileDiff{Path: rel, Status: status, Diff: diff})
	r.Diff += diff
}

// readCurrent returns the working-tree content of rel; a missing file is not an error.
func (t *DiffTool) readCurrent(rel string) ([]byte, bool, error) {
	abs := filepath.Join(t.policy.Root(), filepath.FromSlash(rel))
	info, err := t.fileOps.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &StatError{Path: rel, Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, false, nil
	}
	if limit := t.policy.MaxReadSize(); info.Size() > limit {
		return nil, false, &TooLargeError{Path: rel, Size: info.Size(), Limit: limit}
	}
	data, err := t.fileOps.ReadFile(abs)
	if err != nil {
		return nil, false, &ReadError{Path: rel, Cause: err}
	}
	return data, true, nil
}

func underBase(base, rel string) bool {
	return base == "" || rel == base || strings.HasPrefix(rel, base+"/")
}

func matchGlobs(include, exclude []string, rel string) bool {
	for _, g := range exclude {
		if ok, _ := doublestar.Match(g, rel); ok {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, g := range include {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}
