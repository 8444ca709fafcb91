package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned by Open when the workspace is not inside a git worktree.
var ErrNotRepository = errors.New("not a git repository")

// RepositoryError wraps failures reading repository state.
type RepositoryError struct {
	Op    string
	Cause error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("git %s failed: %v", e.Op, e.Cause)
}
func (e *RepositoryError) Unwrap() error { return e.Cause }

// Change statuses reported by Repository.Changes.
const (
	StatusModified  = "modified"
	StatusAdded     = "added"
	StatusDeleted   = "deleted"
	StatusUntracked = "untracked"
	StatusRenamed   = "renamed"
)

// Change is one path that differs between HEAD and the working tree.
type Change struct {
	Path   string // relative to the workspace root, forward slashes
	Status string
}

// Repository reads committed and working-tree state of the git repository
// containing the workspace. The workspace may be a subdirectory of the worktree.
type Repository struct {
	repo   *gogit.Repository
	prefix string // workspace root relative to the worktree root, "" when equal
}

// Open finds the repository containing workspaceRoot.
func Open(workspaceRoot string) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(workspaceRoot, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, &RepositoryError{Op: "open", Cause: err}
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree to diff against.
		return nil, ErrNotRepository
	}

	worktreeRoot, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		worktreeRoot = wt.Filesystem.Root()
	}
	rel, err := filepath.Rel(worktreeRoot, workspaceRoot)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, ErrNotRepository
	}
	prefix := filepath.ToSlash(rel)
	if prefix == "." {
		prefix = ""
	}

	return &Repository{repo: repo, prefix: prefix}, nil
}

func (r *Repository) toRepoPath(rel string) string {
	if r.prefix == "" {
		return rel
	}
	return r.prefix + "/" + rel
}

func (r *Repository) fromRepoPath(p string) (string, bool) {
	if r.prefix == "" {
		return p, true
	}
	rest, ok := strings.CutPrefix(p, r.prefix+"/")
	return rest, ok
}

// Changes lists paths under the workspace whose working-tree or staged state
// differs from HEAD. Ignored files are not reported. Results are sorted by path.
func (r *Repository) Changes() ([]Change, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, &RepositoryError{Op: "worktree", Cause: err}
	}
	status, err := wt.Status()
	if err != nil {
		return nil, &RepositoryError{Op: "status", Cause: err}
	}

	var changes []Change
	for p, st := range status {
		rel, ok := r.fromRepoPath(p)
		if !ok {
			continue
		}
		code := st.Worktree
		if code == gogit.Unmodified {
			code = st.Staging
		}
		var label string
		switch code {
		case gogit.Unmodified:
			continue
		case gogit.Untracked:
			label = StatusUntracked
		case gogit.Added:
			label = StatusAdded
		case gogit.Deleted:
			label = StatusDeleted
		case gogit.Renamed:
			label = StatusRenamed
		default:
			label = StatusModified
		}
		changes = append(changes, Change{Path: rel, Status: label})
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// HeadContent returns the committed content of a workspace-relative path.
// The boolean is false when HEAD does not exist or does not contain the path.
func (r *Repository) HeadContent(rel string) ([]byte, bool, error) {
	ref, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, false, nil
		}
		return nil, false, &RepositoryError{Op: "head", Cause: err}
	}

	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, false, &RepositoryError{Op: "commit", Cause: err}
	}

	file, err := commit.File(r.toRepoPath(rel))
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, false, nil
		}
		return nil, false, &RepositoryError{Op: "read blob", Cause: err}
	}

	data, err := file.Contents()
	if err != nil {
		return nil, false, &RepositoryError{Op: "read blob", Cause: err}
	}
	return []byte(data), true, nil
}
