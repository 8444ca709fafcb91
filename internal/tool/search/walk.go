package search

import (
	"context"
	"path"
	"path/filepath"

	"github.com/Cyclone1070/workspacerpc/internal/tool/service/git"
)

// walker enumerates workspace files in name order. It never follows symlinks,
// always skips .git, and prunes directories denied by policy or gitignore.
type walker struct {
	fs      fileSystem
	policy  pathPolicy
	ignores ignoreMatcher
}

func newWalker(fs fileSystem, policy pathPolicy, includeIgnored bool) (*walker, error) {
	var ignores ignoreMatcher = git.NoOpMatcher{}
	if !includeIgnored {
		m, err := git.NewIgnoreMatcher(policy.Root(), fs)
		if err != nil {
			return nil, err
		}
		ignores = m
	}
	return &walker{fs: fs, policy: policy, ignores: ignores}, nil
}

// walk calls visit for every allowed regular file. visit returns false to stop.
func (w *walker) walk(ctx context.Context, visit func(abs, rel string, size int64) bool) error {
	_, err := w.dir(ctx, w.policy.Root(), ".", visit)
	return err
}

func (w *walker) dir(ctx context.Context, abs, rel string, visit func(abs, rel string, size int64) bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := w.ignores.Enter(rel); err != nil {
		return false, err
	}
	children, err := w.fs.ListDir(abs)
	if err != nil {
		return false, &WalkError{Path: rel, Cause: err}
	}

	for _, child := range children {
		name := child.Name()
		childRel := path.Join(rel, name)
		childAbs := filepath.Join(abs, name)

		switch {
		case child.IsDir():
			if name == ".git" || !w.policy.IsPathAllowed(childRel) || w.ignores.ShouldIgnore(childRel, true) {
				continue
			}
			more, err := w.dir(ctx, childAbs, childRel, visit)
			if err != nil || !more {
				return more, err
			}
		case child.Mode().IsRegular():
			if !w.policy.IsPathAllowed(childRel) || w.ignores.ShouldIgnore(childRel, false) {
				continue
			}
			if !visit(childAbs, childRel, child.Size()) {
				return false, nil
			}
		}
	}
	return true, nil
}
