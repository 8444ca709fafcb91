package path

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxSymlinkHops bounds manual resolution of dangling symlinks.
const maxSymlinkHops = 40

// Resolver confines paths to a single workspace root.
type Resolver struct {
	workspaceRoot string
}

// NewResolver returns a Resolver for a root already passed through
// CanonicaliseRoot.
func NewResolver(workspaceRoot string) *Resolver {
	return &Resolver{
		workspaceRoot: workspaceRoot,
	}
}

// Root returns the canonical workspace root.
func (r *Resolver) Root() string {
	return r.workspaceRoot
}

// CanonicaliseRoot makes root absolute, resolves its symlinks and checks that
// it is an existing directory.
func CanonicaliseRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &WorkspaceRootError{Root: root, Cause: err}
	}

	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", &WorkspaceRootError{Root: absRoot, Cause: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &WorkspaceRootError{Root: resolved, Cause: err}
	}
	if !info.IsDir() {
		return "", &WorkspaceRootError{Root: resolved, Cause: fmt.Errorf("%w: %s", ErrNotADirectory, resolved)}
	}
	return resolved, nil
}

// Abs maps path to an absolute location inside the workspace. Relative paths
// are anchored at the root. The cleaned path must not escape lexically, and
// after symlinks are resolved (dangling ones included) the real location must
// still be inside the root.
func (r *Resolver) Abs(path string) (string, error) {
	abs, err := r.lexical(path)
	if err != nil {
		return "", err
	}
	resolved, err := resolveExisting(abs)
	if err != nil {
		return "", err
	}
	if !r.within(resolved) {
		return "", &OutsideWorkspaceError{Path: path}
	}
	return resolved, nil
}

// AbsNoFollow is Abs without following the final component, so that a
// symlink itself can be removed or renamed. Parents are still resolved.
func (r *Resolver) AbsNoFollow(path string) (string, error) {
	abs, err := r.lexical(path)
	if err != nil || abs == r.workspaceRoot {
		return abs, err
	}
	parent, err := resolveExisting(filepath.Dir(abs))
	if err != nil {
		return "", err
	}
	if !r.within(parent) {
		return "", &OutsideWorkspaceError{Path: path}
	}
	return filepath.Join(parent, filepath.Base(abs)), nil
}

func (r *Resolver) lexical(path string) (string, error) {
	if r.workspaceRoot == "" {
		return "", ErrWorkspaceRootNotSet
	}
	abs := filepath.Clean(path)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.workspaceRoot, abs)
	}
	if !r.within(abs) {
		return "", &OutsideWorkspaceError{Path: path}
	}
	return abs, nil
}

// Rel resolves any path relative to the workspace root using forward slashes.
// The root itself is reported as ".".
func (r *Resolver) Rel(path string) (string, error) {
	abs, err := r.Abs(path)
	if err != nil {
		return "", err
	}
	return r.RelOf(abs), nil
}

// RelOf converts an already-validated absolute path to its workspace-relative form.
func (r *Resolver) RelOf(abs string) string {
	rel, err := filepath.Rel(r.workspaceRoot, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func (r *Resolver) within(abs string) bool {
	if abs == r.workspaceRoot {
		return true
	}
	prefix := r.workspaceRoot
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(abs, prefix)
}

// resolveExisting evaluates symlinks on the longest existing prefix of p and re-attaches the
// remaining components. Dangling symlinks are followed by hand so a link pointing outside the
// root cannot be used to create files there.
func resolveExisting(p string) (string, error) {
	var rest []string
	cur := p
	hops := 0
	for {
		real, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{real}, rest...)...), nil
		}

		if info, lerr := os.Lstat(cur); lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			hops++
			if hops > maxSymlinkHops {
				return "", &SymlinkLoopError{Path: p}
			}
			target, rerr := os.Readlink(cur)
			if rerr != nil {
				return "", rerr
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(cur), target)
			}
			cur = filepath.Clean(target)
			continue
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}
