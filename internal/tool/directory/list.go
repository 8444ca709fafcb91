package directory

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Cyclone1070/workspacerpc/internal/config"
	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
)

// fileSystem defines the filesystem operations needed for listing.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ListDir(path string) ([]os.FileInfo, error)
}

// pathPolicy resolves the listed path and filters every entry.
type pathPolicy interface {
	Resolve(input string) (abs, rel string, err error)
	IsPathAllowed(rel string) bool
}

// ListDirectoryTool handles fs.list.
type ListDirectoryTool struct {
	fs     fileSystem
	policy pathPolicy
	config *config.Config
}

// NewListDirectoryTool creates a new ListDirectoryTool with injected dependencies.
func NewListDirectoryTool(fs fileSystem, policy pathPolicy, cfg *config.Config) *ListDirectoryTool {
	if fs == nil {
		panic("fs is required")
	}
	if policy == nil {
		panic("policy is required")
	}
	if cfg == nil {
		panic("config is required")
	}
	return &ListDirectoryTool{fs: fs, policy: policy, config: cfg}
}

// Run enumerates the children of a directory in name order. With Recursive set,
// each subdirectory's listing follows its own entry (depth first) under the same
// cap and policy filtering. Symlinked directories are reported but not entered.
func (t *ListDirectoryTool) Run(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	target := req.Path
	if target == "" {
		target = "."
	}
	abs, rel, err := t.policy.Resolve(target)
	if err != nil {
		return nil, err
	}

	info, err := t.fs.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: rel}
		}
		return nil, &ListDirError{Path: rel, Cause: err}
	}
	if !info.IsDir() {
		return nil, &NotADirectoryError{Path: rel}
	}

	maxEntries := req.MaxEntries
	if maxEntries == 0 || maxEntries > t.config.Tools.MaxListEntries {
		maxEntries = t.config.Tools.MaxListEntries
	}

	l := &lister{
		tool:       t,
		base:       rel,
		globs:      req.Globs,
		recursive:  req.Recursive,
		maxEntries: maxEntries,
		entries:    []Entry{},
	}
	if err := l.walk(ctx, abs, rel); err != nil {
		return nil, err
	}

	return &ListResponse{
		Path:      rel,
		Entries:   l.entries,
		Truncated: l.truncated,
	}, nil
}

type lister struct {
	tool       *ListDirectoryTool
	base       string
	globs      []string
	recursive  bool
	maxEntries int

	entries   []Entry
	truncated bool
}

func (l *lister) walk(ctx context.Context, abs, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	children, err := l.tool.fs.ListDir(abs)
	if err != nil {
		return &ListDirError{Path: rel, Cause: err}
	}

	for _, child := range children {
		if len(l.entries) >= l.maxEntries {
			l.truncated = true
			return nil
		}

		childRel := path.Join(rel, child.Name())
		if !l.tool.policy.IsPathAllowed(childRel) {
			continue
		}

		if l.matches(childRel) {
			l.entries = append(l.entries, Entry{
				Path:    childRel,
				Name:    child.Name(),
				Type:    entryType(child.Mode()),
				Size:    child.Size(),
				ModTime: child.ModTime().UTC(),
			})
		}

		if l.recursive && child.IsDir() {
			if err := l.walk(ctx, filepath.Join(abs, child.Name()), childRel); err != nil {
				return err
			}
			if l.truncated {
				return nil
			}
		}
	}
	return nil
}

// matches applies the request globs to the path relative to the listed directory.
func (l *lister) matches(rel string) bool {
	if len(l.globs) == 0 {
		return true
	}
	local := rel
	if l.base != "." {
		local = rel[len(l.base)+1:]
	}
	for _, g := range l.globs {
		if ok, _ := doublestar.Match(g, local); ok {
			return true
		}
	}
	return false
}

func entryType(mode os.FileMode) string {
	switch {
	case mode.IsDir():
		return TypeDir
	case mode&os.ModeSymlink != 0:
		return TypeSymlink
	case mode.IsRegular():
		return TypeFile
	default:
		return TypeOther
	}
}
