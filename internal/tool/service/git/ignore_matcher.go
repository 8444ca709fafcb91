package git

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/Cyclone1070/workspacerpc/internal/tool/helper/content"
)

// GitignoreReadError is returned when an ignore file exists but cannot be read.
type GitignoreReadError struct {
	Path  string
	Cause error
}

func (e *GitignoreReadError) Error() string {
	return fmt.Sprintf("read ignore file %s: %v", e.Path, e.Cause)
}
func (e *GitignoreReadError) Unwrap() error { return e.Cause }

type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// IgnoreMatcher answers gitignore queries for one workspace. It starts with
// .git/info/exclude and the root .gitignore; nested .gitignore files are
// added through Enter as a walk descends.
type IgnoreMatcher struct {
	root     string
	fs       fileSystem
	patterns []gitignore.Pattern
	matcher  gitignore.Matcher
}

// NewIgnoreMatcher loads the workspace-level ignore files under root. Missing
// files are not an error.
func NewIgnoreMatcher(root string, fs fileSystem) (*IgnoreMatcher, error) {
	if root == "" {
		panic("root is required")
	}
	if fs == nil {
		panic("fs is required")
	}
	m := &IgnoreMatcher{root: root, fs: fs}
	if err := m.load(filepath.Join(root, ".git", "info", "exclude"), nil); err != nil {
		return nil, err
	}
	if err := m.load(filepath.Join(root, ".gitignore"), nil); err != nil {
		return nil, err
	}
	return m, nil
}

// Enter loads rel/.gitignore, scoping its patterns to rel.
func (m *IgnoreMatcher) Enter(rel string) error {
	domain := splitPath(rel)
	if len(domain) == 0 {
		return nil
	}
	return m.load(filepath.Join(m.root, filepath.FromSlash(strings.Join(domain, "/")), ".gitignore"), domain)
}

func (m *IgnoreMatcher) load(file string, domain []string) error {
	if _, err := m.fs.Stat(file); err != nil {
		return nil
	}
	data, err := m.fs.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &GitignoreReadError{Path: file, Cause: err}
	}

	before := len(m.patterns)
	for _, line := range content.SplitLines(string(data)) {
		line = strings.TrimRight(line, " \t")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, gitignore.ParsePattern(line, domain))
	}
	if len(m.patterns) != before {
		m.matcher = gitignore.NewMatcher(m.patterns)
	}
	return nil
}

// ShouldIgnore reports whether rel matches the loaded patterns. isDir must be
// true for directories so that "dir/" patterns apply. The root is never
// ignored.
func (m *IgnoreMatcher) ShouldIgnore(rel string, isDir bool) bool {
	if m == nil || m.matcher == nil {
		return false
	}
	segments := splitPath(rel)
	if len(segments) == 0 {
		return false
	}
	return m.matcher.Match(segments, isDir)
}

// splitPath turns a slash or OS path into segments, dropping empty and "."
// parts.
func splitPath(p string) []string {
	var segments []string
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}

// NoOpMatcher never ignores anything. Used when a request asks to include
// ignored files.
type NoOpMatcher struct{}

func (NoOpMatcher) ShouldIgnore(string, bool) bool { return false }

func (NoOpMatcher) Enter(string) error { return nil }
