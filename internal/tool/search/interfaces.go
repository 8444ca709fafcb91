package search

import "os"

// fileSystem defines the filesystem operations needed by the search tools.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	ListDir(path string) ([]os.FileInfo, error)
}

// pathPolicy filters every candidate file.
type pathPolicy interface {
	Root() string
	Resolve(input string) (abs, rel string, err error)
	IsPathAllowed(rel string) bool
	MaxReadSize() int64
}

// ignoreMatcher reports whether a workspace-relative path is gitignored.
// Enter is called before a directory's children are visited.
type ignoreMatcher interface {
	ShouldIgnore(rel string, isDir bool) bool
	Enter(rel string) error
}
