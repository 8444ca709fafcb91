package fs

import (
	"errors"
	"os"
	"path/filepath"
)

// OSFileSystem is the os-package backed filesystem every tool writes
// through. Callers pass absolute paths already confined by a path.Resolver.
type OSFileSystem struct{}

func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// Stat follows symlinks.
func (*OSFileSystem) Stat(path string) (os.FileInfo, error) { return os.Stat(path) }

// Lstat describes a symlink itself.
func (*OSFileSystem) Lstat(path string) (os.FileInfo, error) { return os.Lstat(path) }

func (*OSFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// WriteFileAtomic stages content in a hidden sibling of path, syncs it, applies
// perm and renames it over path. Readers observe the old bytes or the new
// bytes, never a mix. The staging file is removed on any failure.
func (*OSFileSystem) WriteFileAtomic(path string, content []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &AtomicWriteError{Path: path, Stage: StageCreateTemp, Cause: err}
	}
	staged := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if err != nil {
			_ = os.Remove(staged)
		}
	}()

	steps := []struct {
		stage string
		run   func() error
	}{
		{StageWriteTemp, func() error { _, err := tmp.Write(content); return err }},
		{StageSync, tmp.Sync},
		{StageClose, func() error { closed = true; return tmp.Close() }},
		{StageChmod, func() error { return os.Chmod(staged, perm) }},
		{StageRename, func() error { return os.Rename(staged, path) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return &AtomicWriteError{Path: path, Stage: step.stage, Cause: err}
		}
	}
	return nil
}

// WriteFile writes content in place, truncating any existing file.
func (*OSFileSystem) WriteFile(path string, content []byte, perm os.FileMode) error {
	return os.WriteFile(path, content, perm)
}

// CreateExclusive creates an empty file, failing with os.ErrExist if path already exists.
func (*OSFileSystem) CreateExclusive(path string, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	return f.Close()
}

// EnsureDirs creates a directory and its parents if they don't exist.
func (*OSFileSystem) EnsureDirs(path string) error {
	return os.MkdirAll(path, 0o755)
}

// Mkdir creates a single directory.
func (*OSFileSystem) Mkdir(path string) error {
	return os.Mkdir(path, 0o755)
}

// Remove removes a file or an empty directory.
func (*OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll removes path and everything below it.
func (*OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Rename moves oldpath to newpath in a single rename(2).
func (*OSFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// ListDir returns Lstat-style entries sorted by name. Entries removed between
// the directory read and their stat are skipped.
func (*OSFileSystem) ListDir(path string) ([]os.FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	infos := make([]os.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			infos = append(infos, info)
		}
	}
	return infos, nil
}
