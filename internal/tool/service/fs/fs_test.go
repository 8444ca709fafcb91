package fs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
)

func TestWriteFileAtomic(t *testing.T) {
	fsys := NewOSFileSystem()

	t.Run("creates new file", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "out.txt")

		require.NoError(t, fsys.WriteFileAtomic(target, []byte("hello"), 0o644))

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))
	})

	t.Run("replaces existing content and leaves no temp files", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "out.txt")
		require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

		require.NoError(t, fsys.WriteFileAtomic(target, []byte("new"), 0o644))

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("rename failure keeps destination and removes temp file", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("rename semantics differ on windows")
		}
		dir := t.TempDir()
		// A non-empty directory cannot be replaced by a file rename.
		target := filepath.Join(dir, "busy")
		require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0o755))

		err := fsys.WriteFileAtomic(target, []byte("x"), 0o644)
		var writeErr *AtomicWriteError
		require.ErrorAs(t, err, &writeErr)
		assert.Equal(t, StageRename, writeErr.Stage)
		assert.Equal(t, target, writeErr.Path)

		info, statErr := os.Stat(target)
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temp file should have been cleaned up")
	})

	t.Run("missing directory fails before touching anything", func(t *testing.T) {
		dir := t.TempDir()
		err := fsys.WriteFileAtomic(filepath.Join(dir, "missing", "out.txt"), []byte("x"), 0o644)
		var writeErr *AtomicWriteError
		require.ErrorAs(t, err, &writeErr)
		assert.Equal(t, StageCreateTemp, writeErr.Stage)
		assert.True(t, errutil.IsIOError(err))
	})
}

func TestListDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "c"), 0o755))

	infos, err := NewOSFileSystem().ListDir(dir)
	require.NoError(t, err)

	var names []string
	for _, info := range infos {
		names = append(names, info.Name())
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "c"}, names)
}

func TestCreateExclusive(t *testing.T) {
	fsys := NewOSFileSystem()
	path := filepath.Join(t.TempDir(), "new.txt")

	require.NoError(t, fsys.CreateExclusive(path, 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())

	err = fsys.CreateExclusive(path, 0o644)
	assert.True(t, errors.Is(err, os.ErrExist))
}
