package file

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/workspacerpc/internal/policy"
	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
)

func TestMove(t *testing.T) {
	ctx := context.Background()

	t.Run("rename into new directory", func(t *testing.T) {
		w := newWorkspace(t, nil)
		w.writeFile(t, "old.txt", "payload")

		resp, err := w.moveTool().Run(ctx, &MoveRequest{Src: "old.txt", Dst: "archive/new.txt"})
		require.NoError(t, err)
		assert.Equal(t, "old.txt", resp.Src)
		assert.Equal(t, "archive/new.txt", resp.Dst)
		assert.NoFileExists(t, w.abs("old.txt"))

		data, err := os.ReadFile(w.abs("archive/new.txt"))
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))

		entries := w.auditEntries(t)
		require.Len(t, entries, 1)
		assert.Equal(t, "old.txt -> archive/new.txt", entries[0].File)
	})

	t.Run("missing source", func(t *testing.T) {
		w := newWorkspace(t, nil)
		_, err := w.moveTool().Run(ctx, &MoveRequest{Src: "ghost", Dst: "x"})
		require.Error(t, err)
		assert.True(t, errutil.IsFileMissing(err))
	})

	t.Run("existing destination without overwrite", func(t *testing.T) {
		w := newWorkspace(t, nil)
		w.writeFile(t, "a.txt", "a")
		w.writeFile(t, "b.txt", "b")

		_, err := w.moveTool().Run(ctx, &MoveRequest{Src: "a.txt", Dst: "b.txt"})
		require.Error(t, err)
		assert.True(t, errutil.IsAlreadyExists(err))

		data, _ := os.ReadFile(w.abs("b.txt"))
		assert.Equal(t, "b", string(data))
	})

	t.Run("existing destination with overwrite", func(t *testing.T) {
		w := newWorkspace(t, nil)
		w.writeFile(t, "a.txt", "a")
		w.writeFile(t, "b.txt", "b")

		_, err := w.moveTool().Run(ctx, &MoveRequest{Src: "a.txt", Dst: "b.txt", Overwrite: true})
		require.NoError(t, err)

		data, _ := os.ReadFile(w.abs("b.txt"))
		assert.Equal(t, "a", string(data))
		snap, ok := w.snapshots.Get("b.txt")
		require.True(t, ok)
		assert.Equal(t, "b", string(snap.Content))
	})

	t.Run("destination denied by policy", func(t *testing.T) {
		pol := policy.Default()
		pol.DeniedPaths = []string{"vendor/**"}
		w := newWorkspace(t, pol)
		w.writeFile(t, "a.txt", "a")

		_, err := w.moveTool().Run(ctx, &MoveRequest{Src: "a.txt", Dst: "vendor/a.txt"})
		require.Error(t, err)
		assert.True(t, errutil.IsPolicyViolation(err))
		assert.FileExists(t, w.abs("a.txt"))
	})

	t.Run("directory holding a denied entry stays put", func(t *testing.T) {
		pol := policy.Default()
		pol.DeniedPaths = []string{"conf/secret.env"}
		w := newWorkspace(t, pol)
		w.writeFile(t, "conf/app.yaml", "a: 1")
		w.writeFile(t, "conf/secret.env", "TOKEN=abc")

		_, err := w.moveTool().Run(ctx, &MoveRequest{Src: "conf", Dst: "moved"})

		require.Error(t, err)
		var denied *policy.PathDeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, "conf/secret.env", denied.Path)
		assert.FileExists(t, w.abs("conf/secret.env"))
		assert.NoDirExists(t, w.abs("moved"))

		_, err = w.readTool().Run(ctx, &ReadFileRequest{Path: "moved/secret.env"})
		assert.True(t, errutil.IsFileMissing(err))
	})

	t.Run("directory whose entries would land on denied paths stays put", func(t *testing.T) {
		pol := policy.Default()
		pol.DeniedPaths = []string{"out/**/*.env"}
		w := newWorkspace(t, pol)
		w.writeFile(t, "conf/nested/local.env", "X=1")

		_, err := w.moveTool().Run(ctx, &MoveRequest{Src: "conf", Dst: "out"})

		require.Error(t, err)
		var denied *policy.PathDeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, "out/nested/local.env", denied.Path)
		assert.FileExists(t, w.abs("conf/nested/local.env"))
	})

	t.Run("directory with only allowed entries moves", func(t *testing.T) {
		pol := policy.Default()
		pol.DeniedPaths = []string{"**/*.env"}
		w := newWorkspace(t, pol)
		w.writeFile(t, "conf/app.yaml", "a: 1")
		w.writeFile(t, "conf/deep/more.yaml", "b: 2")

		_, err := w.moveTool().Run(ctx, &MoveRequest{Src: "conf", Dst: "moved"})

		require.NoError(t, err)
		assert.FileExists(t, w.abs("moved/deep/more.yaml"))
		assert.NoDirExists(t, w.abs("conf"))
	})

	t.Run("destination escapes root", func(t *testing.T) {
		w := newWorkspace(t, nil)
		w.writeFile(t, "a.txt", "a")

		_, err := w.moveTool().Run(ctx, &MoveRequest{Src: "a.txt", Dst: "../a.txt"})
		require.Error(t, err)
		assert.True(t, errutil.IsTraversal(err))
		assert.FileExists(t, w.abs("a.txt"))
	})

	t.Run("missing arguments", func(t *testing.T) {
		w := newWorkspace(t, nil)
		_, err := w.moveTool().Run(ctx, &MoveRequest{Src: "a.txt"})
		require.Error(t, err)
		assert.True(t, errutil.IsInvalidInput(err))
	})
}
