package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/workspacerpc/internal/config"
	"github.com/Cyclone1070/workspacerpc/internal/policy"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/audit"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/fs"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/path"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/snapshot"
)

// workspace bundles real collaborators rooted at a temp directory.
type workspace struct {
	root      string
	cfg       *config.Config
	engine    *policy.Engine
	fs        *fs.OSFileSystem
	audit     *audit.Log
	snapshots *snapshot.Store
}

func newWorkspace(t *testing.T, pol *policy.Policy) *workspace {
	t.Helper()
	root, err := path.CanonicaliseRoot(t.TempDir())
	require.NoError(t, err)
	if pol == nil {
		pol = policy.Default()
	}
	return &workspace{
		root:      root,
		cfg:       config.DefaultConfig(),
		engine:    policy.NewEngine(pol, path.NewResolver(root)),
		fs:        fs.NewOSFileSystem(),
		audit:     audit.NewLog(filepath.Join(t.TempDir(), "audit.log"), nil),
		snapshots: snapshot.NewStore(),
	}
}

func (w *workspace) writeFile(t *testing.T, rel, body string) {
	t.Helper()
	full := filepath.Join(w.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
}

func (w *workspace) abs(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

func (w *workspace) auditEntries(t *testing.T) []audit.Entry {
	t.Helper()
	entries, err := audit.ReadEntries(w.audit.Path())
	require.NoError(t, err)
	return entries
}

func (w *workspace) readTool() *ReadFileTool {
	return NewReadFileTool(w.fs, w.engine, w.cfg)
}

func (w *workspace) writeTool() *WriteFileTool {
	return NewWriteFileTool(w.fs, w.engine, w.audit, w.snapshots)
}

func (w *workspace) createTool() *CreateTool {
	return NewCreateTool(w.fs, w.engine, w.audit, w.snapshots)
}

func (w *workspace) deleteTool() *DeleteTool {
	return NewDeleteTool(w.fs, w.engine, w.audit, w.snapshots)
}

func (w *workspace) moveTool() *MoveTool {
	return NewMoveTool(w.fs, w.engine, w.audit, w.snapshots)
}

func boolPtr(b bool) *bool { return &b }
