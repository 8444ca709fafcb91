package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/workspacerpc/internal/config"
	"github.com/Cyclone1070/workspacerpc/internal/policy"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/fs"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/path"
)

type workspace struct {
	root   string
	cfg    *config.Config
	engine *policy.Engine
	fs     *fs.OSFileSystem
}

func newWorkspace(t *testing.T, pol *policy.Policy) *workspace {
	t.Helper()
	root, err := path.CanonicaliseRoot(t.TempDir())
	require.NoError(t, err)
	if pol == nil {
		pol = policy.Default()
	}
	return &workspace{
		root:   root,
		cfg:    config.DefaultConfig(),
		engine: policy.NewEngine(pol, path.NewResolver(root)),
		fs:     fs.NewOSFileSystem(),
	}
}

func (w *workspace) write(t *testing.T, rel, body string) {
	t.Helper()
	full := filepath.Join(w.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
}

func (w *workspace) findTool() *FindTool {
	return NewFindTool(w.fs, w.engine, w.cfg)
}

func (w *workspace) symbolsTool() *SymbolsTool {
	return NewSymbolsTool(w.fs, w.engine, w.cfg)
}
