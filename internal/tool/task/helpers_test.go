package task

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/workspacerpc/internal/config"
	"github.com/Cyclone1070/workspacerpc/internal/policy"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/executor"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/fs"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/path"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

type workspace struct {
	root   string
	cfg    *config.Config
	engine *policy.Engine
	fs     *fs.OSFileSystem
	exec   *executor.OSCommandExecutor
}

// newWorkspace allows sh, echo, cat and sleep unless pol says otherwise.
func newWorkspace(t *testing.T, pol *policy.Policy) *workspace {
	t.Helper()
	root, err := path.CanonicaliseRoot(t.TempDir())
	require.NoError(t, err)
	if pol == nil {
		pol = policy.Default()
		pol.AllowedCommands = []string{"sh", "echo", "cat", "sleep"}
	}
	cfg := config.DefaultConfig()
	cfg.Tools.GracefulShutdownMs = 100
	return &workspace{
		root:   root,
		cfg:    cfg,
		engine: policy.NewEngine(pol, path.NewResolver(root)),
		fs:     fs.NewOSFileSystem(),
		exec:   executor.NewOSCommandExecutor(cfg),
	}
}

func (w *workspace) write(t *testing.T, rel, body string) {
	t.Helper()
	full := filepath.Join(w.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
}

func (w *workspace) runTool() *RunTool {
	return NewRunTool(w.fs, w.engine, w.exec, w.cfg)
}

func (w *workspace) registry() *Registry {
	return NewRegistry(w.fs, w.engine, w.exec, w.cfg, nil)
}
