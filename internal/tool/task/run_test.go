package task

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/workspacerpc/internal/policy"
	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
)

func TestRun(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	t.Run("captures output and exit code", func(t *testing.T) {
		ws := newWorkspace(t, nil)

		res, err := ws.runTool().Run(ctx, &RunRequest{
			Command:   "sh",
			Args:      []string{"-c", "echo out; echo err >&2; exit 4"},
			Confirmed: true,
		})

		require.NoError(t, err)
		assert.Equal(t, "out\n", res.Stdout)
		assert.Equal(t, "err\n", res.Stderr)
		assert.Equal(t, 4, res.ExitCode)
		assert.False(t, res.TimedOut)
		assert.Equal(t, ".", res.Cwd)
	})

	t.Run("command line is split when no args are given", func(t *testing.T) {
		ws := newWorkspace(t, nil)

		res, err := ws.runTool().Run(ctx, &RunRequest{Command: `echo "two words"`, Confirmed: true})

		require.NoError(t, err)
		assert.Equal(t, []string{"echo", "two words"}, res.Command)
		assert.Equal(t, "two words\n", res.Stdout)
	})

	t.Run("runs in the requested directory", func(t *testing.T) {
		ws := newWorkspace(t, nil)
		ws.write(t, "sub/marker.txt", "here")

		res, err := ws.runTool().Run(ctx, &RunRequest{Command: "cat", Args: []string{"marker.txt"}, Cwd: "sub", Confirmed: true})

		require.NoError(t, err)
		assert.Equal(t, "here", res.Stdout)
		assert.Equal(t, "sub", res.Cwd)
	})

	t.Run("timeout kills the process", func(t *testing.T) {
		ws := newWorkspace(t, nil)

		start := time.Now()
		res, err := ws.runTool().Run(ctx, &RunRequest{
			Command:   "sh",
			Args:      []string{"-c", "echo started; sleep 30"},
			Timeout:   1,
			Confirmed: true,
		})

		require.NoError(t, err)
		assert.True(t, res.TimedOut)
		assert.Less(t, res.ExitCode, 0)
		assert.Less(t, time.Since(start), 10*time.Second)
	})

	t.Run("spawn failure", func(t *testing.T) {
		pol := policy.Default()
		pol.AllowedCommands = []string{"definitely-not-a-real-binary-xyz"}
		ws := newWorkspace(t, pol)

		_, err := ws.runTool().Run(ctx, &RunRequest{Command: "definitely-not-a-real-binary-xyz", Confirmed: true})

		var spawn *SpawnError
		assert.ErrorAs(t, err, &spawn)
	})
}

func TestRun_Policy(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	t.Run("command outside allowlist is rejected", func(t *testing.T) {
		ws := newWorkspace(t, nil)
		ws.write(t, "flag", "")

		_, err := ws.runTool().Run(ctx, &RunRequest{Command: "rm", Args: []string{"flag"}, Confirmed: true})

		assert.True(t, errutil.IsPolicyViolation(err))
		assert.FileExists(t, ws.root+"/flag")
	})

	t.Run("empty allowlist rejects everything", func(t *testing.T) {
		ws := newWorkspace(t, policy.Default())

		_, err := ws.runTool().Run(ctx, &RunRequest{Command: "echo", Confirmed: true})

		assert.True(t, errutil.IsPolicyViolation(err))
	})

	t.Run("confirmation gate", func(t *testing.T) {
		ws := newWorkspace(t, nil)

		_, err := ws.runTool().Run(ctx, &RunRequest{Command: "echo"})

		assert.True(t, errutil.IsConfirmationRequired(err))
	})

	t.Run("no confirmation needed when not configured", func(t *testing.T) {
		pol := policy.Default()
		pol.AllowedCommands = []string{"echo"}
		pol.RequireConfirmation = nil
		ws := newWorkspace(t, pol)

		res, err := ws.runTool().Run(ctx, &RunRequest{Command: "echo", Args: []string{"ok"}})

		require.NoError(t, err)
		assert.Equal(t, "ok\n", res.Stdout)
	})

	t.Run("working directory checks", func(t *testing.T) {
		ws := newWorkspace(t, nil)
		ws.write(t, "file.txt", "")

		_, err := ws.runTool().Run(ctx, &RunRequest{Command: "echo", Cwd: "../..", Confirmed: true})
		assert.True(t, errutil.IsTraversal(err))

		_, err = ws.runTool().Run(ctx, &RunRequest{Command: "echo", Cwd: "missing", Confirmed: true})
		assert.True(t, errutil.IsFileMissing(err))

		_, err = ws.runTool().Run(ctx, &RunRequest{Command: "echo", Cwd: "file.txt", Confirmed: true})
		assert.True(t, errutil.IsNotDirectory(err))
	})

	t.Run("invalid requests", func(t *testing.T) {
		ws := newWorkspace(t, nil)

		_, err := ws.runTool().Run(ctx, &RunRequest{Confirmed: true})
		assert.True(t, errutil.IsInvalidInput(err))

		_, err = ws.runTool().Run(ctx, &RunRequest{Command: "echo", Timeout: -1, Confirmed: true})
		assert.True(t, errutil.IsInvalidInput(err))

		_, err = ws.runTool().Run(ctx, &RunRequest{Command: `echo "unterminated`, Confirmed: true})
		assert.True(t, errutil.IsInvalidInput(err))
	})
}

func TestRun_Environment(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()
	host := []string{"PATH=/usr/bin:/bin", "HOME=/home/me", "SECRET_TOKEN=abc", "LANG=C"}

	envOf := func(t *testing.T, res *CommandResult) []string {
		t.Helper()
		lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
		var names []string
		for _, l := range lines {
			k, _, _ := strings.Cut(l, "=")
			switch k {
			case "PWD", "SHLVL", "_", "OLDPWD":
				continue
			}
			names = append(names, l)
		}
		sort.Strings(names)
		return names
	}

	t.Run("allowlist filters host variables but keeps supplied ones", func(t *testing.T) {
		pol := policy.Default()
		pol.AllowedCommands = []string{"sh"}
		pol.EnvAllowlist = []string{"PATH", "HOME"}
		ws := newWorkspace(t, pol)
		ws.write(t, ".env", "# comment\nFROM_FILE=1\nexport QUOTED=\"a b\"\n")
		tool := ws.runTool()
		tool.environ = func() []string { return host }

		res, err := tool.Run(ctx, &RunRequest{
			Command:   "sh",
			Args:      []string{"-c", "env"},
			Env:       map[string]string{"EXTRA": "x", "HOME": "/override"},
			EnvFiles:  []string{".env"},
			Confirmed: true,
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"EXTRA=x", "FROM_FILE=1", "HOME=/override", "PATH=/usr/bin:/bin", "QUOTED=a b"}, envOf(t, res))
	})

	t.Run("no allowlist passes the host environment", func(t *testing.T) {
		ws := newWorkspace(t, nil)
		tool := ws.runTool()
		tool.environ = func() []string { return host }

		res, err := tool.Run(ctx, &RunRequest{Command: "sh", Args: []string{"-c", "env"}, Confirmed: true})

		require.NoError(t, err)
		assert.Equal(t, []string{"HOME=/home/me", "LANG=C", "PATH=/usr/bin:/bin", "SECRET_TOKEN=abc"}, envOf(t, res))
	})

	t.Run("malformed env file", func(t *testing.T) {
		ws := newWorkspace(t, nil)
		ws.write(t, "bad.env", "JUSTAKEY\n")

		_, err := ws.runTool().Run(ctx, &RunRequest{Command: "echo", EnvFiles: []string{"bad.env"}, Confirmed: true})

		assert.True(t, errutil.IsInvalidInput(err))
	})
}

func TestParseEnvFile(t *testing.T) {
	env, err := parseEnvFile(".env", []byte("A=1\r\n\n# skip\nB = 'two'\nexport C=\"three\"\nD=\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "two", "C": "three", "D": ""}, env)

	_, err = parseEnvFile(".env", []byte("=value\n"))
	var envErr *EnvFileError
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, 1, envErr.Line)
}
