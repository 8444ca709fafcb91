package task

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/Cyclone1070/workspacerpc/internal/config"
	"github.com/Cyclone1070/workspacerpc/internal/policy"
	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/executor"
)

// RunTool handles task.run.
type RunTool struct {
	fs       fileSystem
	policy   commandPolicy
	executor commandExecutor
	config   *config.Config
	environ  func() []string
}

// NewRunTool creates a new RunTool with injected dependencies.
func NewRunTool(fs fileSystem, policy commandPolicy, exec commandExecutor, cfg *config.Config) *RunTool {
	if fs == nil {
		panic("fs is required")
	}
	if policy == nil {
		panic("policy is required")
	}
	if exec == nil {
		panic("executor is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	return &RunTool{fs: fs, policy: policy, executor: exec, config: cfg, environ: os.Environ}
}

// Run executes one command to completion. The confirmation gate and the
// command allowlist are checked before anything is resolved or spawned.
// A timeout kills the process group and is reported in the result with
// TimedOut set and a negative exit code.
func (t *RunTool) Run(ctx context.Context, req *RunRequest) (*CommandResult, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}
	argv, err := req.argv()
	if err != nil {
		return nil, errutil.Invalid(err)
	}

	if err := t.policy.CheckConfirmation(policy.OpTaskRun, req.Confirmed); err != nil {
		return nil, err
	}
	if err := t.policy.CheckCommand(argv[0]); err != nil {
		return nil, err
	}

	dirAbs, dirRel, err := resolveDir(t.fs, t.policy, req.Cwd)
	if err != nil {
		return nil, err
	}

	supplied := make(map[string]string)
	for _, name := range req.EnvFiles {
		vars, err := t.readEnvFile(name)
		if err != nil {
			return nil, err
		}
		for k, v := range vars {
			supplied[k] = v
		}
	}
	for k, v := range req.Env {
		supplied[k] = v
	}
	env := buildEnv(t.policy, t.environ(), supplied)

	timeout := time.Duration(req.Timeout) * time.Second
	if req.Timeout == 0 {
		timeout = time.Duration(t.config.Tools.DefaultCommandTimeout) * time.Second
	}

	start := time.Now()
	res, execErr := t.executor.RunWithTimeout(ctx, argv, dirAbs, env, timeout)
	if res == nil {
		res = &executor.Result{ExitCode: -1}
	}

	result := &CommandResult{
		Command:    argv,
		Cwd:        dirRel,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		ExitCode:   res.ExitCode,
		TimedOut:   res.TimedOut,
		Truncated:  res.Truncated,
		DurationMs: time.Since(start).Milliseconds(),
	}

	switch {
	case execErr == nil:
	case errors.Is(execErr, executor.ErrTimeout):
		result.TimedOut = true
		result.ExitCode = -1
	case errors.Is(execErr, context.Canceled), errors.Is(execErr, context.DeadlineExceeded):
		return nil, execErr
	case executor.IsExitError(execErr):
		// The command ran and failed; the exit code is already in the result.
	default:
		return nil, &SpawnError{Cmd: argv[0], Cause: execErr}
	}
	return result, nil
}

func (t *RunTool) readEnvFile(name string) (map[string]string, error) {
	abs, rel, err := t.policy.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := t.fs.ReadFile(abs)
	if err != nil {
		return nil, &EnvFileError{Path: rel, Cause: err}
	}
	return parseEnvFile(rel, data)
}

// resolveDir resolves a working directory, defaulting to the workspace root.
func resolveDir(fs fileSystem, policy commandPolicy, input string) (abs, rel string, err error) {
	if input == "" {
		input = "."
	}
	abs, rel, err = policy.Resolve(input)
	if err != nil {
		return "", "", err
	}
	info, err := fs.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", &DirectoryMissingError{Path: rel}
		}
		return "", "", &StatError{Path: rel, Cause: err}
	}
	if !info.IsDir() {
		return "", "", &NotADirectoryError{Path: rel}
	}
	return abs, rel, nil
}
