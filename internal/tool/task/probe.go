package task

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
)

// Task names.
const (
	TaskBuild = "build"
	TaskTest  = "test"
)

// candidate is a project marker file and the command it implies.
type candidate struct {
	marker  string
	command []string
}

// Probe order is fixed; the first candidate whose marker exists and whose
// program is allowed wins.
var candidates = map[string][]candidate{
	TaskBuild: {
		{"package.json", []string{"npm", "run", "build"}},
		{"Makefile", []string{"make"}},
		{"go.mod", []string{"go", "build", "./..."}},
		{"Cargo.toml", []string{"cargo", "build"}},
	},
	TaskTest: {
		{"package.json", []string{"npm", "test"}},
		{"Makefile", []string{"make", "test"}},
		{"go.mod", []string{"go", "test", "./..."}},
		{"Cargo.toml", []string{"cargo", "test"}},
	},
}

// ProjectTool handles task.build and task.test by delegating to RunTool.
type ProjectTool struct {
	task string
	run  *RunTool
}

// NewBuildTool creates the task.build handler.
func NewBuildTool(run *RunTool) *ProjectTool {
	return newProjectTool(TaskBuild, run)
}

// NewTestTool creates the task.test handler.
func NewTestTool(run *RunTool) *ProjectTool {
	return newProjectTool(TaskTest, run)
}

func newProjectTool(task string, run *RunTool) *ProjectTool {
	if run == nil {
		panic("run is required")
	}
	return &ProjectTool{task: task, run: run}
}

// Run detects the project's command and runs it through task.run, so the
// confirmation gate and allowlist apply unchanged.
func (t *ProjectTool) Run(ctx context.Context, req *TaskRequest) (*CommandResult, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	dirAbs, _, err := resolveDir(t.run.fs, t.run.policy, req.Cwd)
	if err != nil {
		return nil, err
	}

	command, err := t.detect(dirAbs)
	if err != nil {
		return nil, err
	}

	return t.run.Run(ctx, &RunRequest{
		Command:   command[0],
		Args:      command[1:],
		Cwd:       req.Cwd,
		Timeout:   req.Timeout,
		Confirmed: req.Confirmed,
	})
}

func (t *ProjectTool) detect(dirAbs string) ([]string, error) {
	for _, c := range candidates[t.task] {
		if _, err := t.run.fs.Stat(filepath.Join(dirAbs, c.marker)); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, &StatError{Path: c.marker, Cause: err}
		}
		if t.run.policy.CheckCommand(c.command[0]) == nil {
			return c.command, nil
		}
	}
	return nil, &NoTaskCommandError{Task: t.task}
}
