package task

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/Cyclone1070/workspacerpc/internal/tool/service/executor"
)

// commandPolicy authorizes commands, environment names and working directories.
type commandPolicy interface {
	Resolve(input string) (abs, rel string, err error)
	CheckCommand(name string) error
	CheckConfirmation(operation string, confirmed bool) error
	IsEnvAllowed(name string) bool
	EnvFiltering() bool
}

// fileSystem defines the filesystem operations needed to prepare commands.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// commandExecutor runs a command to completion under a timeout.
type commandExecutor interface {
	RunWithTimeout(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*executor.Result, error)
}

// processStarter launches long-lived processes for terminals.
type processStarter interface {
	Start(command []string, dir string, env []string, output io.Writer) (*executor.Process, error)
}
