package task

import (
	"strings"

	"github.com/mattn/go-shellwords"
)

// -- Run --

// RunRequest executes Command with Args. When Args is empty and Command holds
// a whole command line, it is split with shell quoting rules. Timeout is in
// seconds; zero selects the configured default.
type RunRequest struct {
	Command   string            `json:"command"`
	Args      []string          `json:"args,omitempty"`
	Cwd       string            `json:"cwd,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	EnvFiles  []string          `json:"envFiles,omitempty"`
	Timeout   int               `json:"timeout,omitempty"`
	Confirmed bool              `json:"confirmed,omitempty"`
}

func (r *RunRequest) Validate() error {
	if strings.TrimSpace(r.Command) == "" {
		return ErrCommandRequired
	}
	if r.Timeout < 0 {
		return ErrNegativeTimeout
	}
	return nil
}

// argv returns the program and its arguments.
func (r *RunRequest) argv() ([]string, error) {
	if len(r.Args) > 0 || !strings.ContainsAny(r.Command, " \t") {
		return append([]string{r.Command}, r.Args...), nil
	}
	words, err := shellwords.Parse(r.Command)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrCommandRequired
	}
	return words, nil
}

// CommandResult is the outcome of a finished (or killed) command. A non-zero
// exit code is reported here, not as an error.
type CommandResult struct {
	Command    []string `json:"command"`
	Cwd        string   `json:"cwd"`
	Stdout     string   `json:"stdout"`
	Stderr     string   `json:"stderr"`
	ExitCode   int      `json:"exitCode"`
	TimedOut   bool     `json:"timedOut"`
	Truncated  bool     `json:"truncated"`
	DurationMs int64    `json:"durationMs"`
}

// -- Build / Test --

// TaskRequest runs the detected build or test command for Cwd.
type TaskRequest struct {
	Cwd       string `json:"cwd,omitempty"`
	Timeout   int    `json:"timeout,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

func (r *TaskRequest) Validate() error {
	if r.Timeout < 0 {
		return ErrNegativeTimeout
	}
	return nil
}

// -- Terminals --

type CreateTerminalRequest struct {
	Name string `json:"name,omitempty"`
	Cwd  string `json:"cwd,omitempty"`
}

type TerminalInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cwd  string `json:"cwd"`
}

type SendTerminalRequest struct {
	ID        string `json:"id"`
	Data      string `json:"data"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

func (r *SendTerminalRequest) Validate() error {
	if r.ID == "" {
		return ErrIDRequired
	}
	if r.Data == "" {
		return ErrDataRequired
	}
	return nil
}

type SendTerminalResponse struct {
	ID string `json:"id"`
	// Started is true when Data launched a new process rather than feeding stdin.
	Started bool `json:"started"`
	Pid     int  `json:"pid,omitempty"`
}

type TerminalIDRequest struct {
	ID string `json:"id"`
}

func (r *TerminalIDRequest) Validate() error {
	if r.ID == "" {
		return ErrIDRequired
	}
	return nil
}

// ReadTerminalResponse carries output produced since the previous read.
type ReadTerminalResponse struct {
	ID        string `json:"id"`
	Output    string `json:"output"`
	Truncated bool   `json:"truncated"`
	Running   bool   `json:"running"`
	ExitCode  *int   `json:"exitCode,omitempty"`
}

type DisposeTerminalResponse struct {
	ID       string `json:"id"`
	Disposed bool   `json:"disposed"`
}
