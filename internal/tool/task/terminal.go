package task

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-shellwords"
	"go.uber.org/zap"

	"github.com/Cyclone1070/workspacerpc/internal/config"
	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/executor"
)

// OpTerminalSend is the confirmation-gate name for starting a process in a terminal.
const OpTerminalSend = "terminal.send"

// terminal is one registry entry. A terminal owns at most one attached process
// at a time; later commands start once the previous one has exited.
type terminal struct {
	id     string
	name   string
	cwdAbs string
	cwdRel string
	output *outputBuffer

	mu     sync.Mutex
	proc   *executor.Process
	closed bool
}

func (t *terminal) info() *TerminalInfo {
	return &TerminalInfo{ID: t.id, Name: t.name, Cwd: t.cwdRel}
}

// close marks the terminal unusable and kills the attached process, if any.
// The kill happens outside t.mu so it never waits behind a Send.
func (t *terminal) close() error {
	t.mu.Lock()
	t.closed = true
	proc := t.proc
	t.mu.Unlock()
	if proc == nil {
		return nil
	}
	return proc.Kill()
}

// Registry owns every terminal of one server instance. It is safe for
// concurrent use; operations on distinct ids do not contend beyond the map lock.
type Registry struct {
	fs      fileSystem
	policy  commandPolicy
	starter processStarter
	config  *config.Config
	logger  *zap.Logger
	environ func() []string
	newID   func() string

	mu        sync.Mutex
	terminals map[string]*terminal
}

// NewRegistry creates an empty terminal registry.
func NewRegistry(fs fileSystem, policy commandPolicy, starter processStarter, cfg *config.Config, logger *zap.Logger) *Registry {
	if fs == nil {
		panic("fs is required")
	}
	if policy == nil {
		panic("policy is required")
	}
	if starter == nil {
		panic("starter is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		fs:        fs,
		policy:    policy,
		starter:   starter,
		config:    cfg,
		logger:    logger,
		environ:   os.Environ,
		newID:     uuid.NewString,
		terminals: make(map[string]*terminal),
	}
}

// Create registers a new terminal rooted at Cwd (default: workspace root).
func (r *Registry) Create(ctx context.Context, req *CreateTerminalRequest) (*TerminalInfo, error) {
	abs, rel, err := resolveDir(r.fs, r.policy, req.Cwd)
	if err != nil {
		return nil, err
	}

	id := r.newID()
	name := req.Name
	if name == "" {
		name = "terminal-" + id[:8]
	}
	t := &terminal{
		id:     id,
		name:   name,
		cwdAbs: abs,
		cwdRel: rel,
		output: newOutputBuffer(int(r.config.Tools.TerminalBufferSize)),
	}

	r.mu.Lock()
	r.terminals[id] = t
	r.mu.Unlock()

	r.logger.Debug("terminal created", zap.String("id", id), zap.String("cwd", rel))
	return t.info(), nil
}

func (r *Registry) get(id string) (*terminal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.terminals[id]
	if !ok {
		return nil, &TerminalNotFoundError{ID: id}
	}
	return t, nil
}

// Send writes Data to the running process's stdin. With no running process,
// Data is parsed as a command line and started in the terminal's directory
// after the same allowlist check task.run applies.
func (r *Registry) Send(ctx context.Context, req *SendTerminalRequest) (*SendTerminalResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}
	t, err := r.get(req.ID)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, &TerminalNotFoundError{ID: req.ID}
	}
	if proc := t.proc; proc != nil && proc.Running() {
		t.mu.Unlock()
		return r.write(ctx, req.ID, proc, req.Data)
	}
	defer t.mu.Unlock()

	argv, err := shellwords.Parse(req.Data)
	if err != nil {
		return nil, errutil.Invalid(err)
	}
	if len(argv) == 0 {
		return nil, errutil.Invalid(ErrEmptyCommandLine)
	}
	if err := r.policy.CheckConfirmation(OpTerminalSend, req.Confirmed); err != nil {
		return nil, err
	}
	if err := r.policy.CheckCommand(argv[0]); err != nil {
		return nil, err
	}

	env := buildEnv(r.policy, r.environ(), nil)
	proc, err := r.starter.Start(argv, t.cwdAbs, env, t.output)
	if err != nil {
		return nil, &SpawnError{Cmd: argv[0], Cause: err}
	}
	t.proc = proc

	r.logger.Debug("terminal process started", zap.String("id", req.ID), zap.Strings("argv", argv), zap.Int("pid", proc.Pid()))
	return &SendTerminalResponse{ID: req.ID, Started: true, Pid: proc.Pid()}, nil
}

// write delivers data to a running process's stdin within the configured
// send timeout. A child that stops reading cannot hold the request, and
// dispose stays free to kill it.
func (r *Registry) write(ctx context.Context, id string, proc *executor.Process, data string) (*SendTerminalResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.config.Tools.TerminalSendTimeoutMs)*time.Millisecond)
	defer cancel()
	if _, err := proc.Write(ctx, []byte(data)); err != nil {
		return nil, &TerminalInputError{ID: id, Cause: err}
	}
	return &SendTerminalResponse{ID: id}, nil
}

// Read drains the output buffered since the previous read.
func (r *Registry) Read(ctx context.Context, req *TerminalIDRequest) (*ReadTerminalResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}
	t, err := r.get(req.ID)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	proc := t.proc
	t.mu.Unlock()

	resp := &ReadTerminalResponse{ID: req.ID}
	if proc != nil {
		if code, done := proc.ExitCode(); done {
			resp.ExitCode = &code
		} else {
			resp.Running = true
		}
	}
	// Drain after sampling the state so output of a finished process is complete.
	resp.Output, resp.Truncated = t.output.Drain()
	return resp, nil
}

// Dispose removes the terminal and kills its process. The entry is removed
// before the kill, so a concurrent second Dispose observes not found.
func (r *Registry) Dispose(ctx context.Context, req *TerminalIDRequest) (*DisposeTerminalResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	r.mu.Lock()
	t, ok := r.terminals[req.ID]
	delete(r.terminals, req.ID)
	r.mu.Unlock()
	if !ok {
		return nil, &TerminalNotFoundError{ID: req.ID}
	}

	if err := t.close(); err != nil {
		return nil, err
	}
	r.logger.Debug("terminal disposed", zap.String("id", req.ID))
	return &DisposeTerminalResponse{ID: req.ID, Disposed: true}, nil
}

// Len returns the number of live terminals.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.terminals)
}

// DisposeAll tears down every terminal during shutdown. Failures are logged
// and never stop the remaining terminals from being disposed.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	all := r.terminals
	r.terminals = make(map[string]*terminal)
	r.mu.Unlock()

	for id, t := range all {
		bestEffort(r.logger, "dispose terminal", t.close(), zap.String("id", id))
	}
}

// bestEffort is the single place where cleanup errors are intentionally
// dropped after being logged.
func bestEffort(logger *zap.Logger, action string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	logger.Warn(action+" failed", append(fields, zap.Error(err))...)
}
