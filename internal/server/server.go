// Package server routes decoded JSON-RPC requests to the operation groups of
// one workspace and converts their failures into protocol errors.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Cyclone1070/workspacerpc/internal/config"
	"github.com/Cyclone1070/workspacerpc/internal/policy"
	"github.com/Cyclone1070/workspacerpc/internal/protocol"
	"github.com/Cyclone1070/workspacerpc/internal/tool/directory"
	"github.com/Cyclone1070/workspacerpc/internal/tool/edit"
	"github.com/Cyclone1070/workspacerpc/internal/tool/file"
	"github.com/Cyclone1070/workspacerpc/internal/tool/search"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/audit"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/executor"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/fs"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/path"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/snapshot"
	"github.com/Cyclone1070/workspacerpc/internal/tool/task"
)

const (
	// Name is reported by initialize.
	Name = "workspacerpc"
	// ProtocolVersion is the version of the method surface, not of JSON-RPC.
	ProtocolVersion = "1.0"
)

// Version is overridden at build time.
var Version = "dev"

// stateDir holds server-owned files inside the workspace. Agents never see it.
const stateDir = ".workspace-rpc"

// Options configure a Server. Policy and Config default when nil.
type Options struct {
	Root   string
	Config *config.Config
	Policy *policy.Policy
	Logger *zap.Logger

	// OpenRepository locates version control for fs.diff. Defaults to git.
	OpenRepository edit.RepositoryOpener
}

// Server is the dispatcher shared by every connection of one process.
type Server struct {
	root      string
	config    *config.Config
	engine    *policy.Engine
	logger    *zap.Logger
	terminals *task.Registry
	methods   map[string]handlerFunc

	shutdown sync.Once
}

// New wires every operation group against one canonical workspace root.
func New(opts Options) (*Server, error) {
	root, err := path.CanonicaliseRoot(opts.Root)
	if err != nil {
		return nil, err
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	pol := opts.Policy
	if pol == nil {
		pol = policy.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	openRepo := opts.OpenRepository
	if openRepo == nil {
		openRepo = edit.OpenGitRepository
	}

	pol = protect(pol, cfg)
	engine := policy.NewEngine(pol, path.NewResolver(root))
	osFS := fs.NewOSFileSystem()
	exec := executor.NewOSCommandExecutor(cfg)
	trail := audit.NewLog(auditPath(root, cfg), logger.Named("audit"))
	snapshots := snapshot.NewStore()
	terminals := task.NewRegistry(osFS, engine, exec, cfg, logger.Named("terminal"))
	run := task.NewRunTool(osFS, engine, exec, cfg)

	s := &Server{
		root:      root,
		config:    cfg,
		engine:    engine,
		logger:    logger,
		terminals: terminals,
	}
	s.methods = map[string]handlerFunc{
		MethodInitialize:   s.initialize,
		MethodCapabilities: s.capabilities,

		MethodRead:   bind(file.NewReadFileTool(osFS, engine, cfg).Run),
		MethodWrite:  bind(file.NewWriteFileTool(osFS, engine, trail, snapshots).Run),
		MethodCreate: bind(file.NewCreateTool(osFS, engine, trail, snapshots).Run),
		MethodDelete: bind(file.NewDeleteTool(osFS, engine, trail, snapshots).Run),
		MethodMove:   bind(file.NewMoveTool(osFS, engine, trail, snapshots).Run),
		MethodList:   bind(directory.NewListDirectoryTool(osFS, engine, cfg).Run),

		MethodFind:    bind(search.NewFindTool(osFS, engine, cfg).Run),
		MethodSymbols: bind(search.NewSymbolsTool(osFS, engine, cfg).Run),

		MethodBatchEdit:  bind(edit.NewBatchEditTool(osFS, engine, trail, snapshots).Run),
		MethodFormat:     bind(edit.NewFormatTool(osFS, engine, trail, snapshots).Run),
		MethodDiff:       bind(edit.NewDiffTool(osFS, engine, snapshots, openRepo).Run),
		MethodApplyPatch: bind(edit.NewApplyPatchTool(osFS, engine, exec, trail, snapshots, cfg).Run),

		MethodRun:   bind(run.Run),
		MethodBuild: bind(task.NewBuildTool(run).Run),
		MethodTest:  bind(task.NewTestTool(run).Run),

		MethodTerminalCreate:  bind(terminals.Create),
		MethodTerminalSend:    bind(terminals.Send),
		MethodTerminalRead:    bind(terminals.Read),
		MethodTerminalDispose: bind(terminals.Dispose),
	}
	return s, nil
}

// protect denies agents access to the server's own state and policy file when
// they live inside the workspace.
func protect(pol *policy.Policy, cfg *config.Config) *policy.Policy {
	cp := *pol
	cp.DeniedPaths = slices.Clone(pol.DeniedPaths)
	cp.DeniedPaths = append(cp.DeniedPaths, stateDir, stateDir+"/**")
	for _, p := range []string{cfg.Server.PolicyFile, cfg.Server.AuditLog} {
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		rel := filepath.ToSlash(filepath.Clean(p))
		if strings.HasPrefix(rel, "../") {
			continue
		}
		cp.DeniedPaths = append(cp.DeniedPaths, rel)
	}
	return &cp
}

func auditPath(root string, cfg *config.Config) string {
	if filepath.IsAbs(cfg.Server.AuditLog) {
		return cfg.Server.AuditLog
	}
	return filepath.Join(root, filepath.FromSlash(cfg.Server.AuditLog))
}

// Root returns the canonical workspace root.
func (s *Server) Root() string {
	return s.root
}

// Config returns the runtime configuration the server was built with.
func (s *Server) Config() *config.Config {
	return s.config
}

// Handle processes one inbound frame and returns the encoded reply, or nil
// when none is due (notifications and stray responses).
func (s *Server) Handle(ctx context.Context, frame []byte) []byte {
	msg, err := protocol.Decode(frame)
	if err != nil {
		var id json.RawMessage
		if msg != nil {
			id = msg.ID
		}
		rpcErr, ok := err.(*protocol.Error)
		if !ok {
			rpcErr = protocol.NewError(protocol.CodeParseError, err.Error())
		}
		s.logger.Debug("rejected frame", zap.String("code", protocol.CodeName(rpcErr.Code)), zap.String("message", rpcErr.Message))
		return s.encode(protocol.NewErrorResponse(id, rpcErr))
	}

	switch {
	case msg.IsResponse():
		s.logger.Debug("ignoring response from client", zap.ByteString("id", msg.ID))
		return nil
	case msg.IsNotification():
		if _, ok := s.methods[msg.Method]; ok {
			_, _ = s.Dispatch(ctx, msg.Method, msg.Params)
		}
		return nil
	}

	result, rpcErr := s.Dispatch(ctx, msg.Method, msg.Params)
	if rpcErr != nil {
		return s.encode(protocol.NewErrorResponse(msg.ID, rpcErr))
	}
	return s.encode(protocol.NewResult(msg.ID, result))
}

// Dispatch routes one call by method name. Handler panics are recovered and
// reported as INTERNAL_ERROR so that one failing request never stops the loop.
func (s *Server) Dispatch(ctx context.Context, method string, params json.RawMessage) (result any, rpcErr *protocol.Error) {
	h, ok := s.methods[method]
	if !ok {
		return nil, protocol.Errorf(protocol.CodeMethodNotFound, "method not found: %s", method)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panicked",
				zap.String("method", method),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			result, rpcErr = nil, protocol.NewError(protocol.CodeInternalError, internalMessage)
		}
	}()

	result, err := h(ctx, params)
	if err == nil {
		s.logger.Debug("handled", zap.String("method", method), zap.Duration("took", time.Since(start)))
		return result, nil
	}

	rpcErr, expected := toProtocolError(err)
	if expected {
		s.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("code", protocol.CodeName(rpcErr.Code)),
			zap.Error(err))
	} else {
		s.logger.Error("unexpected handler failure", zap.String("method", method), zap.Error(err))
	}
	return nil, rpcErr
}

func (s *Server) encode(resp *protocol.Response) []byte {
	data, err := protocol.Encode(resp)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		data, _ = protocol.Encode(protocol.NewErrorResponse(resp.ID, protocol.NewError(protocol.CodeInternalError, internalMessage)))
	}
	return data
}

// Shutdown disposes every open terminal. It is safe to call more than once and
// always completes; disposal failures are logged by the registry.
func (s *Server) Shutdown() {
	s.shutdown.Do(func() {
		n := s.terminals.Len()
		s.terminals.DisposeAll()
		s.logger.Info("server shut down", zap.Int("terminals_disposed", n))
	})
}

// String identifies the server in logs.
func (s *Server) String() string {
	return fmt.Sprintf("%s(%s)", Name, s.root)
}
