package server

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
)

// Method names of the public surface.
const (
	MethodInitialize   = "initialize"
	MethodCapabilities = "capabilities"

	MethodRead   = "fs.read"
	MethodWrite  = "fs.write"
	MethodCreate = "fs.create"
	MethodDelete = "fs.delete"
	MethodMove   = "fs.move"
	MethodList   = "fs.list"

	MethodFind    = "search.find"
	MethodSymbols = "code.symbols"

	MethodBatchEdit  = "code.batchEdit"
	MethodFormat     = "code.format"
	MethodDiff       = "fs.diff"
	MethodApplyPatch = "fs.applyPatch"

	MethodRun   = "task.run"
	MethodBuild = "task.build"
	MethodTest  = "task.test"

	MethodTerminalCreate  = "terminal.create"
	MethodTerminalSend    = "terminal.send"
	MethodTerminalRead    = "terminal.read"
	MethodTerminalDispose = "terminal.dispose"
)

// ServerInfo identifies the implementation.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is returned by initialize.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	WorkspaceRoot   string       `json:"workspaceRoot"`
	Capabilities    Capabilities `json:"capabilities"`
}

// Capabilities describes what the server will do under its current policy.
type Capabilities struct {
	Methods             []string `json:"methods"`
	MaxReadSize         int64    `json:"maxReadSize"`
	MaxWriteSize        int64    `json:"maxWriteSize"`
	CommandsEnabled     bool     `json:"commandsEnabled"`
	AllowedCommands     []string `json:"allowedCommands"`
	RequireConfirmation []string `json:"requireConfirmation"`
}

// Methods returns every routed method name in sorted order.
func (s *Server) Methods() []string {
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) describe() Capabilities {
	pol := s.engine.Policy()
	return Capabilities{
		Methods:             s.Methods(),
		MaxReadSize:         s.engine.MaxReadSize(),
		MaxWriteSize:        s.engine.MaxWriteSize(),
		CommandsEnabled:     len(pol.AllowedCommands) > 0,
		AllowedCommands:     nonNil(pol.AllowedCommands),
		RequireConfirmation: nonNil(pol.RequireConfirmation),
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return slices.Clone(items)
}

func (s *Server) initialize(ctx context.Context, params json.RawMessage) (any, error) {
	return &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      ServerInfo{Name: Name, Version: Version},
		WorkspaceRoot:   s.root,
		Capabilities:    s.describe(),
	}, nil
}

func (s *Server) capabilities(ctx context.Context, params json.RawMessage) (any, error) {
	return s.describe(), nil
}
