package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/workspacerpc/internal/policy"
	"github.com/Cyclone1070/workspacerpc/internal/protocol"
	"github.com/Cyclone1070/workspacerpc/internal/tool/edit"
	"github.com/Cyclone1070/workspacerpc/internal/tool/service/git"
)

type reply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *protocol.Error `json:"error"`
}

type harness struct {
	srv  *Server
	root string
	next atomic.Int64
}

func noRepository(string) (edit.Repository, error) {
	return nil, git.ErrNotRepository
}

func newHarness(t *testing.T, pol *policy.Policy) *harness {
	t.Helper()
	srv, err := New(Options{Root: t.TempDir(), Policy: pol, OpenRepository: noRepository})
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)
	return &harness{srv: srv, root: srv.Root()}
}

// call issues a request through the full frame path and decodes the reply.
func (h *harness) call(t *testing.T, method string, params any) *reply {
	t.Helper()
	req := map[string]any{"jsonrpc": "2.0", "id": h.next.Add(1), "method": method}
	if params != nil {
		req["params"] = params
	}
	frame, err := json.Marshal(req)
	require.NoError(t, err)
	return h.raw(t, frame)
}

func (h *harness) raw(t *testing.T, frame []byte) *reply {
	t.Helper()
	out := h.srv.Handle(context.Background(), frame)
	require.NotNil(t, out, "expected a reply")
	var r reply
	require.NoError(t, json.Unmarshal(out, &r))
	return &r
}

func (h *harness) ok(t *testing.T, method string, params any, result any) {
	t.Helper()
	r := h.call(t, method, params)
	require.Nil(t, r.Error, "unexpected error: %+v", r.Error)
	if result != nil {
		require.NoError(t, json.Unmarshal(r.Result, result))
	}
}

func (h *harness) fails(t *testing.T, method string, params any, code int) *protocol.Error {
	t.Helper()
	r := h.call(t, method, params)
	require.NotNil(t, r.Error, "expected %s, got result %s", protocol.CodeName(code), r.Result)
	require.Equal(t, code, r.Error.Code, "message: %s", r.Error.Message)
	return r.Error
}

func (h *harness) write(t *testing.T, rel, body string) {
	t.Helper()
	full := filepath.Join(h.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
}

func kind(e *protocol.Error) string {
	data, ok := e.Data.(map[string]any)
	if !ok {
		return ""
	}
	k, _ := data["kind"].(string)
	return k
}
