package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantCode     int
		wantID       string
		request      bool
		notification bool
		response     bool
	}{
		{name: "request with numeric id", input: `{"jsonrpc":"2.0","id":1,"method":"fs.read","params":{"path":"a"}}`, wantID: "1", request: true},
		{name: "request with string id", input: `{"jsonrpc":"2.0","id":"abc","method":"initialize"}`, wantID: `"abc"`, request: true},
		{name: "request with null id", input: `{"jsonrpc":"2.0","id":null,"method":"initialize"}`, wantID: "null", request: true},
		{name: "notification", input: `{"jsonrpc":"2.0","method":"initialized"}`, notification: true},
		{name: "response with result", input: `{"jsonrpc":"2.0","id":7,"result":{"ok":true}}`, wantID: "7", response: true},
		{name: "response with error", input: `{"jsonrpc":"2.0","id":7,"error":{"code":-32601,"message":"nope"}}`, wantID: "7", response: true},
		{name: "leading whitespace", input: "  {\"jsonrpc\":\"2.0\",\"id\":2,\"method\":\"capabilities\"}\r\n", wantID: "2", request: true},

		{name: "not json", input: `{"jsonrpc":`, wantCode: CodeParseError},
		{name: "empty input", input: ``, wantCode: CodeParseError},
		{name: "batch array", input: `[{"jsonrpc":"2.0","id":1,"method":"initialize"}]`, wantCode: CodeInvalidRequest},
		{name: "scalar", input: `42`, wantCode: CodeInvalidRequest},
		{name: "missing version", input: `{"id":1,"method":"initialize"}`, wantCode: CodeInvalidRequest, wantID: "1"},
		{name: "wrong version", input: `{"jsonrpc":"1.0","id":1,"method":"initialize"}`, wantCode: CodeInvalidRequest, wantID: "1"},
		{name: "numeric version", input: `{"jsonrpc":2.0,"id":1,"method":"initialize"}`, wantCode: CodeInvalidRequest, wantID: "1"},
		{name: "missing method and result", input: `{"jsonrpc":"2.0","id":1}`, wantCode: CodeInvalidRequest, wantID: "1"},
		{name: "nothing at all", input: `{"jsonrpc":"2.0"}`, wantCode: CodeInvalidRequest},
		{name: "empty method", input: `{"jsonrpc":"2.0","id":1,"method":""}`, wantCode: CodeInvalidRequest, wantID: "1"},
		{name: "method not a string", input: `{"jsonrpc":"2.0","id":1,"method":5}`, wantCode: CodeInvalidRequest, wantID: "1"},
		{name: "params scalar", input: `{"jsonrpc":"2.0","id":1,"method":"fs.read","params":"a"}`, wantCode: CodeInvalidRequest, wantID: "1"},
		{name: "id is an object", input: `{"jsonrpc":"2.0","id":{},"method":"initialize"}`, wantCode: CodeInvalidRequest},
		{name: "result and error", input: `{"jsonrpc":"2.0","id":1,"result":1,"error":{"code":1,"message":"x"}}`, wantCode: CodeInvalidRequest, wantID: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.input))
			if tt.wantCode != 0 {
				require.Error(t, err)
				var rpcErr *Error
				require.True(t, errors.As(err, &rpcErr))
				assert.Equal(t, tt.wantCode, rpcErr.Code)
				if tt.wantID != "" {
					require.NotNil(t, msg)
					assert.Equal(t, tt.wantID, string(msg.ID))
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, Version, msg.JSONRPC)
			assert.Equal(t, tt.wantID, string(msg.ID))
			assert.Equal(t, tt.request, msg.IsRequest())
			assert.Equal(t, tt.notification, msg.IsNotification())
			assert.Equal(t, tt.response, msg.IsResponse())
		})
	}
}

func TestDecodeNullParamsTreatedAsAbsent(t *testing.T) {
	msg, err := Decode([]byte(`{"jsonrpc":"2.0","id":1,"method":"capabilities","params":null}`))
	require.NoError(t, err)
	assert.Nil(t, msg.Params)
}

func TestResponseEncoding(t *testing.T) {
	t.Run("result", func(t *testing.T) {
		data, err := Encode(NewResult(json.RawMessage(`3`), map[string]int{"size": 2}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":3,"result":{"size":2}}`, string(data))
	})

	t.Run("nil result is emitted as null", func(t *testing.T) {
		data, err := Encode(NewResult(json.RawMessage(`"x"`), nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":"x","result":null}`, string(data))
	})

	t.Run("error without id", func(t *testing.T) {
		data, err := Encode(NewErrorResponse(nil, NewError(CodeParseError, "parse error")))
		require.NoError(t, err)
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"parse error"}}`, string(data))
	})

	t.Run("error with data", func(t *testing.T) {
		rpcErr := NewError(CodeServerError, "missing").WithData(map[string]string{"kind": "not_found"})
		data, err := Encode(NewErrorResponse(json.RawMessage(`1`), rpcErr))
		require.NoError(t, err)
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"missing","data":{"kind":"not_found"}}}`, string(data))
	})
}

func TestNotificationEncoding(t *testing.T) {
	data, err := Encode(&Notification{Method: "terminal.exited", Params: map[string]int{"exitCode": 0}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"terminal.exited","params":{"exitCode":0}}`, string(data))

	msg, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, msg.IsNotification())
}

func TestCodesAreDisjoint(t *testing.T) {
	codes := []int{
		CodeParseError, CodeInvalidRequest, CodeMethodNotFound, CodeInvalidParams,
		CodeInternalError, CodeServerError, CodePathTraversal, CodePolicyViolation,
		CodeFileTooLarge, CodeOperationDenied, CodeConfirmationRequired,
	}
	seen := make(map[int]bool)
	for _, c := range codes {
		assert.False(t, seen[c], "duplicate code %d", c)
		seen[c] = true
		assert.Less(t, c, 0)
	}
}
