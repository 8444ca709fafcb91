// Package protocol implements the JSON-RPC 2.0 envelopes spoken by the server.
//
// Three kinds of message share one schema: a Request carries an id and a method,
// a Notification carries a method but no id, and a Response carries an id and
// exactly one of result or error. Decoding is strict; anything that is not a
// well-formed 2.0 envelope is rejected before it reaches the dispatcher.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the only accepted value of the jsonrpc member.
const Version = "2.0"

// Message is a decoded envelope of any kind.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"` // nil for notifications
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsRequest reports whether the message expects a response.
func (m *Message) IsRequest() bool {
	return m.Method != "" && m.ID != nil
}

// IsNotification reports whether the message is a method call without an id.
func (m *Message) IsNotification() bool {
	return m.Method != "" && m.ID == nil
}

// IsResponse reports whether the message is a reply to an earlier request.
func (m *Message) IsResponse() bool {
	return m.Method == "" && m.ID != nil && (m.Result != nil || m.Error != nil)
}

// Decode parses one envelope. On failure it returns an *Error with
// CodeParseError or CodeInvalidRequest; the returned Message is still
// non-nil whenever an id could be recovered, so the caller can address
// the error response.
func Decode(data []byte) (*Message, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, NewError(CodeParseError, "parse error: invalid JSON")
	}

	switch data[0] {
	case '{':
	case '[':
		return nil, NewError(CodeInvalidRequest, "batch requests are not supported")
	default:
		return nil, NewError(CodeInvalidRequest, "request must be a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, NewError(CodeParseError, "parse error: "+err.Error())
	}

	msg := &Message{}
	if raw, ok := fields["id"]; ok {
		if !validID(raw) {
			return nil, NewError(CodeInvalidRequest, "id must be a string, number or null")
		}
		msg.ID = raw
	}

	raw, ok := fields["jsonrpc"]
	if !ok || json.Unmarshal(raw, &msg.JSONRPC) != nil || msg.JSONRPC != Version {
		return msg, NewError(CodeInvalidRequest, `jsonrpc must be exactly "2.0"`)
	}

	if raw, ok := fields["method"]; ok {
		if err := json.Unmarshal(raw, &msg.Method); err != nil || msg.Method == "" {
			return msg, NewError(CodeInvalidRequest, "method must be a non-empty string")
		}
		if params, ok := fields["params"]; ok && !isNull(params) {
			if params[0] != '{' && params[0] != '[' {
				return msg, NewError(CodeInvalidRequest, "params must be an object or an array")
			}
			msg.Params = params
		}
		return msg, nil
	}

	result, hasResult := fields["result"]
	errRaw, hasError := fields["error"]
	switch {
	case msg.ID == nil || (!hasResult && !hasError):
		return msg, NewError(CodeInvalidRequest, "message has neither a method nor an id with result or error")
	case hasResult && hasError:
		return msg, NewError(CodeInvalidRequest, "response must not carry both result and error")
	case hasResult:
		msg.Result = result
	default:
		var rpcErr Error
		if err := json.Unmarshal(errRaw, &rpcErr); err != nil {
			return msg, NewError(CodeInvalidRequest, "malformed error object")
		}
		msg.Error = &rpcErr
	}
	return msg, nil
}

func validID(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case '"', 'n', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Response is an outgoing reply. Exactly one of Result or Error is emitted.
type Response struct {
	ID     json.RawMessage
	Result any
	Error  *Error
}

// NewResult builds a success response.
func NewResult(id json.RawMessage, result any) *Response {
	return &Response{ID: id, Result: result}
}

// NewErrorResponse builds a failure response. A nil id is sent as null.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{ID: id, Error: err}
}

// MarshalJSON implements json.Marshaler.
func (r *Response) MarshalJSON() ([]byte, error) {
	id := r.ID
	if id == nil {
		id = json.RawMessage("null")
	}
	if r.Error != nil {
		return json.Marshal(struct {
			JSONRPC string          `json:"jsonrpc"`
			ID      json.RawMessage `json:"id"`
			Error   *Error          `json:"error"`
		}{Version, id, r.Error})
	}
	return json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  any             `json:"result"`
	}{Version, id, r.Result})
}

// Notification is an outgoing method call that expects no reply.
type Notification struct {
	Method string
	Params any
}

// MarshalJSON implements json.Marshaler.
func (n *Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}{Version, n.Method, n.Params})
}

// Encode serialises a Response or Notification to a single JSON document
// without a trailing newline.
func Encode(v json.Marshaler) ([]byte, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}
