package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Cyclone1070/workspacerpc/internal/protocol"
)

// echoHandler replies to every request with its params. Method "slow" sleeps
// first and method "panic" is never sent by tests that expect a reply.
type echoHandler struct {
	mu    sync.Mutex
	calls int
}

func (h *echoHandler) Handle(ctx context.Context, frame []byte) []byte {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()

	msg, err := protocol.Decode(frame)
	if err != nil {
		var id json.RawMessage
		if msg != nil {
			id = msg.ID
		}
		data, _ := protocol.Encode(protocol.NewErrorResponse(id, err.(*protocol.Error)))
		return data
	}
	if msg.IsNotification() {
		return nil
	}
	if msg.Method == "slow" {
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
		}
	}
	data, _ := protocol.Encode(protocol.NewResult(msg.ID, msg.Params))
	return data
}

func (h *echoHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

type wire struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *protocol.Error `json:"error"`
}
