// Package transport frames JSON-RPC messages on a byte stream or a WebSocket
// and hands each frame to a Handler. Transports know nothing about methods.
package transport

import (
	"context"
	"fmt"

	"github.com/Cyclone1070/workspacerpc/internal/protocol"
)

// Handler processes one inbound frame and returns the reply frame, or nil
// when no reply is due.
type Handler interface {
	Handle(ctx context.Context, frame []byte) []byte
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, frame []byte) []byte

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, frame []byte) []byte {
	return f(ctx, frame)
}

// frameTooLarge is the reply to a frame that exceeded the size limit. The
// request id is unknown because the frame was never decoded.
func frameTooLarge(limit int) []byte {
	resp := protocol.NewErrorResponse(nil, protocol.NewError(
		protocol.CodeInvalidRequest,
		fmt.Sprintf("frame exceeds %d bytes", limit),
	))
	data, _ := protocol.Encode(resp)
	return data
}
