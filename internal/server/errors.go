package server

import (
	"context"
	"errors"

	"github.com/Cyclone1070/workspacerpc/internal/protocol"
	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
)

// Values of data.kind on SERVER_ERROR responses.
const (
	KindNotFound      = "not_found"
	KindAlreadyExists = "already_exists"
	KindNotADirectory = "not_a_directory"
	KindNotAFile      = "not_a_file"
	KindExecFailed    = "exec_failed"
	KindIOError       = "io_error"
	KindCancelled     = "cancelled"
)

const internalMessage = "internal error"

// toProtocolError maps an operation failure onto the wire taxonomy. The second
// result is false when the failure is unexpected and its detail must not leak.
func toProtocolError(err error) (*protocol.Error, bool) {
	msg := err.Error()
	switch {
	case errutil.IsTraversal(err):
		return protocol.NewError(protocol.CodePathTraversal, msg), true
	case errutil.IsPolicyViolation(err):
		return protocol.NewError(protocol.CodePolicyViolation, msg), true
	case errutil.IsConfirmationRequired(err):
		return protocol.NewError(protocol.CodeConfirmationRequired, msg), true
	case errutil.IsTooLarge(err):
		return protocol.NewError(protocol.CodeFileTooLarge, msg), true
	case errutil.IsOperationDenied(err):
		return protocol.NewError(protocol.CodeOperationDenied, msg), true
	case errutil.IsInvalidInput(err):
		return protocol.NewError(protocol.CodeInvalidParams, msg), true
	case errutil.IsFileMissing(err):
		return serverError(msg, KindNotFound), true
	case errutil.IsAlreadyExists(err):
		return serverError(msg, KindAlreadyExists), true
	case errutil.IsNotDirectory(err):
		return serverError(msg, KindNotADirectory), true
	case errutil.IsNotFile(err):
		return serverError(msg, KindNotAFile), true
	case errutil.IsCommandFailed(err):
		return serverError(msg, KindExecFailed), true
	case errutil.IsIOError(err):
		return serverError(msg, KindIOError), true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return serverError("request cancelled", KindCancelled), true
	}
	return protocol.NewError(protocol.CodeInternalError, internalMessage), false
}

func serverError(msg, kind string) *protocol.Error {
	return protocol.NewError(protocol.CodeServerError, msg).WithData(map[string]string{"kind": kind})
}
