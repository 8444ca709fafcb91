package protocol

import "fmt"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeServerError    = -32000
)

// Domain error codes. They sit in the implementation-defined server range and
// never overlap the standard codes above.
const (
	CodePathTraversal        = -32001
	CodePolicyViolation      = -32002
	CodeFileTooLarge         = -32003
	CodeOperationDenied      = -32004
	CodeConfirmationRequired = -32005
)

// Error is the error object carried by a failed Response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewError creates an error object without data.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates an error object with a formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithData returns a copy of e carrying data.
func (e *Error) WithData(data any) *Error {
	cp := *e
	cp.Data = data
	return &cp
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// CodeName returns a short symbolic name for logging.
func CodeName(code int) string {
	switch code {
	case CodeParseError:
		return "PARSE_ERROR"
	case CodeInvalidRequest:
		return "INVALID_REQUEST"
	case CodeMethodNotFound:
		return "METHOD_NOT_FOUND"
	case CodeInvalidParams:
		return "INVALID_PARAMS"
	case CodeInternalError:
		return "INTERNAL_ERROR"
	case CodeServerError:
		return "SERVER_ERROR"
	case CodePathTraversal:
		return "PATH_TRAVERSAL"
	case CodePolicyViolation:
		return "POLICY_VIOLATION"
	case CodeFileTooLarge:
		return "FILE_TOO_LARGE"
	case CodeOperationDenied:
		return "OPERATION_DENIED"
	case CodeConfirmationRequired:
		return "CONFIRMATION_REQUIRED"
	default:
		return fmt.Sprintf("CODE_%d", code)
	}
}
