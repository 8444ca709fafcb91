// Package errutil classifies operation errors by behaviour.
//
// Operation packages never return protocol codes. Instead their error types
// implement one of the marker methods below and the dispatcher asks these
// predicates which protocol error to surface.
package errutil

import (
	"errors"
	"fmt"
)

type invalidInput interface{ InvalidInput() bool }
type fileMissing interface{ FileMissing() bool }
type alreadyExists interface{ AlreadyExists() bool }
type notDirectory interface{ NotDirectory() bool }
type notFile interface{ NotFile() bool }
type traversal interface{ Traversal() bool }
type policyViolation interface{ PolicyViolation() bool }
type tooLarge interface{ TooLarge() bool }
type confirmationRequired interface{ ConfirmationRequired() bool }
type operationDenied interface{ OperationDenied() bool }
type commandFailed interface{ CommandFailed() bool }
type ioError interface{ IOError() bool }

func has[T any](err error, check func(T) bool) bool {
	var target T
	if errors.As(err, &target) {
		return check(target)
	}
	return false
}

// IsInvalidInput reports whether err was caused by malformed arguments.
func IsInvalidInput(err error) bool {
	return has(err, func(e invalidInput) bool { return e.InvalidInput() })
}

// IsFileMissing reports whether err means the target path does not exist.
func IsFileMissing(err error) bool {
	return has(err, func(e fileMissing) bool { return e.FileMissing() })
}

// IsAlreadyExists reports whether err means the target path already exists.
func IsAlreadyExists(err error) bool {
	return has(err, func(e alreadyExists) bool { return e.AlreadyExists() })
}

// IsNotDirectory reports whether a directory was expected.
func IsNotDirectory(err error) bool {
	return has(err, func(e notDirectory) bool { return e.NotDirectory() })
}

// IsNotFile reports whether a regular file was expected.
func IsNotFile(err error) bool {
	return has(err, func(e notFile) bool { return e.NotFile() })
}

// IsTraversal reports whether a path escaped the workspace root.
func IsTraversal(err error) bool {
	return has(err, func(e traversal) bool { return e.Traversal() })
}

// IsPolicyViolation reports whether the policy rejected a path or command.
func IsPolicyViolation(err error) bool {
	return has(err, func(e policyViolation) bool { return e.PolicyViolation() })
}

// IsTooLarge reports whether content exceeded a configured size ceiling.
func IsTooLarge(err error) bool {
	return has(err, func(e tooLarge) bool { return e.TooLarge() })
}

// IsConfirmationRequired reports whether the caller must resend with confirmed=true.
func IsConfirmationRequired(err error) bool {
	return has(err, func(e confirmationRequired) bool { return e.ConfirmationRequired() })
}

// IsOperationDenied reports whether the operation cannot run in this environment.
func IsOperationDenied(err error) bool {
	return has(err, func(e operationDenied) bool { return e.OperationDenied() })
}

// IsCommandFailed reports whether a process could not be spawned or waited on.
func IsCommandFailed(err error) bool {
	return has(err, func(e commandFailed) bool { return e.CommandFailed() })
}

// IsIOError reports whether the operating system failed an otherwise valid operation.
func IsIOError(err error) bool {
	return has(err, func(e ioError) bool { return e.IOError() })
}

// InvalidInputError marks a request validation failure.
type InvalidInputError struct {
	Cause error
}

// Invalid wraps err so that IsInvalidInput reports true for it.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return &InvalidInputError{Cause: err}
}

// Invalidf is Invalid(fmt.Errorf(format, args...)).
func Invalidf(format string, args ...any) error {
	return &InvalidInputError{Cause: fmt.Errorf(format, args...)}
}

func (e *InvalidInputError) Error() string      { return e.Cause.Error() }
func (e *InvalidInputError) Unwrap() error      { return e.Cause }
func (e *InvalidInputError) InvalidInput() bool { return true }
