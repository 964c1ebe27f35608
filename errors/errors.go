// Package errors provides structured error types for intentbench.
// Every error carries a code and a human message. Codes map to process
// exit codes so the CLI fails the same way for the same cause.
package errors

import (
	"fmt"
)

// Error codes used by the harness.
const (
	CodeInternal    = "internal"    // unexpected failure
	CodeCancelled   = "cancelled"   // run interrupted
	CodeTransport   = "transport"   // request could not be sent or read
	CodeProtocol    = "protocol"    // response body did not match the contract
	CodeValidation  = "validation"  // invalid input, config or dataset
	CodeNotFound    = "not_found"   // dataset file does not exist
	CodeUnavailable = "unavailable" // service answered with a non-200 status
)

// Error is a structured error with a code, message and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// New creates an error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps cause with a code and message. A nil cause yields nil.
func Wrap(code string, cause error, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code string, cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Code extracts the error code from any error in the chain. Errors that
// are not *Error report CodeInternal.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ExitCode maps an error code to a process exit code.
func ExitCode(code string) int {
	switch code {
	case "":
		return 0
	case CodeValidation:
		return 2
	case CodeNotFound:
		return 3
	case CodeUnavailable:
		return 6
	case CodeTransport:
		return 7
	case CodeProtocol:
		return 8
	case CodeCancelled:
		return 130 // 128 + SIGINT
	default:
		return 1
	}
}

// As finds the first *Error in err's chain and stores it in target.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
