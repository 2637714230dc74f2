// Package errs classifies failures raised while listing and deleting remote files.
//
// Codes are string-based so they read naturally in structured logs. Callers branch on a
// code with Is or CodeOf rather than on message text.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure.
type Code string

const (
	// CodeInvalidArgument indicates a bad cutoff or concurrency value. Always pre-flight.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// CodeInvalidConfig indicates missing or inconsistent configuration.
	CodeInvalidConfig Code = "INVALID_CONFIGURATION"

	// CodeNetwork indicates a transport-level failure (DNS, refused connection, timeout)
	// or a non-2xx status on the listing call.
	CodeNetwork Code = "NETWORK_ERROR"

	// CodeParse indicates a response body that does not match the expected shape.
	CodeParse Code = "PARSE_ERROR"

	// CodeRemoteRejection indicates the remote service refused an individual request.
	CodeRemoteRejection Code = "REMOTE_REJECTION"

	// CodeUnknown is reported for errors that carry no code.
	CodeUnknown Code = "UNKNOWN"
)

// Error is an error tagged with a Code and the operation that produced it.
type Error struct {
	Code Code
	Op   string
	Err  error
}

// New creates a coded error from a message.
func New(code Code, op, msg string) *Error {
	return &Error{Code: code, Op: op, Err: errors.New(msg)}
}

// Newf creates a coded error from a format string.
func Newf(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err with code. A nil err yields nil.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code, so errors.Is(err, &Error{Code: c}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Op == "" && t.Err == nil
}

// CodeOf returns the code of the outermost *Error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is reports whether any error in err's chain carries code.
func Is(err error, code Code) bool {
	return errors.Is(err, &Error{Code: code})
}
