package dap

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by Send and surfaced to pending futures
// when a session's transport has closed.
var ErrSessionClosed = errors.New("dap: session closed")

// ErrAlreadyBound is reported to the error handler when bind is called
// more than once on the same session.
var ErrAlreadyBound = errors.New("dap: session already bound")

// ErrReentrantSend is returned by Send when called from within the
// read pump of the same session — the response could never be read,
// since the single read-pump goroutine is the caller.
var ErrReentrantSend = errors.New("dap: reentrant blocking send from read pump")

// ErrNoHandler is the message text (not a sentinel on the wire, per
// spec) sent back to a peer that issues a request with no registered
// handler. Kept as an error value for the local-side error handler
// notification that accompanies the wire response.
var ErrNoHandler = errors.New("no handler registered")

// Error represents a DAP-level error: a response that failed, or a
// request that a handler chose not to satisfy. An empty Message means
// success; Error implements the error interface so it composes with
// ResponseOrError.
type Error struct {
	Message string
}

// NewError builds an Error from a format string, mirroring the
// variadic constructor in the original implementation.
func NewError(format string, args ...any) Error {
	return Error{Message: fmt.Sprintf(format, args...)}
}

// IsSet reports whether this Error carries a message.
func (e Error) IsSet() bool { return e.Message != "" }

func (e Error) Error() string { return e.Message }

// ResponseOrError holds either a successfully produced *T or the Error
// that prevented it, mirroring the original session type's
// ResponseOrError<T>. It is the shape RegisterSentHandler's observers
// see: a handler can either produce a response or fail, and an
// observer watching what the session replies with needs to see both
// outcomes, not just the success path.
type ResponseOrError[T any] struct {
	response *T
	err      Error
}

// NewResponse wraps a successful result.
func NewResponse[T any](v *T) ResponseOrError[T] {
	return ResponseOrError[T]{response: v}
}

// NewResponseError wraps a failure.
func NewResponseError[T any](err Error) ResponseOrError[T] {
	return ResponseOrError[T]{err: err}
}

// Failed reports whether this result carries an Error rather than a
// response.
func (r ResponseOrError[T]) Failed() bool { return r.err.IsSet() }

// Response returns the successful value and true, or (nil, false) if
// this result carries an Error instead.
func (r ResponseOrError[T]) Response() (*T, bool) {
	return r.response, !r.err.IsSet()
}

// Error returns the failure this result carries, or the zero Error
// (IsSet() == false) if it carries a successful response.
func (r ResponseOrError[T]) Error() Error { return r.err }

// SessionError wraps a lower-level error with a stable error code for
// programmatic handling by callers, following the teacher's structured
// error convention.
type SessionError struct {
	Code    string
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SessionError) Unwrap() error { return e.Cause }

func newSessionError(code, message string, cause error) *SessionError {
	return &SessionError{Code: code, Message: message, Cause: cause}
}
