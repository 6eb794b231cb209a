package entities

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable classification carried by every
// failure this service surfaces to its API layer.
type ErrorKind string

const (
	ErrNotFound     ErrorKind = "NOT_FOUND"    // path, deploy key or member unresolved
	ErrConflict     ErrorKind = "CONFLICT"     // name already taken, not resolved by race recovery
	ErrForbidden    ErrorKind = "FORBIDDEN"    // provider denied the operation
	ErrUnauthorized ErrorKind = "UNAUTHORIZED" // path outside the managed root group
	ErrNoChanges    ErrorKind = "NO_CHANGES"   // commit attempted with an empty diff, maps to HTTP 412
	ErrTransport    ErrorKind = "TRANSPORT"    // transient network/remote failure, surfaced after retries
	ErrProvisioning ErrorKind = "PROVISIONING" // unrecoverable failure during multi-step creation
	ErrIO           ErrorKind = "IO"           // local filesystem failure
)

// Error is a kind-tagged failure. Path carries the repository or folder
// path the operation was acting on, when there is one.
type Error struct {
	Kind ErrorKind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Path != "" {
		msg = fmt.Sprintf("%s (path %q)", msg, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a kind-tagged error wrapping an optional cause.
func NewError(kind ErrorKind, path, msg string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Msg: msg, Err: cause}
}

// IsKind reports whether err (or anything it wraps) carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind carried by err, or an empty kind for plain errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
