// Package yerr defines the behaviorally-tagged error kinds shared across
// the card subsystem, so callers can branch on kind without depending on
// a specific sentinel from a specific package.
package yerr

import (
	"errors"
	"fmt"
)

// Kind tags the behavioral category of an error. It is not a substitute
// for sentinel errors within a package; it lets callers crossing package
// boundaries (osc -> cardmgr -> shm) test "what kind of failure was this"
// without importing every package's error variables.
type Kind int

const (
	// Unknown is the zero value; never returned by yerr.New/Wrap.
	Unknown Kind = iota
	// NotFound: shared-memory object missing, card name/id unknown.
	NotFound
	// AlreadyExists: duplicate card name on register (caller may warn and overwrite).
	AlreadyExists
	// InvalidArgument: malformed OSC command, missing flag, invalid shrink.
	InvalidArgument
	// OutOfSpace: allocation exceeds committed reservation, atlas exhausted.
	OutOfSpace
	// TooLarge: texture exceeds atlas maximum dimension.
	TooLarge
	// ProtocolError: malformed RPC frame, unexpected msgpack type.
	ProtocolError
	// Unavailable: poisoned shm region, disposed manager.
	Unavailable
	// OsError: mmap/socket/shm_open etc. failure.
	OsError
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case AlreadyExists:
		return "already_exists"
	case InvalidArgument:
		return "invalid_argument"
	case OutOfSpace:
		return "out_of_space"
	case TooLarge:
		return "too_large"
	case ProtocolError:
		return "protocol_error"
	case Unavailable:
		return "unavailable"
	case OsError:
		return "os_error"
	default:
		return "unknown"
	}
}

// Error wraps a message and an optional cause with a Kind.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's behavioral kind.
func (e *Error) Kind() Kind { return e.kind }

// New creates a Kind-tagged error.
func New(kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// Newf creates a Kind-tagged error with formatting.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an existing error with a Kind, preserving it as the cause.
func Wrap(kind Kind, msg string, cause error) error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.kind == kind {
			return true
		}
		if e.cause == nil {
			return false
		}
		err = e.cause
	}
	return false
}

// KindOf extracts the Kind from err, or Unknown if none is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return Unknown
}
