// Package sccperr classifies failures at every component boundary (wire
// decode, session I/O, device registration, config publish): a small
// integer Kind with an Error() string, wrapped around the underlying
// cause so callers can both log a human message and switch on Kind to
// decide whether a session should tear down.
package sccperr

import "fmt"

// Kind classifies why an operation failed, not what failed; session.go and
// pkg/device use it to decide whether a failure is fatal to the
// connection or merely logged and skipped.
type Kind int8

const (
	// KindMalformed is a wire framing violation: log and drop the session.
	KindMalformed Kind = iota
	// KindUnsupported is an unknown device type or message id: reply
	// REGISTER_REJ during registration, otherwise ignore at runtime.
	KindUnsupported
	// KindPolicyDenied is an unknown device, a registry name collision, or
	// no free guest slot: REGISTER_REJ with a diagnostic string.
	KindPolicyDenied
	// KindTimeout is an auth or keepalive timeout: drop the session
	// silently.
	KindTimeout
	// KindTransport is a read/write/poll failure: drop the session and
	// increment the fault counter.
	KindTransport
	// KindPanic is an invariant violation: log, increment the panic
	// counter, drop the session, and hard-reset the device.
	KindPanic
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindUnsupported:
		return "unsupported"
	case KindPolicyDenied:
		return "policy_denied"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with the Kind a caller needs to decide
// how to react.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind wrapping err.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Newf builds an *Error of the given kind from a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error,
// defaulting to KindTransport for anything else — an un-annotated error
// is treated as a transport-level failure, the safest "drop the session"
// default.
func KindOf(err error) Kind {
	var se *Error
	if asError(err, &se) {
		return se.Kind
	}
	return KindTransport
}

func asError(err error, target **Error) bool {
	for err != nil {
		if se, ok := err.(*Error); ok {
			*target = se
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
