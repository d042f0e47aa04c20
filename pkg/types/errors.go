package types

import "fmt"

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindCorrupt       ErrKind = iota // bad magic, broken chain, unreadable header
	ErrKindChecksum                     // page footer does not match its content
	ErrKindInvalidHandle                // free, out-of-range or header-page handle
	ErrKindOutOfRange                   // offset/count beyond the recorded length
	ErrKindSecurity                     // encrypted page without a key, bad password
	ErrKindCapacity                     // plaintext too large, page index space exhausted
	ErrKindUnsupported                  // valid request the store cannot serve
	ErrKindState                        // operation on a closed store
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindCorrupt:
		return "corrupt"
	case ErrKindChecksum:
		return "checksum"
	case ErrKindInvalidHandle:
		return "invalid-handle"
	case ErrKindOutOfRange:
		return "out-of-range"
	case ErrKindSecurity:
		return "security"
	case ErrKindCapacity:
		return "capacity"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindState:
		return "state"
	default:
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Msg == "" && e.Err != nil:
		return e.Err.Error()
	case e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrInvalidHandle)
// holds for every invalid-handle error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Errorf builds a typed error of the given kind from a format string. A %w
// verb keeps its operand reachable through errors.Is / errors.As.
func Errorf(kind ErrKind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Sentinels commonly returned by implementations.
var (
	// ErrCorrupt indicates a non-recoverable structural inconsistency.
	ErrCorrupt = &Error{Kind: ErrKindCorrupt, Msg: "corrupt store"}
	// ErrChecksum indicates a page whose footer does not match its content.
	ErrChecksum = &Error{Kind: ErrKindChecksum, Msg: "checksum mismatch"}
	// ErrInvalidHandle indicates a free, out-of-range or header-page handle.
	ErrInvalidHandle = &Error{Kind: ErrKindInvalidHandle, Msg: "invalid handle"}
	// ErrOutOfRange indicates an offset or count beyond the recorded length.
	ErrOutOfRange = &Error{Kind: ErrKindOutOfRange, Msg: "out of range"}
	// ErrSecurity indicates encrypted data accessed without a key, or a bad password.
	ErrSecurity = &Error{Kind: ErrKindSecurity, Msg: "security violation"}
	// ErrCapacity indicates data or growth beyond what the format can hold.
	ErrCapacity = &Error{Kind: ErrKindCapacity, Msg: "capacity exceeded"}
	// ErrUnsupported indicates a recognized but unsupported request.
	ErrUnsupported = &Error{Kind: ErrKindUnsupported, Msg: "unsupported operation"}
	// ErrClosed indicates the store was already closed.
	ErrClosed = &Error{Kind: ErrKindState, Msg: "store is closed"}
)
