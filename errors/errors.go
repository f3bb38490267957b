package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates which layer reported the error
type Phase string

const (
	PhaseNative    Phase = "native"    // status returned by a gateway call
	PhaseRegistry  Phase = "registry"  // handle registry bookkeeping
	PhaseLifecycle Phase = "lifecycle" // wrapper state machine
	PhaseBuffer    Phase = "buffer"    // borrowed native memory
	PhaseLoad      Phase = "load"      // gateway/module loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidArgument   Kind = "invalid_argument"
	KindOutOfMemory       Kind = "out_of_memory"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindInvalidHandle     Kind = "invalid_handle"
	KindAlreadyReleased   Kind = "already_released"
	KindResourceInUse     Kind = "resource_in_use"
	KindNativeFailure     Kind = "native_failure"
)

// Error is the structured error type used throughout ftbind
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Op      string
	Detail  string
	Handle  uint64
	Code    int32
	HasCode bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.HasCode {
		fmt.Fprintf(&b, " (code 0x%02x", uint32(e.Code))
		if name := Name(e.Code); name != "" {
			b.WriteByte(' ')
			b.WriteString(name)
		}
		b.WriteByte(')')
	}

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.Handle != 0 {
		fmt.Fprintf(&b, " handle %#x", e.Handle)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// Kind must match; Phase and Code must match when the target sets them.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	if t.HasCode && (!e.HasCode || t.Code != e.Code) {
		return false
	}
	return true
}

// Sentinels for errors.Is. They carry only a Kind.
var (
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
	ErrOutOfMemory       = &Error{Kind: KindOutOfMemory}
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrInvalidHandle     = &Error{Kind: KindInvalidHandle}
	ErrAlreadyReleased   = &Error{Kind: KindAlreadyReleased}
	ErrResourceInUse     = &Error{Kind: KindResourceInUse}
	ErrNativeFailure     = &Error{Kind: KindNativeFailure}
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// From starts a builder from a copy of an existing error.
func From(e *Error) *Builder {
	return &Builder{err: *e}
}

// Op sets the operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Handle sets the registry handle involved
func (b *Builder) Handle(h uint64) *Builder {
	b.err.Handle = h
	return b
}

// Code sets the native status code
func (b *Builder) Code(code int32) *Builder {
	b.err.Code = code
	b.err.HasCode = true
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidArgument creates an invalid argument error
func InvalidArgument(phase Phase, op, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgument,
		Op:     op,
		Detail: detail,
	}
}

// InvalidHandle creates an invalid handle error
func InvalidHandle(phase Phase, op string, handle uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Op:     op,
		Handle: handle,
	}
}

// AlreadyReleased creates an already-released error
func AlreadyReleased(phase Phase, op string, handle uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAlreadyReleased,
		Op:     op,
		Handle: handle,
	}
}

// ResourceInUse creates an error for a handle that still has live children
func ResourceInUse(handle uint64, children int) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindResourceInUse,
		Op:     "release",
		Handle: handle,
		Detail: fmt.Sprintf("%d live child handle(s)", children),
	}
}

// OutOfMemory creates an out of memory error not tied to a native code
func OutOfMemory(phase Phase, op, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfMemory,
		Op:     op,
		Detail: detail,
	}
}

// Load creates a gateway loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindNativeFailure,
		Detail: detail,
		Cause:  cause,
	}
}
