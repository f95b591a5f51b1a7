package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode  Phase = "encode"  // host to foreign
	PhaseDecode  Phase = "decode"  // foreign to host
	PhaseCompile Phase = "compile" // bytecode to execution context
	PhaseInvoke  Phase = "invoke"  // named procedure call
	PhaseLoad    Phase = "load"    // engine and script loading
	PhaseConfig  Phase = "config"  // configuration
	PhaseRuntime Phase = "runtime" // memory and handle bookkeeping
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBounds    Kind = "out_of_bounds"
	KindDoubleFree     Kind = "double_free"
	KindUseAfterFree   Kind = "use_after_free"
	KindStalePointer   Kind = "stale_pointer"
	KindEncoding       Kind = "encoding"
	KindAllocation     Kind = "allocation"
	KindInvalidEnum    Kind = "invalid_enum"
	KindNilPointer     Kind = "nil_pointer"
	KindInvalidData    Kind = "invalid_data"
	KindUnsupported    Kind = "unsupported"
	KindForeignCall    Kind = "foreign_call"
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
	KindNotInitialized Kind = "not_initialized"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	Foreign string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.Foreign != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Foreign != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", foreign type ")
			b.WriteString(e.Foreign)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("foreign type ")
			b.WriteString(e.Foreign)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Foreign != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
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

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether any *Error in err's tree has the given kind.
// Joined errors (multierr, errors.Join) are searched too.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok && e.Kind == kind {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if IsKind(inner, kind) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return IsKind(u.Unwrap(), kind)
	}
	return false
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

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Foreign sets the foreign (Pascal) type name
func (b *Builder) Foreign(t string) *Builder {
	b.err.Foreign = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
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

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// DoubleFree creates an error for releasing an allocation that is not live
func DoubleFree(phase Phase, ptr uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDoubleFree,
		Detail: fmt.Sprintf("pointer 0x%x is not a live allocation", ptr),
		Value:  ptr,
	}
}

// UseAfterFree creates an error for touching a value whose storage was released
func UseAfterFree(phase Phase, foreignType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindUseAfterFree,
		Foreign: foreignType,
		Detail:  "value already freed",
	}
}

// StalePointer creates an error for an address invalidated by reallocation
func StalePointer(phase Phase, path []string, stale, current uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindStalePointer,
		Path:   path,
		Detail: fmt.Sprintf("table 0x%x was reallocated (current 0x%x)", stale, current),
		Value:  stale,
	}
}

// UnknownCodePage creates an encoding error for a code page with no codec
func UnknownCodePage(phase Phase, codePage uint16) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindEncoding,
		Detail: fmt.Sprintf("no codec for code page %d", codePage),
		Value:  codePage,
	}
}

// Encoding wraps a failed text conversion
func Encoding(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindEncoding,
		Detail: detail,
		Cause:  cause,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
		Cause:  cause,
	}
}

// InvalidEnum creates an invalid enum value error
func InvalidEnum(phase Phase, path []string, value any, enumType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindInvalidEnum,
		Path:    path,
		Foreign: enumType,
		Detail:  fmt.Sprintf("invalid enum value %v for %s", value, enumType),
		Value:   value,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, foreignType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindNilPointer,
		Path:    path,
		Foreign: foreignType,
		Detail:  "nil pointer",
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// ForeignCall creates an error for a foreign entry point that failed or produced no result
func ForeignCall(phase Phase, entry string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindForeignCall,
		Detail: fmt.Sprintf("foreign call %s failed", entry),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Load creates a loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
