package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Root errors shared by all packages. Codes below 100 are reserved for this
// package.
var (
	// ErrUnauthorized is returned when the caller is not allowed to run an
	// operation, for example a non member voting.
	ErrUnauthorized = Register(2, "unauthorized")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = Register(3, "not found")

	// ErrModel is returned when a stored record breaks its invariants.
	ErrModel = Register(5, "invalid model")

	// ErrDuplicate is returned when a record with the same key exists.
	ErrDuplicate = Register(6, "duplicate")

	// ErrEmpty is returned when a required value is missing.
	ErrEmpty = Register(9, "value is empty")

	// ErrState is returned when an object is in invalid state.
	ErrState = Register(10, "invalid state")

	// ErrInput is returned for malformed input, including records that
	// cannot be decoded.
	ErrInput = Register(14, "invalid input")

	// ErrOverflow is returned when a counter or a collection length does
	// not fit its type.
	ErrOverflow = Register(16, "an operation cannot be completed due to value overflow")

	// ErrDatabase is returned when the store fails.
	ErrDatabase = Register(17, "database error")
)

// usedCodes guards code uniqueness. Code 1 stands for unclassified errors
// and cannot be registered.
var usedCodes = map[uint32]*Error{1: nil}

// Register declares a new root error. Packages call it when initializing
// their global error variables. Registering the same code twice panics.
func Register(code uint32, description string) *Error {
	if e, ok := usedCodes[code]; ok {
		panic(fmt.Sprintf("error with code %d is already registered: %q", code, e.desc))
	}
	err := &Error{code: code, desc: description}
	usedCodes[code] = err
	return err
}

// Error is a root error. Every error returned at runtime should wrap one of
// them, so that callers can test the kind of a failure with Is.
type Error struct {
	code uint32
	desc string
}

func (e *Error) Error() string {
	return e.desc
}

// Code returns the registered code.
func (e *Error) Code() uint32 {
	return e.code
}

// New returns this error wrapped with given description.
func (e *Error) New(description string) error {
	return Wrap(e, description)
}

// Is returns true if err is of this kind. Wrapped errors are unwrapped and
// errors clubbed together with Append match when any of them does. A nil
// kind matches only a nil error.
func (e *Error) Is(err error) bool {
	if e == nil {
		return isNilErr(err)
	}
	for {
		if err == e {
			return true
		}
		if u, ok := err.(unpacker); ok {
			for _, inner := range u.Unpack() {
				if e.Is(inner) {
					return true
				}
			}
			return false
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
}

// Wrap adds a description to the error. It returns nil for a nil error. A
// stack trace is attached at the first wrap only.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	return &wrappedError{parent: err, msg: description}
}

// Wrapf is Wrap with a formatted description.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.msg, e.parent.Error())
}

func (e *wrappedError) Cause() error {
	return e.parent
}

// Unwrap allows the standard library errors package to inspect the chain.
func (e *wrappedError) Unwrap() error {
	return e.parent
}

// Format prints the message for %s and %v, and the message followed by the
// stack trace for %+v.
func (e *wrappedError) Format(s fmt.State, verb rune) {
	fmt.Fprint(s, e.Error())
	if verb == 'v' && s.Flag('+') {
		if st := stackTrace(e); st != nil {
			fmt.Fprintf(s, "%+v", st)
		}
	}
}

type causer interface {
	Cause() error
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// stackTrace returns the innermost stack trace carried by err, if any.
func stackTrace(err error) errors.StackTrace {
	for err != nil {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}
		c, ok := err.(causer)
		if !ok {
			return nil
		}
		err = c.Cause()
	}
	return nil
}

// isNilErr returns true for nil and for typed nil values.
func isNilErr(err error) bool {
	if err == nil {
		return true
	}
	switch v := reflect.ValueOf(err); v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
