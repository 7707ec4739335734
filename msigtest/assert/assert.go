package assert

import (
	"reflect"
	"strings"

	"github.com/iov-one/msig/errors"
)

// Tester is the part of testing.TB used by the assertions.
type Tester interface {
	Helper()
	Logf(string, ...interface{})
	Fatal(...interface{})
	Fatalf(string, ...interface{})
}

// Nil fails the test if value is not nil. Typed nil values, for example a
// nil *Multisig, are nil as well.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		// %+v prints the stack trace of wrapped errors.
		t.Fatalf("want a nil value, got %+v", value)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}

// Equal fails the test if want and got are not deeply equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal\nwant %T %+v\n got %T %+v", want, want, got, got)
	}
}

// Panics fails the test if fn returns without panicking.
func Panics(t Tester, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	fn()
}

// FieldError ensures that err holds exactly one error for given field and
// that it is of the wanted kind. Use a nil want to ensure that the field is
// valid.
func FieldError(t Tester, err error, fieldName string, want *errors.Error) {
	t.Helper()
	errs := errors.FieldErrors(err, fieldName)
	switch {
	case want == nil && len(errs) == 0:
		return
	case want == nil:
		t.Fatalf("want field %q valid, got %s", fieldName, describe(errs))
	case len(errs) == 0:
		t.Fatalf("want field %q error %q, got none", fieldName, want)
	case len(errs) > 1:
		t.Fatalf("want one field %q error, got %s", fieldName, describe(errs))
	case !want.Is(errs[0]):
		t.Fatalf("want field %q error %q, got %q", fieldName, want, errs[0])
	}
}

func describe(errs []error) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return "[" + strings.Join(msgs, "; ") + "]"
}

// IsErr fails the test unless got is of the same kind as want. A nil want
// only matches a nil got.
func IsErr(t Tester, want, got error) {
	t.Helper()
	if want == got {
		return
	}
	type comparator interface {
		Is(error) bool
	}
	if c, ok := want.(comparator); ok && c.Is(got) {
		return
	}
	t.Fatalf("want %q, got %+v", want, got)
}
