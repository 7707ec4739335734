package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field attaches the name of the attribute that failed validation to err.
// It returns nil for a nil err. Use Go field names, for example Threshold,
// and dot notation for nested values (Keys.2.PublicKey).
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{parent: err, field: fieldName, desc: description}
}

// AppendField appends a field error to errs. Nil values are ignored, so
// validation can collect every check without branching:
//
//	errs = errors.AppendField(errs, "Threshold", validThreshold(...))
func AppendField(errs error, fieldName string, err error) error {
	return Append(errs, Field(fieldName, err, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (e *fieldError) Error() string {
	if e.desc == "" {
		return fmt.Sprintf("field %q: %s", e.field, e.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", e.field, e.desc, e.parent)
}

func (e *fieldError) Cause() error {
	return e.parent
}

func (e *fieldError) Unwrap() error {
	return e.parent
}

// Field returns the name of the validated attribute.
func (e *fieldError) Field() string {
	return e.field
}

// FieldErrors returns all errors created for given field name. The whole
// error tree is searched, including errors clubbed together with Append.
func FieldErrors(err error, fieldName string) []error {
	var res []error
	for !isNilErr(err) {
		if f, ok := err.(fielder); ok && f.Field() == fieldName {
			return append(res, err)
		}
		if u, ok := err.(unpacker); ok {
			for _, inner := range u.Unpack() {
				res = append(res, FieldErrors(inner, fieldName)...)
			}
			return res
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return res
}

type fielder interface {
	Field() string
}
