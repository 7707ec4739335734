/*
Package errors provides registered root errors for the multisig core.

Every error returned by an operation wraps one of the root errors, so that a
caller can tell the kind of a failure apart from its message:

	if multisig.ErrStaleTransaction.Is(err) {
		...
	}

Root errors shared by all packages are declared here. A package that needs a
more precise kind registers its own with Register(code, description) during
initialization; x/multisig uses codes 200-209 and orm uses code 300.

Wrap and Wrapf attach a description and, at the innermost wrap, a stack trace.
Print an error with %+v to see the stack trace.

Validation reports every broken invariant at once. Field names the offending
attribute, Append clubs errors together and FieldErrors finds the errors of a
single attribute.
*/
package errors
