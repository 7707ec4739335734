// Package gconf stores configuration objects in the database.
//
// Each package keeps a single configuration object under the "_c:<package>"
// key. The object is validated before it is written. It can be initialized
// from the "conf" section of the genesis options, keyed by the package name.
//
// Not being able to load a configuration is a critical condition with no
// recovery path. Callers should fail the operation instead of assuming
// defaults.
package gconf
