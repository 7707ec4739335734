/*
Package orm provides an easy to use db wrapper for account records.

State space is broken into prefixed sections called Buckets. Each bucket
contains only one type of record, keyed by its address.

Records are stored in allocated accounts: the stored value always has the
length that was allocated for it, and the encoded record is zero padded up to
that length. Writing a record that does not fit into its allocation fails
instead of silently growing the account. Growing (or shrinking) an account is
an explicit Realloc call, so that callers always know the exact footprint of
what they store.
*/
package orm
