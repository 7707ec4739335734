/*
Package multisig implements the governance core of a multisig: a membership
ledger with an approval threshold, transactions collecting approve, reject
and cancel votes, and instructions executed once a transaction is approved.

Multisig, Transaction and Instruction are plain state machines. They do not
access the store, verify callers or execute anything. The Controller builds
on top of them: it loads and stores accounts, decides when votes change the
transaction status and hands approved instructions to an Executor.

Membership changes invalidate every transaction proposed before them. A
transaction whose index is not greater than the multisig change index is
stale and can no longer be voted on, activated or executed.
*/
package multisig
