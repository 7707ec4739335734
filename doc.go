/*
Package msig defines the contracts between the multisig governance core and
the environment hosting it: key value storage with savepoints, genesis
options, logging and version information.

The host owns persistence, signature verification and the execution of
approved instructions. The core, implemented in x/multisig, only applies
state transitions to the records it is given.
*/
package msig
