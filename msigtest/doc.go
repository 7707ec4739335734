/*
Package msigtest provides fixtures for testing multisig state transitions:
member keys, in-memory stores and a fake execution layer.
*/
package msigtest
