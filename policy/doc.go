// Package policy provides optional declarative rules applied by the syscall
// dispatch layer on top of the ledger's admission verdict – for example to
// require confirmation before resource-bearing calls or to block selected
// syscalls outright.
package policy
