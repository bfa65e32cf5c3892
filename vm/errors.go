package vm

import "errors"

// Failure conditions returned by VM operations. Stack errors are
// recoverable: the rejected operation leaves the VM unchanged.
// ErrOutOfMemory means the heap could not grow even after a collection
// cycle; the VM has no further reclamation strategy beyond it.
var (
	ErrStackOverflow  = errors.New("vm: stack overflow")
	ErrStackUnderflow = errors.New("vm: stack underflow")
	ErrOutOfMemory    = errors.New("vm: out of memory")
	ErrNotPair        = errors.New("vm: not a pair")
	ErrNotInt         = errors.New("vm: not an integer")
)
