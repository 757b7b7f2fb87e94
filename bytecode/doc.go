// Package bytecode defines the compiled program representation consumed by
// the Ember virtual machine.
//
// A Unit is an immutable container of functions and a shared constant pool.
// Units are produced by an external compiler or loader; this package only
// defines the in-memory structure, structural validation, and a JSON
// interchange form. Once constructed, a Unit is never mutated and is safe to
// share across concurrently executing virtual machines.
package bytecode
