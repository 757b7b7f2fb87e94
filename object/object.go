// Package object provides the runtime value types for the Ember virtual
// machine.
//
// Values are a closed set: Int, Float, Bool, Ref, and Nil. Operations
// type-check their operands and fail with a typed fault rather than
// coercing silently. The single exception is numeric promotion: an Int
// operand is promoted to Float when the other operand is a Float.
//
// An object.Object interface value is often type asserted to a specific
// type, such as *object.Int:
//
//	switch obj := obj.(type) {
//	case *object.Int:
//		// do something with obj.Value()
//	case *object.Float:
//		// do something with obj.Value()
//	}
package object

import (
	"github.com/emberlang/ember/op"
)

// Type of an object as a string.
type Type string

// Type constants
const (
	BOOL  Type = "bool"
	FLOAT Type = "float"
	INT   Type = "int"
	NIL   Type = "nil"
	REF   Type = "ref"
)

var (
	Nil   = &NilType{}
	True  = &Bool{value: true}
	False = &Bool{value: false}
)

// Object is the interface that all value types in Ember must implement.
type Object interface {
	// Type of the object.
	Type() Type

	// Inspect returns a string representation of the given object.
	Inspect() string

	// Interface converts the given object to a native Go value.
	Interface() interface{}

	// Returns true if the given object is equal to this object.
	Equals(other Object) bool

	// IsTruthy returns true if the object is considered "truthy".
	IsTruthy() bool

	// RunOperation runs an operation on this object with the given
	// right-hand side object.
	RunOperation(opType op.BinaryOpType, right Object) (Object, error)
}

// Comparable is an interface used to compare two objects.
//
//	-1 if this < other
//	 0 if this == other
//	 1 if this > other
type Comparable interface {
	Compare(other Object) (int, error)
}

// NewBool returns the interned Bool for the given value.
func NewBool(value bool) *Bool {
	if value {
		return True
	}
	return False
}

// Not returns the inverse of the given Bool.
func Not(b *Bool) *Bool {
	if b.value {
		return False
	}
	return True
}
