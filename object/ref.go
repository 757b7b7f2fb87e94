package object

import (
	"fmt"

	"github.com/gofrs/uuid"

	"github.com/emberlang/ember/errz"
	"github.com/emberlang/ember/op"
)

// Ref is an opaque handle to a host-provided value. The engine never looks
// inside a Ref; it only moves the handle between stack slots and locals.
// Two Refs are equal only if they are the same handle, regardless of the
// wrapped value.
type Ref struct {
	id    uuid.UUID
	value interface{}
}

func (r *Ref) Type() Type {
	return REF
}

func (r *Ref) Inspect() string {
	return fmt.Sprintf("ref(%s)", r.id)
}

func (r *Ref) String() string {
	return r.Inspect()
}

// ID returns the unique identity of this handle.
func (r *Ref) ID() string {
	return r.id.String()
}

// Interface returns the wrapped host value.
func (r *Ref) Interface() interface{} {
	return r.value
}

func (r *Ref) Equals(other Object) bool {
	otherRef, ok := other.(*Ref)
	return ok && r.id == otherRef.id
}

func (r *Ref) IsTruthy() bool {
	return r.value != nil
}

func (r *Ref) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, errz.TypeErrorf("unsupported operation for ref: %v", opType)
}

// NewRef wraps a host value in a new opaque handle.
func NewRef(value interface{}) *Ref {
	return &Ref{id: uuid.Must(uuid.NewV4()), value: value}
}
