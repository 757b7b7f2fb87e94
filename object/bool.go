package object

import (
	"encoding/json"
	"strconv"

	"github.com/emberlang/ember/errz"
	"github.com/emberlang/ember/op"
)

// Bool wraps bool and implements the Object interface. The two Bool values
// are interned as object.True and object.False; use NewBool to obtain them.
type Bool struct {
	value bool
}

func (b *Bool) Inspect() string {
	return strconv.FormatBool(b.value)
}

func (b *Bool) Type() Type {
	return BOOL
}

func (b *Bool) Value() bool {
	return b.value
}

func (b *Bool) Interface() interface{} {
	return b.value
}

func (b *Bool) String() string {
	return b.Inspect()
}

func (b *Bool) Compare(other Object) (int, error) {
	otherBool, ok := other.(*Bool)
	if !ok {
		return 0, errz.TypeErrorf("unable to compare bool and %s", other.Type())
	}
	if b.value == otherBool.value {
		return 0, nil
	}
	if b.value {
		return 1, nil
	}
	return -1, nil
}

func (b *Bool) Equals(other Object) bool {
	otherBool, ok := other.(*Bool)
	return ok && b.value == otherBool.value
}

func (b *Bool) IsTruthy() bool {
	return b.value
}

func (b *Bool) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, errz.TypeErrorf("unsupported operation for bool: %v", opType)
}

func (b *Bool) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.value)
}
