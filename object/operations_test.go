package object

import (
	"testing"

	"github.com/emberlang/ember/errz"
	"github.com/emberlang/ember/op"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		op   op.CompareOpType
		a    Object
		b    Object
		want *Bool
	}{
		{"int-lt", op.LessThan, NewInt(1), NewInt(2), True},
		{"int-lte", op.LessThanOrEqual, NewInt(2), NewInt(2), True},
		{"int-gt", op.GreaterThan, NewInt(1), NewInt(2), False},
		{"int-gte", op.GreaterThanOrEqual, NewInt(3), NewInt(2), True},
		{"int-eq", op.Equal, NewInt(2), NewInt(2), True},
		{"int-neq", op.NotEqual, NewInt(2), NewInt(2), False},
		{"mixed-lt", op.LessThan, NewInt(1), NewFloat(1.5), True},
		{"mixed-eq", op.Equal, NewFloat(2.0), NewInt(2), True},
		{"bool-eq", op.Equal, True, True, True},
		{"nil-eq", op.Equal, Nil, Nil, True},
		{"nil-neq-int", op.NotEqual, Nil, NewInt(0), True},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Compare(tt.op, tt.a, tt.b)
			require.Nil(t, err)
			require.Equal(t, tt.want, result)
		})
	}
}

func TestCompareIncomparable(t *testing.T) {
	// Equality is defined for all pairs; ordering is not
	_, err := Compare(op.LessThan, NewInt(1), True)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrType))

	_, err = Compare(op.GreaterThan, NewRef("x"), NewRef("y"))
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrType))
}

func TestBinaryOp(t *testing.T) {
	result, err := BinaryOp(op.Multiply, NewInt(6), NewInt(7))
	require.Nil(t, err)
	require.Equal(t, NewInt(42), result)

	_, err = BinaryOp(op.Add, True, NewRef("handle"))
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrType))
}

func TestBoolOperations(t *testing.T) {
	require.True(t, True.IsTruthy())
	require.False(t, False.IsTruthy())
	require.Equal(t, False, Not(True))
	require.Equal(t, True, Not(False))
	require.Same(t, True, NewBool(true))
	require.Same(t, False, NewBool(false))

	_, err := True.RunOperation(op.Add, False)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrType))
}

func TestNilOperations(t *testing.T) {
	require.False(t, Nil.IsTruthy())
	require.Equal(t, "nil", Nil.Inspect())
	require.Nil(t, Nil.Interface())
	require.True(t, Nil.Equals(&NilType{}))

	_, err := Nil.RunOperation(op.Add, NewInt(1))
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrType))
}

func TestRefIdentity(t *testing.T) {
	a := NewRef("payload")
	b := NewRef("payload")
	require.True(t, a.Equals(a))
	require.False(t, a.Equals(b))
	require.NotEqual(t, a.ID(), b.ID())
	require.Equal(t, "payload", a.Interface())
	require.True(t, a.IsTruthy())
	require.False(t, NewRef(nil).IsTruthy())
}
