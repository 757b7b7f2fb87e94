package object

import (
	"math"
	"testing"

	"github.com/emberlang/ember/errz"
	"github.com/emberlang/ember/op"
	"github.com/stretchr/testify/require"
)

func TestFloatBasics(t *testing.T) {
	obj := NewFloat(2.5)
	require.Equal(t, FLOAT, obj.Type())
	require.Equal(t, "2.5", obj.Inspect())
	require.Equal(t, 2.5, obj.Value())
	require.True(t, obj.IsTruthy())
	require.False(t, NewFloat(0).IsTruthy())
}

func TestFloatArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   op.BinaryOpType
		a    float64
		b    float64
		want float64
	}{
		{"add", op.Add, 1.5, 2.25, 3.75},
		{"subtract", op.Subtract, 5.0, 2.5, 2.5},
		{"multiply", op.Multiply, 3.0, 1.5, 4.5},
		{"divide", op.Divide, 5.0, 2.0, 2.5},
		{"power", op.Power, 2.0, 3.0, 8.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewFloat(tt.a).RunOperation(tt.op, NewFloat(tt.b))
			require.Nil(t, err)
			require.Equal(t, NewFloat(tt.want), result)
		})
	}
}

func TestFloatDivisionByZeroIsIEEE(t *testing.T) {
	// Float division follows IEEE-754: no fault
	result, err := NewFloat(1.0).RunOperation(op.Divide, NewFloat(0.0))
	require.Nil(t, err)
	require.True(t, math.IsInf(result.(*Float).Value(), 1))

	result, err = NewFloat(-1.0).RunOperation(op.Divide, NewFloat(0.0))
	require.Nil(t, err)
	require.True(t, math.IsInf(result.(*Float).Value(), -1))

	result, err = NewFloat(0.0).RunOperation(op.Divide, NewFloat(0.0))
	require.Nil(t, err)
	require.True(t, math.IsNaN(result.(*Float).Value()))

	result, err = NewFloat(1.0).RunOperation(op.Modulo, NewFloat(0.0))
	require.Nil(t, err)
	require.True(t, math.IsNaN(result.(*Float).Value()))
}

func TestFloatIntOperand(t *testing.T) {
	result, err := NewFloat(0.5).RunOperation(op.Add, NewInt(2))
	require.Nil(t, err)
	require.Equal(t, NewFloat(2.5), result)
}

func TestFloatTypeMismatch(t *testing.T) {
	_, err := NewFloat(1.0).RunOperation(op.Add, False)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrType))
}

func TestFloatCompare(t *testing.T) {
	result, err := NewFloat(1.5).Compare(NewInt(2))
	require.Nil(t, err)
	require.Equal(t, -1, result)

	result, err = NewFloat(2.5).Compare(NewFloat(2.5))
	require.Nil(t, err)
	require.Equal(t, 0, result)

	_, err = NewFloat(1.0).Compare(Nil)
	require.NotNil(t, err)
}
