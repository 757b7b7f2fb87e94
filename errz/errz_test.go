package errz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{ErrType, "type error"},
		{ErrDivideByZero, "divide by zero"},
		{ErrIllegalInstruction, "illegal instruction"},
		{ErrInvalidJumpTarget, "invalid jump target"},
		{ErrInvalidLocalIndex, "invalid local index"},
		{ErrStackOverflow, "stack overflow"},
		{ErrStackUnderflow, "stack underflow"},
		{ErrCancelled, "cancelled"},
		{ErrBudgetExceeded, "instruction budget exceeded"},
		{Kind(99), "fault"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.kind.String())
	}
}

func TestFaultError(t *testing.T) {
	f := Newf(ErrInvalidJumpTarget, "jump to %d is out of range", 100)
	require.Equal(t, "invalid jump target: jump to 100 is out of range", f.Error())

	f.Function = "main"
	f.PC = 7
	require.Equal(t, "invalid jump target: jump to 100 is out of range (at main+7)", f.Error())
}

func TestFaultCause(t *testing.T) {
	cause := errors.New("context canceled")
	f := New(ErrCancelled, "execution cancelled").WithCause(cause)
	require.ErrorIs(t, f, cause)
}

func TestIsKind(t *testing.T) {
	f := TypeErrorf("unsupported operand")
	require.True(t, IsKind(f, ErrType))
	require.False(t, IsKind(f, ErrStackOverflow))
	require.False(t, IsKind(errors.New("plain"), ErrType))
}

func TestAsFault(t *testing.T) {
	f, ok := AsFault(DivideByZero())
	require.True(t, ok)
	require.Equal(t, ErrDivideByZero, f.Kind)

	_, ok = AsFault(errors.New("plain"))
	require.False(t, ok)
}

func TestFriendlyMessage(t *testing.T) {
	f := New(ErrStackOverflow, "call depth 64 exceeds maximum")
	f.Function = "recurse"
	f.PC = 3
	f.Stack = []StackFrame{
		{Function: "recurse", PC: 3},
		{Function: "", PC: 5},
		{Function: "main", PC: 2},
	}
	msg := f.FriendlyMessage()
	require.Contains(t, msg, "stack overflow: call depth 64 exceeds maximum")
	require.Contains(t, msg, "at recurse (pc 3)")
	require.Contains(t, msg, "at <anonymous> (pc 5)")
	require.Contains(t, msg, "at main (pc 2)")
}
