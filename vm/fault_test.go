package vm

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/emberlang/ember/errz"
	"github.com/emberlang/ember/object"
	"github.com/emberlang/ember/op"
	"github.com/stretchr/testify/require"
)

func TestTypeFault(t *testing.T) {
	u := unit(
		[]any{int64(1)},
		fn("main", 0, 0,
			op.True,
			op.LoadConst, 0,
			op.BinaryOp, op.Code(op.Add),
			op.ReturnValue,
		),
	)
	_, err := Run(context.Background(), u, "main", nil)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrType))

	// Value-model faults are decorated with a location and stack snapshot
	f, ok := errz.AsFault(err)
	require.True(t, ok)
	require.Equal(t, "main", f.Function)
	require.Equal(t, 3, f.PC)
	require.Len(t, f.Stack, 1)
}

func TestDivideByZeroFault(t *testing.T) {
	for _, opType := range []op.BinaryOpType{op.Divide, op.Modulo} {
		u := unit(
			[]any{int64(1), int64(0)},
			fn("main", 0, 0,
				op.LoadConst, 0,
				op.LoadConst, 1,
				op.BinaryOp, op.Code(opType),
				op.ReturnValue,
			),
		)
		_, err := Run(context.Background(), u, "main", nil)
		require.NotNil(t, err)
		require.True(t, errz.IsKind(err, errz.ErrDivideByZero))
	}
}

func TestFloatDivideByZeroDoesNotFault(t *testing.T) {
	u := unit(
		[]any{1.0, 0.0},
		fn("main", 0, 0,
			op.LoadConst, 0,
			op.LoadConst, 1,
			op.BinaryOp, op.Code(op.Divide),
			op.ReturnValue,
		),
	)
	result, err := Run(context.Background(), u, "main", nil)
	require.Nil(t, err)
	f, ok := result.(*object.Float)
	require.True(t, ok)
	require.True(t, math.IsInf(f.Value(), 1))
}

func TestIllegalInstructionFault(t *testing.T) {
	u := unit(nil, fn("main", 0, 0, op.Code(200)))
	_, err := Run(context.Background(), u, "main", nil)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrIllegalInstruction))
	require.Contains(t, err.Error(), "unknown opcode: 200")
}

func TestInvalidJumpTargetFault(t *testing.T) {
	u := unit(nil, fn("main", 0, 0, op.Jump, 99))
	_, err := Run(context.Background(), u, "main", nil)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrInvalidJumpTarget))

	f, ok := errz.AsFault(err)
	require.True(t, ok)
	require.Equal(t, 0, f.PC)
}

func TestInvalidLocalIndexFault(t *testing.T) {
	for _, opcode := range []op.Code{op.LoadLocal, op.StoreLocal} {
		u := unit(
			nil,
			fn("main", 0, 1,
				op.Nil,
				opcode, 5,
				op.ReturnValue,
			),
		)
		_, err := Run(context.Background(), u, "main", nil)
		require.NotNil(t, err)
		require.True(t, errz.IsKind(err, errz.ErrInvalidLocalIndex))
	}
}

func TestStackUnderflowFault(t *testing.T) {
	// PopTop with nothing on the stack
	u := unit(nil, fn("main", 0, 0, op.PopTop))
	_, err := Run(context.Background(), u, "main", nil)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrStackUnderflow))

	// BinaryOp with a single operand
	u = unit(
		[]any{int64(1)},
		fn("main", 0, 0,
			op.LoadConst, 0,
			op.BinaryOp, op.Code(op.Add),
		),
	)
	_, err = Run(context.Background(), u, "main", nil)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrStackUnderflow))
}

func TestStackUnderflowStopsAtFrameBoundary(t *testing.T) {
	// A callee cannot pop operands that belong to its caller's segment
	u := unit(
		[]any{int64(1), int64(2)},
		fn("main", 0, 0,
			op.LoadConst, 0,
			op.LoadConst, 1,
			op.Call, 1, 0,
			op.ReturnValue,
		),
		fn("greedy", 0, 0,
			op.PopTop,
			op.ReturnValue,
		),
	)
	_, err := Run(context.Background(), u, "main", nil)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrStackUnderflow))

	f, ok := errz.AsFault(err)
	require.True(t, ok)
	require.Equal(t, "greedy", f.Function)
}

func TestCallArityFault(t *testing.T) {
	u := unit(
		[]any{int64(1)},
		fn("add", 2, 2,
			op.LoadLocal, 0,
			op.LoadLocal, 1,
			op.BinaryOp, op.Code(op.Add),
			op.ReturnValue,
		),
		fn("main", 0, 0,
			op.LoadConst, 0,
			op.Call, 0, 1,
			op.ReturnValue,
		),
	)
	_, err := Run(context.Background(), u, "main", nil)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrType))
	require.Contains(t, err.Error(), `function "add" takes 2 arguments (1 given)`)
}

func TestEntryArityFault(t *testing.T) {
	u := unit(nil, fn("main", 1, 1, op.LoadLocal, 0, op.ReturnValue))
	machine, err := New(u)
	require.Nil(t, err)
	_, err = machine.Run(context.Background(), "main")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrType))
	require.Contains(t, err.Error(), `function "main" takes 1 argument (0 given)`)
}

func TestCallTargetOutOfRangeFault(t *testing.T) {
	u := unit(nil, fn("main", 0, 0, op.Call, 7, 0))
	_, err := Run(context.Background(), u, "main", nil)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrIllegalInstruction))
	require.Contains(t, err.Error(), "call target 7 out of range")
}

func TestStackOverflowFault(t *testing.T) {
	// Unbounded recursion overflows deterministically at the configured
	// frame depth.
	u := unit(
		nil,
		fn("recurse", 0, 0,
			op.Call, 0, 0,
			op.ReturnValue,
		),
	)
	machine, err := New(u, WithMaxFrameDepth(16))
	require.Nil(t, err)

	_, err = machine.Run(context.Background(), "recurse")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrStackOverflow))
	firstMessage := err.Error()
	firstCount := machine.InstructionCount()

	_, err = machine.Run(context.Background(), "recurse")
	require.NotNil(t, err)
	require.Equal(t, firstMessage, err.Error())
	require.Equal(t, firstCount, machine.InstructionCount())

	f, ok := errz.AsFault(err)
	require.True(t, ok)
	require.Len(t, f.Stack, 16)
}

func TestFaultStackSnapshot(t *testing.T) {
	u := unit(
		[]any{int64(1), int64(0)},
		fn("main", 0, 0,
			op.Nop, // 0
			op.Call, 1, 0, // 1
			op.ReturnValue, // 4
		),
		fn("boom", 0, 0,
			op.LoadConst, 0, // 0
			op.LoadConst, 1, // 2
			op.BinaryOp, op.Code(op.Divide), // 4
			op.ReturnValue, // 6
		),
	)
	_, err := Run(context.Background(), u, "main", nil)
	require.NotNil(t, err)

	f, ok := errz.AsFault(err)
	require.True(t, ok)
	require.Equal(t, errz.ErrDivideByZero, f.Kind)
	require.Equal(t, "boom", f.Function)
	require.Equal(t, 4, f.PC)
	// Innermost frame first, callers report their call sites
	require.Equal(t, []errz.StackFrame{
		{Function: "boom", PC: 4},
		{Function: "main", PC: 1},
	}, f.Stack)
}

func TestInstructionBudgetFault(t *testing.T) {
	u := unit(nil, fn("spin", 0, 0, op.Jump, 0))
	machine, err := New(u, WithInstructionBudget(100))
	require.Nil(t, err)
	_, err = machine.Run(context.Background(), "spin")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrBudgetExceeded))
	require.Equal(t, int64(100), machine.InstructionCount())
}

func TestInstructionBudgetSufficient(t *testing.T) {
	u := fibUnit()
	machine, err := New(u, WithInstructionBudget(1_000_000))
	require.Nil(t, err)
	result, err := machine.Run(context.Background(), "main")
	require.Nil(t, err)
	require.Equal(t, object.NewInt(55), result)
}

func TestCancellationFault(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u := unit(nil, fn("spin", 0, 0, op.Jump, 0))
	machine, err := New(u, WithContextCheckInterval(1))
	require.Nil(t, err)
	_, err = machine.Run(ctx, "spin")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrCancelled))
	require.True(t, errors.Is(err, context.Canceled))
}

func TestTruncatedOperandsFault(t *testing.T) {
	// A unit can be built and run without Validate; a missing operand word
	// must surface as a typed fault, not a recovered panic.
	u := unit([]any{int64(1)}, fn("main", 0, 0, op.LoadConst))
	_, err := Run(context.Background(), u, "main", nil)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrIllegalInstruction))
	require.Contains(t, err.Error(), "truncated instruction: LOAD_CONST")

	f, ok := errz.AsFault(err)
	require.True(t, ok)
	require.Equal(t, "main", f.Function)
	require.Equal(t, 0, f.PC)
	require.Len(t, f.Stack, 1)

	// Call carries two operand words; one present is still truncated
	u = unit(nil, fn("main", 0, 0, op.Call, 0))
	_, err = Run(context.Background(), u, "main", nil)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrIllegalInstruction))
	require.Contains(t, err.Error(), "truncated instruction: CALL")
}

func TestFullOperandStackCanDrain(t *testing.T) {
	// Filling the stack to its capacity and draining it back down is not
	// an overflow; only growing past capacity is.
	var instructions []op.Code
	for i := 0; i < MaxStackDepth; i++ {
		instructions = append(instructions, op.Nil)
	}
	for i := 0; i < MaxStackDepth-1; i++ {
		instructions = append(instructions, op.PopTop)
	}
	instructions = append(instructions, op.ReturnValue)

	u := unit(nil, fn("main", 0, 0, instructions...))
	result, err := Run(context.Background(), u, "main", nil)
	require.Nil(t, err)
	require.Equal(t, object.Nil, result)
}

func TestOperandStackOverflowFault(t *testing.T) {
	var instructions []op.Code
	for i := 0; i < MaxStackDepth+1; i++ {
		instructions = append(instructions, op.Nil)
	}
	u := unit(nil, fn("main", 0, 0, instructions...))
	_, err := Run(context.Background(), u, "main", nil)
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrStackOverflow))
}

func TestCancelledRunDoesNotTaintNextRun(t *testing.T) {
	// A run on a cancelled context must leave no trace in the machine: the
	// next run on a live context always succeeds.
	u := unit(nil, fn("main", 0, 0, op.Nil, op.ReturnValue))
	machine, err := New(u, WithContextCheckInterval(1))
	require.Nil(t, err)

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 200; i++ {
		machine.Run(cancelledCtx, "main")
		result, err := machine.Run(context.Background(), "main")
		require.Nil(t, err)
		require.Equal(t, object.Nil, result)
	}
}

func TestCancellationMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	u := unit(nil, fn("spin", 0, 0, op.Jump, 0))
	machine, err := New(u, WithContextCheckInterval(100))
	require.Nil(t, err)

	go func() {
		cancel()
	}()
	_, err = machine.Run(ctx, "spin")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.ErrCancelled))
}
