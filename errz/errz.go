// Package errz defines the fault taxonomy for the Ember virtual machine.
//
// A Fault is a terminal, typed error that unwinds the current run. The
// engine never recovers a fault internally; it surfaces to the caller of
// Run with the faulting program counter and a call-stack snapshot attached.
package errz

import (
	"bytes"
	"errors"
	"fmt"
)

// Kind represents the category of a fault.
type Kind int

const (
	// ErrType indicates an operand type mismatch or arity mismatch.
	ErrType Kind = iota
	// ErrDivideByZero indicates integer division or modulo by zero.
	ErrDivideByZero
	// ErrIllegalInstruction indicates an unknown opcode.
	ErrIllegalInstruction
	// ErrInvalidJumpTarget indicates a jump outside the instruction sequence.
	ErrInvalidJumpTarget
	// ErrInvalidLocalIndex indicates a local slot access out of range.
	ErrInvalidLocalIndex
	// ErrStackOverflow indicates call or operand stack depth was exceeded.
	ErrStackOverflow
	// ErrStackUnderflow indicates an operand pop below the frame's stack base.
	ErrStackUnderflow
	// ErrCancelled indicates the host requested termination.
	ErrCancelled
	// ErrBudgetExceeded indicates the instruction budget was exhausted.
	ErrBudgetExceeded
)

// String returns the string representation of the fault kind.
func (k Kind) String() string {
	switch k {
	case ErrType:
		return "type error"
	case ErrDivideByZero:
		return "divide by zero"
	case ErrIllegalInstruction:
		return "illegal instruction"
	case ErrInvalidJumpTarget:
		return "invalid jump target"
	case ErrInvalidLocalIndex:
		return "invalid local index"
	case ErrStackOverflow:
		return "stack overflow"
	case ErrStackUnderflow:
		return "stack underflow"
	case ErrCancelled:
		return "cancelled"
	case ErrBudgetExceeded:
		return "instruction budget exceeded"
	default:
		return "fault"
	}
}

// StackFrame represents a single frame in a fault's call-stack snapshot.
type StackFrame struct {
	Function string
	PC       int
}

// Fault is a typed terminal error carrying the faulting frame's program
// counter and a snapshot of the call stack at fault time.
type Fault struct {
	Kind     Kind
	Message  string
	Function string
	PC       int
	Stack    []StackFrame
	Cause    error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Function == "" {
		return fmt.Sprintf("%s: %s", f.Kind.String(), f.Message)
	}
	return fmt.Sprintf("%s: %s (at %s+%d)", f.Kind.String(), f.Message, f.Function, f.PC)
}

// Unwrap returns the underlying cause of the fault.
func (f *Fault) Unwrap() error {
	return f.Cause
}

// WithCause wraps the fault with a cause.
func (f *Fault) WithCause(cause error) *Fault {
	f.Cause = cause
	return f
}

// FriendlyMessage returns a human-friendly message including the call-stack
// snapshot at fault time.
func (f *Fault) FriendlyMessage() string {
	var msg bytes.Buffer
	msg.WriteString(f.Error())
	if len(f.Stack) > 0 {
		msg.WriteString("\n")
		msg.WriteString(FormatStackTrace(f.Stack))
	}
	return msg.String()
}

// New creates a new Fault with the given kind and message.
func New(kind Kind, message string) *Fault {
	return &Fault{Kind: kind, Message: message}
}

// Newf creates a new Fault with a formatted message.
func Newf(kind Kind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// TypeErrorf creates a type error fault with a formatted message.
func TypeErrorf(format string, args ...any) *Fault {
	return Newf(ErrType, format, args...)
}

// DivideByZero creates a divide-by-zero fault.
func DivideByZero() *Fault {
	return New(ErrDivideByZero, "integer division or modulo by zero")
}

// IsKind reports whether err is a *Fault of the given kind.
func IsKind(err error, kind Kind) bool {
	if f, ok := AsFault(err); ok {
		return f.Kind == kind
	}
	return false
}

// AsFault returns err as a *Fault if it is one, unwrapping as needed.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// FormatStackTrace renders a call-stack snapshot, innermost frame first.
func FormatStackTrace(stack []StackFrame) string {
	var buf bytes.Buffer
	buf.WriteString("stack trace:\n")
	for _, frame := range stack {
		name := frame.Function
		if name == "" {
			name = "<anonymous>"
		}
		fmt.Fprintf(&buf, "  at %s (pc %d)\n", name, frame.PC)
	}
	return buf.String()
}
