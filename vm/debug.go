//go:build debug

package vm

import (
	"fmt"
	"io"

	"github.com/emberlang/ember/errz"
	"github.com/emberlang/ember/object"
	"github.com/emberlang/ember/op"
)

// This file is compiled only with the "debug" build tag. Without the tag
// the debug session API does not exist: a machine built without debug
// support cannot carry a session at all, and the dispatch loop pays only
// for a nil check on the instrumentation field.

// StepMode controls when a debug session pauses execution.
type StepMode uint8

const (
	// StepNone pauses only at breakpoints.
	StepNone StepMode = iota

	// StepInto pauses before every instruction.
	StepInto

	// StepOver pauses before every instruction that is not inside a call
	// deeper than the frame where stepping began.
	StepOver

	// StepOut pauses at the first instruction after the frame where
	// stepping began returns.
	StepOut
)

// TraceEvent describes one suspension point: the instruction about to
// execute and a snapshot of the current frame.
type TraceEvent struct {
	// Function is the name of the function about to execute.
	Function string

	// FunctionIndex is the function's index in the unit.
	FunctionIndex int

	// PC is the program counter (index of the opcode word).
	PC int

	// Opcode is the operation about to execute.
	Opcode op.Code

	// OpcodeName is the human-readable name of the opcode.
	OpcodeName string

	// StackDepth is the operand stack depth of the current frame.
	StackDepth int

	// FrameDepth is the call stack depth.
	FrameDepth int

	// Locals is a snapshot of the frame's local variable slots.
	Locals []object.Object

	// Breakpoint is true when the pause was caused by a breakpoint rather
	// than a step mode.
	Breakpoint bool
}

// FaultEvent describes a fault observed by the session just before it
// surfaces to the caller of Run. The session never suppresses the fault.
type FaultEvent struct {
	Function string
	PC       int
	Err      error
}

// TraceSink is the external recipient of debug events. Sink methods are
// called synchronously from the dispatch loop while the machine is
// suspended; they may inspect and mutate the Session but must not interact
// with the machine from other goroutines.
type TraceSink interface {
	Trace(event TraceEvent)
	Fault(event FaultEvent)
}

type breakpointKey struct {
	function int
	pc       int
}

// Session holds the debug state for a machine: active breakpoints, the
// current step mode, and the trace sink. Create one with NewSession and
// attach it with WithDebugSession.
//
// A Session may be reconfigured between runs, or from within a sink
// callback while the machine is suspended. Mutating it from another
// goroutine while the machine is dispatching is not supported.
type Session struct {
	breakpoints map[breakpointKey]struct{}
	mode        StepMode
	baseDepth   int
	lastDepth   int
	sink        TraceSink
}

// NewSession creates an empty debug session with no breakpoints, step mode
// StepNone, and no sink.
func NewSession() *Session {
	return &Session{
		breakpoints: map[breakpointKey]struct{}{},
	}
}

// AddBreakpoint arms a breakpoint at the given instruction index of the
// function at the given unit index.
func (s *Session) AddBreakpoint(function, pc int) {
	s.breakpoints[breakpointKey{function, pc}] = struct{}{}
}

// RemoveBreakpoint disarms the breakpoint at the given location, if set.
func (s *Session) RemoveBreakpoint(function, pc int) {
	delete(s.breakpoints, breakpointKey{function, pc})
}

// SetStepMode sets the step mode. The frame depth at the most recent pause
// becomes the reference depth for StepOver and StepOut.
func (s *Session) SetStepMode(mode StepMode) {
	s.mode = mode
	s.baseDepth = s.lastDepth
}

// AttachSink sets the recipient of trace events. A nil sink leaves
// breakpoints armed but discards events.
func (s *Session) AttachSink(sink TraceSink) {
	s.sink = sink
}

// WithDebugSession attaches a debug session to the machine. Only available
// in builds with the "debug" tag.
func WithDebugSession(session *Session) Option {
	return func(vm *VirtualMachine) {
		vm.instr = session
	}
}

// before implements the instrumentation interface. It runs before every
// instruction and emits a trace event when a breakpoint or the step mode
// requires a pause. It never alters program behavior.
func (s *Session) before(vm *VirtualMachine) error {
	s.lastDepth = vm.fp
	_, atBreakpoint := s.breakpoints[breakpointKey{vm.activeFn.index, vm.pc}]
	pause := atBreakpoint
	if !pause {
		switch s.mode {
		case StepInto:
			pause = true
		case StepOver:
			pause = vm.fp <= s.baseDepth
		case StepOut:
			pause = vm.fp < s.baseDepth
		}
	}
	if pause && s.sink != nil {
		s.sink.Trace(s.snapshot(vm, atBreakpoint))
	}
	return nil
}

// fault implements the instrumentation interface. It reports a fault to
// the sink before the fault surfaces. Faults carry their own location;
// the machine state is only a fallback, since some faults (a bad entry
// call, for example) occur before any frame is active.
func (s *Session) fault(vm *VirtualMachine, err error) {
	if s.sink == nil {
		return
	}
	event := FaultEvent{Err: err}
	if f, ok := errz.AsFault(err); ok {
		event.Function = f.Function
		event.PC = f.PC
	} else if vm.activeFn != nil {
		event.Function = vm.activeFn.name
		event.PC = vm.pc
	}
	s.sink.Fault(event)
}

func (s *Session) snapshot(vm *VirtualMachine, atBreakpoint bool) TraceEvent {
	locals := make([]object.Object, len(vm.activeFrame.locals))
	copy(locals, vm.activeFrame.locals)
	opcode := vm.activeFn.instructions[vm.pc]
	return TraceEvent{
		Function:      vm.activeFn.name,
		FunctionIndex: vm.activeFn.index,
		PC:            vm.pc,
		Opcode:        opcode,
		OpcodeName:    op.GetInfo(opcode).Name,
		StackDepth:    vm.sp - vm.activeFrame.baseSp,
		FrameDepth:    vm.fp + 1,
		Locals:        locals,
		Breakpoint:    atBreakpoint,
	}
}

var _ instrumentation = (*Session)(nil)

// WriterSink is a TraceSink that writes one line per event to an
// io.Writer.
type WriterSink struct {
	W io.Writer
}

func (w *WriterSink) Trace(event TraceEvent) {
	fmt.Fprintf(w.W, "trace %s+%d %s stack=%d frames=%d\n",
		event.Function, event.PC, event.OpcodeName,
		event.StackDepth, event.FrameDepth)
}

func (w *WriterSink) Fault(event FaultEvent) {
	fmt.Fprintf(w.W, "fault %s+%d %v\n", event.Function, event.PC, event.Err)
}
