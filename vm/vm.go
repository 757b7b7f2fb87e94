// Package vm provides a VirtualMachine that executes compiled Ember
// bytecode units.
//
// A VirtualMachine executes one run at a time on a single goroutine. A
// bytecode.Unit is read-only and may be shared by any number of machines
// running concurrently on separate goroutines; sharing a VirtualMachine
// itself across goroutines is not safe.
package vm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/emberlang/ember/bytecode"
	"github.com/emberlang/ember/errz"
	"github.com/emberlang/ember/object"
	"github.com/emberlang/ember/op"
)

const (
	// MaxStackDepth is the size of the shared operand stack.
	MaxStackDepth = 1024

	// MaxFrameDepth is the size of the frame array and the hard upper bound
	// for WithMaxFrameDepth.
	MaxFrameDepth = 1024

	// DefaultMaxFrameDepth is the default call depth limit. Exceeding it
	// faults with a stack overflow before the callee executes anything.
	DefaultMaxFrameDepth = 1024

	// DefaultContextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000
)

// instrumentation observes the engine before each instruction and when a
// fault surfaces. It is attached only in debug-enabled builds; a nil value
// costs one flag check per dispatched instruction.
type instrumentation interface {
	before(vm *VirtualMachine) error
	fault(vm *VirtualMachine, err error)
}

type VirtualMachine struct {
	ip          int // instruction pointer
	pc          int // index of the opcode word currently dispatching
	sp          int // stack pointer
	fp          int // frame pointer
	halt        int32
	executed    int64
	unit        *bytecode.Unit
	functions   []*loadedFunction
	constants   []object.Object
	activeFrame *frame
	activeFn    *loadedFunction
	running     bool
	runMutex    sync.Mutex
	finished    chan struct{}
	monitorDone chan struct{}
	stack       [MaxStackDepth]object.Object
	frames      [MaxFrameDepth]frame

	maxFrameDepth int

	// contextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). A value of 0 disables
	// deterministic checking, relying only on the background goroutine.
	contextCheckInterval int

	// budget is the maximum number of instructions a single run may
	// execute. Zero means unlimited.
	budget int64

	// instr receives per-instruction callbacks. Nil unless a debug session
	// is attached (debug builds only).
	instr instrumentation
}

// New creates a new VirtualMachine for the given unit.
func New(unit *bytecode.Unit, options ...Option) (*VirtualMachine, error) {
	if unit == nil {
		return nil, fmt.Errorf("no unit provided")
	}
	functions, constants, err := loadUnit(unit)
	if err != nil {
		return nil, err
	}
	vm := &VirtualMachine{
		sp:                   -1,
		unit:                 unit,
		functions:            functions,
		constants:            constants,
		maxFrameDepth:        DefaultMaxFrameDepth,
		contextCheckInterval: DefaultContextCheckInterval,
	}
	for _, opt := range options {
		opt(vm)
	}
	return vm, nil
}

// Unit returns the bytecode unit this machine executes.
func (vm *VirtualMachine) Unit() *bytecode.Unit {
	return vm.unit
}

// InstructionCount returns the number of instructions dispatched by the
// most recent run. Only valid on a stopped machine.
func (vm *VirtualMachine) InstructionCount() int64 {
	return vm.executed
}

// Run executes the entry point with the given name. The returned value is
// the entry point's return value. A failed run returns a *errz.Fault
// describing the fault, with the faulting program counter and a call-stack
// snapshot attached.
func (vm *VirtualMachine) Run(ctx context.Context, entry string, args ...object.Object) (object.Object, error) {
	index, ok := vm.unit.FunctionIndex(entry)
	if !ok {
		return nil, fmt.Errorf("entry point %q not found", entry)
	}
	return vm.RunFunction(ctx, index, args...)
}

// RunFunction executes the entry point at the given function index.
func (vm *VirtualMachine) RunFunction(ctx context.Context, index int, args ...object.Object) (result object.Object, err error) {
	if index < 0 || index >= len(vm.functions) {
		return nil, fmt.Errorf("no function at index %d", index)
	}
	// Set up some guarantees:
	// 1. It is an error to start a machine that is already running
	// 2. The running flag is always cleared when this returns
	// 3. Any panics are translated to errors and the machine is stopped
	if err := vm.start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		vm.stop()
	}()

	entry := vm.functions[index]
	if len(args) != entry.arity {
		fault := vm.arityFault(entry, len(args))
		if vm.instr != nil {
			vm.instr.fault(vm, fault)
		}
		return nil, fault
	}

	// Reset per-run state and activate the root frame
	vm.sp = -1
	vm.fp = 0
	vm.pc = 0
	vm.ip = 0
	vm.executed = 0
	root := &vm.frames[0]
	root.Activate(entry, 0, -1, 0)
	copy(root.locals, args)
	vm.activeFrame = root
	vm.activeFn = entry

	result, err = vm.eval(ctx)
	if err != nil {
		if vm.instr != nil {
			vm.instr.fault(vm, err)
		}
		return nil, err
	}
	return result, nil
}

func (vm *VirtualMachine) start(ctx context.Context) error {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return fmt.Errorf("vm is already running")
	}
	vm.running = true
	atomic.StoreInt32(&vm.halt, 0)
	vm.activeFrame = nil
	vm.activeFn = nil
	// Halt execution when the context is cancelled
	if doneChan := ctx.Done(); doneChan != nil {
		finished := make(chan struct{})
		monitorDone := make(chan struct{})
		vm.finished = finished
		vm.monitorDone = monitorDone
		go func() {
			defer close(monitorDone)
			select {
			case <-doneChan:
				atomic.StoreInt32(&vm.halt, 1)
			case <-finished:
			}
		}()
	}
	return nil
}

func (vm *VirtualMachine) stop() {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.finished != nil {
		close(vm.finished)
		// Wait for the monitor goroutine to exit so it cannot set the halt
		// flag after a later run has reset it.
		<-vm.monitorDone
		vm.finished = nil
		vm.monitorDone = nil
	}
	vm.running = false
}

// Evaluate the active function until the root frame returns. The caller
// must have activated the root frame and reset ip, sp, and fp.
func (vm *VirtualMachine) eval(ctx context.Context) (object.Object, error) {
	// Instruction counter for deterministic context checking
	var sinceCheck int
	checkInterval := vm.contextCheckInterval
	doneChan := ctx.Done()

	for {
		if vm.ip >= len(vm.activeFn.instructions) {
			// Falling off the end of a function behaves like returning Nil
			result, done, err := vm.returnValue()
			if err != nil {
				return nil, err
			}
			if done {
				return result, nil
			}
			continue
		}

		if atomic.LoadInt32(&vm.halt) == 1 {
			return nil, vm.cancelled(ctx)
		}

		// Deterministic check of ctx.Done() every N instructions. This
		// guarantees responsiveness regardless of goroutine scheduling.
		if checkInterval > 0 && doneChan != nil {
			sinceCheck++
			if sinceCheck >= checkInterval {
				sinceCheck = 0
				select {
				case <-doneChan:
					atomic.StoreInt32(&vm.halt, 1)
					return nil, vm.cancelled(ctx)
				default:
				}
			}
		}

		vm.pc = vm.ip

		if vm.budget > 0 && vm.executed >= vm.budget {
			return nil, vm.fault(errz.ErrBudgetExceeded,
				"instruction budget of %d exhausted", vm.budget)
		}
		vm.executed++

		// Consult the debug session, if one is attached
		if vm.instr != nil {
			if err := vm.instr.before(vm); err != nil {
				return nil, err
			}
		}

		// The current instruction opcode
		opcode := vm.activeFn.instructions[vm.ip]

		// An instruction whose operand words run past the end of the
		// function cannot be decoded. Unknown opcodes report zero operands
		// and fall through to the dispatch default below.
		if info := op.GetInfo(opcode); vm.ip+info.OperandCount >= len(vm.activeFn.instructions) && info.OperandCount > 0 {
			return nil, vm.fault(errz.ErrIllegalInstruction,
				"truncated instruction: %s requires %d operand(s)",
				info.Name, info.OperandCount)
		}

		// Advance the instruction pointer to the next instruction. This is
		// done before the instruction executes, so opcodes that transfer
		// control overwrite it.
		vm.ip++

		// Only the opcodes that grow the stack by one need an overflow
		// guard; everything else pops at least as much as it pushes. A full
		// stack can still be drained.
		switch opcode {
		case op.LoadConst, op.LoadLocal, op.Nil, op.True, op.False, op.Copy:
			if vm.sp+1 >= MaxStackDepth {
				return nil, vm.fault(errz.ErrStackOverflow,
					"operand stack depth %d exceeds maximum", vm.sp+1)
			}
		}

		// Dispatch the instruction
		switch opcode {
		case op.Nop:
		case op.Halt:
			result := object.Object(object.Nil)
			if vm.sp > vm.activeFrame.baseSp {
				result = vm.pop()
			}
			return result, nil
		case op.LoadConst:
			index := int(vm.fetch())
			if index >= len(vm.constants) {
				return nil, vm.fault(errz.ErrIllegalInstruction,
					"constant index %d out of range", index)
			}
			vm.push(vm.constants[index])
		case op.LoadLocal:
			index := int(vm.fetch())
			if index >= len(vm.activeFrame.locals) {
				return nil, vm.fault(errz.ErrInvalidLocalIndex,
					"local index %d out of range (%d slots)",
					index, len(vm.activeFrame.locals))
			}
			vm.push(vm.activeFrame.locals[index])
		case op.StoreLocal:
			index := int(vm.fetch())
			if index >= len(vm.activeFrame.locals) {
				return nil, vm.fault(errz.ErrInvalidLocalIndex,
					"local index %d out of range (%d slots)",
					index, len(vm.activeFrame.locals))
			}
			if err := vm.need(1); err != nil {
				return nil, err
			}
			vm.activeFrame.locals[index] = vm.pop()
		case op.Nil:
			vm.push(object.Nil)
		case op.True:
			vm.push(object.True)
		case op.False:
			vm.push(object.False)
		case op.BinaryOp:
			opType := op.BinaryOpType(vm.fetch())
			if err := vm.need(2); err != nil {
				return nil, err
			}
			b := vm.pop()
			a := vm.pop()
			result, err := object.BinaryOp(opType, a, b)
			if err != nil {
				return nil, vm.decorate(err)
			}
			vm.push(result)
		case op.CompareOp:
			opType := op.CompareOpType(vm.fetch())
			if err := vm.need(2); err != nil {
				return nil, err
			}
			b := vm.pop()
			a := vm.pop()
			result, err := object.Compare(opType, a, b)
			if err != nil {
				return nil, vm.decorate(err)
			}
			vm.push(result)
		case op.UnaryNegative:
			if err := vm.need(1); err != nil {
				return nil, err
			}
			obj := vm.pop()
			switch obj := obj.(type) {
			case *object.Int:
				vm.push(object.NewInt(-obj.Value()))
			case *object.Float:
				vm.push(object.NewFloat(-obj.Value()))
			default:
				return nil, vm.fault(errz.ErrType,
					"object is not a number (got %s)", obj.Type())
			}
		case op.UnaryNot:
			if err := vm.need(1); err != nil {
				return nil, err
			}
			obj := vm.pop()
			vm.push(object.NewBool(!obj.IsTruthy()))
		case op.Jump:
			target := int(vm.fetch())
			if err := vm.checkJump(target); err != nil {
				return nil, err
			}
			vm.ip = target
		case op.PopJumpIfTrue:
			target := int(vm.fetch())
			if err := vm.checkJump(target); err != nil {
				return nil, err
			}
			if err := vm.need(1); err != nil {
				return nil, err
			}
			if vm.pop().IsTruthy() {
				vm.ip = target
			}
		case op.PopJumpIfFalse:
			target := int(vm.fetch())
			if err := vm.checkJump(target); err != nil {
				return nil, err
			}
			if err := vm.need(1); err != nil {
				return nil, err
			}
			if !vm.pop().IsTruthy() {
				vm.ip = target
			}
		case op.Call:
			target := int(vm.fetch())
			argc := int(vm.fetch())
			if err := vm.call(target, argc); err != nil {
				return nil, err
			}
		case op.ReturnValue:
			result, done, err := vm.returnValue()
			if err != nil {
				return nil, err
			}
			if done {
				return result, nil
			}
		case op.PopTop:
			if err := vm.need(1); err != nil {
				return nil, err
			}
			vm.pop()
		case op.Swap:
			offset := int(vm.fetch())
			if err := vm.need(offset + 1); err != nil {
				return nil, err
			}
			vm.swap(offset)
		case op.Copy:
			offset := int(vm.fetch())
			if err := vm.need(offset + 1); err != nil {
				return nil, err
			}
			vm.push(vm.stack[vm.sp-offset])
		default:
			return nil, vm.fault(errz.ErrIllegalInstruction,
				"unknown opcode: %d", opcode)
		}
	}
}

// call validates and performs a function call. The depth check happens
// before any state changes so a stack overflow leaves the caller's operand
// stack intact.
func (vm *VirtualMachine) call(target, argc int) error {
	if target >= len(vm.functions) {
		return vm.fault(errz.ErrIllegalInstruction,
			"call target %d out of range", target)
	}
	callee := vm.functions[target]
	if vm.fp+1 >= vm.maxFrameDepth {
		return vm.fault(errz.ErrStackOverflow,
			"call depth %d exceeds maximum", vm.fp+2)
	}
	if argc != callee.arity {
		return vm.arityFault(callee, argc)
	}
	if err := vm.need(argc); err != nil {
		return err
	}
	callFrame := &vm.frames[vm.fp+1]
	callFrame.Activate(callee, vm.ip, vm.sp-argc, vm.pc)
	for i := argc - 1; i >= 0; i-- {
		callFrame.locals[i] = vm.pop()
	}
	vm.fp++
	vm.ip = 0
	vm.activeFrame = callFrame
	vm.activeFn = callee
	return nil
}

// returnValue pops the current frame and pushes its return value (or Nil)
// onto the caller's operand stack. Returning from the root frame ends the
// run; the second return value reports that case.
func (vm *VirtualMachine) returnValue() (object.Object, bool, error) {
	active := vm.activeFrame
	result := object.Object(object.Nil)
	if vm.sp > active.baseSp {
		result = vm.pop()
	}
	// Remove anything else the frame left on its stack segment
	for vm.sp > active.baseSp {
		vm.stack[vm.sp] = nil
		vm.sp--
	}
	if vm.fp == 0 {
		return result, true, nil
	}
	vm.fp--
	vm.ip = active.returnAddr
	vm.activeFrame = &vm.frames[vm.fp]
	vm.activeFn = vm.activeFrame.fn
	vm.push(result)
	return nil, false, nil
}

func (vm *VirtualMachine) pop() object.Object {
	obj := vm.stack[vm.sp]
	vm.stack[vm.sp] = nil
	vm.sp--
	return obj
}

func (vm *VirtualMachine) push(obj object.Object) {
	vm.sp++
	vm.stack[vm.sp] = obj
}

func (vm *VirtualMachine) swap(pos int) {
	otherIndex := vm.sp - pos
	tos := vm.stack[vm.sp]
	vm.stack[vm.sp] = vm.stack[otherIndex]
	vm.stack[otherIndex] = tos
}

func (vm *VirtualMachine) fetch() uint16 {
	ip := vm.ip
	vm.ip++
	return uint16(vm.activeFn.instructions[ip])
}

// need checks that the current frame's operand stack segment holds at least
// n values.
func (vm *VirtualMachine) need(n int) error {
	if vm.sp-n < vm.activeFrame.baseSp {
		return vm.fault(errz.ErrStackUnderflow,
			"operation requires %d operand(s), stack has %d",
			n, vm.sp-vm.activeFrame.baseSp)
	}
	return nil
}

func (vm *VirtualMachine) checkJump(target int) error {
	if target >= len(vm.activeFn.instructions) {
		return vm.fault(errz.ErrInvalidJumpTarget,
			"jump to %d is out of range (%d instructions)",
			target, len(vm.activeFn.instructions))
	}
	return nil
}

func (vm *VirtualMachine) cancelled(ctx context.Context) error {
	f := vm.fault(errz.ErrCancelled, "execution cancelled")
	if err := ctx.Err(); err != nil {
		f.Cause = err
	}
	return f
}

// arityFault reports a call with the wrong number of arguments. At the entry
// point no frame is active yet, so the fault is located at the callee itself
// rather than a call site.
func (vm *VirtualMachine) arityFault(fn *loadedFunction, argc int) *errz.Fault {
	name := fn.name
	if name == "" {
		name = "<anonymous>"
	}
	var f *errz.Fault
	if fn.arity == 1 {
		f = errz.Newf(errz.ErrType,
			"function %q takes 1 argument (%d given)", name, argc)
	} else {
		f = errz.Newf(errz.ErrType,
			"function %q takes %d arguments (%d given)", name, fn.arity, argc)
	}
	if vm.activeFn != nil {
		f.Function = vm.activeFn.name
		f.PC = vm.pc
		f.Stack = vm.captureStack()
	} else {
		f.Function = name
	}
	return f
}

// fault creates a Fault of the given kind carrying the current program
// counter and a call-stack snapshot.
func (vm *VirtualMachine) fault(kind errz.Kind, format string, args ...any) *errz.Fault {
	f := errz.Newf(kind, format, args...)
	f.Function = vm.activeFn.name
	f.PC = vm.pc
	f.Stack = vm.captureStack()
	return f
}

// decorate attaches the current program counter and call-stack snapshot to
// faults raised by the value model, which has no notion of location.
func (vm *VirtualMachine) decorate(err error) error {
	if f, ok := errz.AsFault(err); ok && f.Stack == nil {
		f.Function = vm.activeFn.name
		f.PC = vm.pc
		f.Stack = vm.captureStack()
	}
	return err
}

// captureStack builds a stack snapshot from the current call frames,
// innermost first.
func (vm *VirtualMachine) captureStack() []errz.StackFrame {
	frames := make([]errz.StackFrame, 0, vm.fp+1)
	for i := vm.fp; i >= 0; i-- {
		f := &vm.frames[i]
		if f.fn == nil {
			continue
		}
		pc := vm.pc
		if i != vm.fp {
			// For callers, report the call site rather than the resume
			// address.
			pc = vm.frames[i+1].callPC
		}
		frames = append(frames, errz.StackFrame{
			Function: f.fn.name,
			PC:       pc,
		})
	}
	return frames
}
