package vm

import (
	"github.com/emberlang/ember/object"
)

const (
	// DefaultFrameLocals is the number of local variables that can be stored
	// directly in the frame's fixed storage array, avoiding heap allocation.
	DefaultFrameLocals = 8

	// MinExtendedLocalsCapacity is the minimum capacity allocated for
	// extended locals when heap allocation is needed. This provides headroom
	// for future calls to reduce allocation churn for functions with varying
	// local counts.
	MinExtendedLocalsCapacity = 32
)

// frame is one activation record: the running function, the caller's resume
// address, the base of this frame's operand stack segment, and the local
// variable slots.
type frame struct {
	fn             *loadedFunction
	returnAddr     int
	baseSp         int
	callPC         int
	storage        [DefaultFrameLocals]object.Object
	locals         []object.Object
	extendedLocals []object.Object
}

// Activate prepares the frame to run fn. Local slots are sized to the
// function's declared local count and initialized to Nil. returnAddr is the
// caller's resume address and baseSp is the operand stack pointer at entry;
// pops below baseSp are an underflow fault.
func (f *frame) Activate(fn *loadedFunction, returnAddr, baseSp, callPC int) {
	f.fn = fn
	f.returnAddr = returnAddr
	f.baseSp = baseSp
	f.callPC = callPC

	// Decide where to store local variables. If the frame storage has enough
	// space, use that. Otherwise, reuse extendedLocals if large enough, or
	// allocate a new slice. After this, f.locals always points to the
	// correct storage.
	localCount := fn.localCount
	if localCount > DefaultFrameLocals {
		if cap(f.extendedLocals) >= localCount {
			f.extendedLocals = f.extendedLocals[:localCount]
		} else {
			allocSize := localCount
			if allocSize < MinExtendedLocalsCapacity {
				allocSize = MinExtendedLocalsCapacity
			}
			f.extendedLocals = make([]object.Object, localCount, allocSize)
		}
		f.locals = f.extendedLocals
	} else {
		f.extendedLocals = nil
		f.locals = f.storage[:localCount]
	}
	for i := range f.locals {
		f.locals[i] = object.Nil
	}
}

func (f *frame) Locals() []object.Object {
	return f.locals
}
