package vm

// Option is a configuration function for a VirtualMachine.
type Option func(*VirtualMachine)

// WithMaxFrameDepth sets the call depth limit. Exceeding the limit faults
// with a stack overflow. Values are clamped to [1, MaxFrameDepth]. The
// default is DefaultMaxFrameDepth.
func WithMaxFrameDepth(depth int) Option {
	return func(vm *VirtualMachine) {
		if depth < 1 {
			depth = 1
		}
		if depth > MaxFrameDepth {
			depth = MaxFrameDepth
		}
		vm.maxFrameDepth = depth
	}
}

// WithContextCheckInterval sets how often the machine checks ctx.Done()
// during execution. The interval is specified in number of instructions. A
// value of 0 disables deterministic checking, relying only on the
// background goroutine that monitors the context. The default is
// DefaultContextCheckInterval.
//
// Lower values provide more responsive cancellation but may slightly impact
// performance due to more frequent checks. Higher values reduce overhead
// but delay cancellation detection.
func WithContextCheckInterval(interval int) Option {
	return func(vm *VirtualMachine) {
		vm.contextCheckInterval = interval
	}
}

// WithInstructionBudget caps the number of instructions a single run may
// execute. Exceeding the budget faults with ErrBudgetExceeded. Zero (the
// default) means unlimited. Hosts use this to enforce execution limits on
// untrusted bytecode without relying on wall-clock timeouts.
func WithInstructionBudget(budget int64) Option {
	return func(vm *VirtualMachine) {
		if budget < 0 {
			budget = 0
		}
		vm.budget = budget
	}
}
