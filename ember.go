// Package ember executes compiled Ember bytecode. It is a convenience
// facade over the bytecode and vm packages: load a unit, pick an entry
// point, and run it with a single call.
package ember

import (
	"context"

	"github.com/emberlang/ember/bytecode"
	"github.com/emberlang/ember/object"
	"github.com/emberlang/ember/vm"
)

// DefaultEntryPoint is the function name executed when no entry point is
// configured.
const DefaultEntryPoint = "main"

// Option configures an Ember execution.
type Option func(*options)

type options struct {
	entry     string
	args      []object.Object
	vmOptions []vm.Option
}

func collectOptions(opts ...Option) *options {
	cfg := &options{entry: DefaultEntryPoint}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithEntryPoint sets the name of the function to execute.
func WithEntryPoint(name string) Option {
	return func(cfg *options) {
		cfg.entry = name
	}
}

// WithArgs sets the arguments passed to the entry point.
func WithArgs(args ...object.Object) Option {
	return func(cfg *options) {
		cfg.args = args
	}
}

// WithInstructionBudget limits the number of instructions a run may
// execute. Zero means unlimited.
func WithInstructionBudget(budget int64) Option {
	return func(cfg *options) {
		cfg.vmOptions = append(cfg.vmOptions, vm.WithInstructionBudget(budget))
	}
}

// WithMaxFrameDepth limits the call depth.
func WithMaxFrameDepth(depth int) Option {
	return func(cfg *options) {
		cfg.vmOptions = append(cfg.vmOptions, vm.WithMaxFrameDepth(depth))
	}
}

// WithContextCheckInterval sets the number of instructions between
// deterministic checks for context cancellation.
func WithContextCheckInterval(count int) Option {
	return func(cfg *options) {
		cfg.vmOptions = append(cfg.vmOptions, vm.WithContextCheckInterval(count))
	}
}

// Run executes the configured entry point of the given unit and returns
// its result.
func Run(ctx context.Context, unit *bytecode.Unit, opts ...Option) (object.Object, error) {
	cfg := collectOptions(opts...)
	return vm.Run(ctx, unit, cfg.entry, cfg.args, cfg.vmOptions...)
}

// RunData decodes the JSON encoding of a unit and executes its configured
// entry point.
func RunData(ctx context.Context, data []byte, opts ...Option) (object.Object, error) {
	unit, err := bytecode.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return Run(ctx, unit, opts...)
}
