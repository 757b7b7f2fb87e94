package vm

import (
	"context"

	"github.com/emberlang/ember/bytecode"
	"github.com/emberlang/ember/object"
)

// Run executes an entry point of the given unit in a new VirtualMachine and
// returns the result.
func Run(ctx context.Context, unit *bytecode.Unit, entry string, args []object.Object, options ...Option) (object.Object, error) {
	machine, err := New(unit, options...)
	if err != nil {
		return nil, err
	}
	return machine.Run(ctx, entry, args...)
}
