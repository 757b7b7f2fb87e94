package vm

import (
	"fmt"

	"github.com/emberlang/ember/bytecode"
	"github.com/emberlang/ember/object"
	"github.com/emberlang/ember/op"
)

// loadedFunction is a bytecode.Function unpacked for the dispatch loop:
// the instruction words are copied into a plain slice and the metadata is
// flattened into fields.
type loadedFunction struct {
	index        int
	name         string
	arity        int
	localCount   int
	instructions []op.Code
}

// loadUnit unpacks a unit's functions and converts its constant pool into
// runtime objects. The unit itself is never mutated.
func loadUnit(unit *bytecode.Unit) ([]*loadedFunction, []object.Object, error) {
	functions := make([]*loadedFunction, unit.FunctionCount())
	for i := 0; i < unit.FunctionCount(); i++ {
		fn := unit.Function(i)
		instructions := make([]op.Code, fn.InstructionCount())
		for j := range instructions {
			instructions[j] = fn.Instruction(j)
		}
		functions[i] = &loadedFunction{
			index:        i,
			name:         fn.Name(),
			arity:        fn.Arity(),
			localCount:   fn.LocalCount(),
			instructions: instructions,
		}
	}
	constants := make([]object.Object, unit.ConstantCount())
	for i := 0; i < unit.ConstantCount(); i++ {
		constant := unit.Constant(i)
		switch constant := constant.(type) {
		case nil:
			constants[i] = object.Nil
		case bool:
			constants[i] = object.NewBool(constant)
		case int:
			constants[i] = object.NewInt(int64(constant))
		case int64:
			constants[i] = object.NewInt(constant)
		case float64:
			constants[i] = object.NewFloat(constant)
		default:
			return nil, nil, fmt.Errorf("unsupported constant type: %T", constant)
		}
	}
	return functions, constants, nil
}
