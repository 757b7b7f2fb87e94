package bytecode

import (
	"github.com/emberlang/ember/op"
)

// Function represents one compiled entry point: an instruction sequence plus
// its declared arity and local slot count. It is immutable after creation.
type Function struct {
	name         string
	arity        int
	localCount   int
	instructions []op.Code
}

// FunctionParams contains parameters for creating a new Function.
type FunctionParams struct {
	Name         string
	Arity        int
	LocalCount   int
	Instructions []op.Code
}

// NewFunction creates a new immutable Function from the given parameters.
// Input slices are copied to ensure immutability.
func NewFunction(params FunctionParams) *Function {
	return &Function{
		name:         params.Name,
		arity:        params.Arity,
		localCount:   params.LocalCount,
		instructions: copyInstructions(params.Instructions),
	}
}

// Name returns the function name, or empty string for anonymous functions.
func (f *Function) Name() string {
	return f.name
}

// Arity returns the number of arguments the function requires.
func (f *Function) Arity() int {
	return f.arity
}

// LocalCount returns the number of local variable slots, parameters
// included.
func (f *Function) LocalCount() int {
	return f.localCount
}

// InstructionCount returns the number of instruction words, operands
// included.
func (f *Function) InstructionCount() int {
	return len(f.instructions)
}

// Instruction returns the instruction word at the given index.
func (f *Function) Instruction(index int) op.Code {
	return f.instructions[index]
}

func copyInstructions(instructions []op.Code) []op.Code {
	if len(instructions) == 0 {
		return nil
	}
	out := make([]op.Code, len(instructions))
	copy(out, instructions)
	return out
}
