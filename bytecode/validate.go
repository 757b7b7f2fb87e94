package bytecode

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/emberlang/ember/op"
)

// Validate performs a structural check of the unit and returns all problems
// found, aggregated into a single error. A nil return means the unit is
// structurally sound: every opcode is known, no instruction sequence is
// truncated, and every static operand (constant index, call target, local
// slot, jump target) is in range.
//
// Validation is a load-time defense against buggy or untrusted bytecode
// producers. The engine re-checks dynamic operands at dispatch time
// regardless, so running an unvalidated unit is safe, just slower to fail.
func (u *Unit) Validate() error {
	var result *multierror.Error
	for i, fn := range u.functions {
		if fn == nil {
			result = multierror.Append(result, fmt.Errorf(
				"function %d: nil function", i))
			continue
		}
		if fn.Arity() < 0 {
			result = multierror.Append(result, fmt.Errorf(
				"function %d (%s): negative arity %d", i, fn.Name(), fn.Arity()))
		}
		if fn.LocalCount() < fn.Arity() {
			result = multierror.Append(result, fmt.Errorf(
				"function %d (%s): local count %d is less than arity %d",
				i, fn.Name(), fn.LocalCount(), fn.Arity()))
		}
		if err := u.validateInstructions(i, fn); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for i, constant := range u.constants {
		switch constant.(type) {
		case nil, bool, int64, float64:
		default:
			result = multierror.Append(result, fmt.Errorf(
				"constant %d: unsupported type %T", i, constant))
		}
	}
	return result.ErrorOrNil()
}

func (u *Unit) validateInstructions(index int, fn *Function) error {
	var result *multierror.Error
	count := fn.InstructionCount()
	for ip := 0; ip < count; {
		opcode := fn.Instruction(ip)
		info := op.GetInfo(opcode)
		if info.Name == "" {
			result = multierror.Append(result, fmt.Errorf(
				"function %d (%s): unknown opcode %d at %d",
				index, fn.Name(), opcode, ip))
			// Cannot decode operands past an unknown opcode
			break
		}
		if ip+info.OperandCount >= count {
			result = multierror.Append(result, fmt.Errorf(
				"function %d (%s): truncated %s at %d",
				index, fn.Name(), info.Name, ip))
			break
		}
		switch opcode {
		case op.LoadConst:
			if operand := int(fn.Instruction(ip + 1)); operand >= len(u.constants) {
				result = multierror.Append(result, fmt.Errorf(
					"function %d (%s): constant index %d out of range at %d",
					index, fn.Name(), operand, ip))
			}
		case op.LoadLocal, op.StoreLocal:
			if operand := int(fn.Instruction(ip + 1)); operand >= fn.LocalCount() {
				result = multierror.Append(result, fmt.Errorf(
					"function %d (%s): local index %d out of range at %d",
					index, fn.Name(), operand, ip))
			}
		case op.Jump, op.PopJumpIfTrue, op.PopJumpIfFalse:
			if target := int(fn.Instruction(ip + 1)); target >= count {
				result = multierror.Append(result, fmt.Errorf(
					"function %d (%s): jump target %d out of range at %d",
					index, fn.Name(), target, ip))
			}
		case op.Call:
			if operand := int(fn.Instruction(ip + 1)); operand >= len(u.functions) {
				result = multierror.Append(result, fmt.Errorf(
					"function %d (%s): call target %d out of range at %d",
					index, fn.Name(), operand, ip))
			}
		}
		ip += 1 + info.OperandCount
	}
	return result.ErrorOrNil()
}
