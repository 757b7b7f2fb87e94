// Package dis supports analysis of Ember bytecode by disassembling it.
// This works with the opcodes defined in the `op` package and the Unit and
// Function types from the `bytecode` package.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/emberlang/ember/bytecode"
	"github.com/emberlang/ember/internal/table"
	"github.com/emberlang/ember/op"
)

// Instruction represents a single bytecode instruction and its operands.
type Instruction struct {
	Offset     int
	Name       string
	Opcode     op.Code
	Operands   []op.Code
	Annotation string
	Constant   any
}

// Disassemble returns a parsed representation of the given function's
// instructions. The unit provides the constant pool and call targets for
// annotations; it may be nil.
func Disassemble(unit *bytecode.Unit, fn *bytecode.Function) ([]Instruction, error) {
	var instructions []Instruction
	count := fn.InstructionCount()
	for offset := 0; offset < count; {
		opcode := fn.Instruction(offset)
		info := op.GetInfo(opcode)
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode at offset %d: %d", offset, opcode)
		}
		if offset+info.OperandCount >= count {
			return nil, fmt.Errorf("truncated operands at offset %d: %s", offset, info.Name)
		}
		operands := make([]op.Code, info.OperandCount)
		for i := range operands {
			operands[i] = fn.Instruction(offset + 1 + i)
		}
		var constant any
		var annotation string
		switch opcode {
		case op.BinaryOp:
			annotation = op.BinaryOpType(operands[0]).String()
		case op.CompareOp:
			annotation = op.CompareOpType(operands[0]).String()
		case op.LoadLocal, op.StoreLocal:
			annotation = fmt.Sprintf("local_%d", operands[0])
		case op.LoadConst:
			if unit != nil {
				index := int(operands[0])
				if index >= unit.ConstantCount() {
					return nil, fmt.Errorf("constant index out of range: %d", index)
				}
				constant = unit.Constant(index)
				annotation = fmt.Sprintf("%v", constant)
			}
		case op.Call:
			if unit != nil {
				annotation = callTargetName(unit, int(operands[0]))
			}
		}
		instructions = append(instructions, Instruction{
			Offset:     offset,
			Name:       info.Name,
			Opcode:     opcode,
			Operands:   operands,
			Annotation: annotation,
			Constant:   constant,
		})
		offset += 1 + info.OperandCount
	}
	return instructions, nil
}

func callTargetName(unit *bytecode.Unit, target int) string {
	if target >= unit.FunctionCount() {
		return ""
	}
	name := unit.Function(target).Name()
	if name == "" {
		name = "<anonymous>"
	}
	return "func:" + name
}

var (
	boldText    = color.New(color.Bold)
	yellowText  = color.New(color.FgYellow)
	magentaText = color.New(color.FgMagenta)
	cyanText    = color.New(color.FgHiCyan)
)

// Print writes a string representation of the given instructions to the
// given writer.
func Print(instructions []Instruction, writer io.Writer) {
	var lines [][]string
	for _, instr := range instructions {
		var values []string
		values = append(values, fmt.Sprintf("%d", instr.Offset))
		values = append(values, boldText.Sprint(instr.Name))
		values = append(values, formatOperands(instr.Operands))
		if instr.Constant != nil {
			switch c := instr.Constant.(type) {
			case int64:
				values = append(values, yellowText.Sprintf("%d", c))
			case float64:
				values = append(values, yellowText.Sprintf("%v", c))
			case bool:
				values = append(values, magentaText.Sprintf("%t", c))
			default:
				values = append(values, boldText.Sprintf("%v", c))
			}
		} else if instr.Annotation != "" {
			values = append(values, cyanText.Sprint(instr.Annotation))
		} else {
			values = append(values, "")
		}
		lines = append(lines, values)
	}

	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

// PrintUnit disassembles and prints every function in the unit.
func PrintUnit(unit *bytecode.Unit, writer io.Writer) error {
	for i := 0; i < unit.FunctionCount(); i++ {
		fn := unit.Function(i)
		name := fn.Name()
		if name == "" {
			name = "<anonymous>"
		}
		fmt.Fprintf(writer, "%s (index=%d arity=%d locals=%d):\n",
			boldText.Sprint(name), i, fn.Arity(), fn.LocalCount())
		instructions, err := Disassemble(unit, fn)
		if err != nil {
			return err
		}
		Print(instructions, writer)
		if i < unit.FunctionCount()-1 {
			fmt.Fprintln(writer)
		}
	}
	return nil
}

func formatOperands(ops []op.Code) string {
	var sb strings.Builder
	for i, op := range ops {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%d", op))
	}
	return sb.String()
}
