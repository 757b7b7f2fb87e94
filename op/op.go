// Package op defines opcodes used by the Ember virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
// Instructions are encoded as an opcode word followed by zero or more
// operand words in the same instruction stream.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop         Code = 1
	Halt        Code = 2
	Call        Code = 3
	ReturnValue Code = 4

	// Jump. Operands are absolute instruction indices, validated at
	// dispatch time.
	Jump           Code = 10
	PopJumpIfTrue  Code = 11
	PopJumpIfFalse Code = 12

	// Load and store
	LoadConst  Code = 20
	LoadLocal  Code = 21
	StoreLocal Code = 22

	// Operations
	BinaryOp      Code = 30
	CompareOp     Code = 31
	UnaryNegative Code = 32
	UnaryNot      Code = 33

	// Stack
	Swap   Code = 40
	Copy   Code = 41
	PopTop Code = 42

	// Push constants
	Nil   Code = 50
	False Code = 51
	True  Code = 52
)

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint16

const (
	Add      BinaryOpType = 1
	Subtract BinaryOpType = 2
	Multiply BinaryOpType = 3
	Divide   BinaryOpType = 4
	Modulo   BinaryOpType = 5
	Power    BinaryOpType = 6
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	case Power:
		return "**"
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{BinaryOp, "BINARY_OP", 1},
		{Call, "CALL", 2},
		{CompareOp, "COMPARE_OP", 1},
		{Copy, "COPY", 1},
		{False, "FALSE", 0},
		{Halt, "HALT", 0},
		{Jump, "JUMP", 1},
		{LoadConst, "LOAD_CONST", 1},
		{LoadLocal, "LOAD_LOCAL", 1},
		{Nil, "NIL", 0},
		{Nop, "NOP", 0},
		{PopJumpIfFalse, "POP_JUMP_IF_FALSE", 1},
		{PopJumpIfTrue, "POP_JUMP_IF_TRUE", 1},
		{PopTop, "POP_TOP", 0},
		{ReturnValue, "RETURN_VALUE", 0},
		{StoreLocal, "STORE_LOCAL", 1},
		{Swap, "SWAP", 1},
		{True, "TRUE", 0},
		{UnaryNegative, "UNARY_NEGATIVE", 0},
		{UnaryNot, "UNARY_NOT", 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode. Unknown opcodes
// return a zero Info with an empty Name.
func GetInfo(op Code) Info {
	if int(op) >= len(infos) {
		return Info{Code: op}
	}
	return infos[op]
}

// IsValid returns true if the given opcode is a known instruction.
func IsValid(op Code) bool {
	return int(op) < len(infos) && infos[op].Name != ""
}
