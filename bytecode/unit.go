package bytecode

// Unit represents a compiled program: an ordered list of functions and a
// shared constant pool. It is immutable after creation and safe for
// concurrent use.
//
// Constant pool entries are restricted to the value model of the VM:
// int64, float64, bool, and nil.
type Unit struct {
	name      string
	functions []*Function
	constants []any
	byName    map[string]int
}

// UnitParams contains parameters for creating a new Unit.
type UnitParams struct {
	Name      string
	Functions []*Function
	Constants []any
}

// NewUnit creates a new immutable Unit from the given parameters. Input
// slices are copied to ensure immutability. Functions themselves are already
// immutable *Function values.
func NewUnit(params UnitParams) *Unit {
	var functions []*Function
	if len(params.Functions) > 0 {
		functions = make([]*Function, len(params.Functions))
		copy(functions, params.Functions)
	}
	byName := make(map[string]int, len(functions))
	for i, fn := range functions {
		if fn.Name() != "" {
			if _, exists := byName[fn.Name()]; !exists {
				byName[fn.Name()] = i
			}
		}
	}
	return &Unit{
		name:      params.Name,
		functions: functions,
		constants: copyConstants(params.Constants),
		byName:    byName,
	}
}

// Name returns the unit name.
func (u *Unit) Name() string {
	return u.name
}

// FunctionCount returns the number of functions in the unit.
func (u *Unit) FunctionCount() int {
	return len(u.functions)
}

// Function returns the function at the given index.
func (u *Unit) Function(index int) *Function {
	return u.functions[index]
}

// FunctionIndex returns the index of the first function with the given
// name. The second return value is false if no such function exists.
func (u *Unit) FunctionIndex(name string) (int, bool) {
	index, ok := u.byName[name]
	return index, ok
}

// ConstantCount returns the number of entries in the constant pool.
func (u *Unit) ConstantCount() int {
	return len(u.constants)
}

// Constant returns the constant pool entry at the given index.
func (u *Unit) Constant(index int) any {
	return u.constants[index]
}

func copyConstants(constants []any) []any {
	if len(constants) == 0 {
		return nil
	}
	out := make([]any, len(constants))
	copy(out, constants)
	return out
}
