package bytecode

import (
	"encoding/json"
	"fmt"

	"github.com/emberlang/ember/op"
)

// jsonUnit is the interchange form of a Unit. Constants are encoded with an
// explicit field per type so that integer and float constants survive a
// round trip without loss.
type jsonUnit struct {
	Name      string         `json:"name,omitempty"`
	Constants []jsonConstant `json:"constants,omitempty"`
	Functions []jsonFunction `json:"functions"`
}

type jsonConstant struct {
	Int   *int64   `json:"int,omitempty"`
	Float *float64 `json:"float,omitempty"`
	Bool  *bool    `json:"bool,omitempty"`
	Nil   bool     `json:"nil,omitempty"`
}

type jsonFunction struct {
	Name         string   `json:"name,omitempty"`
	Arity        int      `json:"arity"`
	LocalCount   int      `json:"local_count"`
	Instructions []uint16 `json:"instructions"`
}

// Marshal encodes the unit in its JSON interchange form.
func Marshal(u *Unit) ([]byte, error) {
	out := jsonUnit{
		Name:      u.name,
		Functions: make([]jsonFunction, len(u.functions)),
	}
	for i, constant := range u.constants {
		var jc jsonConstant
		switch constant := constant.(type) {
		case nil:
			jc.Nil = true
		case bool:
			value := constant
			jc.Bool = &value
		case int64:
			value := constant
			jc.Int = &value
		case float64:
			value := constant
			jc.Float = &value
		default:
			return nil, fmt.Errorf("cannot marshal constant %d: unsupported type %T", i, constant)
		}
		out.Constants = append(out.Constants, jc)
	}
	for i, fn := range u.functions {
		instructions := make([]uint16, fn.InstructionCount())
		for j := range instructions {
			instructions[j] = uint16(fn.Instruction(j))
		}
		out.Functions[i] = jsonFunction{
			Name:         fn.Name(),
			Arity:        fn.Arity(),
			LocalCount:   fn.LocalCount(),
			Instructions: instructions,
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// Unmarshal decodes a unit from its JSON interchange form. The decoded unit
// is structurally validated before it is returned.
func Unmarshal(data []byte) (*Unit, error) {
	var in jsonUnit
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("invalid unit encoding: %w", err)
	}
	constants := make([]any, 0, len(in.Constants))
	for i, jc := range in.Constants {
		switch {
		case jc.Nil:
			constants = append(constants, nil)
		case jc.Bool != nil:
			constants = append(constants, *jc.Bool)
		case jc.Int != nil:
			constants = append(constants, *jc.Int)
		case jc.Float != nil:
			constants = append(constants, *jc.Float)
		default:
			return nil, fmt.Errorf("invalid unit encoding: constant %d has no value", i)
		}
	}
	functions := make([]*Function, len(in.Functions))
	for i, jf := range in.Functions {
		instructions := make([]op.Code, len(jf.Instructions))
		for j, word := range jf.Instructions {
			instructions[j] = op.Code(word)
		}
		functions[i] = NewFunction(FunctionParams{
			Name:         jf.Name,
			Arity:        jf.Arity,
			LocalCount:   jf.LocalCount,
			Instructions: instructions,
		})
	}
	unit := NewUnit(UnitParams{
		Name:      in.Name,
		Functions: functions,
		Constants: constants,
	})
	if err := unit.Validate(); err != nil {
		return nil, err
	}
	return unit, nil
}
