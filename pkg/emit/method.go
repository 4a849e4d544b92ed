package emit

import (
	"github.com/conduit-lang/optshim/pkg/runtime"
	"github.com/conduit-lang/optshim/pkg/types"
)

// Emitter is the write side of a method body under construction.
type Emitter interface {
	// Emit appends an instruction.
	Emit(ins Instruction)
	// DeclareLocal reserves a local variable of type t and returns its index.
	DeclareLocal(t *types.Type) int
}

// Invocable is a compiled method.
type Invocable interface {
	Invoke(args ...runtime.Value) (runtime.Value, error)
	// Method returns the method the artifact was compiled from.
	Method() *Method
}

// Backend turns a finished method into an invocable artifact.
type Backend interface {
	Compile(m *Method) (Invocable, error)
}

// Method is a straight-line method body with its signature and local variables.
type Method struct {
	Name   string
	Params []*types.Type
	Return *types.Type
	Locals []*types.Type
	Code   []Instruction
}

// NewMethod creates an empty method. A nil return type means void.
func NewMethod(name string, ret *types.Type, params []*types.Type) *Method {
	if ret == nil {
		ret = types.VoidType
	}
	return &Method{
		Name:   name,
		Params: params,
		Return: ret,
		Code:   make([]Instruction, 0, len(params)+4),
	}
}

// Emit appends an instruction.
func (m *Method) Emit(ins Instruction) {
	m.Code = append(m.Code, ins)
}

// DeclareLocal reserves a local of type t.
func (m *Method) DeclareLocal(t *types.Type) int {
	m.Locals = append(m.Locals, t)
	return len(m.Locals) - 1
}

// Len returns the number of instructions.
func (m *Method) Len() int {
	return len(m.Code)
}
