package emit

import (
	"fmt"
	"strconv"

	"github.com/conduit-lang/optshim/pkg/metadata"
	"github.com/conduit-lang/optshim/pkg/types"
)

// Instruction is one decoded instruction. Only the operand field its opcode uses is set:
// Int for argument/local indices and integer literals, Float for float literals, Str for
// strings, Type for INITOBJ and Callable for CALL and NEWOBJ.
type Instruction struct {
	Op       Opcode
	Int      int64
	Float    float64
	Str      string
	Type     *types.Type
	Callable *metadata.Callable
}

func Op(op Opcode) Instruction { return Instruction{Op: op} }

func Ldarg(index int) Instruction       { return Instruction{Op: OP_LDARG, Int: int64(index)} }
func LdcI4(v int32) Instruction         { return Instruction{Op: OP_LDC_I4, Int: int64(v)} }
func LdcI8(v int64) Instruction         { return Instruction{Op: OP_LDC_I8, Int: v} }
func LdcR4(v float32) Instruction       { return Instruction{Op: OP_LDC_R4, Float: float64(v)} }
func LdcR8(v float64) Instruction       { return Instruction{Op: OP_LDC_R8, Float: v} }
func Ldstr(s string) Instruction        { return Instruction{Op: OP_LDSTR, Str: s} }
func Ldloc(index int) Instruction       { return Instruction{Op: OP_LDLOC, Int: int64(index)} }
func Stloc(index int) Instruction       { return Instruction{Op: OP_STLOC, Int: int64(index)} }
func Ldloca(index int) Instruction      { return Instruction{Op: OP_LDLOCA, Int: int64(index)} }
func Initobj(t *types.Type) Instruction { return Instruction{Op: OP_INITOBJ, Type: t} }

func Call(c *metadata.Callable) Instruction   { return Instruction{Op: OP_CALL, Callable: c} }
func Newobj(c *metadata.Callable) Instruction { return Instruction{Op: OP_NEWOBJ, Callable: c} }

// String renders the instruction with its operand, e.g. "LDC_I4 5".
func (ins Instruction) String() string {
	name := ins.Op.String()
	switch ins.Op {
	case OP_LDARG, OP_LDC_I4, OP_LDC_I8, OP_LDLOC, OP_STLOC, OP_LDLOCA:
		return fmt.Sprintf("%s %d", name, ins.Int)
	case OP_LDC_R4:
		return fmt.Sprintf("%s %s", name, strconv.FormatFloat(ins.Float, 'g', -1, 32))
	case OP_LDC_R8:
		return fmt.Sprintf("%s %s", name, strconv.FormatFloat(ins.Float, 'g', -1, 64))
	case OP_LDSTR:
		return fmt.Sprintf("%s %q", name, ins.Str)
	case OP_INITOBJ:
		return fmt.Sprintf("%s %s", name, ins.Type)
	case OP_CALL, OP_NEWOBJ:
		if ins.Callable == nil {
			return name + " <nil>"
		}
		return fmt.Sprintf("%s %s", name, ins.Callable.Name)
	}
	return name
}
