package vm

import (
	"fmt"

	"github.com/conduit-lang/optshim/pkg/emit"
)

// verify checks m and returns the maximum stack depth it reaches.
//
// Methods are straight-line: exactly one RET, as the last instruction. The stack never
// underflows, every argument and local index is in range, and RET leaves one value for
// a non-void method and none for a void one.
func verify(m *emit.Method, maxStack int) (int, error) {
	fail := func(offset int, op emit.Opcode, format string, args ...interface{}) error {
		return &VerifyError{Method: m.Name, Offset: offset, Op: op, Reason: fmt.Sprintf(format, args...)}
	}

	if len(m.Code) == 0 {
		return 0, &VerifyError{Method: m.Name, Offset: -1, Reason: "empty method body"}
	}
	if last := m.Code[len(m.Code)-1]; last.Op != emit.OP_RET {
		return 0, &VerifyError{Method: m.Name, Offset: -1, Reason: "method does not end with RET"}
	}

	depth, highWater := 0, 0
	for offset, ins := range m.Code {
		pops, pushes := 0, 0

		switch ins.Op {
		case emit.OP_LDARG:
			if ins.Int < 0 || ins.Int >= int64(len(m.Params)) {
				return 0, fail(offset, ins.Op, "argument %d out of range (%d params)", ins.Int, len(m.Params))
			}
			pushes = 1
		case emit.OP_LDLOC, emit.OP_LDLOCA:
			if ins.Int < 0 || ins.Int >= int64(len(m.Locals)) {
				return 0, fail(offset, ins.Op, "local %d out of range (%d locals)", ins.Int, len(m.Locals))
			}
			pushes = 1
		case emit.OP_STLOC:
			if ins.Int < 0 || ins.Int >= int64(len(m.Locals)) {
				return 0, fail(offset, ins.Op, "local %d out of range (%d locals)", ins.Int, len(m.Locals))
			}
			pops = 1
		case emit.OP_LDC_I4, emit.OP_LDC_I8, emit.OP_LDC_R4, emit.OP_LDC_R8, emit.OP_LDSTR, emit.OP_LDNULL:
			pushes = 1
		case emit.OP_DUP:
			pops, pushes = 1, 2
		case emit.OP_CONV_I, emit.OP_CONV_U:
			pops, pushes = 1, 1
		case emit.OP_ADD:
			pops, pushes = 2, 1
		case emit.OP_POP:
			pops = 1
		case emit.OP_STIND_I8:
			pops = 2
		case emit.OP_INITOBJ:
			if ins.Type == nil || !ins.Type.IsValueType() {
				return 0, fail(offset, ins.Op, "INITOBJ needs a value type, got %s", ins.Type)
			}
			pops = 1
		case emit.OP_CALL:
			c := ins.Callable
			if c == nil {
				return 0, fail(offset, ins.Op, "missing callable")
			}
			pops = len(c.Params)
			if c.HasReceiver() {
				pops++
			}
			if !c.ResultType().IsVoid() {
				pushes = 1
			}
		case emit.OP_NEWOBJ:
			c := ins.Callable
			if c == nil || !c.IsConstructor() || c.Declaring == nil {
				return 0, fail(offset, ins.Op, "NEWOBJ needs a constructor")
			}
			pops, pushes = len(c.Params), 1
		case emit.OP_RET:
			if offset != len(m.Code)-1 {
				return 0, fail(offset, ins.Op, "RET before end of method")
			}
			want := 1
			if m.Return.IsVoid() {
				want = 0
			}
			if depth != want {
				return 0, fail(offset, ins.Op, "stack holds %d values at return, want %d", depth, want)
			}
		default:
			return 0, fail(offset, ins.Op, "unknown opcode %d", ins.Op)
		}

		if depth < pops {
			return 0, fail(offset, ins.Op, "stack underflow: need %d, have %d", pops, depth)
		}
		depth += pushes - pops
		if depth > highWater {
			highWater = depth
		}
		if maxStack > 0 && highWater > maxStack {
			return 0, fail(offset, ins.Op, "stack depth %d exceeds limit %d", highWater, maxStack)
		}
	}

	return highWater, nil
}
