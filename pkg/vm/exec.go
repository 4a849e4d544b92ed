package vm

import (
	"fmt"

	"github.com/conduit-lang/optshim/pkg/emit"
	"github.com/conduit-lang/optshim/pkg/metadata"
	"github.com/conduit-lang/optshim/pkg/runtime"
)

// frame is the state of one invocation.
type frame struct {
	program *Program
	args    []runtime.Value
	locals  []*runtime.Slot
	stack   []runtime.Value

	pc int
}

func (f *frame) push(v runtime.Value) {
	f.stack = append(f.stack, v)
}

// pop is safe without checks: verification guarantees the stack never underflows.
func (f *frame) pop() runtime.Value {
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

func (f *frame) popN(n int) []runtime.Value {
	vals := make([]runtime.Value, n)
	copy(vals, f.stack[len(f.stack)-n:])
	f.stack = f.stack[:len(f.stack)-n]
	return vals
}

func (f *frame) runtimeError(format string, args ...interface{}) error {
	return &RuntimeError{
		Method: f.program.method.Name,
		Offset: f.pc,
		Op:     f.program.method.Code[f.pc].Op,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (f *frame) run() (runtime.Value, error) {
	code := f.program.method.Code

	for f.pc = 0; f.pc < len(code); f.pc++ {
		ins := code[f.pc]

		switch ins.Op {
		case emit.OP_LDARG:
			f.push(f.args[ins.Int].Copy())
		case emit.OP_LDC_I4:
			f.push(runtime.I4(int32(ins.Int)))
		case emit.OP_LDC_I8:
			f.push(runtime.I8(ins.Int))
		case emit.OP_LDC_R4:
			f.push(runtime.Float32(float32(ins.Float)))
		case emit.OP_LDC_R8:
			f.push(runtime.Float64(ins.Float))
		case emit.OP_LDSTR:
			f.push(runtime.String(ins.Str))
		case emit.OP_LDNULL:
			f.push(runtime.Null())

		case emit.OP_CONV_I, emit.OP_CONV_U:
			v := f.pop()
			switch v.Kind {
			case runtime.ValI4:
				if ins.Op == emit.OP_CONV_I {
					f.push(runtime.Native(uint64(int64(v.Int32()))))
				} else {
					f.push(runtime.Native(uint64(v.UInt32())))
				}
			case runtime.ValI8, runtime.ValNative:
				f.push(runtime.Native(v.Data))
			default:
				return runtime.Value{}, f.runtimeError("cannot convert %s to native integer", v.Kind)
			}

		case emit.OP_DUP:
			v := f.pop()
			f.push(v)
			f.push(v.Copy())

		case emit.OP_ADD:
			b := f.pop()
			a := f.pop()
			sum, err := add(a, b)
			if err != nil {
				return runtime.Value{}, f.runtimeError("%v", err)
			}
			f.push(sum)

		case emit.OP_POP:
			f.pop()

		case emit.OP_STIND_I8:
			word := f.pop()
			addr := f.pop()
			slot := addr.Slot()
			if slot == nil {
				return runtime.Value{}, f.runtimeError("store through %s, want an address", addr.Kind)
			}
			if err := slot.StoreWord(addr.Data, word.Data); err != nil {
				return runtime.Value{}, f.runtimeError("%v", err)
			}

		case emit.OP_LDLOC:
			f.push(f.locals[ins.Int].Load())
		case emit.OP_STLOC:
			f.locals[ins.Int].Store(f.pop())
		case emit.OP_LDLOCA:
			f.push(runtime.Addr(f.locals[ins.Int]))

		case emit.OP_INITOBJ:
			addr := f.pop()
			slot := addr.Slot()
			if slot == nil {
				return runtime.Value{}, f.runtimeError("initialize through %s, want an address", addr.Kind)
			}
			slot.Store(runtime.Zero(ins.Type))

		case emit.OP_CALL:
			c := ins.Callable
			n := len(c.Params)
			if c.HasReceiver() {
				n++
			}
			result, err := f.call(c, f.popN(n))
			if err != nil {
				return runtime.Value{}, err
			}
			if !c.ResultType().IsVoid() {
				f.push(result)
			}

		case emit.OP_NEWOBJ:
			c := ins.Callable
			args := f.popN(len(c.Params))
			v, err := f.construct(c, args)
			if err != nil {
				return runtime.Value{}, err
			}
			f.push(v)

		case emit.OP_RET:
			if f.program.method.Return.IsVoid() {
				return runtime.Value{}, nil
			}
			return f.pop(), nil

		default:
			return runtime.Value{}, f.runtimeError("unknown opcode %d", ins.Op)
		}
	}

	return runtime.Value{}, f.runtimeError("fell off the end of the method")
}

func (f *frame) call(c *metadata.Callable, args []runtime.Value) (runtime.Value, error) {
	if c.Impl == nil {
		return runtime.Value{}, f.runtimeError("callable %s has no implementation", c.Name)
	}
	return c.Impl(args)
}

// construct allocates the declaring type and runs c on it: value types are built in a
// fresh slot passed by address, classes as a new object passed by reference.
func (f *frame) construct(c *metadata.Callable, args []runtime.Value) (runtime.Value, error) {
	if c.Impl == nil {
		return runtime.Value{}, f.runtimeError("constructor %s has no implementation", c.Name)
	}

	if c.Declaring.IsValueType() {
		slot := runtime.NewSlot(c.Declaring)
		if _, err := c.Impl(append([]runtime.Value{runtime.Addr(slot)}, args...)); err != nil {
			return runtime.Value{}, err
		}
		return slot.Load(), nil
	}

	obj := runtime.NewObject(c.Declaring)
	ref := runtime.Ref(obj)
	if _, err := c.Impl(append([]runtime.Value{ref}, args...)); err != nil {
		return runtime.Value{}, err
	}
	return ref, nil
}

func add(a, b runtime.Value) (runtime.Value, error) {
	if a.Kind == runtime.ValAddr {
		if b.Kind != runtime.ValNative && b.Kind != runtime.ValI4 {
			return runtime.Value{}, fmt.Errorf("cannot offset an address by %s", b.Kind)
		}
		a.Data += b.Data
		return a, nil
	}
	if a.Kind != b.Kind {
		return runtime.Value{}, fmt.Errorf("cannot add %s and %s", a.Kind, b.Kind)
	}
	switch a.Kind {
	case runtime.ValI4:
		return runtime.I4(a.Int32() + b.Int32()), nil
	case runtime.ValI8:
		return runtime.I8(a.Int64() + b.Int64()), nil
	case runtime.ValNative:
		return runtime.Native(a.Data + b.Data), nil
	}
	return runtime.Value{}, fmt.Errorf("cannot add %s values", a.Kind)
}
