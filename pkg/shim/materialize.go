package shim

import (
	"github.com/conduit-lang/optshim/pkg/emit"
	"github.com/conduit-lang/optshim/pkg/metadata"
	"github.com/conduit-lang/optshim/pkg/types"
)

// decimalWordSize is the byte offset of the second word of a decimal.
const decimalWordSize = 8

// EmitOptionalParameterLoad emits a load of the default value of p. Optional
// parameters without a recorded default, and parameters whose default is null, load the
// zero value of their type.
func EmitOptionalParameterLoad(e emit.Emitter, p metadata.Param) error {
	if e == nil {
		return newError(ErrNullInput, "emitter is nil")
	}
	if p.Type == nil {
		return newError(ErrNullInput, "parameter %q has no type", p.Name)
	}
	if !p.IsDefaulted() {
		return newError(ErrInvalidArgument, "cannot emit a load of required parameter %q", p.Name)
	}
	return emitParameterDefault(e, describeParams([]metadata.Param{p})[0])
}

// emitParameterDefault emits the load of a non-required parameter.
func emitParameterDefault(e emit.Emitter, p Parameter) error {
	if p.State == OptionalWithoutDefault || p.Default.IsNull() {
		if err := emitZeroValue(e, p.Type); err != nil {
			return err.withParam(p.ref())
		}
		return nil
	}

	r, ok := Coerce(p.Type, p.Default)
	if !ok {
		return newError(ErrInvalidEncoding, "could not convert default value %s of type %s to the type of %s",
			p.Default, p.Default.Type(), p.ref()).withParam(p.ref())
	}
	if err := emitResolved(e, r); err != nil {
		return err.withParam(p.ref())
	}
	return nil
}

// emitZeroValue emits the zero value of t: a zero literal for numbers, a zeroed local
// for value types, a zeroed local passed by address for by-reference types and null for
// references.
func emitZeroValue(e emit.Emitter, t *types.Type) *Error {
	if t == nil {
		return newError(ErrUnsupportedValueKind, "no zero value for a missing type")
	}

	switch t.Kind {
	case types.Bool, types.Char, types.Int8, types.UInt8, types.Int16, types.UInt16, types.Int32, types.UInt32:
		e.Emit(emit.LdcI4(0))
		return nil
	case types.Int64, types.UInt64:
		e.Emit(emit.LdcI8(0))
		return nil
	case types.Float32:
		e.Emit(emit.LdcR4(0))
		return nil
	case types.Float64:
		e.Emit(emit.LdcR8(0))
		return nil
	case types.Pointer, types.NativeUInt:
		e.Emit(emit.LdcI4(0))
		e.Emit(emit.Op(emit.OP_CONV_U))
		return nil
	case types.NativeInt:
		e.Emit(emit.LdcI4(0))
		e.Emit(emit.Op(emit.OP_CONV_I))
		return nil
	case types.Enum:
		if t.Underlying() == nil {
			return newError(ErrUnsupportedValueKind, "enum %s has no underlying type", t.Name)
		}
		return emitZeroValue(e, t.Underlying())
	case types.ByRef:
		if err := emitZeroValue(e, t.Elem); err != nil {
			return err
		}
		local := e.DeclareLocal(t.Elem)
		e.Emit(emit.Stloc(local))
		e.Emit(emit.Ldloca(local))
		return nil
	case types.Invalid, types.Void:
		return newError(ErrUnsupportedValueKind, "no zero value for %s", t)
	}

	if t.IsValueType() {
		local := e.DeclareLocal(t)
		e.Emit(emit.Ldloca(local))
		e.Emit(emit.Initobj(t))
		e.Emit(emit.Ldloc(local))
		return nil
	}
	e.Emit(emit.Op(emit.OP_LDNULL))
	return nil
}

// emitResolved emits a literal load of a resolved constant.
func emitResolved(e emit.Emitter, r Resolved) *Error {
	switch r.Kind {
	case ResolvedBool, ResolvedChar, ResolvedInt8, ResolvedUInt8, ResolvedInt16, ResolvedUInt16, ResolvedInt32, ResolvedUInt32:
		e.Emit(emit.LdcI4(int32(r.bits)))
	case ResolvedInt64, ResolvedUInt64:
		e.Emit(emit.LdcI8(int64(r.bits)))
	case ResolvedFloat32:
		e.Emit(emit.LdcR4(float32(r.float)))
	case ResolvedFloat64:
		e.Emit(emit.LdcR8(r.float))
	case ResolvedNativeUInt:
		e.Emit(emit.LdcI4(int32(r.bits)))
		e.Emit(emit.Op(emit.OP_CONV_U))
	case ResolvedNativeInt:
		e.Emit(emit.LdcI4(int32(r.bits)))
		e.Emit(emit.Op(emit.OP_CONV_I))
	case ResolvedString:
		e.Emit(emit.Ldstr(r.str))

	case ResolvedDecimal:
		// Write both words of the 128-bit layout into a local, then load it.
		w0, w1 := r.dec.Words()
		local := e.DeclareLocal(types.DecimalType)
		e.Emit(emit.Ldloca(local))
		e.Emit(emit.Op(emit.OP_DUP))
		e.Emit(emit.LdcI8(int64(w0)))
		e.Emit(emit.Op(emit.OP_STIND_I8))
		e.Emit(emit.LdcI4(decimalWordSize))
		e.Emit(emit.Op(emit.OP_CONV_I))
		e.Emit(emit.Op(emit.OP_ADD))
		e.Emit(emit.LdcI8(int64(w1)))
		e.Emit(emit.Op(emit.OP_STIND_I8))
		e.Emit(emit.Ldloc(local))

	case ResolvedDateTime:
		local := e.DeclareLocal(types.DateTimeType)
		e.Emit(emit.Ldloca(local))
		e.Emit(emit.LdcI8(r.dt.Ticks))
		e.Emit(emit.LdcI4(int32(r.dt.Kind)))
		e.Emit(emit.Call(metadata.DateTimeConstructor))
		e.Emit(emit.Ldloc(local))

	case ResolvedEnum:
		if r.inner == nil {
			return newError(ErrUnsupportedValueKind, "enum value of %s has no underlying value", r.Type)
		}
		return emitResolved(e, *r.inner)

	case ResolvedNullable:
		if r.inner == nil || r.Type == nil {
			return newError(ErrUnsupportedValueKind, "nullable value without a present value")
		}
		if err := emitResolved(e, *r.inner); err != nil {
			return err
		}
		e.Emit(emit.Newobj(metadata.NullableConstructor(r.Type)))

	case ResolvedByRef:
		if r.inner == nil || r.Type == nil {
			return newError(ErrUnsupportedValueKind, "by-reference value without an element value")
		}
		local := e.DeclareLocal(r.Type)
		if err := emitResolved(e, *r.inner); err != nil {
			return err
		}
		e.Emit(emit.Stloc(local))
		e.Emit(emit.Ldloca(local))

	default:
		return newError(ErrUnsupportedValueKind, "emitting a load of a %s value is not supported", r.Kind)
	}
	return nil
}
