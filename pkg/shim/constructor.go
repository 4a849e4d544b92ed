package shim

import (
	"github.com/google/uuid"

	"github.com/conduit-lang/optshim/pkg/emit"
	"github.com/conduit-lang/optshim/pkg/metadata"
	"github.com/conduit-lang/optshim/pkg/types"
)

// ConstructorKind selects how a constructor trampoline is invoked.
type ConstructorKind uint8

const (
	// Initializer trampolines run the constructor on an existing instance, passed as the
	// leading argument. They return nothing.
	Initializer ConstructorKind = iota
	// Factory trampolines allocate a new instance and return it.
	Factory
)

func (k ConstructorKind) String() string {
	switch k {
	case Initializer:
		return "initializer"
	case Factory:
		return "factory"
	}
	return "unknown"
}

// CreateConstructorTrampoline builds a trampoline for a constructor. See
// (*Builder).CreateConstructorTrampoline.
func CreateConstructorTrampoline(ctor *metadata.Callable, desired *metadata.Signature, kind ConstructorKind, opts ...Option) (emit.Invocable, error) {
	return NewBuilder(opts...).CreateConstructorTrampoline(ctor, desired, kind)
}

// CreateConstructorTrampoline builds a trampoline for a constructor.
//
// An Initializer's desired parameters start with the receiver: the address of the
// instance for value types, the reference otherwise. A Factory's desired parameters are
// only the required declared ones and its return type must be assignable from the
// constructed type.
func (b *Builder) CreateConstructorTrampoline(ctor *metadata.Callable, desired *metadata.Signature, kind ConstructorKind) (emit.Invocable, error) {
	if ctor == nil {
		return nil, newError(ErrNullInput, "constructor is nil")
	}
	if desired == nil {
		return nil, newError(ErrNullInput, "desired signature is nil")
	}
	if !ctor.IsConstructor() {
		return nil, newError(ErrInvalidArgument, "%s is not a constructor", ctor.Name)
	}
	if ctor.Declaring == nil {
		return nil, newError(ErrInvalidArgument, "constructor %s has no declaring type", ctor.Name)
	}

	switch kind {
	case Initializer:
		return b.buildCall(ctor, describe(ctor, types.VoidType), desired)
	case Factory:
		return b.buildFactory(ctor, desired)
	}
	return nil, newError(ErrInvalidArgument, "unknown constructor trampoline kind %d", kind)
}

func (b *Builder) buildFactory(ctor *metadata.Callable, desired *metadata.Signature) (emit.Invocable, error) {
	want, err := DescribeDelegate(desired)
	if err != nil {
		return nil, err
	}
	source := Signature{Params: describeParams(ctor.Params), Return: ctor.Declaring}

	if !want.Return.IsAssignableFrom(source.Return) {
		return nil, newError(ErrReturnTypeMismatch,
			"desired return type %s cannot hold a new %s", want.Return, ctor.Declaring)
	}
	if err := checkShape(ctor, want, source, "factory"); err != nil {
		return nil, err
	}

	m := emit.NewMethod(uuid.NewString(), want.Return, want.Types())
	if err := emitParameterLoads(m, source.Params); err != nil {
		return nil, err
	}
	m.Emit(emit.Newobj(ctor))
	m.Emit(emit.Op(emit.OP_RET))

	return b.compile(m, ctor, want)
}
