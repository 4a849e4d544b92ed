package shim

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/optshim/pkg/emit"
	"github.com/conduit-lang/optshim/pkg/metadata"
	"github.com/conduit-lang/optshim/pkg/types"
	"github.com/conduit-lang/optshim/pkg/vm"
)

// Option configures a Builder.
type Option func(*Builder)

// WithBackend sets the backend that compiles emitted methods. The default is the
// stack machine in package vm.
func WithBackend(b emit.Backend) Option {
	return func(bl *Builder) {
		if b != nil {
			bl.backend = b
		}
	}
}

// WithLogger sets the logger builds report to. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(bl *Builder) {
		if l != nil {
			bl.logger = l
		}
	}
}

// Builder creates trampolines. It holds configuration only: builds share no state, so
// one Builder may be used from many goroutines.
type Builder struct {
	backend emit.Backend
	logger  *zap.Logger
}

// NewBuilder creates a builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		backend: vm.New(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CreateTrampoline builds a callable with the desired signature that invokes target.
// See (*Builder).CreateTrampoline.
func CreateTrampoline(target *metadata.Callable, desired *metadata.Signature, opts ...Option) (emit.Invocable, error) {
	return NewBuilder(opts...).CreateTrampoline(target, desired)
}

// CreateTrampoline builds a callable with the desired signature that invokes target.
//
// The desired parameters must be exactly target's required parameters, in order, with
// an instance method's receiver first. Every other parameter is supplied from its
// recorded default. A void desired return type discards target's result; any other must
// be assignable from it.
func (b *Builder) CreateTrampoline(target *metadata.Callable, desired *metadata.Signature) (emit.Invocable, error) {
	if target == nil {
		return nil, newError(ErrNullInput, "target callable is nil")
	}
	if desired == nil {
		return nil, newError(ErrNullInput, "desired signature is nil")
	}
	if target.IsConstructor() {
		return nil, newError(ErrInvalidArgument, "%s is a constructor; use CreateConstructorTrampoline", target.Name)
	}
	return b.buildCall(target, describe(target, target.ResultType()), desired)
}

// buildCall emits parameter loads followed by a call of target.
func (b *Builder) buildCall(target *metadata.Callable, source Signature, desired *metadata.Signature) (emit.Invocable, error) {
	want, err := DescribeDelegate(desired)
	if err != nil {
		return nil, err
	}

	if !want.Return.IsVoid() && !want.Return.IsAssignableFrom(source.Return) {
		return nil, newError(ErrReturnTypeMismatch,
			"desired return type %s is not compatible with the return type %s of %s", want.Return, source.Return, target.Name)
	}
	if err := checkShape(target, want, source, "desired"); err != nil {
		return nil, err
	}

	m := emit.NewMethod(uuid.NewString(), want.Return, want.Types())
	if err := emitParameterLoads(m, source.Params); err != nil {
		b.logger.Debug("trampoline build failed", zap.String("target", target.Name), zap.Error(err))
		return nil, err
	}
	m.Emit(emit.Call(target))
	if want.Return.IsVoid() && !source.Return.IsVoid() {
		m.Emit(emit.Op(emit.OP_POP))
	}
	m.Emit(emit.Op(emit.OP_RET))

	return b.compile(m, target, want)
}

// emitParameterLoads walks params in calling order. Required parameters load the next
// caller argument; all others load their default.
func emitParameterLoads(e emit.Emitter, params []Parameter) error {
	cursor := 0
	for _, p := range params {
		if p.IsRequired() {
			e.Emit(emit.Ldarg(cursor))
			cursor++
			continue
		}
		if err := emitParameterDefault(e, p); err != nil {
			return err
		}
	}
	return nil
}

// checkShape verifies that the caller supplies exactly the required parameters of
// source, in order and by type.
func checkShape(target *metadata.Callable, want, source Signature, role string) error {
	required := source.Required()
	given := want.Types()
	if !sameTypes(given, required) {
		return newError(ErrParameterShapeMismatch,
			"the %s parameters %s do not exactly match the required parameters %s of %s",
			role, typeList(given), typeList(required), target.Name)
	}
	return nil
}

func (b *Builder) compile(m *emit.Method, target *metadata.Callable, want Signature) (emit.Invocable, error) {
	inv, err := b.backend.Compile(m)
	if err != nil {
		b.logger.Debug("trampoline rejected by backend", zap.String("name", m.Name), zap.Error(err))
		return nil, newError(ErrInvalidProgram, "backend rejected trampoline for %s: %v", target.Name, err).withCause(err)
	}

	b.logger.Debug("built trampoline",
		zap.String("name", m.Name),
		zap.String("target", target.Name),
		zap.String("signature", want.String()),
		zap.Int("instructions", m.Len()),
		zap.Int("locals", len(m.Locals)))
	return inv, nil
}

func sameTypes(a, b []*types.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

func typeList(ts []*types.Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.String()
	}
	return "(" + strings.Join(names, ", ") + ")"
}
