// Package shim builds trampolines: generated callables that invoke a target through a
// reduced signature, supplying the elided parameters from their recorded defaults.
//
// A build resolves every default at build time. Defaults are coerced exactly into the
// declared parameter type and emitted as literal loads, so a trampoline that builds
// successfully can never fail at call time because of an encoding problem.
package shim

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/optshim/pkg/constant"
	"github.com/conduit-lang/optshim/pkg/metadata"
	"github.com/conduit-lang/optshim/pkg/types"
)

// ParamState says how a parameter is supplied. Exactly one state holds per parameter.
type ParamState uint8

const (
	Required ParamState = iota
	OptionalWithoutDefault
	Defaulted
)

func (s ParamState) String() string {
	switch s {
	case Required:
		return "required"
	case OptionalWithoutDefault:
		return "optional"
	case Defaulted:
		return "defaulted"
	}
	return "unknown"
}

// ReceiverIndex is the Index of an implicit receiver parameter.
const ReceiverIndex = -1

// Parameter is one position of a Signature.
type Parameter struct {
	Index   int // declared position, or ReceiverIndex
	Name    string
	Type    *types.Type
	State   ParamState
	Default constant.Raw // meaningful when State is Defaulted
	In      bool
	Out     bool
}

// IsRequired reports whether a caller must supply the parameter.
func (p Parameter) IsRequired() bool {
	return p.State == Required
}

func (p Parameter) ref() *ParamRef {
	return &ParamRef{Index: p.Index, Name: p.Name, Type: p.Type, Default: p.Default}
}

func (p Parameter) param() metadata.Param {
	return metadata.Param{
		Name:       p.Name,
		Type:       p.Type,
		Optional:   p.State == OptionalWithoutDefault,
		HasDefault: p.State == Defaulted,
		Default:    p.Default,
		In:         p.In,
		Out:        p.Out,
	}
}

// Signature is the calling-order parameter list of a callable, receiver first, and its
// return type.
type Signature struct {
	Params []Parameter
	Return *types.Type
}

// Required returns the types of the required parameters in order.
func (s Signature) Required() []*types.Type {
	var req []*types.Type
	for _, p := range s.Params {
		if p.IsRequired() {
			req = append(req, p.Type)
		}
	}
	return req
}

// Types returns all parameter types in order.
func (s Signature) Types() []*types.Type {
	ts := make([]*types.Type, len(s.Params))
	for i, p := range s.Params {
		ts[i] = p.Type
	}
	return ts
}

func (s Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.Type.String()
		if !p.IsRequired() {
			parts[i] = "[" + parts[i] + "]"
		}
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), s.Return)
}

// Describe returns the signature of c. An instance method or constructor gets its
// receiver as an implicit leading required parameter: by reference for value types, the
// declaring type itself otherwise. A constructor's return type is the constructed type.
func Describe(c *metadata.Callable) (Signature, error) {
	if c == nil {
		return Signature{}, newError(ErrNullInput, "callable descriptor is nil")
	}
	ret := c.ResultType()
	if c.IsConstructor() {
		ret = c.Declaring
	}
	return describe(c, ret), nil
}

// describe builds the signature of c with the given return type. Initializer
// trampolines describe constructors as returning void.
func describe(c *metadata.Callable, ret *types.Type) Signature {
	sig := Signature{Return: ret}
	if c.HasReceiver() {
		sig.Params = append(sig.Params, Parameter{
			Index: ReceiverIndex,
			Name:  "this",
			Type:  c.ReceiverType(),
			State: Required,
		})
	}
	sig.Params = append(sig.Params, describeParams(c.Params)...)
	return sig
}

func describeParams(params []metadata.Param) []Parameter {
	out := make([]Parameter, len(params))
	for i, p := range params {
		out[i] = Parameter{Index: i, Name: p.Name, Type: p.Type, In: p.In, Out: p.Out}
		switch {
		case p.HasDefault:
			out[i].State = Defaulted
			out[i].Default = p.Default
		case p.Optional:
			out[i].State = OptionalWithoutDefault
		default:
			out[i].State = Required
		}
	}
	return out
}

// DescribeDelegate returns the signature a caller asks for. All of its parameters are
// required.
func DescribeDelegate(s *metadata.Signature) (Signature, error) {
	if s == nil {
		return Signature{}, newError(ErrNullInput, "desired signature is nil")
	}
	sig := Signature{Return: s.Return, Params: make([]Parameter, len(s.Params))}
	if sig.Return == nil {
		sig.Return = types.VoidType
	}
	for i, t := range s.Params {
		sig.Params[i] = Parameter{Index: i, Type: t, State: Required}
	}
	return sig, nil
}
