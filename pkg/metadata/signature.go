package metadata

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/optshim/pkg/types"
)

// ParseSignature parses a caller signature such as "(int32, ref Point) -> bool".
// A missing return clause means void.
func ParseSignature(expr string, r types.Resolver) (*Signature, error) {
	s := strings.TrimSpace(expr)
	if !strings.HasPrefix(s, "(") {
		return nil, fmt.Errorf("signature %q must start with '('", expr)
	}
	closing := strings.Index(s, ")")
	if closing < 0 {
		return nil, fmt.Errorf("signature %q has no closing ')'", expr)
	}

	sig := &Signature{Params: []*types.Type{}, Return: types.VoidType}

	if list := strings.TrimSpace(s[1:closing]); list != "" {
		for i, part := range strings.Split(list, ",") {
			t, err := types.Parse(part, r)
			if err != nil {
				return nil, fmt.Errorf("signature %q: parameter %d: %w", expr, i, err)
			}
			if t.IsVoid() {
				return nil, fmt.Errorf("signature %q: parameter %d cannot be void", expr, i)
			}
			sig.Params = append(sig.Params, t)
		}
	}

	rest := strings.TrimSpace(s[closing+1:])
	if rest == "" {
		return sig, nil
	}
	if !strings.HasPrefix(rest, "->") {
		return nil, fmt.Errorf("signature %q: expected '->' after parameter list", expr)
	}
	ret, err := types.Parse(rest[2:], r)
	if err != nil {
		return nil, fmt.Errorf("signature %q: return type: %w", expr, err)
	}
	sig.Return = ret
	return sig, nil
}

// RequiredSignature returns the signature that supplies exactly c's required parameters,
// with the receiver first for instance methods, and c's natural result type.
func RequiredSignature(c *Callable) *Signature {
	sig := &Signature{Params: []*types.Type{}, Return: c.ResultType()}
	if c.HasReceiver() && c.Kind != Constructor {
		sig.Params = append(sig.Params, c.ReceiverType())
	}
	for _, p := range c.Params {
		if !p.IsDefaulted() {
			sig.Params = append(sig.Params, p.Type)
		}
	}
	if c.Kind == Constructor {
		sig.Return = c.Declaring
	}
	return sig
}
