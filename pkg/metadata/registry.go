package metadata

import (
	"fmt"
	"sort"
	"sync"

	"github.com/conduit-lang/optshim/pkg/runtime"
	"github.com/conduit-lang/optshim/pkg/types"
)

// Registry indexes named types and callables by name.
// It is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	types     map[string]*types.Type
	callables map[string]*Callable

	// Registration order, kept so listings and exports are stable.
	typeOrder     []string
	callableOrder []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:     make(map[string]*types.Type),
		callables: make(map[string]*Callable),
	}
}

// RegisterType adds a named enum, class or struct type.
func (r *Registry) RegisterType(t *types.Type) error {
	if t == nil {
		return fmt.Errorf("cannot register nil type")
	}
	switch t.Kind {
	case types.Enum:
		if t.Elem == nil || !t.Elem.Kind.IsInteger() {
			return fmt.Errorf("enum %s must have an integer underlying type", t.Name)
		}
	case types.Class, types.Struct:
	default:
		return fmt.Errorf("only enum, class and struct types can be registered, got %s", t.Kind)
	}
	if t.Name == "" {
		return fmt.Errorf("cannot register unnamed %s type", t.Kind)
	}
	if _, ok := types.Builtin(t.Name); ok {
		return fmt.Errorf("type name %q is reserved", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[t.Name]; exists {
		return fmt.Errorf("type %s already registered", t.Name)
	}
	r.types[t.Name] = t
	r.typeOrder = append(r.typeOrder, t.Name)
	return nil
}

// LookupType finds a registered type by name. Registry implements types.Resolver.
func (r *Registry) LookupType(name string) (*types.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []*types.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*types.Type, len(r.typeOrder))
	for i, name := range r.typeOrder {
		result[i] = r.types[name]
	}
	return result
}

// Register validates and adds a callable.
func (r *Registry) Register(c *Callable) error {
	if err := validateCallable(c); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.callables[c.Name]; exists {
		return fmt.Errorf("callable %s already registered", c.Name)
	}
	r.callables[c.Name] = c
	r.callableOrder = append(r.callableOrder, c.Name)
	return nil
}

// Lookup finds a callable by name.
func (r *Registry) Lookup(name string) (*Callable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.callables[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("callable not found: %s", name)
}

// Bind attaches a Go implementation to a registered callable. Callables loaded from a
// manifest carry metadata only until they are bound.
func (r *Registry) Bind(name string, impl runtime.NativeFunc) error {
	if impl == nil {
		return fmt.Errorf("cannot bind nil implementation to %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.callables[name]
	if !ok {
		return fmt.Errorf("callable not found: %s", name)
	}
	// Replace rather than mutate: callers may hold the previous descriptor.
	bound := *c
	bound.Impl = impl
	r.callables[name] = &bound
	return nil
}

// Callables returns the registered callables in registration order.
func (r *Registry) Callables() []*Callable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Callable, len(r.callableOrder))
	for i, name := range r.callableOrder {
		result[i] = r.callables[name]
	}
	return result
}

// Names returns the sorted names of all registered callables.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.callableOrder))
	copy(names, r.callableOrder)
	sort.Strings(names)
	return names
}

// Reset clears the registry (used for testing).
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = make(map[string]*types.Type)
	r.callables = make(map[string]*Callable)
	r.typeOrder = nil
	r.callableOrder = nil
}

func validateCallable(c *Callable) error {
	if c == nil {
		return fmt.Errorf("cannot register nil callable")
	}
	if c.Name == "" {
		return fmt.Errorf("callable must have a name")
	}
	if c.HasReceiver() && c.Declaring == nil {
		return fmt.Errorf("%s: %s needs a declaring type", c.Name, c.Kind)
	}
	if c.Kind == Constructor && c.Static {
		return fmt.Errorf("%s: constructors cannot be static", c.Name)
	}
	for i, p := range c.Params {
		if p.Type == nil {
			return fmt.Errorf("%s: parameter %d has no type", c.Name, i)
		}
		if p.Type.IsVoid() {
			return fmt.Errorf("%s: parameter %d cannot be void", c.Name, i)
		}
		if (p.In || p.Out) && p.Type.Kind != types.ByRef {
			return fmt.Errorf("%s: in/out parameter %d must be by-reference", c.Name, i)
		}
	}
	return nil
}
