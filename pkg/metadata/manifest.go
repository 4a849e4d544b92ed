package metadata

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/optshim/pkg/constant"
	"github.com/conduit-lang/optshim/pkg/types"
)

// ManifestVersion is the manifest schema version written by Encode.
const ManifestVersion = "1"

// Manifest is the YAML description of a set of named types and callables.
type Manifest struct {
	Version   string         `yaml:"version"`
	Types     []TypeSpec     `yaml:"types,omitempty"`
	Callables []CallableSpec `yaml:"callables"`
}

// TypeSpec declares a named type.
type TypeSpec struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`                 // enum, class or struct
	Underlying string `yaml:"underlying,omitempty"` // enum only
	Base       string `yaml:"base,omitempty"`       // class only
}

// CallableSpec declares a method or constructor.
type CallableSpec struct {
	Name      string      `yaml:"name"`
	Kind      string      `yaml:"kind,omitempty"` // method (default) or constructor
	Declaring string      `yaml:"declaring,omitempty"`
	Static    bool        `yaml:"static,omitempty"`
	Return    string      `yaml:"return,omitempty"`
	Params    []ParamSpec `yaml:"params,omitempty"`
}

// ParamSpec declares a parameter. Type accepts the "in T" and "out T" spellings.
type ParamSpec struct {
	Name     string       `yaml:"name"`
	Type     string       `yaml:"type"`
	Optional bool         `yaml:"optional,omitempty"`
	Default  *DefaultSpec `yaml:"default,omitempty"`
}

// DefaultSpec is the textual form of a recorded default constant.
type DefaultSpec struct {
	Kind  string `yaml:"kind"`
	Value string `yaml:"value,omitempty"`
	Type  string `yaml:"type,omitempty"` // enum type of an enum constant
}

// LoadManifest decodes a manifest.
func LoadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return &Manifest{Version: ManifestVersion}, nil
		}
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if m.Version == "" {
		m.Version = ManifestVersion
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %q", m.Version)
	}
	return &m, nil
}

// LoadManifestFile decodes the manifest at path.
func LoadManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	m, err := LoadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Encode writes m as YAML.
func (m *Manifest) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return enc.Close()
}

// Register declares every type and callable of m in r. Types are registered in order,
// so a class may only name a base declared before it.
func (m *Manifest) Register(r *Registry) error {
	for _, ts := range m.Types {
		t, err := ts.build(r)
		if err != nil {
			return err
		}
		if err := r.RegisterType(t); err != nil {
			return err
		}
	}
	for _, cs := range m.Callables {
		c, err := cs.Build(r)
		if err != nil {
			return err
		}
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistryFromManifest creates a registry holding everything m declares.
func NewRegistryFromManifest(m *Manifest) (*Registry, error) {
	r := NewRegistry()
	if err := m.Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

// ManifestFromRegistry describes the contents of r.
func ManifestFromRegistry(r *Registry) *Manifest {
	m := &Manifest{Version: ManifestVersion}
	for _, t := range r.Types() {
		m.Types = append(m.Types, typeSpecOf(t))
	}
	for _, c := range r.Callables() {
		m.Callables = append(m.Callables, CallableSpecOf(c))
	}
	return m
}

func (ts TypeSpec) build(r types.Resolver) (*types.Type, error) {
	if ts.Name == "" {
		return nil, fmt.Errorf("type declaration without a name")
	}
	switch ts.Kind {
	case "enum":
		underlying := ts.Underlying
		if underlying == "" {
			underlying = "int32"
		}
		elem, err := types.Parse(underlying, nil)
		if err != nil {
			return nil, fmt.Errorf("enum %s: %w", ts.Name, err)
		}
		return types.NewEnum(ts.Name, elem), nil
	case "class":
		var base *types.Type
		if ts.Base != "" && ts.Base != "object" {
			t, err := types.Parse(ts.Base, r)
			if err != nil {
				return nil, fmt.Errorf("class %s: %w", ts.Name, err)
			}
			if t.Kind != types.Class {
				return nil, fmt.Errorf("class %s: base %s is not a class", ts.Name, t)
			}
			base = t
		}
		return types.NewClass(ts.Name, base), nil
	case "struct":
		return types.NewStruct(ts.Name), nil
	}
	return nil, fmt.Errorf("type %s: unknown kind %q", ts.Name, ts.Kind)
}

func typeSpecOf(t *types.Type) TypeSpec {
	ts := TypeSpec{Name: t.Name, Kind: t.Kind.String()}
	switch t.Kind {
	case types.Enum:
		ts.Underlying = t.Elem.String()
	case types.Class:
		if t.Base != nil {
			ts.Base = t.Base.Name
		}
	}
	return ts
}

// Build resolves cs against r into a callable descriptor without an implementation.
func (cs CallableSpec) Build(r types.Resolver) (*Callable, error) {
	c := &Callable{Name: cs.Name, Static: cs.Static}

	switch cs.Kind {
	case "", "method":
		c.Kind = Method
	case "constructor":
		c.Kind = Constructor
	default:
		return nil, fmt.Errorf("%s: unknown callable kind %q", cs.Name, cs.Kind)
	}

	if cs.Declaring != "" {
		t, err := types.Parse(cs.Declaring, r)
		if err != nil {
			return nil, fmt.Errorf("%s: declaring type: %w", cs.Name, err)
		}
		c.Declaring = t
	}

	switch {
	case c.Kind == Constructor:
		c.Return = c.Declaring
	case cs.Return == "":
		c.Return = types.VoidType
	default:
		t, err := types.Parse(cs.Return, r)
		if err != nil {
			return nil, fmt.Errorf("%s: return type: %w", cs.Name, err)
		}
		c.Return = t
	}

	for i, ps := range cs.Params {
		p, err := ps.build(r)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %d: %w", cs.Name, i, err)
		}
		c.Params = append(c.Params, p)
	}
	return c, nil
}

// CallableSpecOf describes c in manifest form.
func CallableSpecOf(c *Callable) CallableSpec {
	cs := CallableSpec{Name: c.Name, Static: c.Static}
	if c.Kind == Constructor {
		cs.Kind = "constructor"
	} else if c.Return != nil && !c.Return.IsVoid() {
		cs.Return = c.Return.String()
	}
	if c.Declaring != nil {
		cs.Declaring = c.Declaring.String()
	}
	for _, p := range c.Params {
		cs.Params = append(cs.Params, paramSpecOf(p))
	}
	return cs
}

func (ps ParamSpec) build(r types.Resolver) (Param, error) {
	p := Param{Name: ps.Name, Optional: ps.Optional}

	expr := strings.TrimSpace(ps.Type)
	switch {
	case strings.HasPrefix(expr, "in "):
		p.In = true
	case strings.HasPrefix(expr, "out "):
		p.Out = true
	}
	t, err := types.Parse(expr, r)
	if err != nil {
		return Param{}, err
	}
	p.Type = t

	if ps.Default != nil {
		raw, err := ps.Default.Raw(r)
		if err != nil {
			return Param{}, err
		}
		p.HasDefault = true
		p.Default = raw
	}
	return p, nil
}

func paramSpecOf(p Param) ParamSpec {
	ps := ParamSpec{Name: p.Name, Type: p.Type.String(), Optional: p.Optional}
	if p.Type.Kind == types.ByRef {
		switch {
		case p.In:
			ps.Type = "in " + p.Type.Elem.String()
		case p.Out:
			ps.Type = "out " + p.Type.Elem.String()
		}
	}
	if p.HasDefault {
		ps.Default = DefaultSpecOf(p.Default)
	}
	return ps
}

// Raw decodes the constant, resolving the enum type of enum constants through r.
func (ds DefaultSpec) Raw(r types.Resolver) (constant.Raw, error) {
	var enumType *types.Type
	if ds.Type != "" {
		t, err := types.Parse(ds.Type, r)
		if err != nil {
			return constant.Raw{}, fmt.Errorf("default: %w", err)
		}
		enumType = t
	}
	kind := ds.Kind
	if kind == "" {
		kind = constant.KindNull.String()
	}
	raw, err := constant.Parse(kind, ds.Value, enumType)
	if err != nil {
		return constant.Raw{}, fmt.Errorf("default: %w", err)
	}
	return raw, nil
}

// DefaultSpecOf describes a raw constant in manifest form.
func DefaultSpecOf(raw constant.Raw) *DefaultSpec {
	ds := &DefaultSpec{Kind: raw.Kind().String(), Value: raw.Format()}
	if raw.Kind() == constant.KindEnum {
		ds.Type = raw.EnumType().Name
	}
	return ds
}
