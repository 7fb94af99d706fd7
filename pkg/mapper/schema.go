package mapper

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/types"
)

//go:embed schemas.yaml
var builtinSchemas []byte

// SameAsOutput as an input type means "the node's resolved output type".
const SameAsOutput types.Type = "$out"

// InputSpec binds one source input to one target input.
type InputSpec struct {
	Source  string     `yaml:"source"`
	Aliases []string   `yaml:"aliases,omitempty"`
	Index   *int       `yaml:"index,omitempty"` // Positional source input; overrides Source
	Target  string     `yaml:"target"`
	Type    types.Type `yaml:"type"`
	// SkipDefault omits unconnected inputs whose value equals the target's
	// own default.
	SkipDefault bool `yaml:"skip_default,omitempty"`
}

// ConstSpec sets a fixed literal on the target node.
type ConstSpec struct {
	Target string     `yaml:"target"`
	Type   types.Type `yaml:"type"`
	Value  string     `yaml:"value"`
}

// Schema declares how one source category maps onto one target category.
type Schema struct {
	Category   source.Category `yaml:"category"`
	Target     string          `yaml:"target"`
	OutputType types.Type      `yaml:"output_type"`
	// TypeProp names a node property selecting the output type through
	// Variants, for nodes like mix whose data type is a setting.
	TypeProp  string                `yaml:"type_prop,omitempty"`
	Variants  map[string]types.Type `yaml:"variants,omitempty"`
	Inputs    []InputSpec           `yaml:"inputs"`
	Constants []ConstSpec           `yaml:"constants,omitempty"`
	// Outputs maps source output names to target output names. Unmapped
	// outputs resolve to the node's single output.
	Outputs map[string]string `yaml:"outputs,omitempty"`
}

// resolveType returns the output type for n.
func (s *Schema) resolveType(n *source.Node) types.Type {
	if s.TypeProp != "" {
		if t, ok := s.Variants[n.Props.String(s.TypeProp)]; ok {
			return t
		}
	}
	return s.OutputType
}

func (s *Schema) validate() error {
	if s.Category == "" || s.Target == "" {
		return errs.New(errs.ErrCodeInvalidInput, "schema needs category and target")
	}
	if !s.OutputType.Valid() {
		return errs.New(errs.ErrCodeInvalidInput, "schema %s: unknown output type %q", s.Category, s.OutputType)
	}
	for _, in := range s.Inputs {
		if in.Target == "" || (in.Source == "" && in.Index == nil) {
			return errs.New(errs.ErrCodeInvalidInput, "schema %s: input needs source or index and target", s.Category)
		}
		if in.Type != SameAsOutput && !in.Type.Valid() {
			return errs.New(errs.ErrCodeInvalidInput, "schema %s input %s: unknown type %q", s.Category, in.Target, in.Type)
		}
	}
	for _, c := range s.Constants {
		if _, err := types.ParseValue(c.Value, c.Type); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "schema %s constant %s", s.Category, c.Target)
		}
	}
	return nil
}

// ParseSchemas decodes a YAML list of schemas.
func ParseSchemas(r io.Reader) ([]Schema, error) {
	var out []Schema
	if err := yaml.NewDecoder(r).Decode(&out); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode schemas")
	}
	for i := range out {
		if err := out[i].validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

var (
	builtinOnce sync.Once
	builtinList []Schema
	builtinErr  error
)

// BuiltinSchemas returns the embedded schema tables.
func BuiltinSchemas() ([]Schema, error) {
	builtinOnce.Do(func() {
		builtinList, builtinErr = ParseSchemas(bytes.NewReader(builtinSchemas))
	})
	return builtinList, builtinErr
}

// LoadSchemas decodes schemas from r and registers a mapper for each,
// replacing existing mappers of the same category.
func (r *Registry) LoadSchemas(rd io.Reader) (int, error) {
	list, err := ParseSchemas(rd)
	if err != nil {
		return 0, err
	}
	for _, s := range list {
		r.Register(s.Category, NewSchemaMapper(s))
	}
	return len(list), nil
}

// LoadSchemaFile registers the schemas in the YAML file at path.
func (r *Registry) LoadSchemaFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return r.LoadSchemas(f)
}

// SchemaMapper is a [Mapper] driven by a [Schema].
type SchemaMapper struct {
	schema Schema
}

// NewSchemaMapper returns a mapper for s.
func NewSchemaMapper(s Schema) *SchemaMapper {
	return &SchemaMapper{schema: s}
}

// Schema returns the mapper's table.
func (m *SchemaMapper) Schema() Schema { return m.schema }

// CanHandle rejects nodes whose type property selects no known variant.
func (m *SchemaMapper) CanHandle(n *source.Node) bool {
	if n.Category != m.schema.Category {
		return false
	}
	if m.schema.TypeProp == "" {
		return true
	}
	v := n.Props.String(m.schema.TypeProp)
	if v == "" {
		return true
	}
	_, ok := m.schema.Variants[v]
	return ok
}

// Map emits one target node and binds every declared input.
func (m *SchemaMapper) Map(n *source.Node, ctx Context) (Emitted, error) {
	s := m.schema
	outType := s.resolveType(n)
	def, ok := ctx.Catalog().Lookup(s.Target, outType)
	if !ok {
		return Emitted{}, errs.New(errs.ErrCodeUnsupported, "no %s signature producing %s", s.Target, outType)
	}

	node := ctx.NewNode(s.Target, def.Type, nodeName(s.Target, n))
	for _, spec := range s.Inputs {
		t := spec.Type
		if t == SameAsOutput {
			t = outType
		}
		b := bindingFor(ctx, n, spec)
		if spec.SkipDefault {
			bindUnlessDefault(ctx, node, spec.Target, t, b)
			continue
		}
		ctx.Bind(node, spec.Target, t, b)
	}
	for _, c := range s.Constants {
		v, _ := types.ParseValue(c.Value, c.Type)
		ctx.BindValue(node, c.Target, v)
	}

	if len(s.Outputs) == 0 {
		return Single(node), nil
	}
	em := Emitted{Node: node, Outputs: make(map[string]Ref, len(s.Outputs))}
	for src, target := range s.Outputs {
		out, ok := def.Output(target)
		if !ok {
			return Emitted{}, errs.New(errs.ErrCodeInternal, "%s has no output %q", def.Name, target)
		}
		em.Outputs[src] = Ref{Node: node, Output: out.Name, Type: out.Type}
	}
	return em, nil
}

// bindingFor resolves the source side of spec on n, trying aliases when the
// primary name is missing.
func bindingFor(ctx Context, n *source.Node, spec InputSpec) Binding {
	if spec.Index != nil {
		return ctx.InputAt(n, *spec.Index)
	}
	b := ctx.Input(n, spec.Source)
	for _, alias := range spec.Aliases {
		if b.Present {
			break
		}
		b = ctx.Input(n, alias)
	}
	return b
}

// bindUnlessDefault binds b unless it is a literal equal to the catalog
// default of target.input.
func bindUnlessDefault(ctx Context, target *mtlx.Node, input string, t types.Type, b Binding) bool {
	if b.Present && !b.Connected {
		if def, ok := ctx.Catalog().Lookup(target.Category, target.Type); ok {
			if dv, ok := def.Default(input); ok {
				if v, err := types.Coerce(b.Value, dv.Type()); err == nil && v.Equal(dv) {
					return false
				}
			}
		}
	}
	return ctx.Bind(target, input, t, b)
}
