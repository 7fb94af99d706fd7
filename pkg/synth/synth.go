package synth

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mtlxport/pkg/catalog"
	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// Port is one input of a synthesized definition.
type Port struct {
	Name string
	Type types.Type
	// Source names the source input bound to this port on instances. Empty
	// ports are set from node properties or keep the definition default.
	Source string
	// GeomProp marks ports defaulting to a geometric property. They are
	// bound only when the source input is connected.
	GeomProp string
}

// Handle describes a registered definition.
type Handle struct {
	Name   string // NodeDef name
	Node   string // Category of instances
	Type   types.Type
	Inputs []Port
	// Outputs maps source output names to definition outputs.
	Outputs map[string]string
}

type key struct {
	node string
	typ  types.Type
}

// Synthesizer registers definitions in one document. It is not safe for
// concurrent use; each translation owns its own.
type Synthesizer struct {
	doc     *mtlx.Document
	catalog *catalog.Catalog
	logger  *log.Logger

	registry map[key]*Handle
	// partial holds definitions found without an implementation graph.
	partial  map[string]bool
	warnings []string
	created  int
}

// New returns a synthesizer for doc. Existing definitions with an
// implementation are adopted; signatures without one are recorded as
// conflicts and left untouched.
func New(doc *mtlx.Document, cat *catalog.Catalog, logger *log.Logger) *Synthesizer {
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Synthesizer{
		doc:      doc,
		catalog:  cat,
		logger:   logger,
		registry: make(map[key]*Handle),
		partial:  make(map[string]bool),
	}
	for _, nd := range doc.NodeDefs {
		if doc.Implementation(nd.Name) == nil {
			s.partial[nd.Name] = true
			s.warnf("definition %s has no implementation", nd.Name)
			continue
		}
		s.registry[key{nd.Node, nd.Type}] = handleFor(nd, recipeFor(nd.Node, nd.Type))
	}
	return s
}

// Created returns the number of definitions this synthesizer added.
func (s *Synthesizer) Created() int { return s.created }

// Warnings returns the conflicts and approximations noticed so far.
func (s *Synthesizer) Warnings() []string { return s.warnings }

// Has reports whether category c has a recipe.
func Has(c source.Category) bool {
	_, ok := recipes[c]
	return ok
}

// Categories returns the categories with a recipe.
func Categories() []source.Category {
	out := make([]source.Category, 0, len(recipeOrder))
	out = append(out, recipeOrder...)
	return out
}

// Synthesize returns the definition for category c producing t, creating
// it on first use. An empty t selects the recipe's output type.
//
// When the document already holds the signature but not its implementation,
// Synthesize returns a handle for that signature together with a
// DEFINITION_CONFLICT error; callers may use the handle after surfacing the
// warning.
func (s *Synthesizer) Synthesize(c source.Category, t types.Type) (*Handle, error) {
	r, ok := recipes[c]
	if !ok {
		return nil, errs.New(errs.ErrCodeUnsupportedCategory, "no definition recipe for %s", c)
	}
	if t == "" {
		t = r.outType
	}
	if t != r.outType {
		return nil, errs.New(errs.ErrCodeUnsupported, "%s recipe produces %s, not %s", c, r.outType, t)
	}
	return s.ensure(key{r.node, t}, definitionName(r.node, t), r, func() (*mtlx.NodeDef, func(*mtlx.NodeGraph), error) {
		return r.build(t)
	})
}

// Conversion returns the definition converting from to to, creating it on
// first use. Only numeric types of different arity need one; same-arity
// pairs are covered by built-in convert nodes.
func (s *Synthesizer) Conversion(from, to types.Type) (*Handle, error) {
	if !convertible(from) || !convertible(to) || from == to {
		return nil, errs.New(errs.ErrCodeCoercionFailed, "no conversion from %s to %s", from, to)
	}
	category := ConversionCategory(from, to)
	return s.ensure(key{category, to}, "ND_"+category, nil, func() (*mtlx.NodeDef, func(*mtlx.NodeGraph), error) {
		return s.buildConversion(category, from, to)
	})
}

// ConversionCategory is the node category of a synthesized conversion.
func ConversionCategory(from, to types.Type) string {
	return fmt.Sprintf("convert_%s_to_%s", from, to)
}

func convertible(t types.Type) bool {
	return t == types.Float || (t.IsNumeric() && t.Arity() > 1)
}

// builder returns a definition and the function filling its implementation.
type builder func() (*mtlx.NodeDef, func(*mtlx.NodeGraph), error)

func (s *Synthesizer) ensure(k key, name string, r *recipe, build builder) (*Handle, error) {
	if h, ok := s.registry[k]; ok {
		return h, nil
	}
	if nd := s.doc.NodeDef(name); nd != nil {
		h := handleFor(nd, r)
		if s.partial[name] || s.doc.Implementation(name) == nil {
			s.warnf("definition %s has no implementation, reusing its signature", name)
			return h, errs.New(errs.ErrCodeDefinitionConflict, "definition %s exists without an implementation", name)
		}
		s.registry[k] = h
		return h, nil
	}

	nd, fill, err := build()
	if err != nil {
		return nil, err
	}
	nd.Name = name
	if err := s.doc.AddNodeDef(nd); err != nil {
		return nil, errs.Wrap(errs.ErrCodeDefinitionConflict, err, "register %s", name)
	}
	impl := s.doc.AddNodeGraph(implementationName(name))
	impl.NodeDef = name
	fill(impl)
	s.created++
	s.logger.Debug("synthesized definition", "nodedef", nd.Name, "implementation", impl.Name)

	h := handleFor(nd, r)
	s.registry[k] = h
	return h, nil
}

func (s *Synthesizer) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.warnings = append(s.warnings, msg)
	s.logger.Warn(msg)
}

// definitionName is the NodeDef name for recipe category node producing t.
func definitionName(node string, t types.Type) string {
	return "ND_" + node + "_" + string(t)
}

// implementationName is the node graph name paired with a definition.
func implementationName(nodedef string) string {
	return "IM_" + nodedef[len("ND_"):]
}

// handleFor describes nd, taking source bindings from r when known.
func handleFor(nd *mtlx.NodeDef, r *recipe) *Handle {
	h := &Handle{Name: nd.Name, Node: nd.Node, Type: nd.Type}
	for _, in := range nd.Inputs {
		p := Port{Name: in.Name, Type: in.Type}
		if r != nil {
			if rp, ok := r.port(in.Name); ok {
				p.Source = rp.Source
				p.GeomProp = rp.GeomProp
			}
		}
		h.Inputs = append(h.Inputs, p)
	}
	if r != nil && len(r.outputs) > 0 {
		h.Outputs = make(map[string]string, len(r.outputs))
		for _, o := range r.outputs {
			h.Outputs[o] = mtlx.DefaultOutput
		}
	}
	return h
}

// signature builds a single-output definition. The caller assigns the name.
func signature(node string, t types.Type, group, doc string, ports []port) *mtlx.NodeDef {
	nd := &mtlx.NodeDef{
		Node:      node,
		Type:      t,
		NodeGroup: group,
		Doc:       doc,
		Outputs:   []*mtlx.Output{{Name: mtlx.DefaultOutput, Type: t}},
	}
	for _, p := range ports {
		in := &mtlx.Input{Name: p.Name, Type: p.Type}
		if p.GeomProp != "" {
			in.DefaultGeomProp = p.GeomProp
		} else {
			in.SetValue(p.value())
		}
		nd.Inputs = append(nd.Inputs, in)
	}
	return nd
}
