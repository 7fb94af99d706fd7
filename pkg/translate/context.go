package translate

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mtlxport/pkg/catalog"
	"github.com/matzehuels/mtlxport/pkg/constpool"
	"github.com/matzehuels/mtlxport/pkg/mapper"
	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/synth"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// state is the resolution state of one source node.
type state int

const (
	stateStart state = iota
	stateResolving
	stateMapped
)

// binding is a literal waiting for the constant pool to settle.
type binding struct {
	target *mtlx.Node
	input  string
	handle constpool.Handle
	live   bool
}

type bindingKey struct {
	target *mtlx.Node
	input  string
}

type conversionKey struct {
	node   *mtlx.Node
	output string
	to     types.Type
}

// translation is the state of one material translation. It implements
// [mapper.Context].
type translation struct {
	g         source.Accessor
	doc       *mtlx.Document
	graphName string
	graph     *mtlx.NodeGraph // Created on first use
	catalog   *catalog.Catalog
	registry  *mapper.Registry
	synth     *synth.Synthesizer
	recipes   *synth.RecipeMapper
	pool      *constpool.Pool
	strict    bool
	logger    *log.Logger

	states      map[source.NodeID]state
	mapped      map[source.NodeID]mapper.Emitted
	bindings    []*binding
	pending     map[bindingKey]*binding
	conversions map[conversionKey]mapper.Ref

	warnings    []string
	unsupported []Unsupported
	stats       Stats
}

func newTranslation(t *Translator, g source.Accessor, material string) *translation {
	doc := mtlx.NewDocument()
	s := synth.New(doc, t.opts.Catalog, t.opts.Logger)
	return &translation{
		g:           g,
		doc:         doc,
		graphName:   "NG_" + material,
		catalog:     t.opts.Catalog,
		registry:    t.opts.Registry,
		synth:       s,
		recipes:     s.Mapper(),
		pool:        constpool.New(),
		strict:      t.opts.Strict,
		logger:      t.opts.Logger,
		states:      make(map[source.NodeID]state),
		mapped:      make(map[source.NodeID]mapper.Emitted),
		pending:     make(map[bindingKey]*binding),
		conversions: make(map[conversionKey]mapper.Ref),
	}
}

// nodeGraph returns the material's node graph, creating it on first use.
func (x *translation) nodeGraph() *mtlx.NodeGraph {
	if x.graph == nil {
		x.graph = x.doc.AddNodeGraph(x.graphName)
	}
	return x.graph
}

// documentLevel reports whether nodes of type t live at document level.
func documentLevel(t types.Type) bool {
	return t.IsShader() || t == types.Material
}

// =============================================================================
// mapper.Context
// =============================================================================

func (x *translation) Input(n *source.Node, name string) mapper.Binding {
	_, i, ok := n.Input(name)
	if !ok {
		return mapper.Binding{Name: name}
	}
	return x.InputAt(n, i)
}

func (x *translation) InputAt(n *source.Node, i int) mapper.Binding {
	if i < 0 || i >= len(n.Inputs) {
		return mapper.Binding{}
	}
	in := n.Inputs[i]
	b := mapper.Binding{Name: in.Name}

	if in.Connected() {
		em, ok := x.mapped[in.Link.From]
		if !ok {
			// Post-order resolution maps every upstream node first.
			x.Warnf("%s: input %s reads an unmapped node", n.Name, in.Name)
			return b
		}
		ref, exact := em.Resolve(in.Link.Output)
		if !exact {
			x.Warnf("%s: output %s of %s has no equivalent, using %s", n.Name, in.Link.Output, em.Node.Name, refName(ref))
		}
		b.Present, b.Connected, b.Ref = true, true, ref
		return b
	}

	if !in.HasValue() {
		return b
	}
	v, err := in.Literal()
	if err != nil {
		x.Warnf("%s: input %s: %v", n.Name, in.Name, err)
		v = types.Default(in.Type)
	}
	b.Present, b.Value = true, v
	return b
}

func (x *translation) NewNode(category string, t types.Type, base string) *mtlx.Node {
	x.stats.TargetNodes++
	if documentLevel(t) {
		return x.doc.AddNode(category, t, base)
	}
	return x.nodeGraph().AddNode(category, t, base)
}

func (x *translation) Bind(target *mtlx.Node, input string, t types.Type, b mapper.Binding) bool {
	if !b.Present {
		return false
	}
	if !b.Connected {
		if t.IsShader() {
			return false
		}
		v, err := types.Coerce(b.Value, t)
		if err != nil {
			x.Warnf("%s.%s: %v", target.Name, input, err)
			v = types.Default(t)
		}
		x.BindValue(target, input, v)
		return true
	}

	ref := b.Ref
	if !ref.Valid() {
		return false
	}
	if ref.Type != t {
		conv, ok := x.convert(ref, t)
		if !ok {
			x.Warnf("%s.%s: cannot connect %s output of %s, left unconnected", target.Name, input, ref.Type, ref.Node.Name)
			return false
		}
		ref = conv
	}
	x.connect(target, input, t, ref)
	return true
}

func (x *translation) BindValue(target *mtlx.Node, input string, v types.Value) {
	x.release(target, input)
	target.SetInput(input, v.Type())
	b := &binding{target: target, input: input, handle: x.pool.Intern(v), live: true}
	x.bindings = append(x.bindings, b)
	x.pending[bindingKey{target, input}] = b
}

func (x *translation) Catalog() *catalog.Catalog { return x.catalog }

func (x *translation) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	x.warnings = append(x.warnings, msg)
	x.logger.Warn(msg)
}

func (x *translation) Logger() *log.Logger { return x.logger }

// =============================================================================
// Connections
// =============================================================================

// connect binds target.input to ref, routing graph nodes read from
// document level through a node graph output.
func (x *translation) connect(target *mtlx.Node, input string, t types.Type, ref mapper.Ref) {
	x.release(target, input)
	switch from, to := documentLevel(ref.Node.Type), documentLevel(target.Type); {
	case from == to:
		target.Connect(input, t, ref.Node.Name, ref.Output)
	case to:
		g := x.nodeGraph()
		out := g.OutputFor(ref.Node.Name, ref.Output)
		if out == nil {
			out = g.AddOutput(outputName(ref), ref.Type, ref.Node.Name, ref.Output)
		}
		target.ConnectGraph(input, t, g.Name, out.Name)
	default:
		x.Warnf("%s.%s: graph nodes cannot read document-level %s %s", target.Name, input, ref.Node.Type, ref.Node.Name)
	}
}

// release withdraws a pooled literal about to be replaced.
func (x *translation) release(target *mtlx.Node, input string) {
	k := bindingKey{target, input}
	if b, ok := x.pending[k]; ok {
		b.live = false
		x.pool.Release(b.handle)
		delete(x.pending, k)
	}
}

// convert returns a reference carrying ref converted to type to. Built-in
// convert nodes are preferred; other numeric pairs use a synthesized
// conversion. Integer and boolean sources go through float first.
func (x *translation) convert(ref mapper.Ref, to types.Type) (mapper.Ref, bool) {
	key := conversionKey{ref.Node, ref.Output, to}
	if r, ok := x.conversions[key]; ok {
		return r, true
	}
	from := ref.Type
	if !types.AreCompatible(from, to) {
		return mapper.Ref{}, false
	}

	var node *mtlx.Node
	if _, ok := x.catalog.Def(catalog.ConversionName(from, to)); ok {
		node = x.NewNode(mtlx.CategoryConvert, to, "convert_"+ref.Node.Name)
	} else if (from == types.Integer || from == types.Boolean) && to != types.Float {
		mid, ok := x.convert(ref, types.Float)
		if !ok {
			return mapper.Ref{}, false
		}
		return x.convert(mid, to)
	} else {
		h, err := x.synth.Conversion(from, to)
		if err != nil {
			x.logger.Debug("no conversion", "from", from, "to", to, "err", err)
			return mapper.Ref{}, false
		}
		node = x.NewNode(h.Node, to, h.Node+"_"+ref.Node.Name)
		node.NodeDef = h.Name
	}
	x.connect(node, "in", from, ref)
	x.stats.Conversions++

	r := mapper.RefTo(node)
	x.conversions[key] = r
	return r, true
}

func outputName(ref mapper.Ref) string {
	if ref.Output == "" || ref.Output == mtlx.DefaultOutput {
		return ref.Node.Name + "_out"
	}
	return ref.Node.Name + "_" + ref.Output
}

func refName(ref mapper.Ref) string {
	if !ref.Valid() {
		return "nothing"
	}
	if ref.Output == "" || ref.Output == mtlx.DefaultOutput {
		return ref.Node.Name
	}
	return ref.Node.Name + "." + ref.Output
}

// =============================================================================
// Constants
// =============================================================================

// settleConstants writes pooled literals: values bound once inline, values
// bound more than once as one shared constant node.
func (x *translation) settleConstants() {
	// Usage counts are final; later connects must not release anything.
	x.pending = make(map[bindingKey]*binding)
	shared := make(map[constpool.Handle]*mtlx.Node)
	for _, b := range x.bindings {
		if !b.live {
			continue
		}
		v, _ := x.pool.Value(b.handle)
		if !x.pool.ShouldMaterialize(b.handle) {
			b.target.SetValue(b.input, v)
			x.stats.InlineValues++
			continue
		}
		node, ok := shared[b.handle]
		if !ok {
			node = x.nodeGraph().AddNode(mtlx.CategoryConstant, v.Type(), x.pool.Name(b.handle))
			node.SetValue("value", v)
			shared[b.handle] = node
			x.stats.TargetNodes++
			x.stats.SharedConstants++
		}
		x.connect(b.target, b.input, v.Type(), mapper.RefTo(node))
	}
	x.bindings = nil
}
