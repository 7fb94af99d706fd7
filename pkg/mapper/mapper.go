package mapper

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mtlxport/pkg/catalog"
	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// Ref points at one output of a translated target node.
type Ref struct {
	Node   *mtlx.Node
	Output string // Empty or mtlx.DefaultOutput for single-output nodes
	Type   types.Type
}

// Valid reports whether the reference points at a node.
func (r Ref) Valid() bool { return r.Node != nil }

// RefTo returns the reference to a single-output node.
func RefTo(n *mtlx.Node) Ref {
	return Ref{Node: n, Output: mtlx.DefaultOutput, Type: n.Type}
}

// Binding is the resolved state of one source input.
type Binding struct {
	Name      string // Source input name
	Present   bool   // The input exists and is connected or carries a value
	Connected bool
	Ref       Ref         // Upstream output when Connected
	Value     types.Value // Literal, coerced to the socket type, when not Connected
}

// Literal returns a binding for a literal value.
func Literal(v types.Value) Binding {
	return Binding{Present: true, Value: v}
}

// Connection returns a binding for a connected reference.
func Connection(r Ref) Binding {
	return Binding{Present: true, Connected: true, Ref: r}
}

// Emitted describes the target side of a mapped source node.
type Emitted struct {
	Node *mtlx.Node
	// Outputs maps source output names to target references. When empty,
	// every source output refers to Node's single output.
	Outputs map[string]Ref
}

// Single returns an Emitted whose outputs all resolve to n.
func Single(n *mtlx.Node) Emitted {
	return Emitted{Node: n}
}

// Resolve returns the reference for source output name. The second result
// is false when the output had no explicit mapping and the node's first
// mapped output was used instead.
func (e Emitted) Resolve(name string) (Ref, bool) {
	if len(e.Outputs) == 0 {
		return RefTo(e.Node), true
	}
	if r, ok := e.Outputs[name]; ok {
		return r, true
	}
	keys := make([]string, 0, len(e.Outputs))
	for k := range e.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return e.Outputs[keys[0]], false
}

// Context is the translator-side state a mapper works against.
type Context interface {
	// Input returns the binding of n's first input named name.
	Input(n *source.Node, name string) Binding
	// InputAt returns the binding of n's input at index i.
	InputAt(n *source.Node, i int) Binding

	// NewNode creates a target node named after base. Shader-typed nodes
	// are placed at document level; everything else in the material's node
	// graph.
	NewNode(category string, t types.Type, base string) *mtlx.Node

	// Bind sets target.input from b, converting connections whose type
	// differs from t and interning literals in the constant pool. It
	// reports whether anything was bound.
	Bind(target *mtlx.Node, input string, t types.Type, b Binding) bool
	// BindValue interns literal v for target.input.
	BindValue(target *mtlx.Node, input string, v types.Value)

	Catalog() *catalog.Catalog
	Warnf(format string, args ...any)
	Logger() *log.Logger
}

// Mapper translates nodes of one source category.
type Mapper interface {
	// CanHandle reports whether the mapper supports this particular node,
	// for example its operation or data type.
	CanHandle(n *source.Node) bool
	// Map emits the target nodes for n.
	Map(n *source.Node, ctx Context) (Emitted, error)
}

// Registry resolves source categories to mappers. Registration happens
// before translation starts; lookups are then safe for concurrent use.
type Registry struct {
	mappers map[source.Category]Mapper
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{mappers: make(map[source.Category]Mapper)}
}

// Register installs m for category c, replacing any previous mapper.
func (r *Registry) Register(c source.Category, m Mapper) {
	r.mappers[c] = m
}

// Lookup returns the mapper for category c.
func (r *Registry) Lookup(c source.Category) (Mapper, bool) {
	m, ok := r.mappers[c]
	return m, ok
}

// Categories returns the registered categories, sorted.
func (r *Registry) Categories() []source.Category {
	out := make([]source.Category, 0, len(r.mappers))
	for c := range r.mappers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// nodeName is the base name of the target node emitted for n.
func nodeName(target string, n *source.Node) string {
	return target + "_" + n.Name
}
