package source

import (
	"errors"
	"fmt"

	"github.com/matzehuels/mtlxport/pkg/types"
)

var (
	// ErrDuplicateNodeName is returned by [Graph.AddNode] when a node with the
	// same name already exists. Node names are unique within a graph.
	ErrDuplicateNodeName = errors.New("duplicate node name")

	// ErrUnknownNode is returned by [Graph.Connect] when either endpoint is
	// not part of the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownSocket is returned by [Graph.Connect] when the input index is
	// out of range or the named output does not exist.
	ErrUnknownSocket = errors.New("unknown socket")

	// ErrDanglingLink is returned by [Graph.Validate] when an input links to
	// a node outside the arena.
	ErrDanglingLink = errors.New("dangling link")
)

// NodeID is a node's index in its graph's arena.
type NodeID int

// None is the NodeID of no node.
const None NodeID = -1

// Link connects an input to an upstream node's output.
type Link struct {
	From   NodeID // Upstream node
	Output string // Output socket on the upstream node
}

// Input is an input socket. When Link is set the input is connected and
// Value is ignored.
type Input struct {
	Name  string
	Type  types.Type // Declared socket type
	Value any        // Raw literal as decoded from the source file
	Link  *Link
}

// Connected reports whether the input is fed by an upstream node.
func (in Input) Connected() bool { return in.Link != nil }

// HasValue reports whether the input carries a literal.
func (in Input) HasValue() bool { return in.Link == nil && in.Value != nil }

// Literal returns the input's literal coerced to its declared type.
// A non-nil error means the literal was malformed and the result is the
// type's default.
func (in Input) Literal() (types.Value, error) {
	return types.FromRaw(in.Value, in.Type)
}

// Output is an output socket.
type Output struct {
	Name string
	Type types.Type
}

// Props holds category-specific node settings, such as a math node's
// operation or an image texture's file.
type Props map[string]any

// String returns the string property key, or "".
func (p Props) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Bool returns the boolean property key, or false.
func (p Props) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Node is a source node.
type Node struct {
	ID       NodeID
	Name     string
	Category Category
	Inputs   []Input
	Outputs  []Output
	Props    Props // Never nil after AddNode
}

// Input returns the first input named name.
func (n *Node) Input(name string) (Input, int, bool) {
	for i, in := range n.Inputs {
		if in.Name == name {
			return in, i, true
		}
	}
	return Input{}, -1, false
}

// Output returns the output named name.
func (n *Node) Output(name string) (Output, bool) {
	for _, out := range n.Outputs {
		if out.Name == name {
			return out, true
		}
	}
	return Output{}, false
}

// Produces reports the type of the node's first output, or "" when the node
// declares none.
func (n *Node) Produces() types.Type {
	if len(n.Outputs) == 0 {
		return ""
	}
	return n.Outputs[0].Type
}

// Accessor is the read-only view of a source graph used during translation.
type Accessor interface {
	Node(id NodeID) (*Node, bool)
	Len() int
}

// Graph is an arena of source nodes.
//
// The zero value is not usable; use [New]. Graph is not safe for concurrent
// mutation, but a fully built graph may be read from many goroutines.
type Graph struct {
	nodes []*Node
	index map[string]NodeID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]NodeID)}
}

// AddNode appends a node to the arena and returns its ID. Any ID set on n
// is overwritten; links already present on n's inputs are kept.
func (g *Graph) AddNode(n Node) (NodeID, error) {
	if err := validateName(n.Name); err != nil {
		return None, err
	}
	if _, exists := g.index[n.Name]; exists {
		return None, fmt.Errorf("%w: %s", ErrDuplicateNodeName, n.Name)
	}
	if n.Props == nil {
		n.Props = Props{}
	}
	n.ID = NodeID(len(g.nodes))
	node := &n
	g.nodes = append(g.nodes, node)
	g.index[n.Name] = n.ID
	return n.ID, nil
}

// Connect links input index input of node to to output of node from.
// Inputs are addressed by index because sockets may share a name.
// The output must exist when from declares outputs.
func (g *Graph) Connect(from NodeID, output string, to NodeID, input int) error {
	src, ok := g.Node(from)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, from)
	}
	dst, ok := g.Node(to)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, to)
	}
	if input < 0 || input >= len(dst.Inputs) {
		return fmt.Errorf("%w: %s input #%d", ErrUnknownSocket, dst.Name, input)
	}
	if len(src.Outputs) > 0 {
		if _, ok := src.Output(output); !ok {
			return fmt.Errorf("%w: %s output %q", ErrUnknownSocket, src.Name, output)
		}
	}
	dst.Inputs[input].Link = &Link{From: from, Output: output}
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

// NodeByName returns the node with the given name.
func (g *Graph) NodeByName(name string) (*Node, bool) {
	id, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// Nodes returns all nodes in arena order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Upstream returns the distinct nodes feeding id, in input order.
func (g *Graph) Upstream(id NodeID) []NodeID {
	n, ok := g.Node(id)
	if !ok {
		return nil
	}
	var out []NodeID
	seen := make(map[NodeID]bool)
	for _, in := range n.Inputs {
		if in.Link == nil || seen[in.Link.From] {
			continue
		}
		seen[in.Link.From] = true
		out = append(out, in.Link.From)
	}
	return out
}

// Validate checks that every link points into the arena.
// Cycles are permitted here and reported by the translator.
func (g *Graph) Validate() error {
	for _, n := range g.nodes {
		for _, in := range n.Inputs {
			if in.Link == nil {
				continue
			}
			if _, ok := g.Node(in.Link.From); !ok {
				return fmt.Errorf("%w: %s.%s -> #%d", ErrDanglingLink, n.Name, in.Name, in.Link.From)
			}
		}
	}
	return nil
}
