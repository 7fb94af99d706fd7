package mtlx

import (
	"fmt"

	"github.com/matzehuels/mtlxport/pkg/types"
)

// DefaultVersion is the document version written by [NewDocument].
const DefaultVersion = "1.38"

// Category names with special meaning in documents.
const (
	CategoryMaterial = "surfacematerial"
	CategoryConstant = "constant"
	CategoryConvert  = "convert"

	// MaterialShaderInput is the input of a material bound to its shader.
	MaterialShaderInput = "surfaceshader"
	// DefaultOutput is the implicit output of single-output nodes.
	DefaultOutput = "out"
)

// Input is a node or definition input.
type Input struct {
	Name          string     `json:"name"`
	Type          types.Type `json:"type"`
	Value         string     `json:"value,omitempty"`
	ColorSpace    string     `json:"colorspace,omitempty"`
	NodeName      string     `json:"nodename,omitempty"`
	NodeGraph     string     `json:"nodegraph,omitempty"`
	Output        string     `json:"output,omitempty"`
	InterfaceName string     `json:"interfacename,omitempty"`
	// DefaultGeomProp names the geometric property read by unconnected
	// definition inputs, such as UV0.
	DefaultGeomProp string `json:"defaultgeomprop,omitempty"`
}

// IsConnected reports whether the input references another element.
func (in *Input) IsConnected() bool {
	return in.NodeName != "" || in.NodeGraph != "" || in.InterfaceName != ""
}

// SetValue stores a literal and clears any reference.
func (in *Input) SetValue(v types.Value) {
	in.Value = v.String()
	in.NodeName, in.NodeGraph, in.Output, in.InterfaceName = "", "", "", ""
}

// Node is a node instance.
type Node struct {
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Type     types.Type `json:"type"`
	NodeDef  string     `json:"nodedef,omitempty"`
	Doc      string     `json:"doc,omitempty"`
	Inputs   []*Input   `json:"inputs,omitempty"`
}

// Input returns the input named name, or nil.
func (n *Node) Input(name string) *Input {
	for _, in := range n.Inputs {
		if in != nil && in.Name == name {
			return in
		}
	}
	return nil
}

// SetInput returns the input named name, creating it with type t if absent.
// The type of an existing input is updated to t.
func (n *Node) SetInput(name string, t types.Type) *Input {
	if in := n.Input(name); in != nil {
		in.Type = t
		return in
	}
	in := &Input{Name: name, Type: t}
	n.Inputs = append(n.Inputs, in)
	return in
}

// SetValue sets input name to literal v, typed as v's type.
func (n *Node) SetValue(name string, v types.Value) *Input {
	in := n.SetInput(name, v.Type())
	in.SetValue(v)
	return in
}

// Connect binds input name to output of the node named node in the same scope.
// An empty output or [DefaultOutput] refers to the node's only output.
func (n *Node) Connect(name string, t types.Type, node, output string) *Input {
	in := n.SetInput(name, t)
	in.Value, in.NodeGraph, in.InterfaceName = "", "", ""
	in.NodeName = node
	in.Output = ""
	if output != DefaultOutput {
		in.Output = output
	}
	return in
}

// ConnectGraph binds input name to output of the node graph named graph.
func (n *Node) ConnectGraph(name string, t types.Type, graph, output string) *Input {
	in := n.SetInput(name, t)
	in.Value, in.NodeName, in.InterfaceName = "", "", ""
	in.NodeGraph = graph
	in.Output = output
	return in
}

// ConnectInterface binds input name to the enclosing definition's input.
func (n *Node) ConnectInterface(name string, t types.Type, iface string) *Input {
	in := n.SetInput(name, t)
	in.Value, in.NodeName, in.NodeGraph, in.Output = "", "", "", ""
	in.InterfaceName = iface
	return in
}

// Output is a named output of a node graph or definition.
type Output struct {
	Name     string     `json:"name"`
	Type     types.Type `json:"type"`
	NodeName string     `json:"nodename,omitempty"`
	Output   string     `json:"output,omitempty"`
}

// NodeGraph is a network of nodes with named outputs.
type NodeGraph struct {
	Name    string    `json:"name"`
	NodeDef string    `json:"nodedef,omitempty"`
	Doc     string    `json:"doc,omitempty"`
	Nodes   []*Node   `json:"nodes,omitempty"`
	Outputs []*Output `json:"outputs,omitempty"`
}

// Node returns the node named name, or nil.
func (g *NodeGraph) Node(name string) *Node {
	for _, n := range g.Nodes {
		if n != nil && n.Name == name {
			return n
		}
	}
	return nil
}

// Output returns the output named name, or nil.
func (g *NodeGraph) Output(name string) *Output {
	for _, o := range g.Outputs {
		if o != nil && o.Name == name {
			return o
		}
	}
	return nil
}

// UniqueName returns base, or base with the lowest free numeric suffix.
func (g *NodeGraph) UniqueName(base string) string {
	return uniqueName(Sanitize(base), func(s string) bool {
		return g.Node(s) != nil || g.Output(s) != nil
	})
}

// AddNode appends a node named after base, made unique within the graph.
func (g *NodeGraph) AddNode(category string, t types.Type, base string) *Node {
	n := &Node{Name: g.UniqueName(base), Category: category, Type: t}
	g.Nodes = append(g.Nodes, n)
	return n
}

// AddOutput appends an output named after base bound to node.output.
func (g *NodeGraph) AddOutput(base string, t types.Type, node, output string) *Output {
	o := &Output{Name: g.UniqueName(base), Type: t, NodeName: node}
	if output != DefaultOutput {
		o.Output = output
	}
	g.Outputs = append(g.Outputs, o)
	return o
}

// OutputFor returns an existing output bound to node.output, or nil.
func (g *NodeGraph) OutputFor(node, output string) *Output {
	if output == DefaultOutput {
		output = ""
	}
	for _, o := range g.Outputs {
		if o != nil && o.NodeName == node && o.Output == output {
			return o
		}
	}
	return nil
}

// NodeDef is a node signature.
type NodeDef struct {
	Name      string     `json:"name"`
	Node      string     `json:"node"`
	Type      types.Type `json:"type"`
	NodeGroup string     `json:"nodegroup,omitempty"`
	Doc       string     `json:"doc,omitempty"`
	Inputs    []*Input   `json:"inputs,omitempty"`
	Outputs   []*Output  `json:"outputs,omitempty"`
}

// Input returns the definition input named name, or nil.
func (d *NodeDef) Input(name string) *Input {
	for _, in := range d.Inputs {
		if in != nil && in.Name == name {
			return in
		}
	}
	return nil
}

// Document is a material document.
//
// The zero value is not usable; use [NewDocument]. A Document is not safe
// for concurrent mutation.
type Document struct {
	Version    string       `json:"version"`
	NodeDefs   []*NodeDef   `json:"nodedefs,omitempty"`
	NodeGraphs []*NodeGraph `json:"nodegraphs,omitempty"`
	Nodes      []*Node      `json:"nodes,omitempty"`
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{Version: DefaultVersion}
}

// UniqueName returns a top-level name derived from base that no definition,
// graph or document-level node uses.
func (d *Document) UniqueName(base string) string {
	return uniqueName(Sanitize(base), d.hasName)
}

func (d *Document) hasName(name string) bool {
	return d.Node(name) != nil || d.NodeGraph(name) != nil || d.NodeDef(name) != nil
}

// AddNodeGraph appends an empty node graph named after base.
func (d *Document) AddNodeGraph(base string) *NodeGraph {
	g := &NodeGraph{Name: d.UniqueName(base)}
	d.NodeGraphs = append(d.NodeGraphs, g)
	return g
}

// NodeGraph returns the graph named name, or nil.
func (d *Document) NodeGraph(name string) *NodeGraph {
	for _, g := range d.NodeGraphs {
		if g != nil && g.Name == name {
			return g
		}
	}
	return nil
}

// AddNode appends a document-level node named after base.
func (d *Document) AddNode(category string, t types.Type, base string) *Node {
	n := &Node{Name: d.UniqueName(base), Category: category, Type: t}
	d.Nodes = append(d.Nodes, n)
	return n
}

// Node returns the document-level node named name, or nil.
func (d *Document) Node(name string) *Node {
	for _, n := range d.Nodes {
		if n != nil && n.Name == name {
			return n
		}
	}
	return nil
}

// AddMaterial appends a material node bound to shader.
func (d *Document) AddMaterial(base string, shader *Node) *Node {
	m := d.AddNode(CategoryMaterial, types.Material, base)
	m.Connect(MaterialShaderInput, types.SurfaceShader, shader.Name, DefaultOutput)
	return m
}

// Materials returns the document's material nodes.
func (d *Document) Materials() []*Node {
	var out []*Node
	for _, n := range d.Nodes {
		if n != nil && n.Type == types.Material {
			out = append(out, n)
		}
	}
	return out
}

// AddNodeDef appends a definition. Definition names must be unused.
func (d *Document) AddNodeDef(nd *NodeDef) error {
	if d.hasName(nd.Name) {
		return fmt.Errorf("name %q already in use", nd.Name)
	}
	d.NodeDefs = append(d.NodeDefs, nd)
	return nil
}

// NodeDef returns the definition named name, or nil.
func (d *Document) NodeDef(name string) *NodeDef {
	for _, nd := range d.NodeDefs {
		if nd != nil && nd.Name == name {
			return nd
		}
	}
	return nil
}

// Implementation returns the node graph implementing the named definition.
func (d *Document) Implementation(nodedef string) *NodeGraph {
	for _, g := range d.NodeGraphs {
		if g != nil && g.NodeDef == nodedef {
			return g
		}
	}
	return nil
}

// NodeDefFor returns the definition for a node category and output type.
func (d *Document) NodeDefFor(category string, t types.Type) *NodeDef {
	for _, nd := range d.NodeDefs {
		if nd != nil && nd.Node == category && nd.Type == t {
			return nd
		}
	}
	return nil
}

// NodeCount returns the number of nodes across all scopes.
func (d *Document) NodeCount() int {
	n := len(d.Nodes)
	for _, g := range d.NodeGraphs {
		if g != nil {
			n += len(g.Nodes)
		}
	}
	return n
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{Version: d.Version}
	for _, nd := range d.NodeDefs {
		if nd == nil {
			out.NodeDefs = append(out.NodeDefs, nil)
			continue
		}
		c := *nd
		c.Inputs = cloneInputs(nd.Inputs)
		c.Outputs = cloneOutputs(nd.Outputs)
		out.NodeDefs = append(out.NodeDefs, &c)
	}
	for _, g := range d.NodeGraphs {
		if g == nil {
			out.NodeGraphs = append(out.NodeGraphs, nil)
			continue
		}
		c := *g
		c.Nodes = cloneNodes(g.Nodes)
		c.Outputs = cloneOutputs(g.Outputs)
		out.NodeGraphs = append(out.NodeGraphs, &c)
	}
	out.Nodes = cloneNodes(d.Nodes)
	return out
}

func cloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		if n == nil {
			continue
		}
		c := *n
		c.Inputs = cloneInputs(n.Inputs)
		out[i] = &c
	}
	return out
}

func cloneInputs(inputs []*Input) []*Input {
	if inputs == nil {
		return nil
	}
	out := make([]*Input, len(inputs))
	for i, in := range inputs {
		if in == nil {
			continue
		}
		c := *in
		out[i] = &c
	}
	return out
}

func cloneOutputs(outputs []*Output) []*Output {
	if outputs == nil {
		return nil
	}
	out := make([]*Output, len(outputs))
	for i, o := range outputs {
		if o == nil {
			continue
		}
		c := *o
		out[i] = &c
	}
	return out
}
