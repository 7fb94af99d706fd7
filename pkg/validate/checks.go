package validate

import (
	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// =============================================================================
// Structure
// =============================================================================

func (v *validator) checkStructure() {
	for _, n := range v.doc.Nodes {
		if n == nil {
			continue
		}
		v.stats.Nodes++
		switch {
		case n.Type == types.Material:
			v.stats.Materials++
		case n.Type.IsShader():
			v.stats.Shaders++
		}
	}
	graphs := v.graphs()
	for _, g := range graphs {
		for _, n := range g.Nodes {
			if n != nil {
				v.stats.Nodes++
			}
		}
	}
	v.stats.NodeGraphs = len(graphs)
	v.stats.NodeDefs = len(v.doc.NodeDefs)

	if v.stats.Materials == 0 {
		v.raise(v.opts.MissingMaterial, "document has no material")
	}
	if v.stats.Shaders == 0 {
		v.raise(v.opts.MissingShader, "document has no shader node")
	}
	if v.stats.NodeGraphs == 0 {
		v.raise(v.opts.MissingGraph, "document has no node graph")
	}
}

// =============================================================================
// Connections
// =============================================================================

func (v *validator) checkConnections() {
	for _, n := range v.doc.Nodes {
		v.checkNode(nil, n)
	}
	for _, g := range v.doc.NodeGraphs {
		if g == nil {
			continue
		}
		for _, n := range g.Nodes {
			v.checkNode(g, n)
		}
		for _, o := range g.Outputs {
			v.checkOutput(g, o)
		}
	}
}

func (v *validator) checkNode(g *mtlx.NodeGraph, n *mtlx.Node) {
	if n == nil {
		return
	}
	if v.definition(n) == nil {
		v.warnf("%s has unknown category %s (%s)", describe(g, n), n.Category, n.Type)
	}
	for _, in := range n.Inputs {
		if in != nil && in.IsConnected() {
			v.stats.Connections++
			v.checkInput(g, n, in)
		}
	}
}

func (v *validator) checkInput(g *mtlx.NodeGraph, n *mtlx.Node, in *mtlx.Input) {
	where := describe(g, n) + " input " + in.Name
	switch {
	case in.InterfaceName != "":
		if g == nil || g.NodeDef == "" {
			v.errorf("%s: interface reference %s outside a definition", where, in.InterfaceName)
			return
		}
		nd := v.doc.NodeDef(g.NodeDef)
		if nd == nil {
			v.errorf("%s: node graph %s implements missing definition %s", where, g.Name, g.NodeDef)
			return
		}
		iface := nd.Input(in.InterfaceName)
		if iface == nil {
			v.errorf("%s: definition %s has no input %s", where, nd.Name, in.InterfaceName)
			return
		}
		v.checkTypes(where, in.Type, iface.Type)

	case in.NodeGraph != "":
		if g != nil {
			v.errorf("%s: node graph reference %s inside node graph %s", where, in.NodeGraph, g.Name)
			return
		}
		ng := v.doc.NodeGraph(in.NodeGraph)
		if ng == nil {
			v.errorf("%s: references missing node graph %s", where, in.NodeGraph)
			return
		}
		out := graphOutput(ng, in.Output)
		if out == nil {
			v.errorf("%s: node graph %s has no output %q", where, ng.Name, in.Output)
			return
		}
		v.checkTypes(where, in.Type, out.Type)

	default:
		up := v.lookup(g, in.NodeName)
		if up == nil {
			v.errorf("%s: references missing node %s", where, in.NodeName)
			return
		}
		t, ok := v.outputType(up, in.Output)
		if !ok {
			v.errorf("%s: node %s has no output %q", where, up.Name, in.Output)
			return
		}
		v.checkTypes(where, in.Type, t)
	}
}

func (v *validator) checkOutput(g *mtlx.NodeGraph, o *mtlx.Output) {
	if o == nil {
		return
	}
	where := "output " + o.Name + " of " + g.Name
	if o.NodeName == "" {
		v.errorf("%s: no node bound", where)
		return
	}
	n := g.Node(o.NodeName)
	if n == nil {
		v.errorf("%s: references missing node %s", where, o.NodeName)
		return
	}
	t, ok := v.outputType(n, o.Output)
	if !ok {
		v.errorf("%s: node %s has no output %q", where, n.Name, o.Output)
		return
	}
	v.checkTypes(where, o.Type, t)
}

func (v *validator) checkTypes(where string, want, got types.Type) {
	if want != "" && got != "" && want != got {
		v.warnf("%s: type mismatch, %s connected to %s", where, want, got)
	}
}

// =============================================================================
// Required inputs
// =============================================================================

func (v *validator) checkRequired() {
	for _, n := range v.doc.Nodes {
		if n == nil || !isDocumentLevel(n.Type) {
			continue
		}
		def, ok := v.opts.Catalog.Lookup(n.Category, n.Type)
		if !ok {
			continue
		}
		for _, name := range def.Required() {
			if n.Input(name) == nil {
				v.warnf("%s %s is missing required input %s", n.Category, n.Name, name)
			}
		}
	}
}

// =============================================================================
// Reachability
// =============================================================================

type location struct {
	graph string // Empty for document level
	node  string
}

func (v *validator) checkReachability() {
	seen := make(map[location]bool)
	var queue []location
	for _, m := range v.doc.Materials() {
		l := location{node: m.Name}
		seen[l] = true
		queue = append(queue, l)
	}

	for len(queue) > 0 {
		l := queue[0]
		queue = queue[1:]
		n := v.at(l)
		if n == nil {
			continue
		}
		for _, in := range n.Inputs {
			if in == nil {
				continue
			}
			var next location
			switch {
			case in.NodeGraph != "" && l.graph == "":
				ng := v.doc.NodeGraph(in.NodeGraph)
				if ng == nil {
					continue
				}
				out := graphOutput(ng, in.Output)
				if out == nil {
					continue
				}
				next = location{graph: ng.Name, node: out.NodeName}
			case in.NodeName != "":
				next = location{graph: l.graph, node: in.NodeName}
			default:
				continue
			}
			if !seen[next] && v.at(next) != nil {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	visit := func(g *mtlx.NodeGraph, n *mtlx.Node) {
		l := location{node: n.Name}
		if g != nil {
			l.graph = g.Name
		}
		if seen[l] {
			v.stats.Reachable++
			return
		}
		v.stats.Unused++
		v.warnf("%s is not reachable from any material", describe(g, n))
	}
	for _, n := range v.doc.Nodes {
		if n != nil {
			visit(nil, n)
		}
	}
	for _, g := range v.graphs() {
		for _, n := range g.Nodes {
			if n != nil {
				visit(g, n)
			}
		}
	}
	if v.stats.Nodes > 0 {
		v.stats.Connectivity = float64(v.stats.Reachable) / float64(v.stats.Nodes)
	}
}

// =============================================================================
// Placement
// =============================================================================

func (v *validator) checkPlacement() {
	for _, g := range v.doc.NodeGraphs {
		if g == nil {
			continue
		}
		for _, n := range g.Nodes {
			if n == nil {
				continue
			}
			if isDocumentLevel(n.Type) || n.Category == mtlx.CategoryMaterial {
				v.errorf("%s node %s in node graph %s must be at document level", n.Type, n.Name, g.Name)
			}
		}
	}
}

// =============================================================================
// Lookups
// =============================================================================

func (v *validator) lookup(g *mtlx.NodeGraph, name string) *mtlx.Node {
	if g == nil {
		return v.doc.Node(name)
	}
	return g.Node(name)
}

func (v *validator) at(l location) *mtlx.Node {
	if l.graph == "" {
		return v.doc.Node(l.node)
	}
	g := v.doc.NodeGraph(l.graph)
	if g == nil {
		return nil
	}
	return g.Node(l.node)
}

// definition returns the signature of n: a document definition when n
// names one or one matches, else the catalog's.
func (v *validator) definition(n *mtlx.Node) *mtlx.NodeDef {
	if n.NodeDef != "" {
		if nd := v.doc.NodeDef(n.NodeDef); nd != nil {
			return nd
		}
	}
	if nd := v.doc.NodeDefFor(n.Category, n.Type); nd != nil {
		return nd
	}
	t := n.Type
	if t == types.MultiOutput {
		if in := n.Input("in"); in != nil {
			t = in.Type
		}
	}
	if def, ok := v.opts.Catalog.Lookup(n.Category, t); ok {
		return def.NodeDef()
	}
	return nil
}

// outputType returns the type of n's output named output. Single-output
// nodes only have the default output.
func (v *validator) outputType(n *mtlx.Node, output string) (types.Type, bool) {
	if n.Type != types.MultiOutput {
		return n.Type, output == "" || output == mtlx.DefaultOutput
	}
	nd := v.definition(n)
	if nd == nil {
		return "", true
	}
	for _, o := range nd.Outputs {
		if o != nil && o.Name == output {
			return o.Type, true
		}
	}
	return "", false
}

// graphOutput resolves a node graph output reference. An empty name is
// accepted for graphs with a single output.
func graphOutput(g *mtlx.NodeGraph, name string) *mtlx.Output {
	if name == "" && len(g.Outputs) == 1 && g.Outputs[0] != nil {
		return g.Outputs[0]
	}
	return g.Output(name)
}

func describe(g *mtlx.NodeGraph, n *mtlx.Node) string {
	if g == nil {
		return "node " + n.Name
	}
	return "node " + n.Name + " in " + g.Name
}
