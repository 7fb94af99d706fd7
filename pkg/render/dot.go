package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mtlxport/pkg/mtlx"
)

// Options configures document diagram rendering.
type Options struct {
	// Detailed adds category, type and literal inputs to node labels.
	// When false, only the node name is shown.
	Detailed bool

	// Implementations includes node graphs that implement a definition.
	Implementations bool
}

// ToDOT converts a document to Graphviz DOT format.
//
// Every node graph becomes a cluster; document-level nodes (shaders and
// materials) sit outside any cluster. Edges run from producer to consumer.
// The output is deterministic for a given document.
func ToDOT(doc *mtlx.Document, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if doc == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	var edges []string
	for i, g := range doc.NodeGraphs {
		if g.NodeDef != "" && !opts.Implementations {
			continue
		}
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", g.Name)
		buf.WriteString("    style=\"rounded,dashed\";\n")
		for _, n := range g.Nodes {
			id := nodeID(g.Name, n.Name)
			fmt.Fprintf(&buf, "    %q [%s];\n", id, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
			edges = append(edges, nodeEdges(g.Name, n)...)
		}
		for _, o := range g.Outputs {
			id := nodeID(g.Name, o.Name)
			fmt.Fprintf(&buf, "    %q [label=%q, shape=cds, fillcolor=lightgrey];\n", id, o.Name)
			edges = append(edges, fmt.Sprintf("%q -> %q", nodeID(g.Name, o.NodeName), id))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, n := range doc.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID("", n.Name), strings.Join(fmtAttrs(n, opts.Detailed), ", "))
		edges = append(edges, nodeEdges("", n)...)
	}

	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %s;\n", e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(graph, name string) string {
	if graph == "" {
		return name
	}
	return graph + "/" + name
}

func nodeEdges(graph string, n *mtlx.Node) []string {
	var edges []string
	to := nodeID(graph, n.Name)
	for _, in := range n.Inputs {
		switch {
		case in.NodeGraph != "" && in.Output != "":
			edges = append(edges, fmt.Sprintf("%q -> %q [label=%q]", nodeID(in.NodeGraph, in.Output), to, in.Name))
		case in.NodeName != "":
			edges = append(edges, fmt.Sprintf("%q -> %q [label=%q]", nodeID(graph, in.NodeName), to, in.Name))
		}
	}
	return edges
}

func fmtLabel(n *mtlx.Node, detailed bool) string {
	if !detailed {
		return n.Name
	}
	parts := []string{fmt.Sprintf("%s : %s", n.Category, n.Type)}
	for _, in := range n.Inputs {
		if in.Value != "" {
			parts = append(parts, fmt.Sprintf("%s = %s", in.Name, in.Value))
		}
	}
	return n.Name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *mtlx.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	switch {
	case n.Category == mtlx.CategoryMaterial:
		attrs = append(attrs, "fillcolor=\"#d8e8f8\"")
	case n.Type.IsShader():
		attrs = append(attrs, "fillcolor=\"#f8e8d0\"")
	case n.Category == mtlx.CategoryConstant:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	if n.Doc != "" {
		attrs = append(attrs, "color=magenta", "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element so the SVG scales
// from its own viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
