// Package render draws material documents as node-link diagrams.
//
// # Overview
//
// [ToDOT] converts an [mtlx.Document] to Graphviz DOT source. Each node
// graph becomes a dashed cluster holding its nodes and named outputs;
// shaders and materials sit at the top level. Edges are labelled with the
// consuming input name.
//
//	dot := render.ToDOT(doc, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Styling
//
// Materials and shaders get distinct fill colors, shared constants are
// dashed, and placeholder nodes emitted for unsupported source nodes are
// outlined in magenta.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering, so no Graphviz installation is required.
//
// [mtlx.Document]: github.com/matzehuels/mtlxport/pkg/mtlx.Document
package render
