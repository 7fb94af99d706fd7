// Package validate checks finished material documents.
//
// [Document] is a pure function: it never mutates the document, never
// panics (a nil document included) and returns a [Report] listing errors,
// warnings and statistics. The checks run in a fixed order:
//
//  1. Structural presence: materials, shaders and node graphs exist. The
//     severity of each absence is configurable through [Options].
//  2. Connection integrity: node, node graph, output and interface
//     references resolve.
//  3. Required inputs: shader and material nodes carry the inputs their
//     definition marks as required.
//  4. Reachability: nodes not reachable from any material are reported as
//     unused, and the share of reachable nodes is the connectivity ratio.
//  5. Placement: shader and material nodes live at document level, never
//     inside a node graph.
//
// Unknown node categories and connections between mismatched types are
// reported as warnings along the way.
package validate
