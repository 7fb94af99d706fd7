// Package mapper translates individual source nodes into target nodes.
//
// # Overview
//
// A [Registry] maps a source category to a [Mapper]. Mappers come in two
// flavors:
//
//   - Schema mappers are built from declarative [Schema] tables (source
//     input, target input, type). The built-in tables are embedded YAML;
//     more can be loaded with [Registry.LoadSchemas].
//   - Hand-written mappers cover categories needing more than a table:
//     principled surfaces, images, procedural textures (noise, Voronoi,
//     Musgrave, wave) with derived parameters, math operations bound by
//     position, gradients and mapping.
//
// Mappers never inspect graph structure themselves. The [Context] passed to
// [Mapper.Map] is the single place that decides whether a source input is
// connected or literal ([Context.Input], [Context.InputAt]) and how a
// binding reaches a target input ([Context.Bind]). Upstream nodes are
// already translated when a mapper runs.
package mapper
