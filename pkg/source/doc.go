// Package source provides the procedural shading node graph that mtlxport
// translates from.
//
// # Overview
//
// A [Graph] is an arena of [Node]s addressed by [NodeID]. Nodes carry a
// category tag (for example "principled-surface", "math", "mix"), ordered
// input sockets and output sockets. An input is either connected to an
// upstream node's output through a [Link], or carries a literal value.
// Identity is the arena index: two inputs linked to the same NodeID share
// one upstream node.
//
// Graphs are built with [Graph.AddNode] and [Graph.Connect], or read from
// JSON or TOML files with [ReadJSON], [ReadTOML] and [ReadFile]:
//
//	{
//	  "materials": [{
//	    "name": "Red Plastic",
//	    "root": "Principled BSDF",
//	    "nodes": [
//	      {"name": "Principled BSDF", "category": "principled-surface",
//	       "inputs": [
//	         {"name": "Base Color", "type": "RGBA", "value": [0.8, 0.1, 0.1, 1]},
//	         {"name": "Roughness", "type": "VALUE", "link": {"node": "Noise", "output": "Fac"}}
//	       ],
//	       "outputs": [{"name": "BSDF", "type": "SHADER"}]},
//	      {"name": "Noise", "category": "noise-texture",
//	       "inputs": [{"name": "Scale", "type": "VALUE", "value": 5}],
//	       "outputs": [{"name": "Fac", "type": "VALUE"}]}
//	    ]
//	  }]
//	}
//
// Graphs may contain cycles; cycle detection is the translator's job.
// The [Accessor] interface is the read-only view the translator consumes.
package source
