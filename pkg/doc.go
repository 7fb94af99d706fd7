// Package pkg provides the libraries behind mtlxport, a translator from
// procedural shading node graphs to MaterialX documents.
//
// # Overview
//
// The packages are organized by stage:
//
//  1. [types], [source] - semantic types, coercion and the source graph model
//  2. [mapper], [synth], [constpool] - per-node translation rules
//  3. [translate] - the graph walk that assembles a [mtlx] document
//  4. [validate] - structural and type checks of a finished document
//  5. [pipeline], [cache], [render] - batch runs, caching and artifacts
//
// # Architecture
//
//	Source file (JSON/TOML)
//	         ↓
//	    [source] package (materials + node graphs)
//	         ↓
//	    [translate] package (mappers, synthesized definitions, constants)
//	         ↓
//	    [validate] package (report attached to the result)
//	         ↓
//	    [pipeline] package (cache, render)
//	         ↓
//	    .mtlx / JSON / DOT / SVG
//
// # Quick Start
//
//	file, _ := source.ReadFile("scene.json")
//	t, _ := translate.New(translate.Options{})
//	for _, m := range file.Materials {
//	    res, err := t.Translate(m.Graph, m.Root, m.Name)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    res.Document.WriteXML(os.Stdout)
//	}
//
// Supporting packages: [errors] for coded errors, [observability] for
// instrumentation hooks, [catalog] for node signatures and [buildinfo]
// for version metadata.
package pkg
