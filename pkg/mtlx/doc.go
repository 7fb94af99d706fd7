// Package mtlx models MaterialX-style material documents.
//
// # Overview
//
// A [Document] holds three kinds of top-level elements:
//
//   - [NodeDef]: a node signature (category, typed inputs and outputs)
//   - [NodeGraph]: a network of [Node]s with named outputs. A graph whose
//     NodeDef field is set is the implementation of that definition.
//   - document-level [Node]s: shader nodes and the materials binding them
//
// Inputs either carry a formatted literal ([Input.Value]) or reference
// another element: a node in the same scope (NodeName and Output), a node
// graph output (NodeGraph and Output), or an input of the enclosing
// definition (InterfaceName).
//
// Names are unique within a scope. [Document.UniqueName] and
// [NodeGraph.UniqueName] derive a free name from a base by appending _1, _2
// and so on, so repeated translations of the same input produce the same
// names.
//
// # Serialization
//
// [Document.WriteXML] emits MaterialX XML; [ReadXML] parses it back.
// [Document.WriteJSON] produces a JSON dump for debugging. None of these
// touch the filesystem.
package mtlx
