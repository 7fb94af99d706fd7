// Package synth creates node definitions that the built-in catalog lacks.
//
// A [Synthesizer] is bound to one document. For a source category with a
// recipe, or for an arity conversion between two numeric types, it adds a
// signature (a NodeDef) together with an implementation node graph built
// from catalog primitives, and returns a [Handle] the translator
// instantiates like any mapped node.
//
// Definitions are registered per (category, output type): asking twice
// returns the same handle and adds nothing to the document. A signature
// already present without its implementation is never overwritten; the
// synthesizer reuses the signature and reports a DEFINITION_CONFLICT.
//
// # Recipes
//
//   - curve-rgb, float-curve, vector-curve: a curvelookup definition that
//     passes its input through unchanged.
//   - color-ramp: a two-stop ramp built from remap, clamp and mix, with the
//     stop positions and colors taken from the node's "elements" property.
//
// # Conversions
//
// [Synthesizer.Conversion] builds convert_<from>_to_<to> definitions for
// numeric types of different arity. The implementation separates the input
// into channels and recombines them, padding missing channels with 0 (1 for
// a color's alpha) and broadcasting scalar inputs.
package synth
