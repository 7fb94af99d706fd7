// Package translate turns source shading graphs into material documents.
//
// A [Translator] walks the source graph depth first from the material's
// root shader, mapping every upstream node before its consumers. Each
// source node is mapped once; nodes shared by several consumers become a
// single target node. Nodes without a registered mapper fall back to
// definition synthesis and, failing that, either abort the translation
// (strict mode) or become clearly marked magenta placeholders (lenient
// mode).
//
// Shader-typed nodes are placed at document level and everything else in
// the material's node graph, NG_<material>. Document-level inputs read
// graph nodes through node graph outputs. Connections between mismatched
// types get a conversion node; literals are pooled so that values used by
// two or more inputs become one shared constant node.
//
// Once the root shader is mapped, the material is bound to it and the
// document is checked by [validate.Document]; the report is attached to
// the [Result].
//
// Translations share nothing: [Translator.Translate] may be called
// concurrently, and [Translator.TranslateAll] translates a batch of
// materials in parallel, one document per material.
package translate
