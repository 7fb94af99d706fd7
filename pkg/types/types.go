// Package types defines the semantic value types shared by source graphs and
// target documents, and the coercion rules between them.
//
// Data types (float, integer, boolean, vectorN, colorN, string, filename) can
// be converted into one another following a fixed rule set; see [Coerce] and
// [AreCompatible]. Shader-bearing types (surfaceshader, BSDF, material, ...)
// only ever connect to themselves.
package types

import "strings"

// Type is a semantic type name as written in target documents.
type Type string

const (
	Float    Type = "float"
	Integer  Type = "integer"
	Boolean  Type = "boolean"
	Vector2  Type = "vector2"
	Vector3  Type = "vector3"
	Vector4  Type = "vector4"
	Color3   Type = "color3"
	Color4   Type = "color4"
	String   Type = "string"
	Filename Type = "filename"

	SurfaceShader      Type = "surfaceshader"
	DisplacementShader Type = "displacementshader"
	VolumeShader       Type = "volumeshader"
	BSDF               Type = "BSDF"
	EDF                Type = "EDF"
	Material           Type = "material"

	// MultiOutput is the type of nodes with several named outputs.
	MultiOutput Type = "multioutput"
)

// All lists every known type in a stable order.
var All = []Type{
	Float, Integer, Boolean, Vector2, Vector3, Vector4, Color3, Color4, String, Filename,
	SurfaceShader, DisplacementShader, VolumeShader, BSDF, EDF, Material, MultiOutput,
}

// socketAliases maps source-side socket spellings onto target types.
var socketAliases = map[string]Type{
	"VALUE":   Float,
	"FLOAT":   Float,
	"INT":     Integer,
	"BOOLEAN": Boolean,
	"RGBA":    Color4,
	"RGB":     Color3,
	"COLOR":   Color3,
	"VECTOR":  Vector3,
	"STRING":  String,
	"SHADER":  SurfaceShader,
}

// Parse resolves a type name. Both target spellings ("color3") and source
// socket spellings ("RGBA", "VALUE", "SHADER") are accepted.
func Parse(s string) (Type, bool) {
	for _, t := range All {
		if string(t) == s {
			return t, true
		}
	}
	if t, ok := socketAliases[strings.ToUpper(s)]; ok {
		return t, true
	}
	return "", false
}

// Arity reports the number of numeric components of t.
// Scalars (float, integer, boolean) have arity 1; non-numeric types have 0.
func (t Type) Arity() int {
	switch t {
	case Float, Integer, Boolean:
		return 1
	case Vector2:
		return 2
	case Vector3, Color3:
		return 3
	case Vector4, Color4:
		return 4
	}
	return 0
}

// IsNumeric reports whether t carries numeric components.
func (t Type) IsNumeric() bool { return t.Arity() > 0 }

// IsScalar reports whether t is float, integer or boolean.
func (t Type) IsScalar() bool { return t.Arity() == 1 }

// IsColor reports whether t is color3 or color4.
func (t Type) IsColor() bool { return t == Color3 || t == Color4 }

// IsText reports whether t is string or filename.
func (t Type) IsText() bool { return t == String || t == Filename }

// IsShader reports whether t is a shader-bearing type.
// Nodes producing these types live at document level.
func (t Type) IsShader() bool {
	switch t {
	case SurfaceShader, DisplacementShader, VolumeShader, BSDF, EDF, Material:
		return true
	}
	return false
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	for _, k := range All {
		if k == t {
			return true
		}
	}
	return false
}

func (t Type) String() string { return string(t) }

// WithArity returns the float-based type with n components, preferring
// colors when color is set. It returns "" for unsupported arities.
func WithArity(n int, color bool) Type {
	switch n {
	case 1:
		return Float
	case 2:
		return Vector2
	case 3:
		if color {
			return Color3
		}
		return Vector3
	case 4:
		if color {
			return Color4
		}
		return Vector4
	}
	return ""
}
