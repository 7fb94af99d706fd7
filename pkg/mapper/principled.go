package mapper

import (
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/types"
)

const standardSurface = "standard_surface"

// principledInputs maps principled surface sockets onto standard_surface.
// Several source spellings exist across versions; the first present wins.
var principledInputs = []InputSpec{
	{Source: "Base Color", Target: "base_color", Type: types.Color3},
	{Source: "Metallic", Target: "metalness", Type: types.Float, SkipDefault: true},
	{Source: "Roughness", Target: "specular_roughness", Type: types.Float, SkipDefault: true},
	{Source: "Specular IOR Level", Aliases: []string{"Specular"}, Target: "specular", Type: types.Float, SkipDefault: true},
	{Source: "Specular Tint", Target: "specular_color", Type: types.Color3, SkipDefault: true},
	{Source: "IOR", Target: "specular_IOR", Type: types.Float, SkipDefault: true},
	{Source: "Anisotropic", Target: "specular_anisotropy", Type: types.Float, SkipDefault: true},
	{Source: "Anisotropic Rotation", Target: "specular_rotation", Type: types.Float, SkipDefault: true},
	{Source: "Transmission Weight", Aliases: []string{"Transmission"}, Target: "transmission", Type: types.Float, SkipDefault: true},
	{Source: "Subsurface Weight", Aliases: []string{"Subsurface"}, Target: "subsurface", Type: types.Float, SkipDefault: true},
	{Source: "Subsurface Color", Target: "subsurface_color", Type: types.Color3, SkipDefault: true},
	{Source: "Subsurface Radius", Target: "subsurface_radius", Type: types.Color3, SkipDefault: true},
	{Source: "Subsurface Scale", Target: "subsurface_scale", Type: types.Float, SkipDefault: true},
	{Source: "Subsurface Anisotropy", Target: "subsurface_anisotropy", Type: types.Float, SkipDefault: true},
	{Source: "Sheen Weight", Aliases: []string{"Sheen"}, Target: "sheen", Type: types.Float, SkipDefault: true},
	{Source: "Sheen Tint", Target: "sheen_color", Type: types.Color3, SkipDefault: true},
	{Source: "Sheen Roughness", Target: "sheen_roughness", Type: types.Float, SkipDefault: true},
	{Source: "Coat Weight", Aliases: []string{"Clearcoat"}, Target: "coat", Type: types.Float, SkipDefault: true},
	{Source: "Coat Roughness", Aliases: []string{"Clearcoat Roughness"}, Target: "coat_roughness", Type: types.Float, SkipDefault: true},
	{Source: "Coat IOR", Target: "coat_IOR", Type: types.Float, SkipDefault: true},
	{Source: "Coat Tint", Target: "coat_color", Type: types.Color3, SkipDefault: true},
	{Source: "Coat Normal", Aliases: []string{"Clearcoat Normal"}, Target: "coat_normal", Type: types.Vector3},
	{Source: "Emission Color", Aliases: []string{"Emission"}, Target: "emission_color", Type: types.Color3, SkipDefault: true},
	{Source: "Emission Strength", Target: "emission", Type: types.Float, SkipDefault: true},
	{Source: "Alpha", Target: "opacity", Type: types.Color3, SkipDefault: true},
	{Source: "Normal", Target: "normal", Type: types.Vector3},
	{Source: "Tangent", Target: "tangent", Type: types.Vector3},
}

// PrincipledMapper maps principled surfaces onto standard_surface.
//
// The inputs the validator requires (base and base_color) are always
// written, falling back to the signature defaults. Vector inputs such as
// Normal are only bound when connected, since their literal defaults are
// placeholders rather than real values.
type PrincipledMapper struct{}

// CanHandle accepts every principled surface.
func (PrincipledMapper) CanHandle(n *source.Node) bool {
	return n.Category == source.PrincipledSurface
}

// Map emits one document-level standard_surface node.
func (PrincipledMapper) Map(n *source.Node, ctx Context) (Emitted, error) {
	node := ctx.NewNode(standardSurface, types.SurfaceShader, "surface_"+n.Name)
	ctx.BindValue(node, "base", types.FloatValue(1))

	for _, spec := range principledInputs {
		b := bindingFor(ctx, n, spec)
		switch {
		case spec.Type == types.Vector3 && !b.Connected:
			continue
		case spec.SkipDefault:
			bindUnlessDefault(ctx, node, spec.Target, spec.Type, b)
		default:
			ctx.Bind(node, spec.Target, spec.Type, b)
		}
	}

	if node.Input("base_color") == nil {
		if def, ok := ctx.Catalog().Lookup(standardSurface, types.SurfaceShader); ok {
			if v, ok := def.Default("base_color"); ok {
				ctx.BindValue(node, "base_color", v)
			}
		}
	}
	return Single(node), nil
}
