package mapper

import (
	"math"
	"strings"

	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// colorSpaces maps source color space names onto target names. Non-color
// data gets no color space.
var colorSpaces = map[string]string{
	"srgb":           "srgb_texture",
	"linear":         "lin_rec709",
	"linear rec.709": "lin_rec709",
	"acescg":         "acescg",
	"non-color":      "",
	"raw":            "",
}

// ImageMapper maps image textures onto image nodes.
//
// The file path comes from the "image" property and the color space from
// "colorspace". Only the Color output is mapped.
type ImageMapper struct{}

// CanHandle accepts every image texture.
func (ImageMapper) CanHandle(n *source.Node) bool {
	return n.Category == source.ImageTexture
}

// Map emits an image node.
func (ImageMapper) Map(n *source.Node, ctx Context) (Emitted, error) {
	node := ctx.NewNode("image", types.Color3, nodeName("image", n))

	path := n.Props.String("image")
	if path == "" {
		ctx.Warnf("%s: image texture has no file", n.Name)
	} else if err := errs.ValidatePath(path); err != nil {
		ctx.Warnf("%s: %s", n.Name, errs.UserMessage(err))
	}
	file := node.SetValue("file", types.FilenameValue(path))
	if cs, ok := colorSpaces[strings.ToLower(n.Props.String("colorspace"))]; ok {
		file.ColorSpace = cs
	} else if cs := n.Props.String("colorspace"); cs != "" {
		file.ColorSpace = cs
	}

	ctx.Bind(node, "texcoord", types.Vector2, connectedOnly(ctx.Input(n, "Vector")))
	return Emitted{Node: node, Outputs: map[string]Ref{"Color": RefTo(node)}}, nil
}

// NoiseMapper maps noise textures onto fractal3d.
//
// Scale drives the lookup frequency (1/scale), which multiplies the
// position; Roughness drives diminish (1 - roughness); Detail becomes the
// octave count.
type NoiseMapper struct{}

// CanHandle accepts 3D noise only.
func (NoiseMapper) CanHandle(n *source.Node) bool {
	return n.Category == source.NoiseTexture && is3D(n)
}

// Map emits fractal3d and, depending on the drivers, position scaling and
// derived-parameter arithmetic.
func (NoiseMapper) Map(n *source.Node, ctx Context) (Emitted, error) {
	node := ctx.NewNode("fractal3d", types.Float, nodeName("fractal3d", n))
	ctx.Bind(node, "position", types.Vector3, scaledPosition(ctx, n))

	bindUnlessDefault(ctx, node, "octaves", types.Integer, ctx.Input(n, "Detail"))
	bindUnlessDefault(ctx, node, "lacunarity", types.Float, ctx.Input(n, "Lacunarity"))
	bindUnlessDefault(ctx, node, "diminish", types.Float, derive(ctx, ctx.Input(n, "Roughness"), diminish, n.Name))

	return Emitted{Node: node, Outputs: map[string]Ref{
		"Fac":   RefTo(node),
		"Color": RefTo(node),
	}}, nil
}

// GradientMapper maps gradient textures onto left-right or top-bottom ramps.
// Gradient types without a ramp equivalent fall back to a linear ramp.
type GradientMapper struct{}

// CanHandle accepts every gradient texture.
func (GradientMapper) CanHandle(n *source.Node) bool {
	return n.Category == source.GradientTexture
}

// Map emits ramplr or ramptb running from black to white.
func (GradientMapper) Map(n *source.Node, ctx Context) (Emitted, error) {
	target, lo, hi := "ramplr", "valuel", "valuer"
	switch kind := strings.ToUpper(n.Props.String("gradient_type")); kind {
	case "", "LINEAR":
	case "VERTICAL":
		target, lo, hi = "ramptb", "valueb", "valuet"
	default:
		ctx.Warnf("%s: gradient type %s approximated as linear", n.Name, kind)
	}
	node := ctx.NewNode(target, types.Color3, nodeName(target, n))
	ctx.BindValue(node, lo, types.Vec(types.Color3, 0, 0, 0))
	ctx.BindValue(node, hi, types.Vec(types.Color3, 1, 1, 1))
	ctx.Bind(node, "texcoord", types.Vector2, connectedOnly(ctx.Input(n, "Vector")))
	return Single(node), nil
}

// MappingMapper maps vector mapping nodes onto place2d. Location, Rotation
// and Scale are read as 3D and reduced to the 2D placement.
type MappingMapper struct{}

// CanHandle accepts point and texture mappings.
func (MappingMapper) CanHandle(n *source.Node) bool {
	if n.Category != source.Mapping {
		return false
	}
	switch n.Props.String("vector_type") {
	case "", "POINT", "TEXTURE":
		return true
	}
	return false
}

// Map emits place2d. A literal rotation contributes its Z angle in degrees;
// a connected rotation is not supported by place2d and is dropped.
func (MappingMapper) Map(n *source.Node, ctx Context) (Emitted, error) {
	node := ctx.NewNode("place2d", types.Vector2, nodeName("place2d", n))
	ctx.Bind(node, "texcoord", types.Vector2, connectedOnly(ctx.Input(n, "Vector")))
	bindUnlessDefault(ctx, node, "offset", types.Vector2, ctx.Input(n, "Location"))
	bindUnlessDefault(ctx, node, "scale", types.Vector2, ctx.Input(n, "Scale"))

	switch rot := ctx.Input(n, "Rotation"); {
	case rot.Connected:
		ctx.Warnf("%s: connected rotation is not supported, ignoring", n.Name)
	case rot.Present:
		v := types.MustCoerce(rot.Value, types.Vector3)
		deg := v.Component(2) * 180 / math.Pi
		bindUnlessDefault(ctx, node, "rotate", types.Float, Literal(types.FloatValue(deg)))
	}
	return Single(node), nil
}

// connectedOnly drops literal bindings. Coordinate inputs carry meaningless
// placeholder literals when unconnected.
func connectedOnly(b Binding) Binding {
	if b.Connected {
		return b
	}
	return Binding{Name: b.Name}
}
