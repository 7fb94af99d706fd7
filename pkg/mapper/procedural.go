package mapper

import (
	"math"
	"strings"

	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// is3D reports whether a procedural texture samples 3D space. Nodes
// without a "dimensions" property are 3D.
func is3D(n *source.Node) bool {
	dims := n.Props.String("dimensions")
	return dims == "" || dims == "3D"
}

// scaledPosition returns the lookup position of a procedural texture: the
// Vector input, or the object position when unconnected, multiplied by the
// frequency derived from Scale.
func scaledPosition(ctx Context, n *source.Node) Binding {
	owner := n.Name
	position := ctx.Input(n, "Vector")
	if !position.Connected {
		pos := ctx.NewNode("position", types.Vector3, "position_"+owner)
		position = Connection(RefTo(pos))
	}
	freq := derive(ctx, ctx.Input(n, "Scale"), frequency, owner)
	if freq.Present {
		scaled := ctx.NewNode("multiply", types.Vector3, "scaled_position_"+owner)
		ctx.Bind(scaled, "in1", types.Vector3, position)
		ctx.Bind(scaled, "in2", types.Vector3, freq)
		position = Connection(RefTo(scaled))
	}
	return position
}

func scalar(x float64) Binding {
	return Literal(types.FloatValue(x))
}

// arith emits the float node "a op b".
func arith(ctx Context, op, base string, a, b Binding) Binding {
	node := ctx.NewNode(op, types.Float, base)
	ctx.Bind(node, "in1", types.Float, a)
	ctx.Bind(node, "in2", types.Float, b)
	return Connection(RefTo(node))
}

// literalScalar returns b's literal as a float. Connected and absent
// bindings report false.
func literalScalar(b Binding) (float64, bool) {
	if !b.Present || b.Connected {
		return 0, false
	}
	return types.MustCoerce(b.Value, types.Float).Scalar(), true
}

// =============================================================================
// Voronoi
// =============================================================================

// VoronoiMapper maps Voronoi textures onto worleynoise3d.
//
// Only the F1 Euclidean distance has a target equivalent. Color reads the
// distance too, since worley noise has no per-cell color.
type VoronoiMapper struct{}

// CanHandle accepts 3D Voronoi only.
func (VoronoiMapper) CanHandle(n *source.Node) bool {
	return n.Category == source.VoronoiTexture && is3D(n)
}

// Map emits worleynoise3d with Randomness as the jitter.
func (VoronoiMapper) Map(n *source.Node, ctx Context) (Emitted, error) {
	if f := strings.ToUpper(n.Props.String("feature")); f != "" && f != "F1" {
		ctx.Warnf("%s: feature %s approximated as F1", n.Name, f)
	}
	if d := strings.ToUpper(n.Props.String("distance")); d != "" && d != "EUCLIDEAN" {
		ctx.Warnf("%s: %s distance approximated as euclidean", n.Name, d)
	}

	node := ctx.NewNode("worleynoise3d", types.Float, nodeName("worleynoise3d", n))
	ctx.Bind(node, "position", types.Vector3, scaledPosition(ctx, n))
	bindUnlessDefault(ctx, node, "jitter", types.Float, ctx.Input(n, "Randomness"))

	return Emitted{Node: node, Outputs: map[string]Ref{
		"Distance": RefTo(node),
		"Color":    RefTo(node),
	}}, nil
}

// =============================================================================
// Musgrave
// =============================================================================

// MusgraveMapper maps Musgrave textures onto fractal3d.
//
// Every Musgrave type is evaluated as fBm. Dimension sets the octave
// falloff: diminish is lacunarity raised to -dimension.
type MusgraveMapper struct{}

// CanHandle accepts 3D Musgrave only.
func (MusgraveMapper) CanHandle(n *source.Node) bool {
	return n.Category == source.MusgraveTexture && is3D(n)
}

// Map emits fractal3d and the diminish arithmetic when a driver is live.
func (MusgraveMapper) Map(n *source.Node, ctx Context) (Emitted, error) {
	if kind := strings.ToUpper(n.Props.String("musgrave_type")); kind != "" && kind != "FBM" {
		ctx.Warnf("%s: %s approximated as fBm", n.Name, kind)
	}

	node := ctx.NewNode("fractal3d", types.Float, nodeName("fractal3d", n))
	ctx.Bind(node, "position", types.Vector3, scaledPosition(ctx, n))

	lacunarity := ctx.Input(n, "Lacunarity")
	bindUnlessDefault(ctx, node, "octaves", types.Integer, ctx.Input(n, "Detail"))
	bindUnlessDefault(ctx, node, "lacunarity", types.Float, lacunarity)
	bindUnlessDefault(ctx, node, "diminish", types.Float, dimensionFalloff(ctx, n, lacunarity))

	return Emitted{Node: node, Outputs: map[string]Ref{
		"Fac":    RefTo(node),
		"Height": RefTo(node),
	}}, nil
}

// defaultLacunarity matches the fractal3d default.
const defaultLacunarity = 2.0

// dimensionFalloff derives diminish from Dimension and lacunarity. Literal
// drivers are folded; a live one gets multiply and power nodes.
func dimensionFalloff(ctx Context, n *source.Node, lacunarity Binding) Binding {
	dim := ctx.Input(n, "Dimension")
	if !dim.Present {
		return dim
	}
	d, dimLiteral := literalScalar(dim)
	lac, lacLiteral := literalScalar(lacunarity)
	if !lacunarity.Present {
		lac, lacLiteral = defaultLacunarity, true
	}

	if dimLiteral && lacLiteral {
		v := math.Pow(lac, -d)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			ctx.Warnf("%s: cannot derive diminish from dimension %s, using default", n.Name, types.FormatFloat(d))
			return Binding{Name: dim.Name}
		}
		return Binding{Name: dim.Name, Present: true, Value: types.FloatValue(v)}
	}

	exp := scalar(-d)
	if !dimLiteral {
		exp = arith(ctx, "multiply", "negated_dimension_"+n.Name, dim, scalar(-1))
	}
	base := scalar(lac)
	if !lacLiteral {
		base = lacunarity
	}
	pw := arith(ctx, "power", "diminish_"+n.Name, base, exp)
	pw.Name = dim.Name
	return pw
}

// =============================================================================
// Wave
// =============================================================================

// bandAxes weight the position components per band direction, folding in
// the band density of 20 per unit (10 along the diagonal).
var bandAxes = map[string]types.Value{
	"":         types.Vec(types.Vector3, 20, 0, 0),
	"X":        types.Vec(types.Vector3, 20, 0, 0),
	"Y":        types.Vec(types.Vector3, 0, 20, 0),
	"Z":        types.Vec(types.Vector3, 0, 0, 20),
	"DIAGONAL": types.Vec(types.Vector3, 10, 10, 10),
}

// WaveMapper builds wave textures from arithmetic nodes: a band or ring
// coordinate, optionally distorted by fractal noise, shaped by a sine,
// saw or triangle profile.
type WaveMapper struct{}

// CanHandle accepts every wave texture.
func (WaveMapper) CanHandle(n *source.Node) bool {
	return n.Category == source.WaveTexture
}

// Map emits the wave network. Fac and Color both read the profile.
func (WaveMapper) Map(n *source.Node, ctx Context) (Emitted, error) {
	owner := n.Name
	position := scaledPosition(ctx, n)

	var coord Binding
	switch kind := strings.ToUpper(n.Props.String("wave_type")); kind {
	case "RINGS":
		if dir := strings.ToUpper(n.Props.String("rings_direction")); dir != "" && dir != "SPHERICAL" {
			ctx.Warnf("%s: rings direction %s approximated as spherical", n.Name, dir)
		}
		radius := ctx.NewNode("magnitude", types.Float, "radius_"+owner)
		ctx.Bind(radius, "in", types.Vector3, position)
		coord = arith(ctx, "multiply", "rings_"+owner, Connection(RefTo(radius)), scalar(20))
	default:
		if kind != "" && kind != "BANDS" {
			ctx.Warnf("%s: wave type %s approximated as bands", n.Name, kind)
		}
		dir := strings.ToUpper(n.Props.String("bands_direction"))
		axis, ok := bandAxes[dir]
		if !ok {
			ctx.Warnf("%s: band direction %s approximated as X", n.Name, dir)
			axis = bandAxes["X"]
		}
		bands := ctx.NewNode("dotproduct", types.Float, "bands_"+owner)
		ctx.Bind(bands, "in1", types.Vector3, position)
		ctx.BindValue(bands, "in2", axis)
		coord = Connection(RefTo(bands))
	}

	coord = distort(ctx, n, position, coord)
	out := waveProfile(ctx, n, coord)
	return Emitted{Node: out.Ref.Node, Outputs: map[string]Ref{
		"Fac":   out.Ref,
		"Color": out.Ref,
	}}, nil
}

// distort adds Distortion times fractal noise sampled at the position
// scaled by Detail Scale. A zero literal distortion adds nothing.
func distort(ctx Context, n *source.Node, position, coord Binding) Binding {
	amount := ctx.Input(n, "Distortion")
	if d, ok := literalScalar(amount); !amount.Present || (ok && d == 0) {
		return coord
	}

	owner := n.Name
	sample := position
	if ds := ctx.Input(n, "Detail Scale"); ds.Present {
		scaled := ctx.NewNode("multiply", types.Vector3, "detail_position_"+owner)
		ctx.Bind(scaled, "in1", types.Vector3, position)
		ctx.Bind(scaled, "in2", types.Vector3, ds)
		sample = Connection(RefTo(scaled))
	}
	noise := ctx.NewNode("fractal3d", types.Float, "distortion_noise_"+owner)
	ctx.Bind(noise, "position", types.Vector3, sample)
	bindUnlessDefault(ctx, noise, "octaves", types.Integer, ctx.Input(n, "Detail"))
	bindUnlessDefault(ctx, noise, "diminish", types.Float, ctx.Input(n, "Detail Roughness"))

	offset := arith(ctx, "multiply", "distortion_"+owner, Connection(RefTo(noise)), amount)
	return arith(ctx, "add", "distorted_"+owner, coord, offset)
}

// waveProfile shapes the phase-shifted coordinate into [0, 1].
func waveProfile(ctx Context, n *source.Node, coord Binding) Binding {
	owner := n.Name
	phase := ctx.Input(n, "Phase Offset")

	switch profile := strings.ToUpper(n.Props.String("wave_profile")); profile {
	case "SAW", "TRI":
		coord = addPhase(ctx, owner, coord, phase, 0)
		cycles := arith(ctx, "multiply", "cycles_"+owner, coord, scalar(1/(2*math.Pi)))
		if profile == "SAW" {
			return arith(ctx, "modulo", "saw_"+owner, cycles, scalar(1))
		}
		shifted := arith(ctx, "add", "half_cycle_"+owner, cycles, scalar(0.5))
		frac := arith(ctx, "modulo", "cycle_"+owner, shifted, scalar(1))
		centered := arith(ctx, "subtract", "centered_"+owner, frac, scalar(0.5))
		abs := ctx.NewNode("absval", types.Float, "distance_"+owner)
		ctx.Bind(abs, "in", types.Float, centered)
		return arith(ctx, "multiply", "tri_"+owner, Connection(RefTo(abs)), scalar(2))
	default:
		if profile != "" && profile != "SIN" {
			ctx.Warnf("%s: wave profile %s approximated as sine", n.Name, profile)
		}
		coord = addPhase(ctx, owner, coord, phase, -math.Pi/2)
		sin := ctx.NewNode("sin", types.Float, "sine_"+owner)
		ctx.Bind(sin, "in", types.Float, coord)
		remap := ctx.NewNode("remap", types.Float, "wave_"+owner)
		ctx.Bind(remap, "in", types.Float, Connection(RefTo(sin)))
		ctx.BindValue(remap, "inlow", types.FloatValue(-1))
		return Connection(RefTo(remap))
	}
}

// addPhase adds the phase offset and a constant shift, folding literals
// into a single add.
func addPhase(ctx Context, owner string, coord, phase Binding, shift float64) Binding {
	if phase.Connected {
		coord = arith(ctx, "add", "phase_"+owner, coord, phase)
		if shift != 0 {
			coord = arith(ctx, "add", "shift_"+owner, coord, scalar(shift))
		}
		return coord
	}
	total := shift
	if p, ok := literalScalar(phase); ok {
		total += p
	}
	if total == 0 {
		return coord
	}
	return arith(ctx, "add", "phase_"+owner, coord, scalar(total))
}
