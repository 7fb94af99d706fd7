package synth

import (
	"fmt"
	"sort"

	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// port declares a definition input.
type port struct {
	Name    string
	Type    types.Type
	Source  string
	Default string // Empty selects the type default
	// GeomProp replaces the default with a geometric property, e.g. UV0.
	GeomProp string
}

func (p port) value() types.Value {
	if p.Default != "" {
		if v, err := types.ParseValue(p.Default, p.Type); err == nil {
			return v
		}
	}
	return types.Default(p.Type)
}

// literal is an instance value derived from node properties.
type literal struct {
	input string
	value types.Value
}

// recipe describes how to build a definition for one source category.
type recipe struct {
	category source.Category
	node     string
	outType  types.Type
	group    string
	doc      string
	ports    []port
	// outputs lists the source outputs served by the definition's output.
	outputs []string
	// body fills the implementation graph and returns the node feeding out.
	body func(g *mtlx.NodeGraph, t types.Type) *mtlx.Node
	// literals derives instance values from node properties.
	literals func(n *source.Node, warnf func(string, ...any)) []literal
}

func (r *recipe) port(name string) (port, bool) {
	for _, p := range r.ports {
		if p.Name == name {
			return p, true
		}
	}
	return port{}, false
}

func (r *recipe) build(t types.Type) (*mtlx.NodeDef, func(*mtlx.NodeGraph), error) {
	nd := signature(r.node, t, r.group, r.doc, r.ports)
	return nd, func(g *mtlx.NodeGraph) {
		out := r.body(g, t)
		g.AddOutput(mtlx.DefaultOutput, t, out.Name, mtlx.DefaultOutput)
	}, nil
}

var recipes = map[source.Category]*recipe{}

// recipeOrder keeps Categories stable.
var recipeOrder []source.Category

// recipeFor returns the recipe building category node for t, or nil.
func recipeFor(node string, t types.Type) *recipe {
	for _, r := range recipes {
		if r.node == node && r.outType == t {
			return r
		}
	}
	return nil
}

func register(r *recipe) {
	recipes[r.category] = r
	recipeOrder = append(recipeOrder, r.category)
}

func init() {
	register(curve(source.CurveRGB, types.Color3, "Color", "Fac"))
	register(curve(source.FloatCurve, types.Float, "Value", "Factor"))
	register(curve(source.VectorCurve, types.Vector3, "Vector", "Fac"))
	register(&recipe{
		category: source.ColorRamp,
		node:     "colorramp",
		outType:  types.Color3,
		group:    "adjustment",
		doc:      "Two-stop color ramp",
		ports: []port{
			{Name: "fac", Type: types.Float, Source: "Fac", Default: "0.5"},
			{Name: "position0", Type: types.Float},
			{Name: "color0", Type: types.Color3},
			{Name: "position1", Type: types.Float, Default: "1"},
			{Name: "color1", Type: types.Color3, Default: "1, 1, 1"},
		},
		outputs:  []string{"Color"},
		body:     twoStopRamp,
		literals: rampStops,
	})
	register(&recipe{
		category: source.BrickTexture,
		node:     "brick_texture",
		outType:  types.Color3,
		group:    "texture2d",
		doc:      "Running-bond brick pattern",
		ports: []port{
			{Name: "texcoord", Type: types.Vector2, Source: "Vector", GeomProp: "UV0"},
			{Name: "color1", Type: types.Color3, Source: "Color1", Default: "0.8, 0.8, 0.8"},
			{Name: "color2", Type: types.Color3, Source: "Color2", Default: "0.2, 0.2, 0.2"},
			{Name: "mortar", Type: types.Color3, Source: "Mortar"},
			{Name: "scale", Type: types.Float, Source: "Scale", Default: "5"},
			{Name: "mortar_size", Type: types.Float, Source: "Mortar Size", Default: "0.02"},
			{Name: "bias", Type: types.Float, Source: "Bias"},
			{Name: "brick_width", Type: types.Float, Source: "Brick Width", Default: "0.5"},
			{Name: "row_height", Type: types.Float, Source: "Row Height", Default: "0.25"},
			{Name: "offset", Type: types.Float, Default: "0.5"},
		},
		outputs:  []string{"Color"},
		body:     brickBody,
		literals: brickOffset,
	})
}

// curve is a curvelookup definition passing "in" through unchanged. The
// curve points are not modelled; fac is kept on the signature so instances
// stay wired.
func curve(c source.Category, t types.Type, value, fac string) *recipe {
	return &recipe{
		category: c,
		node:     "curvelookup",
		outType:  t,
		group:    "adjustment",
		doc:      "Curve adjustment, evaluated as identity",
		ports: []port{
			{Name: "in", Type: t, Source: value},
			{Name: "fac", Type: types.Float, Source: fac, Default: "1"},
		},
		outputs: []string{value},
		body:    passthrough,
	}
}

func passthrough(g *mtlx.NodeGraph, t types.Type) *mtlx.Node {
	n := g.AddNode("dot", t, "passthrough")
	n.ConnectInterface("in", t, "in")
	return n
}

// twoStopRamp blends color0 into color1 as fac runs from position0 to
// position1.
func twoStopRamp(g *mtlx.NodeGraph, t types.Type) *mtlx.Node {
	pos := g.AddNode("remap", types.Float, "position")
	pos.ConnectInterface("in", types.Float, "fac")
	pos.ConnectInterface("inlow", types.Float, "position0")
	pos.ConnectInterface("inhigh", types.Float, "position1")

	weight := g.AddNode("clamp", types.Float, "weight")
	weight.Connect("in", types.Float, pos.Name, mtlx.DefaultOutput)

	blend := g.AddNode("mix", t, "blend")
	blend.ConnectInterface("bg", t, "color0")
	blend.ConnectInterface("fg", t, "color1")
	blend.Connect("mix", types.Float, weight.Name, mtlx.DefaultOutput)
	return blend
}

// brickBody lays bricks of brick_width by row_height, shifting every other
// row by offset. Rows alternate between color1 and color2, bias pushing
// both toward color2, and the mortar color fills a band of mortar_size
// along the left and bottom edge of each brick.
func brickBody(g *mtlx.NodeGraph, t types.Type) *mtlx.Node {
	f := types.Float
	uv := g.AddNode("separate2", types.MultiOutput, "uv")
	uv.ConnectInterface("in", types.Vector2, "texcoord")

	op := func(category, name string, in1 *mtlx.Node, out string) *mtlx.Node {
		n := g.AddNode(category, f, name)
		n.Connect("in1", f, in1.Name, out)
		return n
	}
	x := op("multiply", "x", uv, "outx")
	x.ConnectInterface("in2", f, "scale")
	y := op("multiply", "y", uv, "outy")
	y.ConnectInterface("in2", f, "scale")

	row := op("divide", "row", y, mtlx.DefaultOutput)
	row.ConnectInterface("in2", f, "row_height")
	rowIndex := g.AddNode("floor", f, "row_index")
	rowIndex.Connect("in", f, row.Name, mtlx.DefaultOutput)
	parity := op("modulo", "row_parity", rowIndex, mtlx.DefaultOutput)
	parity.SetValue("in2", types.FloatValue(2))

	shift := op("multiply", "row_shift", parity, mtlx.DefaultOutput)
	shift.ConnectInterface("in2", f, "offset")
	shiftX := op("multiply", "row_shift_x", shift, mtlx.DefaultOutput)
	shiftX.ConnectInterface("in2", f, "brick_width")
	shifted := op("add", "shifted_x", x, mtlx.DefaultOutput)
	shifted.Connect("in2", f, shiftX.Name, mtlx.DefaultOutput)
	column := op("divide", "column", shifted, mtlx.DefaultOutput)
	column.ConnectInterface("in2", f, "brick_width")

	// Position inside the brick, in [0, 1) along both axes.
	local := func(name string, coord *mtlx.Node) *mtlx.Node {
		fl := g.AddNode("floor", f, name+"_floor")
		fl.Connect("in", f, coord.Name, mtlx.DefaultOutput)
		n := op("subtract", name, coord, mtlx.DefaultOutput)
		n.Connect("in2", f, fl.Name, mtlx.DefaultOutput)
		return n
	}
	u, v := local("brick_u", column), local("brick_v", row)

	edge := func(name string, coord *mtlx.Node, size string) *mtlx.Node {
		width := g.AddNode("divide", f, name+"_width")
		width.ConnectInterface("in1", f, "mortar_size")
		width.ConnectInterface("in2", f, size)
		n := g.AddNode("ifgreater", f, name)
		n.Connect("value1", f, width.Name, mtlx.DefaultOutput)
		n.Connect("value2", f, coord.Name, mtlx.DefaultOutput)
		n.SetValue("in1", types.FloatValue(1))
		n.SetValue("in2", types.FloatValue(0))
		return n
	}
	mortar := op("max", "mortar_mask", edge("mortar_u", u, "brick_width"), mtlx.DefaultOutput)
	mortar.Connect("in2", f, edge("mortar_v", v, "row_height").Name, mtlx.DefaultOutput)

	biased := op("add", "biased_parity", parity, mtlx.DefaultOutput)
	biased.ConnectInterface("in2", f, "bias")
	weight := g.AddNode("clamp", f, "tint")
	weight.Connect("in", f, biased.Name, mtlx.DefaultOutput)

	brick := g.AddNode("mix", t, "brick_color")
	brick.ConnectInterface("bg", t, "color1")
	brick.ConnectInterface("fg", t, "color2")
	brick.Connect("mix", f, weight.Name, mtlx.DefaultOutput)

	out := g.AddNode("mix", t, "brick")
	out.Connect("bg", t, brick.Name, mtlx.DefaultOutput)
	out.ConnectInterface("fg", t, "mortar")
	out.Connect("mix", f, mortar.Name, mtlx.DefaultOutput)
	return out
}

// brickOffset reads the row offset property. Offset frequencies other than
// every second row and squashed rows are not modelled.
func brickOffset(n *source.Node, warnf func(string, ...any)) []literal {
	var out []literal
	if raw, ok := n.Props["offset"]; ok {
		v, err := types.FromRaw(raw, types.Float)
		if err != nil {
			warnf("%s: offset: %v", n.Name, err)
		} else {
			out = append(out, literal{"offset", v})
		}
	}
	if freq, ok := n.Props["offset_frequency"]; ok {
		if v, err := types.FromRaw(freq, types.Integer); err != nil || v.Scalar() != 2 {
			warnf("%s: offset frequency %v approximated as every second row", n.Name, freq)
		}
	}
	if squash, ok := n.Props["squash"]; ok {
		if v, err := types.FromRaw(squash, types.Float); err != nil || v.Scalar() != 1 {
			warnf("%s: squash %v is not supported", n.Name, squash)
		}
	}
	return out
}

type stop struct {
	position float64
	color    types.Value
}

// rampStops reads the "elements" property: a list of {position, color}.
// Ramps with more than two stops keep the outermost ones.
func rampStops(n *source.Node, warnf func(string, ...any)) []literal {
	raw, ok := n.Props["elements"]
	if !ok {
		return nil
	}
	var stops []stop
	for i, e := range elements(raw) {
		pos, err := types.FromRaw(e["position"], types.Float)
		if err != nil {
			warnf("%s: stop %d: %v", n.Name, i, err)
			continue
		}
		col, err := types.FromRaw(e["color"], types.Color3)
		if err != nil {
			warnf("%s: stop %d: %v", n.Name, i, err)
			continue
		}
		stops = append(stops, stop{position: pos.Scalar(), color: col})
	}
	if len(stops) == 0 {
		return nil
	}
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].position < stops[j].position })
	if len(stops) > 2 {
		warnf("%s: %d ramp stops reduced to the outer two", n.Name, len(stops))
	}
	if mode := n.Props.String("interpolation"); mode != "" && mode != "LINEAR" {
		warnf("%s: %s interpolation approximated as linear", n.Name, mode)
	}
	first, last := stops[0], stops[len(stops)-1]
	return []literal{
		{"position0", types.FloatValue(first.position)},
		{"color0", first.color},
		{"position1", types.FloatValue(last.position)},
		{"color1", last.color},
	}
}

// elements accepts the shapes JSON and TOML decoding produce.
func elements(raw any) []map[string]any {
	switch v := raw.(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// buildConversion separates the input into channels and recombines them.
func (s *Synthesizer) buildConversion(category string, from, to types.Type) (*mtlx.NodeDef, func(*mtlx.NodeGraph), error) {
	var outs []string
	if from.Arity() > 1 {
		def, ok := s.catalog.Lookup(fmt.Sprintf("separate%d", from.Arity()), from)
		if !ok {
			return nil, nil, fmt.Errorf("no separate node for %s", from)
		}
		for _, o := range def.Outputs {
			outs = append(outs, o.Name)
		}
	}
	if to.Arity() > 1 {
		if _, ok := s.catalog.Lookup(fmt.Sprintf("combine%d", to.Arity()), to); !ok {
			return nil, nil, fmt.Errorf("no combine node for %s", to)
		}
	}

	nd := signature(category, to, "channel", fmt.Sprintf("Convert %s to %s", from, to),
		[]port{{Name: "in", Type: from}})
	return nd, func(g *mtlx.NodeGraph) {
		var sep *mtlx.Node
		if len(outs) > 0 {
			sep = g.AddNode(fmt.Sprintf("separate%d", from.Arity()), types.MultiOutput, "channels")
			sep.ConnectInterface("in", from, "in")
		}
		if to.Arity() == 1 {
			g.AddOutput(mtlx.DefaultOutput, to, sep.Name, outs[0])
			return
		}
		comb := g.AddNode(fmt.Sprintf("combine%d", to.Arity()), to, "combined")
		for i := 0; i < to.Arity(); i++ {
			in := fmt.Sprintf("in%d", i+1)
			switch {
			case sep == nil:
				comb.ConnectInterface(in, types.Float, "in")
			case i < len(outs):
				comb.Connect(in, types.Float, sep.Name, outs[i])
			default:
				comb.SetValue(in, types.FloatValue(fill(to, i)))
			}
		}
		g.AddOutput(mtlx.DefaultOutput, to, comb.Name, mtlx.DefaultOutput)
	}, nil
}

// fill is the value of channel i missing from the input.
func fill(t types.Type, i int) float64 {
	if t.IsColor() && i == 3 {
		return 1
	}
	return 0
}
