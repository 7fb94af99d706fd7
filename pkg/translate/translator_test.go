package translate

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// graphBuilder assembles source graphs for tests.
type graphBuilder struct {
	t *testing.T
	g *source.Graph
}

func newGraph(t *testing.T) *graphBuilder {
	t.Helper()
	return &graphBuilder{t: t, g: source.New()}
}

func (b *graphBuilder) add(n source.Node) source.NodeID {
	b.t.Helper()
	id, err := b.g.AddNode(n)
	if err != nil {
		b.t.Fatalf("AddNode(%s): %v", n.Name, err)
	}
	return id
}

func (b *graphBuilder) link(from source.NodeID, output string, to source.NodeID, input int) {
	b.t.Helper()
	if err := b.g.Connect(from, output, to, input); err != nil {
		b.t.Fatalf("Connect: %v", err)
	}
}

func principled(name string, inputs ...source.Input) source.Node {
	base := []source.Input{
		{Name: "Base Color", Type: types.Color4},
		{Name: "Metallic", Type: types.Float},
		{Name: "Roughness", Type: types.Float},
	}
	for _, in := range inputs {
		replaced := false
		for i := range base {
			if base[i].Name == in.Name {
				base[i], replaced = in, true
			}
		}
		if !replaced {
			base = append(base, in)
		}
	}
	return source.Node{
		Name: name, Category: source.PrincipledSurface, Inputs: base,
		Outputs: []source.Output{{Name: "BSDF", Type: types.SurfaceShader}},
	}
}

func image(name, path string) source.Node {
	return source.Node{
		Name: name, Category: source.ImageTexture,
		Props:   source.Props{"image": path, "colorspace": "sRGB"},
		Inputs:  []source.Input{{Name: "Vector", Type: types.Vector3}},
		Outputs: []source.Output{{Name: "Color", Type: types.Color4}, {Name: "Alpha", Type: types.Float}},
	}
}

func value(name string, v float64) source.Node {
	return source.Node{
		Name: name, Category: source.Value, Props: source.Props{"value": v},
		Outputs: []source.Output{{Name: "Value", Type: types.Float}},
	}
}

func unknown(name string, c source.Category, out types.Type) source.Node {
	return source.Node{Name: name, Category: c, Outputs: []source.Output{{Name: "Color", Type: out}}}
}

func mustTranslate(t *testing.T, opts Options, g *source.Graph, root source.NodeID, material string) *Result {
	t.Helper()
	tr, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := tr.Translate(g, root, material)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !res.Success || res.Document == nil {
		t.Fatalf("result = %+v", res)
	}
	return res
}

func graphNodes(doc *mtlx.Document, category string) []*mtlx.Node {
	var out []*mtlx.Node
	for _, g := range doc.NodeGraphs {
		if g.NodeDef != "" {
			continue
		}
		for _, n := range g.Nodes {
			if n.Category == category {
				out = append(out, n)
			}
		}
	}
	return out
}

func TestTranslateTexturedSurface(t *testing.T) {
	b := newGraph(t)
	tex := b.add(image("Wood", "textures/wood.png"))
	p := b.add(principled("Principled BSDF"))
	b.link(tex, "Color", p, 0)

	res := mustTranslate(t, Options{}, b.g, p, "wood")
	doc := res.Document

	ng := doc.NodeGraph("NG_wood")
	if ng == nil {
		t.Fatal("node graph NG_wood missing")
	}
	img := ng.Node("image_Wood")
	if img == nil || img.Input("file").Value != "textures/wood.png" {
		t.Fatalf("image node = %+v", img)
	}
	shader := doc.Node("surface_Principled_BSDF")
	if shader == nil {
		t.Fatal("shader not at document level")
	}
	bc := shader.Input("base_color")
	if bc.NodeGraph != ng.Name || ng.Output(bc.Output) == nil || ng.Output(bc.Output).NodeName != img.Name {
		t.Errorf("base_color = %+v", bc)
	}
	mats := doc.Materials()
	if len(mats) != 1 || mats[0].Name != "wood" || mats[0].Input(mtlx.MaterialShaderInput).NodeName != shader.Name {
		t.Errorf("materials = %+v", mats)
	}
	if !res.Report.Valid || len(res.Report.Warnings) != 0 {
		t.Errorf("report = %+v", res.Report)
	}
	if res.Stats.SourceNodes != 2 {
		t.Errorf("SourceNodes = %d", res.Stats.SourceNodes)
	}
}

func TestProceduralTextures(t *testing.T) {
	tests := []struct {
		category source.Category
		props    source.Props
		output   string
		target   string
	}{
		{source.VoronoiTexture, nil, "Distance", "worleynoise3d"},
		{source.MusgraveTexture, source.Props{"musgrave_type": "FBM"}, "Fac", "fractal3d"},
		{source.WaveTexture, source.Props{"wave_profile": "TRI"}, "Color", "absval"},
		{source.BrickTexture, source.Props{"offset": 0.3}, "Color", "brick_texture"},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			b := newGraph(t)
			tex := b.add(source.Node{
				Name: "Tex", Category: tt.category, Props: tt.props,
				Inputs: []source.Input{
					{Name: "Vector", Type: types.Vector3},
					{Name: "Scale", Type: types.Float, Value: 4.0},
					{Name: "Distortion", Type: types.Float, Value: 1.0},
					{Name: "Dimension", Type: types.Float, Value: 1.0},
				},
				Outputs: []source.Output{{Name: tt.output, Type: types.Color4}},
			})
			p := b.add(principled("P"))
			b.link(tex, tt.output, p, 0)

			res := mustTranslate(t, Options{}, b.g, p, "m")
			if len(res.Unsupported) != 0 {
				t.Fatalf("Unsupported = %+v", res.Unsupported)
			}
			if len(graphNodes(res.Document, tt.target)) == 0 {
				t.Errorf("no %s node emitted", tt.target)
			}
			if !res.Report.Valid || len(res.Report.Warnings) != 0 {
				t.Errorf("report = %+v", res.Report)
			}
		})
	}
}

func TestSharedUpstreamMappedOnce(t *testing.T) {
	b := newGraph(t)
	v := b.add(value("Value", 0.4))
	p := b.add(principled("P"))
	b.link(v, "Value", p, 1)
	b.link(v, "Value", p, 2)

	res := mustTranslate(t, Options{}, b.g, p, "m")
	consts := graphNodes(res.Document, "constant")
	if len(consts) != 1 || consts[0].Name != "constant_Value" {
		t.Fatalf("constants = %+v", consts)
	}
	shader := res.Document.Node("surface_P")
	metal, rough := shader.Input("metalness"), shader.Input("specular_roughness")
	if metal.NodeGraph == "" || metal.NodeGraph != rough.NodeGraph || metal.Output != rough.Output {
		t.Errorf("consumers disagree: %+v vs %+v", metal, rough)
	}
	if len(res.Document.NodeGraph("NG_m").Outputs) != 1 {
		t.Error("graph output duplicated")
	}
}

func TestConstantSharingThreshold(t *testing.T) {
	b := newGraph(t)
	p := b.add(principled("P",
		source.Input{Name: "Metallic", Type: types.Float, Value: 0.7},
		source.Input{Name: "Roughness", Type: types.Float, Value: 0.35},
		source.Input{Name: "Coat Roughness", Type: types.Float, Value: 0.35},
	))

	res := mustTranslate(t, Options{}, b.g, p, "m")
	shader := res.Document.Node("surface_P")
	if got := shader.Input("metalness"); got.Value != "0.7" || got.IsConnected() {
		t.Errorf("single-use literal not inlined: %+v", got)
	}

	consts := graphNodes(res.Document, "constant")
	if len(consts) != 1 || consts[0].Input("value").Value != "0.35" {
		t.Fatalf("constants = %+v", consts)
	}
	rough, coat := shader.Input("specular_roughness"), shader.Input("coat_roughness")
	if rough.NodeGraph == "" || rough.Output != coat.Output || rough.Value != "" {
		t.Errorf("shared literal not referenced: %+v %+v", rough, coat)
	}
	if res.Stats.SharedConstants != 1 {
		t.Errorf("SharedConstants = %d", res.Stats.SharedConstants)
	}
	if !res.Report.Valid {
		t.Errorf("report = %+v", res.Report)
	}
}

// unsupportedGraph feeds an image through an unmapped sky texture into
// the shader.
func unsupportedGraph(t *testing.T) (*source.Graph, source.NodeID) {
	b := newGraph(t)
	img := b.add(image("Img", "clouds.png"))
	sky := b.add(source.Node{
		Name: "Sky", Category: "sky-texture",
		Inputs:  []source.Input{{Name: "Vector", Type: types.Vector3}},
		Outputs: []source.Output{{Name: "Color", Type: types.Color4}},
	})
	p := b.add(principled("P"))
	b.link(img, "Color", sky, 0)
	b.link(sky, "Color", p, 0)
	return b.g, p
}

func TestStrictModeFails(t *testing.T) {
	g, root := unsupportedGraph(t)
	tr, _ := New(Options{Strict: true})
	res, err := tr.Translate(g, root, "m")
	if !errs.Is(err, errs.ErrCodeUnsupportedCategory) {
		t.Fatalf("err = %v, want UNSUPPORTED_CATEGORY", err)
	}
	if res == nil || res.Success || res.Document != nil || res.FailedNode != "Sky" {
		t.Errorf("result = %+v", res)
	}
	// The image was translated before the sky texture failed.
	if res.Stats.SourceNodes != 1 || res.Stats.TargetNodes == 0 {
		t.Errorf("Stats = %+v", res.Stats)
	}
}

func TestLenientModePlaceholder(t *testing.T) {
	g, root := unsupportedGraph(t)
	res := mustTranslate(t, Options{}, g, root, "m")

	if len(res.Unsupported) != 1 || res.Unsupported[0] != (Unsupported{Category: "sky-texture", Name: "Sky"}) {
		t.Errorf("Unsupported = %+v", res.Unsupported)
	}
	if !res.Degraded() {
		t.Error("Degraded = false")
	}
	ph := res.Document.NodeGraph("NG_m").Node("unknown_Sky")
	if ph == nil || ph.Input("value").Value != "1, 0, 1" || ph.Doc == "" {
		t.Fatalf("placeholder = %+v", ph)
	}
	if !res.Report.Valid {
		t.Errorf("document invalid: %v", res.Report.Errors)
	}
	found := false
	for _, w := range res.Warnings {
		found = found || strings.Contains(w, "Sky")
	}
	if !found {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestLenientModeSkipsPlaceholderUpstream(t *testing.T) {
	g, root := unsupportedGraph(t)
	res := mustTranslate(t, Options{}, g, root, "m")

	if imgs := graphNodes(res.Document, "image"); len(imgs) != 0 {
		t.Errorf("upstream of the placeholder translated: %+v", imgs)
	}
	if len(res.Report.Warnings) != 0 || res.Report.Statistics.Connectivity != 1 {
		t.Errorf("report = %+v", res.Report)
	}
}

func TestLenientShaderPlaceholder(t *testing.T) {
	b := newGraph(t)
	root := b.add(unknown("Toon", "toon-bsdf", types.SurfaceShader))
	res := mustTranslate(t, Options{}, b.g, root, "m")
	shader := res.Document.Node("unknown_Toon")
	if shader == nil || shader.Type != types.SurfaceShader || shader.Input("base_color").Value != "1, 0, 1" {
		t.Fatalf("shader placeholder = %+v", shader)
	}
	if !res.Report.Valid {
		t.Errorf("report = %+v", res.Report)
	}
}

func TestCycleDetected(t *testing.T) {
	math := func(name string) source.Node {
		return source.Node{
			Name: name, Category: source.Math, Props: source.Props{"operation": "ADD"},
			Inputs: []source.Input{
				{Name: "Value", Type: types.Float, Value: 0.5},
				{Name: "Value", Type: types.Float, Value: 0.5},
			},
			Outputs: []source.Output{{Name: "Value", Type: types.Float}},
		}
	}
	for _, strict := range []bool{true, false} {
		t.Run(fmt.Sprintf("strict=%v", strict), func(t *testing.T) {
			b := newGraph(t)
			a := b.add(math("A"))
			c := b.add(math("B"))
			p := b.add(principled("P"))
			b.link(a, "Value", p, 2)
			b.link(c, "Value", a, 0)
			b.link(a, "Value", c, 1)

			tr, _ := New(Options{Strict: strict})
			res, err := tr.Translate(b.g, p, "m")
			if !errs.Is(err, errs.ErrCodeCyclicDependency) {
				t.Fatalf("err = %v, want CYCLIC_DEPENDENCY", err)
			}
			if res.Success || res.Document != nil || res.FailedNode != "A" {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestBuiltinConversion(t *testing.T) {
	b := newGraph(t)
	v := b.add(value("Gray", 0.5))
	p := b.add(principled("P"))
	b.link(v, "Value", p, 0)

	res := mustTranslate(t, Options{}, b.g, p, "m")
	convs := graphNodes(res.Document, mtlx.CategoryConvert)
	if len(convs) != 1 || convs[0].Type != types.Color3 || convs[0].Input("in").NodeName != "constant_Gray" {
		t.Fatalf("conversions = %+v", convs)
	}
	if res.Stats.Conversions != 1 || len(res.Document.NodeDefs) != 0 {
		t.Errorf("stats = %+v, defs = %d", res.Stats, len(res.Document.NodeDefs))
	}
	if len(res.Report.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Report.Warnings)
	}
}

func texturedMix(t *testing.T) (*source.Graph, source.NodeID) {
	b := newGraph(t)
	geo := b.add(source.Node{
		Name: "Geometry", Category: source.Geometry,
		Outputs: []source.Output{{Name: "Position", Type: types.Vector3}},
	})
	a := b.add(image("A", "a.png"))
	c := b.add(image("B", "b.png"))
	mix := b.add(source.Node{
		Name: "Mix", Category: source.Mix, Props: source.Props{"data_type": "RGBA"},
		Inputs: []source.Input{
			{Name: "Factor", Type: types.Float, Value: 0.5},
			{Name: "A", Type: types.Color4},
			{Name: "B", Type: types.Color4},
		},
		Outputs: []source.Output{{Name: "Result", Type: types.Color4}},
	})
	p := b.add(principled("P", source.Input{Name: "Roughness", Type: types.Float, Value: 0.5}))
	b.link(geo, "Position", a, 0)
	b.link(geo, "Position", c, 0)
	b.link(a, "Color", mix, 1)
	b.link(c, "Color", mix, 2)
	b.link(mix, "Result", p, 0)
	return b.g, p
}

func TestSynthesizedConversion(t *testing.T) {
	g, root := texturedMix(t)
	res := mustTranslate(t, Options{}, g, root, "m")
	doc := res.Document

	const category = "convert_vector3_to_vector2"
	convs := graphNodes(doc, category)
	if len(convs) != 1 {
		t.Fatalf("conversion nodes = %d, want one shared", len(convs))
	}
	if convs[0].NodeDef != "ND_"+category || doc.NodeDef("ND_"+category) == nil {
		t.Errorf("conversion = %+v", convs[0])
	}
	for _, name := range []string{"image_A", "image_B"} {
		img := doc.NodeGraph("NG_m").Node(name)
		if img.Input("texcoord").NodeName != convs[0].Name {
			t.Errorf("%s texcoord = %+v", name, img.Input("texcoord"))
		}
	}
	if res.Stats.Definitions != 1 || res.Stats.Conversions != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if !res.Report.Valid || len(res.Report.Warnings) != 0 {
		t.Errorf("report = %+v", res.Report)
	}
}

func TestRecipeFallback(t *testing.T) {
	b := newGraph(t)
	tex := b.add(image("Tex", "t.png"))
	curve := b.add(source.Node{
		Name: "Curves", Category: source.CurveRGB,
		Inputs: []source.Input{
			{Name: "Fac", Type: types.Float, Value: 1.0},
			{Name: "Color", Type: types.Color4},
		},
		Outputs: []source.Output{{Name: "Color", Type: types.Color4}},
	})
	p := b.add(principled("P"))
	b.link(tex, "Color", curve, 1)
	b.link(curve, "Color", p, 0)

	res := mustTranslate(t, Options{}, b.g, p, "m")
	inst := graphNodes(res.Document, "curvelookup")
	if len(inst) != 1 || inst[0].NodeDef != "ND_curvelookup_color3" {
		t.Fatalf("instances = %+v", inst)
	}
	if res.Document.Implementation("ND_curvelookup_color3") == nil {
		t.Error("implementation missing")
	}
	if len(res.Unsupported) != 0 || !res.Report.Valid {
		t.Errorf("unsupported = %v, report = %+v", res.Unsupported, res.Report)
	}
}

func TestShaderMix(t *testing.T) {
	b := newGraph(t)
	p1 := b.add(principled("Red", source.Input{Name: "Base Color", Type: types.Color4, Value: []any{1.0, 0.0, 0.0, 1.0}}))
	p2 := b.add(principled("Blue", source.Input{Name: "Base Color", Type: types.Color4, Value: []any{0.0, 0.0, 1.0, 1.0}}))
	mix := b.add(source.Node{
		Name: "Mix Shader", Category: source.MixShader,
		Inputs: []source.Input{
			{Name: "Fac", Type: types.Float, Value: 0.25},
			{Name: "Shader", Type: types.SurfaceShader},
			{Name: "Shader", Type: types.SurfaceShader},
		},
		Outputs: []source.Output{{Name: "Shader", Type: types.SurfaceShader}},
	})
	b.link(p1, "BSDF", mix, 1)
	b.link(p2, "BSDF", mix, 2)

	res := mustTranslate(t, Options{}, b.g, mix, "m")
	node := res.Document.Node("mix_Mix_Shader")
	if node == nil {
		t.Fatal("shader mix not at document level")
	}
	if node.Input("bg").NodeName != "surface_Red" || node.Input("fg").NodeName != "surface_Blue" {
		t.Errorf("mix inputs = %+v %+v", node.Input("bg"), node.Input("fg"))
	}
	if res.Document.NodeGraph("NG_m") == nil {
		t.Error("shared base literal should live in the node graph")
	}
	if !res.Report.Valid || res.Report.Statistics.Unused != 0 {
		t.Errorf("report = %+v", res.Report)
	}
}

func TestMaterialOutputRoot(t *testing.T) {
	b := newGraph(t)
	p := b.add(principled("P"))
	out := b.add(source.Node{
		Name: "Material Output", Category: source.MaterialOutput,
		Inputs: []source.Input{{Name: "Surface", Type: types.SurfaceShader}},
	})
	b.link(p, "BSDF", out, 0)

	res := mustTranslate(t, Options{}, b.g, out, "m")
	if res.Document.Node("surface_P") == nil {
		t.Error("shader not translated through material output")
	}

	b = newGraph(t)
	empty := b.add(source.Node{
		Name: "Material Output", Category: source.MaterialOutput,
		Inputs: []source.Input{{Name: "Surface", Type: types.SurfaceShader}},
	})
	tr, _ := New(Options{})
	if _, err := tr.Translate(b.g, empty, "m"); !errs.Is(err, errs.ErrCodeInvalidGraph) {
		t.Errorf("err = %v, want INVALID_GRAPH", err)
	}
}

func TestTranslateRejects(t *testing.T) {
	b := newGraph(t)
	p := b.add(principled("P"))
	v := b.add(value("V", 1))
	tr, _ := New(Options{})

	tests := []struct {
		name     string
		root     source.NodeID
		material string
		code     errs.Code
	}{
		{"bad material name", p, "../evil", errs.ErrCodeInvalidName},
		{"missing root", 99, "m", errs.ErrCodeNotFound},
		{"non-shader root", v, "m", errs.ErrCodeInvalidGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tr.Translate(b.g, tt.root, tt.material)
			if !errs.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
			if res == nil || res.Success {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestDeterministicOutput(t *testing.T) {
	render := func() []byte {
		g, root := texturedMix(t)
		res := mustTranslate(t, Options{}, g, root, "m")
		var buf bytes.Buffer
		if err := res.Document.WriteXML(&buf); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}
	first := render()
	for i := 0; i < 5; i++ {
		if !bytes.Equal(first, render()) {
			t.Fatal("output differs between runs")
		}
	}
}

func TestTranslateAll(t *testing.T) {
	good1, r1 := texturedMix(t)
	bad, r2 := unsupportedGraph(t)
	b := newGraph(t)
	r3 := b.add(principled("P"))
	materials := []source.Material{
		{Name: "one", Graph: good1, Root: r1},
		{Name: "two", Graph: bad, Root: r2},
		{Name: "three", Graph: b.g, Root: r3},
	}

	tr, _ := New(Options{Strict: true})
	results, err := tr.TranslateAll(context.Background(), materials, 2)
	if err == nil || !strings.Contains(err.Error(), "material two") {
		t.Fatalf("err = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	for i, want := range []bool{true, false, true} {
		if results[i].Success != want || results[i].Material != materials[i].Name {
			t.Errorf("results[%d] = %+v", i, results[i])
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.TranslateAll(ctx, materials, 1); err == nil {
		t.Error("cancelled batch returned no error")
	}
}

func ExampleTranslator_Translate() {
	g := source.New()
	tex, _ := g.AddNode(source.Node{
		Name: "Brick", Category: source.ImageTexture,
		Props:   source.Props{"image": "brick.png"},
		Outputs: []source.Output{{Name: "Color", Type: types.Color4}},
	})
	shader, _ := g.AddNode(source.Node{
		Name: "Surface", Category: source.PrincipledSurface,
		Inputs:  []source.Input{{Name: "Base Color", Type: types.Color4}},
		Outputs: []source.Output{{Name: "BSDF", Type: types.SurfaceShader}},
	})
	_ = g.Connect(tex, "Color", shader, 0)

	tr, _ := New(Options{})
	res, _ := tr.Translate(g, shader, "brick")
	for _, n := range res.Document.Nodes {
		fmt.Println(n.Category, n.Name)
	}
	fmt.Println("valid:", res.Report.Valid)
	// Output:
	// standard_surface surface_Surface
	// surfacematerial brick
	// valid: true
}
