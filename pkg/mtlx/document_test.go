package mtlx

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/mtlxport/pkg/types"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Principled BSDF", "Principled_BSDF"},
		{"Mix.001", "Mix_001"},
		{"3D Noise", "n3D_Noise"},
		{"", "node"},
		{"  ", "node"},
		{"ok_name", "ok_name"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUniqueNames(t *testing.T) {
	doc := NewDocument()
	g := doc.AddNodeGraph("NG_Mat")
	a := g.AddNode("constant", types.Float, "value")
	b := g.AddNode("constant", types.Float, "value")
	c := g.AddNode("constant", types.Float, "value")
	if a.Name != "value" || b.Name != "value_1" || c.Name != "value_2" {
		t.Errorf("names = %s, %s, %s", a.Name, b.Name, c.Name)
	}

	o := g.AddOutput("value", types.Float, a.Name, DefaultOutput)
	if o.Name != "value_3" {
		t.Errorf("output name = %q, want value_3", o.Name)
	}
	if got := g.OutputFor(a.Name, ""); got != o {
		t.Errorf("OutputFor = %v, want %v", got, o)
	}

	n := doc.AddNode("standard_surface", types.SurfaceShader, "NG_Mat")
	if n.Name != "NG_Mat_1" {
		t.Errorf("document-level name = %q, want NG_Mat_1", n.Name)
	}
}

func TestMaterials(t *testing.T) {
	doc := NewDocument()
	shader := doc.AddNode("standard_surface", types.SurfaceShader, "surface")
	m := doc.AddMaterial("Mat", shader)
	if got := doc.Materials(); len(got) != 1 || got[0] != m {
		t.Fatalf("Materials() = %v", got)
	}
	in := m.Input(MaterialShaderInput)
	if in == nil || in.NodeName != shader.Name || in.Output != "" {
		t.Errorf("material input = %+v", in)
	}
}

func TestInputReferences(t *testing.T) {
	n := &Node{Name: "n", Category: "add", Type: types.Float}
	n.SetValue("in1", types.FloatValue(0.5))
	in := n.Connect("in1", types.Float, "other", "outx")
	if in.Value != "" || in.NodeName != "other" || in.Output != "outx" {
		t.Errorf("Connect did not replace literal: %+v", in)
	}
	in = n.ConnectGraph("in1", types.Float, "NG", "out1")
	if in.NodeName != "" || in.NodeGraph != "NG" {
		t.Errorf("ConnectGraph = %+v", in)
	}
	in.SetValue(types.FloatValue(1))
	if in.IsConnected() || in.Value != "1" {
		t.Errorf("SetValue = %+v", in)
	}
	if len(n.Inputs) != 1 {
		t.Errorf("len(Inputs) = %d, want 1", len(n.Inputs))
	}
}

func TestAddNodeDefConflict(t *testing.T) {
	doc := NewDocument()
	if err := doc.AddNodeDef(&NodeDef{Name: "ND_x", Node: "x", Type: types.Float}); err != nil {
		t.Fatal(err)
	}
	if err := doc.AddNodeDef(&NodeDef{Name: "ND_x", Node: "x", Type: types.Float}); err == nil {
		t.Error("duplicate AddNodeDef: want error")
	}
	if doc.NodeDefFor("x", types.Float) == nil {
		t.Error("NodeDefFor returned nil")
	}
}

func TestClone(t *testing.T) {
	doc := sampleDocument()
	c := doc.Clone()
	if !reflect.DeepEqual(doc, c) {
		t.Fatal("clone differs from original")
	}
	c.NodeGraphs[0].Nodes[0].Inputs[0].Value = "changed"
	c.Nodes[0].Name = "changed"
	if doc.NodeGraphs[0].Nodes[0].Inputs[0].Value == "changed" || doc.Nodes[0].Name == "changed" {
		t.Error("mutating clone changed original")
	}
}

func TestXMLRoundTrip(t *testing.T) {
	doc := sampleDocument()
	data, err := doc.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`<materialx version="1.38">`,
		`<nodedef name="ND_curvelookup_color3" node="curvelookup" nodegroup="adjustment">`,
		`<nodegraph name="NG_Mat">`,
		`<image name="image_Tex" type="color3">`,
		`colorspace="srgb_texture"`,
		`<surfacematerial name="Mat" type="material">`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("XML missing %s\n%s", want, data)
		}
	}

	back, err := ReadXML(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadXML: %v", err)
	}
	if !reflect.DeepEqual(doc, back) {
		t.Errorf("round trip mismatch\nwant %+v\ngot  %+v", doc, back)
	}
}

func TestReadXMLErrors(t *testing.T) {
	for _, in := range []string{"", "<other/>", "<materialx>"} {
		if _, err := ReadXML(strings.NewReader(in)); err == nil {
			t.Errorf("ReadXML(%q): want error", in)
		}
	}
}

func sampleDocument() *Document {
	doc := NewDocument()
	_ = doc.AddNodeDef(&NodeDef{
		Name: "ND_curvelookup_color3", Node: "curvelookup", Type: types.Color3, NodeGroup: "adjustment",
		Inputs:  []*Input{{Name: "in", Type: types.Color3, Value: "0, 0, 0"}},
		Outputs: []*Output{{Name: "out", Type: types.Color3}},
	})
	g := doc.AddNodeGraph("NG_Mat")
	img := g.AddNode("image", types.Color3, "image_Tex")
	file := img.SetValue("file", types.FilenameValue("tex/wood.png"))
	file.ColorSpace = "srgb_texture"
	g.AddOutput("base_color_out", types.Color3, img.Name, DefaultOutput)

	shader := doc.AddNode("standard_surface", types.SurfaceShader, "surface_Principled")
	shader.ConnectGraph("base_color", types.Color3, g.Name, "base_color_out")
	shader.SetValue("metalness", types.FloatValue(1))
	doc.AddMaterial("Mat", shader)
	return doc
}
