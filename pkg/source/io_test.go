package source

import (
	"bytes"
	"strings"
	"testing"

	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/types"
)

const sampleJSON = `{
  "materials": [{
    "name": "Red Plastic",
    "nodes": [
      {"name": "Material Output", "category": "material-output",
       "inputs": [{"name": "Surface", "type": "SHADER", "link": {"node": "Principled BSDF", "output": "BSDF"}}]},
      {"name": "Principled BSDF", "category": "principled-surface",
       "inputs": [
         {"name": "Base Color", "type": "RGBA", "value": [0.8, 0.1, 0.1, 1]},
         {"name": "Roughness", "type": "VALUE", "link": {"node": "Noise"}}
       ],
       "outputs": [{"name": "BSDF", "type": "SHADER"}]},
      {"name": "Noise", "category": "noise-texture",
       "inputs": [{"name": "Scale", "type": "VALUE", "value": 5}],
       "outputs": [{"name": "Fac", "type": "VALUE"}, {"name": "Color", "type": "RGBA"}]}
    ]
  }]
}`

const sampleTOML = `
[[materials]]
name = "Gray"
root = "Surface"

[[materials.nodes]]
name = "Surface"
category = "principled-surface"
outputs = [{ name = "BSDF", type = "SHADER" }]

[[materials.nodes.inputs]]
name = "Base Color"
type = "RGBA"
value = [0.5, 0.5, 0.5, 1.0]

[[materials.nodes.inputs]]
name = "Metallic"
type = "VALUE"
value = 1
`

func TestReadJSON(t *testing.T) {
	f, err := ReadJSON(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	m, ok := f.Material("Red Plastic")
	if !ok {
		t.Fatal("material not found")
	}
	root, _ := m.Graph.Node(m.Root)
	if root.Name != "Principled BSDF" {
		t.Errorf("root = %q, want Principled BSDF", root.Name)
	}
	rough, _, _ := root.Input("Roughness")
	if !rough.Connected() {
		t.Fatal("Roughness not connected")
	}
	if rough.Link.Output != "Fac" {
		t.Errorf("default link output = %q, want first output Fac", rough.Link.Output)
	}
	if root.Inputs[0].Type != types.Color4 {
		t.Errorf("RGBA socket type = %v, want color4", root.Inputs[0].Type)
	}
}

func TestReadTOML(t *testing.T) {
	f, err := ReadTOML(strings.NewReader(sampleTOML))
	if err != nil {
		t.Fatalf("ReadTOML: %v", err)
	}
	m := f.Materials[0]
	root, _ := m.Graph.Node(m.Root)
	metallic, _, _ := root.Input("Metallic")
	v, err := metallic.Literal()
	if err != nil {
		t.Fatalf("Literal: %v", err)
	}
	if v.Scalar() != 1 {
		t.Errorf("Metallic = %v, want 1", v)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errs.Code
	}{
		{"malformed", `{`, errs.ErrCodeInvalidFormat},
		{"no materials", `{"materials": []}`, errs.ErrCodeInvalidInput},
		{"bad material name", `{"materials": [{"name": "../x", "nodes": []}]}`, errs.ErrCodeInvalidName},
		{"unknown link", `{"materials": [{"name": "M", "nodes": [
			{"name": "A", "category": "math", "inputs": [{"name": "Value", "link": {"node": "Z"}}]}]}]}`, errs.ErrCodeInvalidGraph},
		{"bad socket type", `{"materials": [{"name": "M", "nodes": [
			{"name": "A", "category": "math", "inputs": [{"name": "Value", "type": "QUATERNION"}]}]}]}`, errs.ErrCodeInvalidGraph},
		{"no root", `{"materials": [{"name": "M", "nodes": [{"name": "A", "category": "math"}]}]}`, errs.ErrCodeInvalidGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("ReadJSON() error = nil")
			}
			if !errs.Is(err, tt.code) {
				t.Errorf("ReadJSON() code = %v, want %v (%v)", errs.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	f, err := ReadJSON(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}
	var first bytes.Buffer
	if err := WriteJSON(&first, f.Materials...); err != nil {
		t.Fatal(err)
	}
	again, err := ReadJSON(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	var second bytes.Buffer
	if err := WriteJSON(&second, again.Materials...); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Errorf("WriteJSON not stable:\n%s\n---\n%s", first.String(), second.String())
	}
}
