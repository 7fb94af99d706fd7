package source

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// Material is one material's node graph and the node producing its surface.
type Material struct {
	Name  string
	Graph *Graph
	Root  NodeID
}

// File is a decoded source file.
type File struct {
	Materials []Material
}

// Material returns the material with the given name.
func (f *File) Material(name string) (Material, bool) {
	for _, m := range f.Materials {
		if m.Name == name {
			return m, true
		}
	}
	return Material{}, false
}

type fileDoc struct {
	Materials []materialDoc `json:"materials" toml:"materials"`
}

type materialDoc struct {
	Name  string    `json:"name" toml:"name"`
	Root  string    `json:"root,omitempty" toml:"root"`
	Nodes []nodeDoc `json:"nodes" toml:"nodes"`
}

type nodeDoc struct {
	Name     string         `json:"name" toml:"name"`
	Category string         `json:"category" toml:"category"`
	Inputs   []inputDoc     `json:"inputs,omitempty" toml:"inputs"`
	Outputs  []outputDoc    `json:"outputs,omitempty" toml:"outputs"`
	Props    map[string]any `json:"props,omitempty" toml:"props"`
}

type inputDoc struct {
	Name  string   `json:"name" toml:"name"`
	Type  string   `json:"type" toml:"type"`
	Value any      `json:"value,omitempty" toml:"value"`
	Link  *linkDoc `json:"link,omitempty" toml:"link"`
}

type linkDoc struct {
	Node   string `json:"node" toml:"node"`
	Output string `json:"output" toml:"output"`
}

type outputDoc struct {
	Name string `json:"name" toml:"name"`
	Type string `json:"type" toml:"type"`
}

// ReadJSON decodes a JSON source file from r.
//
// ReadJSON returns an error if the JSON is malformed, a node has a duplicate
// name or unknown socket type, a link references an unknown node, or a
// material's root cannot be determined. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*File, error) {
	var doc fileDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode json")
	}
	return build(doc)
}

// ReadTOML decodes a TOML source file from r. The layout mirrors the JSON
// format with [[materials]] and [[materials.nodes]] tables.
func ReadTOML(r io.Reader) (*File, error) {
	var doc fileDoc
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode toml")
	}
	return build(doc)
}

// ReadFile opens path and decodes it by extension (.json or .toml).
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(f)
	case ".toml":
		return ReadTOML(f)
	}
	return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported source file extension: %s", filepath.Ext(path))
}

func build(doc fileDoc) (*File, error) {
	if len(doc.Materials) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "file contains no materials")
	}
	file := &File{}
	for _, md := range doc.Materials {
		if err := errs.ValidateMaterialName(md.Name); err != nil {
			return nil, err
		}
		g, err := buildGraph(md.Nodes)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidGraph, err, "material %s", md.Name)
		}
		root, err := FindRoot(g, md.Root)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidGraph, err, "material %s", md.Name)
		}
		file.Materials = append(file.Materials, Material{Name: md.Name, Graph: g, Root: root})
	}
	return file, nil
}

func buildGraph(nodes []nodeDoc) (*Graph, error) {
	g := New()
	for _, nd := range nodes {
		n := Node{Name: nd.Name, Category: Category(nd.Category), Props: nd.Props}
		if err := errs.ValidateCategory(nd.Category); err != nil {
			return nil, fmt.Errorf("node %s: %w", nd.Name, err)
		}
		for _, in := range nd.Inputs {
			t, err := parseSocketType(in.Type)
			if err != nil {
				return nil, fmt.Errorf("node %s input %s: %w", nd.Name, in.Name, err)
			}
			n.Inputs = append(n.Inputs, Input{Name: in.Name, Type: t, Value: in.Value})
		}
		for _, out := range nd.Outputs {
			t, err := parseSocketType(out.Type)
			if err != nil {
				return nil, fmt.Errorf("node %s output %s: %w", nd.Name, out.Name, err)
			}
			n.Outputs = append(n.Outputs, Output{Name: out.Name, Type: t})
		}
		if _, err := g.AddNode(n); err != nil {
			return nil, err
		}
	}

	for i, nd := range nodes {
		for j, in := range nd.Inputs {
			if in.Link == nil {
				continue
			}
			from, ok := g.NodeByName(in.Link.Node)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s links to %q", ErrUnknownNode, nd.Name, in.Name, in.Link.Node)
			}
			output := in.Link.Output
			if output == "" && len(from.Outputs) > 0 {
				output = from.Outputs[0].Name
			}
			if err := g.Connect(from.ID, output, NodeID(i), j); err != nil {
				return nil, err
			}
		}
	}
	return g, g.Validate()
}

func parseSocketType(s string) (types.Type, error) {
	if s == "" {
		return types.Float, nil
	}
	t, ok := types.Parse(s)
	if !ok {
		return "", errs.New(errs.ErrCodeInvalidInput, "unknown socket type %q", s)
	}
	return t, nil
}

func validateName(name string) error {
	return errs.ValidateNodeName(name)
}

// FindRoot locates a material's root node. A non-empty name selects that
// node. Otherwise the root is the node linked into the Surface input of the
// material-output node, falling back to the first node producing a shader.
func FindRoot(g *Graph, name string) (NodeID, error) {
	if name != "" {
		n, ok := g.NodeByName(name)
		if !ok {
			return None, fmt.Errorf("%w: root %q", ErrUnknownNode, name)
		}
		return n.ID, nil
	}
	for _, n := range g.Nodes() {
		if n.Category != MaterialOutput {
			continue
		}
		if in, _, ok := n.Input("Surface"); ok && in.Link != nil {
			return in.Link.From, nil
		}
	}
	for _, n := range g.Nodes() {
		if n.Category != MaterialOutput && n.Produces().IsShader() {
			return n.ID, nil
		}
	}
	return None, errs.New(errs.ErrCodeNotFound, "no shader-producing root node")
}

// WriteJSON encodes materials in the JSON source format. Output is
// deterministic for a given graph, which makes it usable as a cache key.
func WriteJSON(w io.Writer, materials ...Material) error {
	doc := fileDoc{}
	for _, m := range materials {
		doc.Materials = append(doc.Materials, encodeMaterial(m))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func encodeMaterial(m Material) materialDoc {
	md := materialDoc{Name: m.Name}
	if root, ok := m.Graph.Node(m.Root); ok {
		md.Root = root.Name
	}
	for _, n := range m.Graph.Nodes() {
		nd := nodeDoc{Name: n.Name, Category: string(n.Category)}
		if len(n.Props) > 0 {
			nd.Props = n.Props
		}
		for _, in := range n.Inputs {
			id := inputDoc{Name: in.Name, Type: string(in.Type)}
			if in.Link != nil {
				if from, ok := m.Graph.Node(in.Link.From); ok {
					id.Link = &linkDoc{Node: from.Name, Output: in.Link.Output}
				}
			} else {
				id.Value = in.Value
			}
			nd.Inputs = append(nd.Inputs, id)
		}
		for _, out := range n.Outputs {
			nd.Outputs = append(nd.Outputs, outputDoc{Name: out.Name, Type: string(out.Type)})
		}
		md.Nodes = append(md.Nodes, nd)
	}
	return md
}
