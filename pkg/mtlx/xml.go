package mtlx

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/matzehuels/mtlxport/pkg/types"
)

const (
	elemRoot      = "materialx"
	elemNodeDef   = "nodedef"
	elemNodeGraph = "nodegraph"
	elemInput     = "input"
	elemOutput    = "output"
)

// WriteXML encodes d as an indented MaterialX document.
// Definitions come first, then node graphs, then document-level nodes.
func (d *Document) WriteXML(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := start(elemRoot, "version", d.Version)
	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	for _, nd := range d.NodeDefs {
		if err := encodeNodeDef(enc, nd); err != nil {
			return err
		}
	}
	for _, g := range d.NodeGraphs {
		if err := encodeNodeGraph(enc, g); err != nil {
			return err
		}
	}
	for _, n := range d.Nodes {
		if err := encodeNode(enc, n); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Bytes returns the XML encoding of d.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.WriteXML(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes d as indented JSON.
func (d *Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// start builds a start element from alternating name/value attribute pairs,
// dropping attributes with empty values.
func start(name string, attrs ...string) xml.StartElement {
	el := xml.StartElement{Name: xml.Name{Local: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" {
			continue
		}
		el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	return el
}

func encodeEmpty(enc *xml.Encoder, el xml.StartElement) error {
	if err := enc.EncodeToken(el); err != nil {
		return err
	}
	return enc.EncodeToken(el.End())
}

func encodeInput(enc *xml.Encoder, in *Input) error {
	return encodeEmpty(enc, start(elemInput,
		"name", in.Name,
		"type", string(in.Type),
		"value", in.Value,
		"colorspace", in.ColorSpace,
		"nodename", in.NodeName,
		"nodegraph", in.NodeGraph,
		"output", in.Output,
		"interfacename", in.InterfaceName,
		"defaultgeomprop", in.DefaultGeomProp,
	))
}

func encodeOutput(enc *xml.Encoder, o *Output) error {
	return encodeEmpty(enc, start(elemOutput,
		"name", o.Name,
		"type", string(o.Type),
		"nodename", o.NodeName,
		"output", o.Output,
	))
}

func encodeNode(enc *xml.Encoder, n *Node) error {
	el := start(n.Category, "name", n.Name, "type", string(n.Type), "nodedef", n.NodeDef, "doc", n.Doc)
	if err := enc.EncodeToken(el); err != nil {
		return err
	}
	for _, in := range n.Inputs {
		if err := encodeInput(enc, in); err != nil {
			return err
		}
	}
	return enc.EncodeToken(el.End())
}

func encodeNodeGraph(enc *xml.Encoder, g *NodeGraph) error {
	el := start(elemNodeGraph, "name", g.Name, "nodedef", g.NodeDef, "doc", g.Doc)
	if err := enc.EncodeToken(el); err != nil {
		return err
	}
	for _, n := range g.Nodes {
		if err := encodeNode(enc, n); err != nil {
			return err
		}
	}
	for _, o := range g.Outputs {
		if err := encodeOutput(enc, o); err != nil {
			return err
		}
	}
	return enc.EncodeToken(el.End())
}

func encodeNodeDef(enc *xml.Encoder, nd *NodeDef) error {
	el := start(elemNodeDef, "name", nd.Name, "node", nd.Node, "nodegroup", nd.NodeGroup, "doc", nd.Doc)
	if err := enc.EncodeToken(el); err != nil {
		return err
	}
	for _, in := range nd.Inputs {
		if err := encodeInput(enc, in); err != nil {
			return err
		}
	}
	for _, o := range nd.Outputs {
		if err := encodeOutput(enc, o); err != nil {
			return err
		}
	}
	return enc.EncodeToken(el.End())
}

// ReadXML decodes a MaterialX document. Elements other than definitions,
// node graphs, nodes, inputs and outputs are skipped.
func ReadXML(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	doc := &Document{}
	var (
		graph   *NodeGraph
		nodedef *NodeDef
		node    *Node
		sawRoot bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			a := attrs(el)
			switch name := el.Name.Local; {
			case !sawRoot:
				if name != elemRoot {
					return nil, fmt.Errorf("root element is <%s>, want <%s>", name, elemRoot)
				}
				sawRoot = true
				doc.Version = a["version"]
			case name == elemNodeDef && graph == nil && nodedef == nil && node == nil:
				nodedef = &NodeDef{Name: a["name"], Node: a["node"], Type: types.Type(a["type"]), NodeGroup: a["nodegroup"], Doc: a["doc"]}
				doc.NodeDefs = append(doc.NodeDefs, nodedef)
			case name == elemNodeGraph && graph == nil && nodedef == nil && node == nil:
				graph = &NodeGraph{Name: a["name"], NodeDef: a["nodedef"], Doc: a["doc"]}
				doc.NodeGraphs = append(doc.NodeGraphs, graph)
			case name == elemInput:
				in := &Input{
					Name: a["name"], Type: types.Type(a["type"]), Value: a["value"],
					ColorSpace: a["colorspace"], NodeName: a["nodename"], NodeGraph: a["nodegraph"],
					Output: a["output"], InterfaceName: a["interfacename"],
					DefaultGeomProp: a["defaultgeomprop"],
				}
				switch {
				case node != nil:
					node.Inputs = append(node.Inputs, in)
				case nodedef != nil:
					nodedef.Inputs = append(nodedef.Inputs, in)
				}
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			case name == elemOutput:
				o := &Output{Name: a["name"], Type: types.Type(a["type"]), NodeName: a["nodename"], Output: a["output"]}
				switch {
				case nodedef != nil:
					nodedef.Outputs = append(nodedef.Outputs, o)
				case graph != nil:
					graph.Outputs = append(graph.Outputs, o)
				}
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			case node == nil && nodedef == nil:
				node = &Node{Name: a["name"], Category: name, Type: types.Type(a["type"]), NodeDef: a["nodedef"], Doc: a["doc"]}
				if graph != nil {
					graph.Nodes = append(graph.Nodes, node)
				} else {
					doc.Nodes = append(doc.Nodes, node)
				}
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			switch {
			case node != nil && el.Name.Local == node.Category:
				node = nil
			case nodedef != nil && el.Name.Local == elemNodeDef:
				if nodedef.Type == "" && len(nodedef.Outputs) > 0 {
					nodedef.Type = nodedef.Outputs[0].Type
				}
				nodedef = nil
			case graph != nil && el.Name.Local == elemNodeGraph:
				graph = nil
			}
		}
	}
	if !sawRoot {
		return nil, fmt.Errorf("empty document")
	}
	return doc, nil
}

func attrs(el xml.StartElement) map[string]string {
	m := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		m[a.Name.Local] = a.Value
	}
	return m
}
