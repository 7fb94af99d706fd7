// Package catalog provides the built-in node signatures that translations
// target.
//
// The default catalog is compiled from an embedded TOML file and parsed
// once. Additional catalogs can be loaded with [Load] and combined with
// [Catalog.Merge], so deployments can describe custom target nodes without
// code changes.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/types"
)

//go:embed stdlib.toml
var stdlib string

// Input describes one input of a signature.
type Input struct {
	Name     string     `toml:"name"`
	Type     types.Type `toml:"type"`
	Value    string     `toml:"value"`
	Required bool       `toml:"required"`
}

// Output describes one named output of a multi-output signature.
type Output struct {
	Name string     `toml:"name"`
	Type types.Type `toml:"type"`
}

// Def is a node signature: a category, its output type and its inputs.
type Def struct {
	Name    string     `toml:"name"`
	Node    string     `toml:"node"`
	Type    types.Type `toml:"type"`
	Group   string     `toml:"group"`
	Doc     string     `toml:"doc"`
	Inputs  []Input    `toml:"inputs"`
	Outputs []Output   `toml:"outputs"`
}

// Input returns the input named name.
func (d *Def) Input(name string) (Input, bool) {
	for _, in := range d.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// Default returns the parsed default of input name. It reports false when
// the input is unknown or has no default.
func (d *Def) Default(name string) (types.Value, bool) {
	in, ok := d.Input(name)
	if !ok || in.Value == "" {
		return types.Value{}, false
	}
	v, err := types.ParseValue(in.Value, in.Type)
	if err != nil {
		return types.Value{}, false
	}
	return v, true
}

// Required returns the names of inputs a valid document must set.
func (d *Def) Required() []string {
	var out []string
	for _, in := range d.Inputs {
		if in.Required {
			out = append(out, in.Name)
		}
	}
	return out
}

// Output returns the named output. Single-output signatures expose
// [mtlx.DefaultOutput] typed as the signature.
func (d *Def) Output(name string) (Output, bool) {
	if len(d.Outputs) == 0 {
		if name == "" || name == mtlx.DefaultOutput {
			return Output{Name: mtlx.DefaultOutput, Type: d.Type}, true
		}
		return Output{}, false
	}
	for _, o := range d.Outputs {
		if o.Name == name {
			return o, true
		}
	}
	return Output{}, false
}

// IsShader reports whether the signature produces a shader-bearing type.
func (d *Def) IsShader() bool { return d.Type.IsShader() }

// NodeDef converts the signature into a document definition.
func (d *Def) NodeDef() *mtlx.NodeDef {
	nd := &mtlx.NodeDef{Name: d.Name, Node: d.Node, Type: d.Type, NodeGroup: d.Group, Doc: d.Doc}
	for _, in := range d.Inputs {
		nd.Inputs = append(nd.Inputs, &mtlx.Input{Name: in.Name, Type: in.Type, Value: in.Value})
	}
	if len(d.Outputs) == 0 {
		nd.Outputs = append(nd.Outputs, &mtlx.Output{Name: mtlx.DefaultOutput, Type: d.Type})
	}
	for _, o := range d.Outputs {
		nd.Outputs = append(nd.Outputs, &mtlx.Output{Name: o.Name, Type: o.Type})
	}
	return nd
}

// Catalog is an immutable set of signatures indexed by name and category.
// It is safe for concurrent use.
type Catalog struct {
	version string
	defs    []*Def
	byName  map[string]*Def
	byNode  map[string][]*Def
}

type file struct {
	Version string `toml:"version"`
	NodeDef []*Def `toml:"nodedef"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := parse(stdlib)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded stdlib: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load decodes a catalog from TOML.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parse(string(data))
}

// LoadFile decodes the catalog TOML file at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func parse(data string) (*Catalog, error) {
	var f file
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode catalog")
	}
	c := newCatalog(f.Version)
	for _, d := range f.NodeDef {
		if err := c.add(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newCatalog(version string) *Catalog {
	return &Catalog{
		version: version,
		byName:  make(map[string]*Def),
		byNode:  make(map[string][]*Def),
	}
}

func (c *Catalog) add(d *Def) error {
	if d.Name == "" || d.Node == "" {
		return errs.New(errs.ErrCodeInvalidInput, "nodedef needs name and node")
	}
	if !d.Type.Valid() {
		return errs.New(errs.ErrCodeInvalidInput, "nodedef %s: unknown type %q", d.Name, d.Type)
	}
	for _, in := range d.Inputs {
		if !in.Type.Valid() {
			return errs.New(errs.ErrCodeInvalidInput, "nodedef %s input %s: unknown type %q", d.Name, in.Name, in.Type)
		}
	}
	if _, dup := c.byName[d.Name]; dup {
		return errs.New(errs.ErrCodeInvalidInput, "duplicate nodedef %s", d.Name)
	}
	c.defs = append(c.defs, d)
	c.byName[d.Name] = d
	c.byNode[d.Node] = append(c.byNode[d.Node], d)
	return nil
}

// Merge returns a catalog holding c's signatures plus other's. Signatures in
// other replace same-named ones in c.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	out := newCatalog(c.version)
	for _, d := range c.defs {
		if _, replaced := other.byName[d.Name]; replaced {
			continue
		}
		_ = out.add(d)
	}
	for _, d := range other.defs {
		_ = out.add(d)
	}
	return out
}

// Version returns the target document version the catalog describes.
func (c *Catalog) Version() string { return c.version }

// Def returns the signature named name.
func (c *Catalog) Def(name string) (*Def, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// Lookup returns the signature of category node producing type t. For
// multi-output categories t is matched against the type of the "in" input.
func (c *Catalog) Lookup(node string, t types.Type) (*Def, bool) {
	for _, d := range c.byNode[node] {
		if d.Type == t {
			return d, true
		}
	}
	for _, d := range c.byNode[node] {
		if d.Type != types.MultiOutput {
			continue
		}
		if in, ok := d.Input("in"); ok && in.Type == t {
			return d, true
		}
	}
	return nil, false
}

// Has reports whether any signature exists for category node.
func (c *Catalog) Has(node string) bool { return len(c.byNode[node]) > 0 }

// Variants returns every signature of category node.
func (c *Catalog) Variants(node string) []*Def { return slices.Clone(c.byNode[node]) }

// Defs returns all signatures in load order.
func (c *Catalog) Defs() []*Def { return slices.Clone(c.defs) }

// Nodes returns the sorted category names.
func (c *Catalog) Nodes() []string {
	out := make([]string, 0, len(c.byNode))
	for n := range c.byNode {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ConversionName returns the built-in definition name converting from to to.
func ConversionName(from, to types.Type) string {
	return "ND_convert_" + string(from) + "_" + string(to)
}
