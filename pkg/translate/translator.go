package translate

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mtlxport/pkg/catalog"
	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/mapper"
	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/types"
	"github.com/matzehuels/mtlxport/pkg/validate"
)

// Options configures a [Translator].
type Options struct {
	// Strict aborts on the first node that cannot be mapped. Otherwise such
	// nodes become placeholders and are listed in Result.Unsupported.
	Strict bool
	// Registry resolves categories to mappers. Nil selects mapper.Default.
	Registry *mapper.Registry
	// Catalog is the built-in signature catalog. Nil selects catalog.Default.
	Catalog *catalog.Catalog
	// Logger receives per-node debug lines and warnings. Nil discards.
	Logger *log.Logger
	// Validate configures the final document check.
	Validate validate.Options
}

// Unsupported identifies a source node replaced by a placeholder.
type Unsupported struct {
	Category source.Category `json:"category"`
	Name     string          `json:"name"`
}

// Stats counts what a translation produced.
type Stats struct {
	SourceNodes     int `json:"source_nodes"` // Mapped source nodes
	TargetNodes     int `json:"target_nodes"`
	SharedConstants int `json:"shared_constants"`
	InlineValues    int `json:"inline_values"`
	Conversions     int `json:"conversions"`
	Definitions     int `json:"definitions"` // Synthesized definitions
}

// Result is the outcome of translating one material.
type Result struct {
	Success  bool
	Material string
	// Document is nil when translation failed.
	Document    *mtlx.Document
	Unsupported []Unsupported
	Warnings    []string
	Report      *validate.Report
	// FailedNode names the source node that aborted a failed translation.
	FailedNode string
	// Err is the error returned alongside a failed Result.
	Err   error `json:"-"`
	Stats Stats
}

// Degraded reports whether placeholders were emitted.
func (r *Result) Degraded() bool { return len(r.Unsupported) > 0 }

// Translator translates source graphs. It holds only immutable
// configuration and is safe for concurrent use.
type Translator struct {
	opts Options
}

// New returns a translator, filling unset options with defaults.
func New(opts Options) (*Translator, error) {
	if opts.Registry == nil {
		r, err := mapper.Default()
		if err != nil {
			return nil, err
		}
		opts.Registry = r
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Validate.Catalog == nil {
		opts.Validate.Catalog = opts.Catalog
	}
	return &Translator{opts: opts}, nil
}

// Strict reports whether the translator runs in strict mode.
func (t *Translator) Strict() bool { return t.opts.Strict }

// Severities describes the validator severities, for cache keys and logs.
func (t *Translator) Severities() string {
	return t.opts.Validate.String()
}

// Translate translates the graph reachable from root into a document with
// one material named material. Root may be the shader itself or a
// material-output node.
//
// On failure the returned Result is non-nil with Success false, no
// Document and FailedNode set when a node caused it.
func (t *Translator) Translate(g source.Accessor, root source.NodeID, material string) (*Result, error) {
	res, err := t.translate(g, root, material)
	res.Err = err
	return res, err
}

func (t *Translator) translate(g source.Accessor, root source.NodeID, material string) (*Result, error) {
	res := &Result{Material: material}
	if err := errs.ValidateMaterialName(material); err != nil {
		return res, err
	}
	if g == nil {
		return res, errs.New(errs.ErrCodeInvalidInput, "no source graph")
	}
	n, ok := g.Node(root)
	if !ok {
		return res, errs.New(errs.ErrCodeNotFound, "root node %d not found", root)
	}
	if n.Category == source.MaterialOutput {
		in, _, ok := n.Input("Surface")
		if !ok || !in.Connected() {
			return failure(res, nodeError(n, errs.New(errs.ErrCodeInvalidGraph, "material output has no surface shader")))
		}
		root = in.Link.From
	}

	x := newTranslation(t, g, material)
	x.logger.Debug("translating material", "material", material, "strict", t.opts.Strict)

	em, err := x.resolve(root, true)
	if err != nil {
		return x.failure(res, err)
	}
	shader := em.Node
	if shader.Type != types.SurfaceShader {
		n, _ := g.Node(root)
		return x.failure(res, nodeError(n, errs.New(errs.ErrCodeInvalidGraph, "root produces %s, not a surface shader", shader.Type)))
	}

	x.settleConstants()
	x.doc.AddMaterial(material, shader)

	report := validate.Document(x.doc, t.opts.Validate)
	res.Success = true
	res.Document = x.doc
	res.Unsupported = x.unsupported
	res.Warnings = x.warnings
	res.Report = &report
	res.Stats = x.statistics()

	x.logger.Debug("translated material",
		"material", material,
		"nodes", res.Stats.TargetNodes,
		"unsupported", len(res.Unsupported),
		"valid", report.Valid)
	return res, nil
}

// failure records how far the translation got before err.
func (x *translation) failure(res *Result, err error) (*Result, error) {
	res.Stats = x.statistics()
	return failure(res, err)
}

func (x *translation) statistics() Stats {
	s := x.stats
	s.Definitions = x.synth.Created()
	return s
}

func failure(res *Result, err error) (*Result, error) {
	var ne *errs.NodeError
	if errors.As(err, &ne) {
		res.FailedNode = ne.Node
	}
	return res, err
}

func nodeError(n *source.Node, err error) error {
	if n == nil {
		return err
	}
	return &errs.NodeError{Node: n.Name, Category: string(n.Category), Err: err}
}

// =============================================================================
// Resolution
// =============================================================================

// resolve maps node id after every node it reads from. wantShader tells
// placeholders which kind of value the consumer expects.
func (x *translation) resolve(id source.NodeID, wantShader bool) (mapper.Emitted, error) {
	n, ok := x.g.Node(id)
	if !ok {
		return mapper.Emitted{}, errs.New(errs.ErrCodeInvalidGraph, "link to unknown node %d", id)
	}
	switch x.states[id] {
	case stateMapped:
		return x.mapped[id], nil
	case stateResolving:
		return mapper.Emitted{}, nodeError(n, errs.New(errs.ErrCodeCyclicDependency, "cyclic dependency through %s", n.Name))
	}

	x.states[id] = stateResolving
	m := x.mapperFor(n)
	// A placeholder reads nothing, so its upstream is only walked in
	// strict mode where errors further up must still surface first.
	if m != nil || x.strict {
		for _, in := range n.Inputs {
			if !in.Connected() {
				continue
			}
			if _, err := x.resolve(in.Link.From, in.Type.IsShader()); err != nil {
				return mapper.Emitted{}, err
			}
		}
	}

	em, err := x.mapNode(m, n, wantShader)
	if err != nil {
		return mapper.Emitted{}, err
	}
	x.states[id] = stateMapped
	x.mapped[id] = em
	x.stats.SourceNodes++
	return em, nil
}

// mapperFor returns the registered mapper for n, else the synthesis
// recipes when one applies, else nil.
func (x *translation) mapperFor(n *source.Node) mapper.Mapper {
	if r, ok := x.registry.Lookup(n.Category); ok && r.CanHandle(n) {
		return r
	}
	if x.recipes.CanHandle(n) {
		return x.recipes
	}
	return nil
}

// mapNode runs m on n, falling back to the unsupported-node policy when m
// is nil or fails.
func (x *translation) mapNode(m mapper.Mapper, n *source.Node, wantShader bool) (mapper.Emitted, error) {
	if m == nil {
		return x.unsupportedNode(n, wantShader, errs.New(errs.ErrCodeUnsupportedCategory, "no mapper for category %s", n.Category))
	}

	em, err := m.Map(n, x)
	if err != nil {
		return x.unsupportedNode(n, wantShader, err)
	}
	if em.Node == nil {
		return mapper.Emitted{}, nodeError(n, errs.New(errs.ErrCodeInternal, "mapper emitted no node"))
	}
	x.logger.Debug("mapped node", "node", n.Name, "category", n.Category, "target", em.Node.Category)
	return em, nil
}

// unsupportedNode fails in strict mode and emits a placeholder otherwise.
func (x *translation) unsupportedNode(n *source.Node, wantShader bool, cause error) (mapper.Emitted, error) {
	if x.strict {
		if !errs.Is(cause, errs.ErrCodeUnsupportedCategory) {
			cause = errs.Wrap(errs.ErrCodeUnsupportedCategory, cause, "cannot map %s", n.Category)
		}
		return mapper.Emitted{}, nodeError(n, cause)
	}
	x.unsupported = append(x.unsupported, Unsupported{Category: n.Category, Name: n.Name})
	x.Warnf("%s: %s, using placeholder", n.Name, errs.UserMessage(cause))
	return x.placeholder(n, wantShader || n.Produces().IsShader()), nil
}

// magenta marks placeholders.
var magenta = types.Vec(types.Color3, 1, 0, 1)

// placeholder emits a magenta stand-in: a surface when a shader is
// expected, a color constant otherwise.
func (x *translation) placeholder(n *source.Node, shader bool) mapper.Emitted {
	doc := fmt.Sprintf("placeholder for unsupported %s node %s", n.Category, n.Name)
	if shader {
		node := x.NewNode("standard_surface", types.SurfaceShader, "unknown_"+n.Name)
		node.Doc = doc
		node.SetValue("base", types.FloatValue(1))
		node.SetValue("base_color", magenta)
		return mapper.Single(node)
	}
	node := x.NewNode(mtlx.CategoryConstant, types.Color3, "unknown_"+n.Name)
	node.Doc = doc
	node.SetValue("value", magenta)
	return mapper.Single(node)
}
