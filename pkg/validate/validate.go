package validate

import (
	"fmt"

	"github.com/matzehuels/mtlxport/pkg/catalog"
	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/types"
)

// Severity selects how a structural absence is reported.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityIgnore  Severity = "ignore"
)

// ParseSeverity parses a severity name.
func ParseSeverity(s string) (Severity, error) {
	switch v := Severity(s); v {
	case SeverityError, SeverityWarning, SeverityIgnore:
		return v, nil
	}
	return "", fmt.Errorf("invalid severity %q (want error, warning or ignore)", s)
}

// Options configures [Document]. Zero fields take the defaults of
// [DefaultOptions].
type Options struct {
	MissingMaterial Severity
	MissingShader   Severity
	MissingGraph    Severity
	// Catalog supplies required inputs and known categories. Nil selects
	// the built-in catalog.
	Catalog *catalog.Catalog
}

// DefaultOptions treats missing materials and shaders as errors and a
// missing node graph as a warning, since a material can be fully described
// by literal shader inputs.
func DefaultOptions() Options {
	return Options{
		MissingMaterial: SeverityError,
		MissingShader:   SeverityError,
		MissingGraph:    SeverityWarning,
	}
}

// String describes the effective severities.
func (o Options) String() string {
	o = o.withDefaults()
	return fmt.Sprintf("material=%s,shader=%s,graph=%s", o.MissingMaterial, o.MissingShader, o.MissingGraph)
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MissingMaterial == "" {
		o.MissingMaterial = d.MissingMaterial
	}
	if o.MissingShader == "" {
		o.MissingShader = d.MissingShader
	}
	if o.MissingGraph == "" {
		o.MissingGraph = d.MissingGraph
	}
	if o.Catalog == nil {
		o.Catalog = catalog.Default()
	}
	return o
}

// Statistics summarizes a document.
type Statistics struct {
	Materials   int `json:"materials"`
	Shaders     int `json:"shaders"`
	NodeGraphs  int `json:"nodegraphs"` // Excluding definition implementations
	Nodes       int `json:"nodes"`      // Document-level and node graph nodes
	NodeDefs    int `json:"nodedefs"`
	Connections int `json:"connections"`
	Reachable   int `json:"reachable"`
	Unused      int `json:"unused"`
	// Connectivity is Reachable / Nodes, or 0 for an empty document.
	Connectivity float64 `json:"connectivity"`
}

// Report is the outcome of [Document].
type Report struct {
	Valid      bool       `json:"valid"`
	Errors     []string   `json:"errors"`
	Warnings   []string   `json:"warnings"`
	Statistics Statistics `json:"statistics"`
}

// Document validates doc. It is safe to call concurrently on documents
// that are not being modified.
func Document(doc *mtlx.Document, opts Options) Report {
	v := &validator{doc: doc, opts: opts.withDefaults()}
	if doc == nil {
		v.errorf("document is nil")
		return v.result()
	}
	v.checkStructure()
	v.checkConnections()
	v.checkRequired()
	v.checkReachability()
	v.checkPlacement()
	return v.result()
}

type validator struct {
	doc      *mtlx.Document
	opts     Options
	errors   []string
	warnings []string
	stats    Statistics
}

func (v *validator) errorf(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) warnf(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) raise(sev Severity, format string, args ...any) {
	switch sev {
	case SeverityError:
		v.errorf(format, args...)
	case SeverityWarning:
		v.warnf(format, args...)
	}
}

func (v *validator) result() Report {
	return Report{
		Valid:      len(v.errors) == 0,
		Errors:     v.errors,
		Warnings:   v.warnings,
		Statistics: v.stats,
	}
}

// graphs returns the node graphs that are not definition implementations.
func (v *validator) graphs() []*mtlx.NodeGraph {
	var out []*mtlx.NodeGraph
	for _, g := range v.doc.NodeGraphs {
		if g != nil && g.NodeDef == "" {
			out = append(out, g)
		}
	}
	return out
}

func isDocumentLevel(t types.Type) bool {
	return t.IsShader() || t == types.Material
}
