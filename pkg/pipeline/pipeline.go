// Package pipeline runs the translate → validate → render pipeline shared
// by the CLI and batch tooling.
//
// # Architecture
//
// The pipeline has two stages, each cached independently:
//
//  1. Translate: source material to target document, validated
//  2. Render: document to artifacts (MaterialX XML, JSON dump, DOT, SVG)
//
// Document entries are keyed by a content hash of the source material and
// the translation options, artifact entries by the document key and format.
//
// # Usage
//
//	translator, _ := translate.New(translate.Options{})
//	runner := pipeline.NewRunner(cache, nil, logger, translator)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Materials: file.Materials,
//	    Formats:   []string{pipeline.FormatMTLX, pipeline.FormatSVG},
//	})
//	xml := result.Materials[0].Artifacts["mtlx"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/mtlxport/pkg/errors"
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/translate"
)

// =============================================================================
// Formats
// =============================================================================

// Output formats.
const (
	FormatMTLX = "mtlx"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatMTLX: true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// DefaultFormats are rendered when Options.Formats is empty.
var DefaultFormats = []string{FormatMTLX}

// Extension returns the file extension for format.
func Extension(format string) string {
	if format == FormatJSON {
		return ".mtlx.json"
	}
	return "." + format
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format: %q (must be one of: mtlx, json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, dropping blanks and
// duplicates.
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || slices.Contains(out, f) {
			continue
		}
		if err := ValidateFormat(f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// =============================================================================
// Options and Results
// =============================================================================

// Options configures a pipeline run.
type Options struct {
	// Materials are translated in order.
	Materials []source.Material

	// Formats lists the artifacts to render for each material.
	Formats []string
	// Detailed adds categories and literal values to DOT and SVG labels.
	Detailed bool
	// Workers bounds concurrent translations; zero or less is unlimited.
	Workers int
	// Refresh ignores cached entries and overwrites them.
	Refresh bool

	// Catalogs and Schemas are content hashes of the extra definition
	// files the translator was built with. They are part of the cache key.
	Catalogs []string
	Schemas  []string

	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults checks options and fills defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Materials) == 0 {
		return fmt.Errorf("no materials to translate")
	}
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.validated = true
	return nil
}

// MaterialResult is the pipeline output for one material.
type MaterialResult struct {
	*translate.Result

	// Key is the document cache key.
	Key string
	// Artifacts holds rendered outputs keyed by format. It is empty when
	// translation failed.
	Artifacts map[string][]byte
	// Err is the translation error, if any.
	Err error
	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs.
	RunID     string
	Materials []*MaterialResult
	Stats     Stats
}

// Failed returns the materials whose translation failed.
func (r *Result) Failed() []*MaterialResult {
	var out []*MaterialResult
	for _, m := range r.Materials {
		if m.Err != nil {
			out = append(out, m)
		}
	}
	return out
}

// Stats contains run statistics.
type Stats struct {
	Materials     int
	Failed        int
	Degraded      int
	TranslateTime time.Duration
	RenderTime    time.Duration
}

// CacheInfo records cache hits per stage.
type CacheInfo struct {
	TranslateHit bool // Document came from cache
	RenderHit    bool // Every artifact came from cache
}
