package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/mtlxport/pkg/buildinfo"
	"github.com/matzehuels/mtlxport/pkg/cache"
	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/observability"
	"github.com/matzehuels/mtlxport/pkg/source"
	"github.com/matzehuels/mtlxport/pkg/translate"
	"github.com/matzehuels/mtlxport/pkg/validate"
)

// Runner executes the pipeline with caching.
//
// The Runner holds no per-run state; several goroutines may call Execute
// on the same Runner.
type Runner struct {
	Cache      cache.Cache
	Keyer      cache.Keyer
	Logger     *log.Logger
	Translator *translate.Translator
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// selects [cache.DefaultKeyer] and a nil logger discards output.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, t *translate.Translator) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger, Translator: t}
}

// Execute translates every material and renders the requested formats.
//
// A material that fails to translate is reported in its MaterialResult and
// does not stop the others. The returned error is reserved for invalid
// options and cancellation.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if r.Translator == nil {
		return nil, fmt.Errorf("runner has no translator")
	}

	result := &Result{RunID: uuid.NewString()}
	logger := opts.Logger.With("run", result.RunID[:8])

	// Stage 1: Translate
	start := time.Now()
	materials, err := r.translateAll(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	result.Materials = materials
	result.Stats.TranslateTime = time.Since(start)

	// Stage 2: Render
	start = time.Now()
	observability.Translate().OnRenderStart(ctx, opts.Formats)
	var renderErr error
	for _, m := range materials {
		if m.Err != nil || m.Document == nil {
			continue
		}
		artifacts, hit, err := r.RenderWithCacheInfo(ctx, m.Key, m.Document, opts)
		if err != nil {
			renderErr = err
			m.Err = fmt.Errorf("render %s: %w", m.Material, err)
			continue
		}
		m.Artifacts = artifacts
		m.CacheInfo.RenderHit = hit
	}
	result.Stats.RenderTime = time.Since(start)
	observability.Translate().OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, renderErr)

	for _, m := range materials {
		result.Stats.Materials++
		if m.Err != nil {
			result.Stats.Failed++
		}
		if m.Result != nil && m.Degraded() {
			result.Stats.Degraded++
		}
	}
	logger.Info("pipeline finished",
		"materials", result.Stats.Materials,
		"failed", result.Stats.Failed,
		"degraded", result.Stats.Degraded,
		"translate", result.Stats.TranslateTime,
		"render", result.Stats.RenderTime)
	return result, ctx.Err()
}

// translateAll serves cached documents and batch-translates the rest.
func (r *Runner) translateAll(ctx context.Context, opts Options, logger *log.Logger) ([]*MaterialResult, error) {
	out := make([]*MaterialResult, len(opts.Materials))
	var (
		pending []source.Material
		slots   []int
	)
	for i, m := range opts.Materials {
		mr := &MaterialResult{}
		out[i] = mr

		key, err := r.Keyer.DocumentKey(m, r.keyOpts(opts))
		if err != nil {
			mr.Result = &translate.Result{Material: m.Name}
			mr.Err = fmt.Errorf("material %s: cache key: %w", m.Name, err)
			continue
		}
		mr.Key = key

		if !opts.Refresh {
			if cached, ok := r.loadDocument(ctx, key); ok {
				mr.Result = cached
				mr.CacheInfo.TranslateHit = true
				logger.Debug("document cache hit", "material", m.Name)
				continue
			}
		}
		pending = append(pending, m)
		slots = append(slots, i)
	}
	if len(pending) == 0 {
		return out, nil
	}

	for _, m := range pending {
		nodes := 0
		if m.Graph != nil {
			nodes = m.Graph.Len()
		}
		observability.Translate().OnTranslateStart(ctx, m.Name, nodes)
	}
	start := time.Now()
	results, _ := r.Translator.TranslateAll(ctx, pending, opts.Workers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	for j, res := range results {
		m := pending[j]
		mr := out[slots[j]]
		if res == nil {
			res = &translate.Result{Material: m.Name}
		}
		mr.Result = res

		err := res.Err
		if !res.Success {
			if err == nil {
				err = fmt.Errorf("material %s: translation failed", m.Name)
			}
			mr.Err = err
			logger.Error("translation failed", "material", m.Name, "node", res.FailedNode, "err", err)
		} else {
			logger.Info("translated material",
				"material", m.Name,
				"nodes", res.Stats.TargetNodes,
				"warnings", len(res.Warnings),
				"unsupported", len(res.Unsupported))
			r.storeDocument(ctx, mr.Key, res)
		}
		observability.Translate().OnTranslateComplete(ctx, m.Name, outcome(res), elapsed, err)
	}
	return out, nil
}

func outcome(res *translate.Result) observability.Outcome {
	o := observability.Outcome{
		Degraded:    res.Degraded(),
		TargetNodes: res.Stats.TargetNodes,
		Warnings:    len(res.Warnings),
		Unsupported: len(res.Unsupported),
	}
	if res.Report != nil {
		o.Valid = res.Report.Valid
	}
	return o
}

func (r *Runner) keyOpts(opts Options) cache.DocumentKeyOpts {
	return cache.DocumentKeyOpts{
		Strict:     r.Translator.Strict(),
		Catalogs:   opts.Catalogs,
		Schemas:    opts.Schemas,
		Severities: r.Translator.Severities(),
		Version:    buildinfo.Version,
	}
}

// =============================================================================
// Document cache
// =============================================================================

// documentEntry is the cached form of a successful translation.
type documentEntry struct {
	Material    string                  `json:"material"`
	Document    *mtlx.Document          `json:"document"`
	Unsupported []translate.Unsupported `json:"unsupported,omitempty"`
	Warnings    []string                `json:"warnings,omitempty"`
	Report      *validate.Report        `json:"report,omitempty"`
	Stats       translate.Stats         `json:"stats"`
}

func (r *Runner) loadDocument(ctx context.Context, key string) (*translate.Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "document")
		return nil, false
	}
	var e documentEntry
	if err := json.Unmarshal(data, &e); err != nil || e.Document == nil {
		observability.Cache().OnCacheMiss(ctx, "document")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "document")
	return &translate.Result{
		Success:     true,
		Material:    e.Material,
		Document:    e.Document,
		Unsupported: e.Unsupported,
		Warnings:    e.Warnings,
		Report:      e.Report,
		Stats:       e.Stats,
	}, true
}

func (r *Runner) storeDocument(ctx context.Context, key string, res *translate.Result) {
	data, err := json.Marshal(documentEntry{
		Material:    res.Material,
		Document:    res.Document,
		Unsupported: res.Unsupported,
		Warnings:    res.Warnings,
		Report:      res.Report,
		Stats:       res.Stats,
	})
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLDocument); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "document", len(data))
}

// =============================================================================
// Artifact cache
// =============================================================================

// RenderWithCacheInfo renders doc in opts.Formats, serving artifacts from
// the cache when every format is present. The bool reports a full hit.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, docKey string, doc *mtlx.Document, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh && docKey != "" {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(docKey, cache.ArtifactKeyOpts{Format: format, Detailed: opts.Detailed})
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := Render(ctx, doc, opts.Formats, opts.Detailed)
	if err != nil {
		return nil, false, err
	}
	if docKey != "" {
		for format, data := range rendered {
			key := r.Keyer.ArtifactKey(docKey, cache.ArtifactKeyOpts{Format: format, Detailed: opts.Detailed})
			if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
				observability.Cache().OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}
	return rendered, false, nil
}

// applyLogger sets the runner's logger on opts if none is set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
