// Package observability provides hooks for metrics, tracing, and logging.
//
// Consumers register hooks at startup to receive events about translation
// runs and cache operations without the library depending on a particular
// metrics or tracing backend. Every hook has a no-op default.
//
// # Usage
//
// Register hooks once, before any translation runs:
//
//	func main() {
//	    observability.SetTranslateHooks(&myTranslateHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// The pipeline emits events around each material:
//
//	observability.Translate().OnTranslateStart(ctx, material, nodeCount)
//	// ... translate ...
//	observability.Translate().OnTranslateComplete(ctx, material, outcome, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Translate Hooks
// =============================================================================

// Outcome summarizes a finished translation for hook consumers.
type Outcome struct {
	// Degraded is set when placeholders were emitted for unsupported nodes.
	Degraded bool
	// Valid reports whether the validator accepted the document.
	Valid       bool
	TargetNodes int
	Warnings    int
	Unsupported int
}

// TranslateHooks receives events from the translation pipeline.
type TranslateHooks interface {
	// Translate events
	OnTranslateStart(ctx context.Context, material string, nodeCount int)
	OnTranslateComplete(ctx context.Context, material string, outcome Outcome, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopTranslateHooks is a no-op implementation of TranslateHooks.
type NoopTranslateHooks struct{}

func (NoopTranslateHooks) OnTranslateStart(context.Context, string, int) {}
func (NoopTranslateHooks) OnTranslateComplete(context.Context, string, Outcome, time.Duration, error) {
}
func (NoopTranslateHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopTranslateHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	translateHooks TranslateHooks = NoopTranslateHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetTranslateHooks registers custom translation hooks. A nil h is ignored.
func SetTranslateHooks(h TranslateHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		translateHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Translate returns the registered translation hooks.
func Translate() TranslateHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return translateHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	translateHooks = NoopTranslateHooks{}
	cacheHooks = NoopCacheHooks{}
}
