// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about diagram renders, watch reconciliation, and the
// render cache.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    observability.SetWatchHooks(&myWatchHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Render().OnRenderStart(ctx, path, formats)
//	// ... invoke the renderer ...
//	observability.Render().OnRenderComplete(ctx, path, formats, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the single-diagram renderer.
type RenderHooks interface {
	// OnRenderStart records the start of rendering one diagram source.
	OnRenderStart(ctx context.Context, source string, formats []string)

	// OnRenderComplete records the outcome of rendering one diagram source.
	OnRenderComplete(ctx context.Context, source string, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Watch Hooks
// =============================================================================

// WatchHooks receives events from the watch coordinator.
type WatchHooks interface {
	// OnEvent records a filesystem event as it is dispatched.
	OnEvent(ctx context.Context, kind, path string)

	// OnReconcile records an artifact reconciliation step.
	// action is one of "render", "delete", "rename", "skip".
	OnReconcile(ctx context.Context, action, stem string, artifacts int, err error)
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

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, string, []string) {}
func (NoopRenderHooks) OnRenderComplete(context.Context, string, []string, time.Duration, error) {
}

// NoopWatchHooks is a no-op implementation of WatchHooks.
type NoopWatchHooks struct{}

func (NoopWatchHooks) OnEvent(context.Context, string, string)                  {}
func (NoopWatchHooks) OnReconcile(context.Context, string, string, int, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks RenderHooks = NoopRenderHooks{}
	watchHooks  WatchHooks  = NoopWatchHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any render.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetWatchHooks registers custom watch hooks.
func SetWatchHooks(h WatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		watchHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Watch returns the registered watch hooks.
func Watch() WatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return watchHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	watchHooks = NoopWatchHooks{}
	cacheHooks = NoopCacheHooks{}
}
