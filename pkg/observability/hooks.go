// Package observability provides hooks for metrics, tracing, and diagnostics.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about recompute passes and stable-id integrity repairs.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the core packages
// never import a metrics backend. An update engine given hooks of its own
// through its options reports only to those; the registry supplies the
// hooks of engines created without.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetUpdateHooks(&myUpdateHooks{})
//	    observability.SetIntegrityHooks(&myIntegrityHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Update().OnFeatureStart(ctx, name, id)
//	err := f.Update(ctx, payload)
//	observability.Update().OnFeatureComplete(ctx, name, id, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Update Hooks
// =============================================================================

// UpdateHooks receives events from the update engine.
type UpdateHooks interface {
	// Pass events
	OnRecomputeStart(ctx context.Context, dirty int)
	OnRecomputeComplete(ctx context.Context, updated, failed int, duration time.Duration, err error)

	// Feature events. id is the feature's stable id in canonical form.
	OnFeatureStart(ctx context.Context, name, id string)
	OnFeatureComplete(ctx context.Context, name, id string, duration time.Duration, err error)
}

// =============================================================================
// Integrity Hooks
// =============================================================================

// IntegrityHooks receives events about stable-id repairs and lost selections.
type IntegrityHooks interface {
	// OnNilRepaired records entries that reached the end of an update without
	// an id and were given fresh ones.
	OnNilRepaired(ctx context.Context, feature string, count int)

	// OnDuplicateRepaired records entries that shared an id and were split.
	OnDuplicateRepaired(ctx context.Context, feature string, count int)

	// OnPickUnresolved records a selection that no longer exists in feature.
	OnPickUnresolved(ctx context.Context, feature, pick string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopUpdateHooks is a no-op implementation of UpdateHooks.
type NoopUpdateHooks struct{}

func (NoopUpdateHooks) OnRecomputeStart(context.Context, int) {}
func (NoopUpdateHooks) OnRecomputeComplete(context.Context, int, int, time.Duration, error) {
}
func (NoopUpdateHooks) OnFeatureStart(context.Context, string, string) {}
func (NoopUpdateHooks) OnFeatureComplete(context.Context, string, string, time.Duration, error) {
}

// NoopIntegrityHooks is a no-op implementation of IntegrityHooks.
type NoopIntegrityHooks struct{}

func (NoopIntegrityHooks) OnNilRepaired(context.Context, string, int)       {}
func (NoopIntegrityHooks) OnDuplicateRepaired(context.Context, string, int) {}
func (NoopIntegrityHooks) OnPickUnresolved(context.Context, string, string) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	updateHooks    UpdateHooks    = NoopUpdateHooks{}
	integrityHooks IntegrityHooks = NoopIntegrityHooks{}
	hooksMu        sync.RWMutex
)

// SetUpdateHooks registers custom update hooks.
// This should be called once at application startup before any recompute.
func SetUpdateHooks(h UpdateHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		updateHooks = h
	}
}

// SetIntegrityHooks registers custom integrity hooks.
// This should be called once at application startup before any recompute.
func SetIntegrityHooks(h IntegrityHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		integrityHooks = h
	}
}

// Update returns the registered update hooks.
func Update() UpdateHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return updateHooks
}

// Integrity returns the registered integrity hooks.
func Integrity() IntegrityHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return integrityHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	updateHooks = NoopUpdateHooks{}
	integrityHooks = NoopIntegrityHooks{}
}
