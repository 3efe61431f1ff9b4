// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about tier stages, individual bundler invocations and ledger
// file activity.
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
//	    observability.SetBuildHooks(&myBuildHooks{})
//	    observability.SetLedgerHooks(&myLedgerHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Build().OnStageStart(ctx, "modules")
//	// ... bundle every module ...
//	observability.Build().OnStageComplete(ctx, "modules", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Build Hooks
// =============================================================================

// BuildHooks receives events from the tier pipeline.
type BuildHooks interface {
	// Stage events (basics, modules, screens, manifest)
	OnStageStart(ctx context.Context, stage string)
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)

	// Bundle events, one per external bundler invocation
	OnBundleStart(ctx context.Context, tier, key string)
	OnBundleComplete(ctx context.Context, tier, key string, duration time.Duration, err error)
}

// =============================================================================
// Ledger Hooks
// =============================================================================

// LedgerHooks receives events from ledger files. Ledger operations are
// synchronous file I/O without a context, so these hooks take none.
type LedgerHooks interface {
	// OnLedgerLoad records the one-time parse of a ledger file into memory.
	OnLedgerLoad(path string, entries int)

	// OnLedgerRecord records an appended path|id line.
	OnLedgerRecord(path string, id int)

	// OnLedgerClear records a truncation.
	OnLedgerClear(path string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBuildHooks is a no-op implementation of BuildHooks.
type NoopBuildHooks struct{}

func (NoopBuildHooks) OnStageStart(context.Context, string)                                  {}
func (NoopBuildHooks) OnStageComplete(context.Context, string, time.Duration, error)         {}
func (NoopBuildHooks) OnBundleStart(context.Context, string, string)                         {}
func (NoopBuildHooks) OnBundleComplete(context.Context, string, string, time.Duration, error) {}

// NoopLedgerHooks is a no-op implementation of LedgerHooks.
type NoopLedgerHooks struct{}

func (NoopLedgerHooks) OnLedgerLoad(string, int)   {}
func (NoopLedgerHooks) OnLedgerRecord(string, int) {}
func (NoopLedgerHooks) OnLedgerClear(string)       {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	buildHooks  BuildHooks  = NoopBuildHooks{}
	ledgerHooks LedgerHooks = NoopLedgerHooks{}
	hooksMu     sync.RWMutex
)

// SetBuildHooks registers custom build hooks.
// This should be called once at application startup before any build runs.
func SetBuildHooks(h BuildHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		buildHooks = h
	}
}

// SetLedgerHooks registers custom ledger hooks.
func SetLedgerHooks(h LedgerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		ledgerHooks = h
	}
}

// Build returns the registered build hooks.
func Build() BuildHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return buildHooks
}

// Ledger returns the registered ledger hooks.
func Ledger() LedgerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return ledgerHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	buildHooks = NoopBuildHooks{}
	ledgerHooks = NoopLedgerHooks{}
}
