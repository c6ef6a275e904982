package probez

import (
	"context"
	"sync"
	"sync/atomic"
)

// dispatchKeyType is a private type for context keys to avoid collisions.
type dispatchKeyType string

const dispatchKey dispatchKeyType = "probez.dispatch"

// Dispatch is the shared handle to one Subscriber. The pointer itself is
// the shared reference: any number of goroutines may hold and use the same
// Dispatch concurrently, and the handle stays valid as long as anything
// retains it. The core never serializes calls through it; a Subscriber
// provides its own synchronization.
type Dispatch struct {
	subscriber Subscriber
}

// NewDispatch wraps a subscriber in a dispatch handle. A nil subscriber
// yields the no-op dispatch.
func NewDispatch(s Subscriber) *Dispatch {
	if s == nil {
		return noopDispatch
	}
	return &Dispatch{subscriber: s}
}

// Subscriber returns the wrapped subscriber.
func (d *Dispatch) Subscriber() Subscriber {
	return d.subscriber
}

// Event forwards a one-shot record to the subscriber.
func (d *Dispatch) Event(r Record, parent SpanID) {
	d.subscriber.Event(r, parent)
}

// NewSpan forwards span creation and returns the subscriber-issued ID.
func (d *Dispatch) NewSpan(r Record, parent SpanID) SpanID {
	return d.subscriber.NewSpan(r, parent)
}

// Record forwards follow-up field values for a span.
func (d *Dispatch) Record(id SpanID, r Record) {
	d.subscriber.Record(id, r)
}

// RecordFollowsFrom forwards a causal link declaration.
func (d *Dispatch) RecordFollowsFrom(id, from SpanID) {
	d.subscriber.RecordFollowsFrom(id, from)
}

// Enter forwards a span-entered notification.
func (d *Dispatch) Enter(id SpanID) {
	d.subscriber.Enter(id)
}

// Exit forwards a span-exited notification.
func (d *Dispatch) Exit(id SpanID) {
	d.subscriber.Exit(id)
}

// CloneSpan forwards a reference-count increment.
func (d *Dispatch) CloneSpan(id SpanID) SpanID {
	return d.subscriber.CloneSpan(id)
}

// TryClose forwards a reference-count decrement and reports whether this
// call performed the final close.
func (d *Dispatch) TryClose(id SpanID) bool {
	return d.subscriber.TryClose(id)
}

// noopDispatch is the fallback handle used before any default is set and
// whenever a nil dispatch would otherwise be installed.
var noopDispatch = &Dispatch{subscriber: noopSubscriber{}}

var (
	defaultDispatch atomic.Pointer[Dispatch]
	defaultMu       sync.Mutex // serializes SetDefault and Freeze
	defaultFrozen   bool       // guarded by defaultMu
)

// Default returns the process-wide dispatch. It never returns nil: before
// any SetDefault, it returns the no-op dispatch.
func Default() *Dispatch {
	if d := defaultDispatch.Load(); d != nil {
		return d
	}
	return noopDispatch
}

// SetDefault installs d as the process-wide dispatch and returns the
// previous one. Each successful swap advances the interest generation
// exactly once, invalidating every cached call site verdict lazily.
//
// After Freeze, SetDefault installs nothing and returns the frozen
// dispatch with ok=false.
func SetDefault(d *Dispatch) (prev *Dispatch, ok bool) {
	if d == nil {
		d = noopDispatch
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultFrozen {
		return Default(), false
	}
	old := defaultDispatch.Swap(d)
	generation.Add(1)
	// Until the next RebuildInterest, assume the new subscriber may
	// enable anything.
	levelHint.Store(int32(LevelTrace))
	if old == nil {
		old = noopDispatch
	}
	return old, true
}

// Freeze makes the current default permanent. Later SetDefault calls
// become no-ops that report ok=false. There is no unfreeze.
func Freeze() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultFrozen = true
}

// WithDefault returns a context carrying d as a scoped dispatch override.
// The override is active for exactly the derived context's extent: code
// holding the parent context, including after any early return or panic
// unwinds past the scope, still resolves the previous dispatch. Scoped
// overrides bypass the interest cache, so their verdicts are always live.
func WithDefault(ctx context.Context, d *Dispatch) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if d == nil {
		d = noopDispatch
	}
	return context.WithValue(ctx, dispatchKey, d)
}

// dispatchFromContext returns the scoped override, if any.
func dispatchFromContext(ctx context.Context) (*Dispatch, bool) {
	if ctx == nil {
		return nil, false
	}
	d, ok := ctx.Value(dispatchKey).(*Dispatch)
	return d, ok
}

// FromContext resolves the dispatch a firing should use: the context's
// scoped override if present, else the process default, else no-op.
func FromContext(ctx context.Context) *Dispatch {
	if d, ok := dispatchFromContext(ctx); ok {
		return d
	}
	return Default()
}
