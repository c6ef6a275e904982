package probez

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// SpanID identifies a span. Identifiers are issued by the Subscriber that
// created the span; the core never invents one. The zero value means
// "no span".
type SpanID uint64

// IsZero reports whether the identifier names no span.
func (id SpanID) IsZero() bool {
	return id == 0
}

// spanStackKeyType is a private type for context keys to avoid collisions.
type spanStackKeyType string

const spanStackKey spanStackKeyType = "probez.spans"

// Errors reported by Scope.Exit when enter/exit pairing is violated.
// Both indicate caller misuse, not a transient condition; the stack is
// repaired either way so later operations stay consistent.
var (
	// ErrNotEntered means the scope was already exited, or its span is
	// no longer on the stack.
	ErrNotEntered = errors.New("probez: span not entered")
	// ErrOutOfOrder means the scope was exited while a more recently
	// entered scope was still active. The scope's frame is removed from
	// the middle of the stack.
	ErrOutOfOrder = errors.New("probez: out-of-order span exit")
)

// Span is a handle to one reference on a subscriber-identified span.
// Entering and exiting track where the span is active (a per-context
// stack); cloning and closing track how long it lives (a subscriber-side
// reference count). The two are independent: exiting never decrements the
// count, and a span may only be entered while the count is at least one.
//
// A disabled span (no interested subscriber at creation) has a zero ID and
// every method on it is a no-op.
type Span struct {
	metadata *Metadata
	dispatch *Dispatch
	id       SpanID
	closed   atomic.Bool
}

// NewSpan creates a span at the given call site. The parent is the current
// span of ctx, or root if there is none. If the site is not enabled, the
// returned span is disabled and costs nothing further.
func NewSpan(ctx context.Context, cs *Callsite, fields ...Field) *Span {
	return newSpan(ctx, cs, 0, false, fields)
}

// NewSpanWithParent creates a span with an explicit parent, overriding the
// context's current span. A zero parent creates a root span.
func NewSpanWithParent(ctx context.Context, cs *Callsite, parent SpanID, fields ...Field) *Span {
	return newSpan(ctx, cs, parent, true, fields)
}

func newSpan(ctx context.Context, cs *Callsite, parent SpanID, explicit bool, fields []Field) *Span {
	if !cs.Enabled(ctx) {
		return cs.disabled
	}
	if !explicit {
		parent = CurrentSpanID(ctx)
	}
	d := FromContext(ctx)
	id := d.NewSpan(NewRecord(cs.metadata, fields...), parent)
	if id.IsZero() {
		return cs.disabled
	}
	return &Span{metadata: cs.metadata, dispatch: d, id: id}
}

// ID returns the subscriber-issued identifier, or zero if disabled.
func (s *Span) ID() SpanID {
	if s == nil {
		return 0
	}
	return s.id
}

// Metadata returns the call site descriptor the span was created from.
func (s *Span) Metadata() *Metadata {
	if s == nil {
		return nil
	}
	return s.metadata
}

// Enabled reports whether the span reached a subscriber.
func (s *Span) Enabled() bool {
	return s != nil && !s.id.IsZero()
}

// Record delivers follow-up field values to the span's subscriber.
// Recording through a closed handle is dropped.
func (s *Span) Record(fields ...Field) {
	if !s.Enabled() || s.closed.Load() {
		return
	}
	s.dispatch.Record(s.id, NewRecord(s.metadata, fields...))
}

// FollowsFrom declares that this span follows causally from another,
// without being its child. Forwarded verbatim to the subscriber.
func (s *Span) FollowsFrom(from *Span) {
	if !s.Enabled() || s.closed.Load() || !from.Enabled() {
		return
	}
	s.dispatch.RecordFollowsFrom(s.id, from.id)
}

// Clone takes an additional reference on the span and returns a new handle
// for it. The subscriber's reference count goes up by one; the span now
// closes only after every handle is closed. Handles may be cloned and
// closed from different goroutines.
func (s *Span) Clone() *Span {
	if !s.Enabled() {
		return s
	}
	id := s.dispatch.CloneSpan(s.id)
	return &Span{metadata: s.metadata, dispatch: s.dispatch, id: id}
}

// TryClose gives up this handle's reference. It returns true only when
// this call released the last reference, meaning the subscriber has been
// told to release the span's resources. Closing the same handle again is
// idempotent and reports false.
func (s *Span) TryClose() bool {
	if !s.Enabled() {
		return false
	}
	if !s.closed.CompareAndSwap(false, true) {
		return false
	}
	return s.dispatch.TryClose(s.id)
}

// Enter pushes the span onto the context's stack of active spans and
// notifies the subscriber. The returned Scope must be exited exactly once,
// normally by deferring:
//
//	ctx, scope := span.Enter(ctx)
//	defer scope.Exit()
//
// which guarantees the exit on every path out of the enclosing function,
// including panics. Re-entering a span already on the stack is legal and
// nests. Entering a disabled span, or a handle whose reference has been
// closed, returns the context unchanged and an inert scope: a span may be
// entered only while it holds a live reference.
func (s *Span) Enter(ctx context.Context) (context.Context, *Scope) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.Enabled() || s.closed.Load() {
		return ctx, inertScope
	}
	stack, ok := ctx.Value(spanStackKey).(*spanStack)
	if !ok {
		stack = &spanStack{}
		ctx = context.WithValue(ctx, spanStackKey, stack)
	}
	scope := &Scope{span: s, stack: stack}
	stack.push(scope)
	s.dispatch.Enter(s.id)
	return ctx, scope
}

// inertScope is the shared no-op scope handed out for disabled or closed
// spans. Exit on it touches no state, so one instance serves every
// caller.
var inertScope = &Scope{}

// Scope is one entry of a span on one context's stack.
type Scope struct {
	span   *Span
	stack  *spanStack
	exited bool // guarded by stack.mu
}

// Span returns the span this scope entered, nil for an inert scope.
func (sc *Scope) Span() *Span {
	if sc == nil {
		return nil
	}
	return sc.span
}

// Exit pops the scope's span off the stack and notifies the subscriber.
// The normal, balanced case returns nil. Exiting a scope that is not on
// top returns ErrOutOfOrder after removing the scope's frame from the
// middle of the stack; exiting twice returns ErrNotEntered and does
// nothing. Inert scopes exit silently.
func (sc *Scope) Exit() error {
	if sc == nil || sc.span == nil {
		return nil
	}
	stack := sc.stack
	stack.mu.Lock()
	if sc.exited {
		stack.mu.Unlock()
		return ErrNotEntered
	}
	sc.exited = true
	idx := stack.indexLocked(sc)
	var err error
	switch {
	case idx < 0:
		err = ErrNotEntered
	case idx == len(stack.frames)-1:
		stack.frames = stack.frames[:idx]
	default:
		stack.frames = append(stack.frames[:idx], stack.frames[idx+1:]...)
		err = ErrOutOfOrder
	}
	stack.mu.Unlock()
	if idx >= 0 {
		sc.span.dispatch.Exit(sc.span.id)
	}
	return err
}

// spanStack is the stack of currently entered spans for one context
// lineage. It belongs to the goroutine running that lineage; the mutex
// exists so a context that accidentally crosses goroutines degrades to
// well-defined behavior instead of a race.
type spanStack struct {
	mu     sync.Mutex
	frames []*Scope
}

func (st *spanStack) push(sc *Scope) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.frames = append(st.frames, sc)
}

func (st *spanStack) indexLocked(sc *Scope) int {
	for i := len(st.frames) - 1; i >= 0; i-- {
		if st.frames[i] == sc {
			return i
		}
	}
	return -1
}

func (st *spanStack) top() *Span {
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.frames) == 0 {
		return nil
	}
	return st.frames[len(st.frames)-1].span
}

// CurrentSpan returns the most recently entered, not yet exited span on
// the context's stack, or nil. There is no global current span: the answer
// is always scoped to the context lineage.
func CurrentSpan(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	stack, ok := ctx.Value(spanStackKey).(*spanStack)
	if !ok {
		return nil
	}
	return stack.top()
}

// CurrentSpanID returns the identifier of the context's current span, or
// zero.
func CurrentSpanID(ctx context.Context) SpanID {
	s := CurrentSpan(ctx)
	if s == nil {
		return 0
	}
	return s.id
}
