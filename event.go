package probez

import (
	"context"
)

// Emit fires an event call site: one interest check, then a single
// forward to the resolved dispatch. The event's parent is the context's
// current span, or root. Events have no identity and no lifecycle; the
// core forgets them as soon as the subscriber returns.
//
// Emit performs its own Enabled check, so calling it unconditionally is
// correct; hot call sites should still guard with Enabled to avoid
// constructing fields that will be thrown away.
func Emit(ctx context.Context, cs *Callsite, fields ...Field) {
	if !cs.Enabled(ctx) {
		return
	}
	FromContext(ctx).Event(NewRecord(cs.metadata, fields...), CurrentSpanID(ctx))
}

// EmitWithParent fires an event with an explicit parent span, overriding
// the context's current span. A zero parent emits at root.
func EmitWithParent(ctx context.Context, cs *Callsite, parent SpanID, fields ...Field) {
	if !cs.Enabled(ctx) {
		return
	}
	FromContext(ctx).Event(NewRecord(cs.metadata, fields...), parent)
}
