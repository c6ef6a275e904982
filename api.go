// Package probez provides a minimal instrumentation dispatch core.
//
// probez lets code declare call sites that emit structured, leveled spans
// and events without knowing whether anything will consume them. A
// Subscriber attaches at runtime and decides, per call site, whether it
// cares. When nothing cares, firing a call site costs one atomic load.
//
// Core Components:.
//   - Callsite: a statically declared instrumentation point with a cached
//     interest verdict.
//   - Metadata: immutable descriptor of a call site (name, target, level,
//     field names, kind).
//   - Dispatch: the handle to the currently active Subscriber.
//   - Span: a subscriber-identified period of execution with enter/exit and
//     clone/close semantics.
//   - Subscriber: the capability contract a listener implements.
//   - Visitor: the push-style protocol delivering typed field values.
//
// Basic Usage:.
//
//	var checkout = probez.NewCallsite(probez.NewMetadata(
//		"checkout", "shop", probez.LevelInfo, probez.KindEvent,
//		"user_id", "amount",
//	))
//
//	probez.SetDefault(probez.NewDispatch(subscriber))
//
//	if checkout.Enabled(ctx) {
//		probez.Emit(ctx, checkout,
//			probez.Int64("user_id", 42),
//			probez.Float64("amount", 19.99),
//		)
//	}
//
// Spans nest through context:.
//
//	ctx, scope := span.Enter(ctx)
//	defer scope.Exit()
//
// Thread Safety:.
//
// Callsite interest lookups, dispatch resolution, and the global registry
// are safe for concurrent use from any number of goroutines. A span's
// context stack belongs to the goroutine that entered it; a span is shared
// across goroutines by cloning the span, never by sharing a scope.
//
// Disabled Path:.
//
// A call site whose cached interest is Never performs no allocation and no
// subscriber calls when fired. Check Enabled before building field values
// to keep the disabled path free.
//
// Storage:.
//
// probez stores nothing itself. Span identifiers are issued by the active
// Subscriber, field values are pushed through the Visitor protocol, and
// any buffering, formatting, or export belongs to the Subscriber.
package probez

// Name represents a call site name.
type Name = string

// Target represents a call site's target namespace.
type Target = string
