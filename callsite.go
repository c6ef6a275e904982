package probez

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Interest is a subscriber's standing verdict on a call site.
type Interest uint8

const (
	// InterestNever means no output from the site is wanted; the verdict
	// is cached until the default dispatch changes.
	InterestNever Interest = iota
	// InterestSometimes means the verdict depends on content or context
	// and Enabled must be consulted on every firing.
	InterestSometimes
	// InterestAlways means every firing is forwarded with no re-check.
	InterestAlways
)

// String returns the verdict's name.
func (i Interest) String() string {
	switch i {
	case InterestNever:
		return "never"
	case InterestSometimes:
		return "sometimes"
	case InterestAlways:
		return "always"
	default:
		return fmt.Sprintf("Interest(%d)", uint8(i))
	}
}

// generation counts default-dispatch swaps. Call sites stamp their cached
// verdict with the generation it was computed under; a mismatch forces a
// re-query. Starts at 1 so the zero stamp of a fresh call site is never
// valid.
var generation atomic.Uint64

func init() {
	generation.Store(1)
	levelHint.Store(int32(levelOff))
}

// levelHint is the most verbose level any call site holds live interest
// at, or levelOff when nothing is enabled. Exact after RebuildInterest,
// conservative otherwise.
var levelHint atomic.Int32

// Callsite binds one Metadata instance to its cached interest verdict.
// Declare call sites once, at package level, and fire them many times;
// the Callsite pointer is the site's identity.
type Callsite struct {
	metadata *Metadata

	// disabled is the span handle returned whenever a firing of this
	// site reaches no subscriber. One shared handle per site keeps the
	// Never path free of per-firing allocation; every Span method
	// no-ops on it.
	disabled *Span

	regOnce sync.Once

	// state packs the generation stamp (upper 62 bits) with the cached
	// Interest (lower 2 bits) so the hot path is one atomic load with no
	// possibility of reading a stamp and verdict from different swaps.
	state atomic.Uint64
}

// NewCallsite creates a call site for the given metadata. Registration
// into the global registry happens lazily, on the first interest lookup.
func NewCallsite(md *Metadata) *Callsite {
	return &Callsite{metadata: md, disabled: &Span{metadata: md}}
}

// Metadata returns the site's immutable descriptor.
func (c *Callsite) Metadata() *Metadata {
	return c.metadata
}

// Interest returns the current default subscriber's verdict for the site,
// re-querying it only when the default has been swapped since the verdict
// was cached.
func (c *Callsite) Interest() Interest {
	gen := generation.Load()
	state := c.state.Load()
	if state>>2 == gen {
		return Interest(state & 3)
	}
	return c.refresh(gen)
}

// refresh registers the site if needed, re-queries the default subscriber,
// and stamps the verdict with the generation observed before the query.
// A swap racing the query leaves the stamp stale, so the next lookup
// re-queries again.
func (c *Callsite) refresh(gen uint64) Interest {
	c.regOnce.Do(func() {
		siteRegistry.add(c)
	})
	verdict := Default().subscriber.RegisterCallsite(c.metadata)
	c.state.Store(gen<<2 | uint64(verdict))
	if verdict != InterestNever {
		lowerLevelHint(c.metadata.level)
	}
	return verdict
}

// Enabled reports whether a firing of this site should be dispatched,
// given the caller's context. A scoped dispatch override bypasses the
// interest cache entirely: cached verdicts speak only for the process
// default.
func (c *Callsite) Enabled(ctx context.Context) bool {
	if d, ok := dispatchFromContext(ctx); ok {
		return d.subscriber.Enabled(c.metadata, CurrentSpanID(ctx))
	}
	switch c.Interest() {
	case InterestNever:
		return false
	case InterestAlways:
		return true
	default:
		return Default().subscriber.Enabled(c.metadata, CurrentSpanID(ctx))
	}
}

// siteRegistry holds every call site that has ever been fired, for the
// eager RebuildInterest walk. The hot path never touches it.
var siteRegistry callsiteRegistry

type callsiteRegistry struct {
	mu    sync.Mutex
	sites []*Callsite
}

func (r *callsiteRegistry) add(c *Callsite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sites = append(r.sites, c)
}

func (r *callsiteRegistry) snapshot() []*Callsite {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Callsite, len(r.sites))
	copy(out, r.sites)
	return out
}

// RebuildInterest eagerly re-queries the default subscriber for every
// registered call site and recomputes the level hint exactly. Swapping the
// default already invalidates lazily; this walk exists for subscribers
// that need every site re-evaluated immediately.
func RebuildInterest() {
	gen := generation.Load()
	sub := Default().subscriber
	hint := levelOff
	for _, c := range siteRegistry.snapshot() {
		verdict := sub.RegisterCallsite(c.metadata)
		c.state.Store(gen<<2 | uint64(verdict))
		if verdict != InterestNever && c.metadata.level < hint {
			hint = c.metadata.level
		}
	}
	levelHint.Store(int32(hint))
}

// lowerLevelHint widens the hint to admit the given level.
func lowerLevelHint(l Level) {
	for {
		cur := levelHint.Load()
		if int32(l) >= cur {
			return
		}
		if levelHint.CompareAndSwap(cur, int32(l)) {
			return
		}
	}
}
