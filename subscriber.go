package probez

// Subscriber is the capability contract a listener implements to receive
// spans and events. The core forwards synchronously and never serializes
// calls: implementations must be safe for concurrent use from any number
// of goroutines and must treat span identifiers they do not recognize as
// no-ops rather than faulting, since identifiers can cross a default-swap
// boundary.
//
// A Subscriber that fails internally (a full buffer, a closed sink) must
// absorb the failure itself; no method of this contract reports errors
// back to instrumented code.
type Subscriber interface {
	// RegisterCallsite is invoked once per call site per interest
	// generation and returns the subscriber's standing verdict for it.
	RegisterCallsite(md *Metadata) Interest

	// Enabled is the live check behind InterestSometimes verdicts. The
	// current span on the firing goroutine is supplied for context-aware
	// filtering; it is zero at root.
	Enabled(md *Metadata, current SpanID) bool

	// NewSpan creates a span from its initial field values and returns
	// the identifier the subscriber issued for it. The identifier must be
	// non-zero. The parent is zero for root spans. The new span starts
	// with a reference count of one.
	NewSpan(r Record, parent SpanID) SpanID

	// Record delivers follow-up field values for an existing span.
	Record(id SpanID, r Record)

	// RecordFollowsFrom declares a causal, non-parental link: id follows
	// from the span identified by from.
	RecordFollowsFrom(id, from SpanID)

	// Event delivers a one-shot record. The parent is the span the event
	// occurred inside, or zero.
	Event(r Record, parent SpanID)

	// Enter notes that the span became the active one on the calling
	// goroutine.
	Enter(id SpanID)

	// Exit notes that the span stopped being the active one on the
	// calling goroutine.
	Exit(id SpanID)

	// CloneSpan increments the span's reference count and returns the
	// identifier for the new reference, conventionally the same value.
	CloneSpan(id SpanID) SpanID

	// TryClose decrements the span's reference count. It returns true
	// exactly once, on the call that drops the count to zero, at which
	// point the subscriber may release the span's resources. Calls after
	// closure report false.
	TryClose(id SpanID) bool

	// CurrentSpan returns the subscriber's own notion of the active span,
	// or zero if it does not track one.
	CurrentSpan() SpanID
}

// noopSubscriber is the fallback when no default has been configured. It
// reports InterestNever for every call site and performs no work, so
// instrumented code is always safe to run.
type noopSubscriber struct{}

func (noopSubscriber) RegisterCallsite(*Metadata) Interest { return InterestNever }
func (noopSubscriber) Enabled(*Metadata, SpanID) bool      { return false }
func (noopSubscriber) NewSpan(Record, SpanID) SpanID       { return 0 }
func (noopSubscriber) Record(SpanID, Record)               {}
func (noopSubscriber) RecordFollowsFrom(SpanID, SpanID)    {}
func (noopSubscriber) Event(Record, SpanID)                {}
func (noopSubscriber) Enter(SpanID)                        {}
func (noopSubscriber) Exit(SpanID)                         {}
func (noopSubscriber) CloneSpan(id SpanID) SpanID          { return id }
func (noopSubscriber) TryClose(SpanID) bool                { return false }
func (noopSubscriber) CurrentSpan() SpanID                 { return 0 }
