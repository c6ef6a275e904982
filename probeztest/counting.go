package probeztest

import (
	"sync/atomic"

	"github.com/zoobzio/probez"
)

// Counts is a snapshot of how many times each subscriber capability has
// been invoked.
type Counts struct {
	RegisterCallsite int64
	Enabled          int64
	NewSpan          int64
	Record           int64
	RecordFollows    int64
	Event            int64
	Enter            int64
	Exit             int64
	CloneSpan        int64
	TryClose         int64
	CurrentSpan      int64
}

// CountingSubscriber counts every capability invocation and otherwise
// does nothing. Its standing verdict is fixed at construction, which
// makes it the instrument for proving that a disabled call site performs
// zero subscriber calls.
type CountingSubscriber struct {
	verdict          probez.Interest
	registerCallsite atomic.Int64
	enabled          atomic.Int64
	newSpan          atomic.Int64
	record           atomic.Int64
	recordFollows    atomic.Int64
	event            atomic.Int64
	enter            atomic.Int64
	exit             atomic.Int64
	cloneSpan        atomic.Int64
	tryClose         atomic.Int64
	currentSpan      atomic.Int64
	nextID           atomic.Uint64
}

// NewCountingSubscriber creates a counting subscriber with the given
// standing verdict.
func NewCountingSubscriber(verdict probez.Interest) *CountingSubscriber {
	return &CountingSubscriber{verdict: verdict}
}

// Counts returns a snapshot of all invocation counters.
func (c *CountingSubscriber) Counts() Counts {
	return Counts{
		RegisterCallsite: c.registerCallsite.Load(),
		Enabled:          c.enabled.Load(),
		NewSpan:          c.newSpan.Load(),
		Record:           c.record.Load(),
		RecordFollows:    c.recordFollows.Load(),
		Event:            c.event.Load(),
		Enter:            c.enter.Load(),
		Exit:             c.exit.Load(),
		CloneSpan:        c.cloneSpan.Load(),
		TryClose:         c.tryClose.Load(),
		CurrentSpan:      c.currentSpan.Load(),
	}
}

// DispatchCalls returns the number of invocations excluding
// RegisterCallsite, which legitimately fires once per interest
// generation even for Never verdicts.
func (c *CountingSubscriber) DispatchCalls() int64 {
	counts := c.Counts()
	return counts.Enabled + counts.NewSpan + counts.Record +
		counts.RecordFollows + counts.Event + counts.Enter + counts.Exit +
		counts.CloneSpan + counts.TryClose + counts.CurrentSpan
}

// RegisterCallsite implements probez.Subscriber.
func (c *CountingSubscriber) RegisterCallsite(*probez.Metadata) probez.Interest {
	c.registerCallsite.Add(1)
	return c.verdict
}

// Enabled implements probez.Subscriber.
func (c *CountingSubscriber) Enabled(*probez.Metadata, probez.SpanID) bool {
	c.enabled.Add(1)
	return c.verdict != probez.InterestNever
}

// NewSpan implements probez.Subscriber.
func (c *CountingSubscriber) NewSpan(probez.Record, probez.SpanID) probez.SpanID {
	c.newSpan.Add(1)
	return probez.SpanID(c.nextID.Add(1))
}

// Record implements probez.Subscriber.
func (c *CountingSubscriber) Record(probez.SpanID, probez.Record) {
	c.record.Add(1)
}

// RecordFollowsFrom implements probez.Subscriber.
func (c *CountingSubscriber) RecordFollowsFrom(probez.SpanID, probez.SpanID) {
	c.recordFollows.Add(1)
}

// Event implements probez.Subscriber.
func (c *CountingSubscriber) Event(probez.Record, probez.SpanID) {
	c.event.Add(1)
}

// Enter implements probez.Subscriber.
func (c *CountingSubscriber) Enter(probez.SpanID) {
	c.enter.Add(1)
}

// Exit implements probez.Subscriber.
func (c *CountingSubscriber) Exit(probez.SpanID) {
	c.exit.Add(1)
}

// CloneSpan implements probez.Subscriber.
func (c *CountingSubscriber) CloneSpan(id probez.SpanID) probez.SpanID {
	c.cloneSpan.Add(1)
	return id
}

// TryClose implements probez.Subscriber.
func (c *CountingSubscriber) TryClose(probez.SpanID) bool {
	c.tryClose.Add(1)
	return false
}

// CurrentSpan implements probez.Subscriber.
func (c *CountingSubscriber) CurrentSpan() probez.SpanID {
	c.currentSpan.Add(1)
	return 0
}
