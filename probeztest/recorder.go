// Package probeztest provides subscribers for testing instrumented code:
// a Recorder that collects everything it is handed, and a
// CountingSubscriber that only counts contract invocations.
//
// Both are synchronous and safe for concurrent use. Neither is meant for
// production export paths.
package probeztest

import (
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/zoobzio/probez"
)

// RecordedField is one field value as delivered through the visitor
// protocol. Stringer values are captured as their formatted text; error
// values are kept as-is.
type RecordedField struct {
	Value any
	Name  string
	Kind  probez.ValueKind
}

// RecordedSpan is the recorder's view of one span.
type RecordedSpan struct {
	CreatedAt   time.Time
	ClosedAt    time.Time
	Name        string
	Target      string
	Fields      []RecordedField
	FollowsFrom []probez.SpanID
	ID          probez.SpanID
	Parent      probez.SpanID
	EnterCount  int
	ExitCount   int
	Level       probez.Level
	Closed      bool
}

// RecordedEvent is the recorder's view of one event.
type RecordedEvent struct {
	At     time.Time
	Name   string
	Target string
	Fields []RecordedField
	Parent probez.SpanID
	Level  probez.Level
}

// spanState pairs a recorded span with its live reference count.
type spanState struct {
	span RecordedSpan
	refs int
}

// Recorder is a collecting probez.Subscriber. It issues sequential span
// identifiers, tracks reference counts, and timestamps spans and events
// with an injected clock for deterministic tests.
type Recorder struct {
	clock     clockz.Clock
	enabledFn func(md *probez.Metadata, current probez.SpanID) bool

	mu       sync.Mutex
	verdict  probez.Interest
	nextID   probez.SpanID
	spans    map[probez.SpanID]*spanState
	order    []probez.SpanID
	events   []RecordedEvent
	stack    []probez.SpanID
	released []probez.SpanID
}

// NewRecorder creates a recorder using the real clock and InterestAlways.
func NewRecorder() *Recorder {
	return NewRecorderWithClock(clockz.RealClock)
}

// NewRecorderWithClock creates a recorder with the specified clock.
// Enables clock injection for deterministic testing.
func NewRecorderWithClock(clock clockz.Clock) *Recorder {
	return &Recorder{
		clock:   clock,
		verdict: probez.InterestAlways,
		spans:   make(map[probez.SpanID]*spanState),
	}
}

// SetInterest changes the verdict returned for every call site. Call
// probez.RebuildInterest afterwards if sites have already cached the old
// one.
func (r *Recorder) SetInterest(verdict probez.Interest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdict = verdict
}

// SetEnabledFunc installs a live filter consulted for InterestSometimes
// verdicts. A nil function restores the default (enabled unless Never).
func (r *Recorder) SetEnabledFunc(fn func(md *probez.Metadata, current probez.SpanID) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabledFn = fn
}

// RegisterCallsite implements probez.Subscriber.
func (r *Recorder) RegisterCallsite(*probez.Metadata) probez.Interest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.verdict
}

// Enabled implements probez.Subscriber.
func (r *Recorder) Enabled(md *probez.Metadata, current probez.SpanID) bool {
	r.mu.Lock()
	fn := r.enabledFn
	verdict := r.verdict
	r.mu.Unlock()
	if fn != nil {
		return fn(md, current)
	}
	return verdict != probez.InterestNever
}

// NewSpan implements probez.Subscriber.
func (r *Recorder) NewSpan(rec probez.Record, parent probez.SpanID) probez.SpanID {
	md := rec.Metadata()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	state := &spanState{
		refs: 1,
		span: RecordedSpan{
			ID:        id,
			Name:      md.Name(),
			Target:    md.Target(),
			Level:     md.Level(),
			Parent:    parent,
			CreatedAt: r.clock.Now(),
			Fields:    visitFields(rec),
		},
	}
	r.spans[id] = state
	r.order = append(r.order, id)
	return id
}

// Record implements probez.Subscriber. Unknown identifiers are ignored.
func (r *Recorder) Record(id probez.SpanID, rec probez.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.spans[id]
	if !ok {
		return
	}
	state.span.Fields = append(state.span.Fields, visitFields(rec)...)
}

// RecordFollowsFrom implements probez.Subscriber.
func (r *Recorder) RecordFollowsFrom(id, from probez.SpanID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.spans[id]
	if !ok {
		return
	}
	state.span.FollowsFrom = append(state.span.FollowsFrom, from)
}

// Event implements probez.Subscriber.
func (r *Recorder) Event(rec probez.Record, parent probez.SpanID) {
	md := rec.Metadata()
	event := RecordedEvent{
		Name:   md.Name(),
		Target: md.Target(),
		Level:  md.Level(),
		Parent: parent,
		Fields: visitFields(rec),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	event.At = r.clock.Now()
	r.events = append(r.events, event)
}

// Enter implements probez.Subscriber.
func (r *Recorder) Enter(id probez.SpanID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.spans[id]
	if !ok {
		return
	}
	state.span.EnterCount++
	r.stack = append(r.stack, id)
}

// Exit implements probez.Subscriber. The most recent matching entry is
// removed from the recorder's own stack.
func (r *Recorder) Exit(id probez.SpanID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.spans[id]
	if !ok {
		return
	}
	state.span.ExitCount++
	for i := len(r.stack) - 1; i >= 0; i-- {
		if r.stack[i] == id {
			r.stack = append(r.stack[:i], r.stack[i+1:]...)
			break
		}
	}
}

// CloneSpan implements probez.Subscriber.
func (r *Recorder) CloneSpan(id probez.SpanID) probez.SpanID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.spans[id]; ok && !state.span.Closed {
		state.refs++
	}
	return id
}

// TryClose implements probez.Subscriber. Returns true exactly once per
// span, on the call that drops its reference count to zero.
func (r *Recorder) TryClose(id probez.SpanID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.spans[id]
	if !ok || state.span.Closed {
		return false
	}
	state.refs--
	if state.refs > 0 {
		return false
	}
	state.span.Closed = true
	state.span.ClosedAt = r.clock.Now()
	r.released = append(r.released, id)
	return true
}

// CurrentSpan implements probez.Subscriber: the recorder's own notion of
// the active span, fed by Enter/Exit notifications from all goroutines.
func (r *Recorder) CurrentSpan() probez.SpanID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stack) == 0 {
		return 0
	}
	return r.stack[len(r.stack)-1]
}

// Spans returns copies of all recorded spans in creation order. The
// returned slice is safe to modify without affecting the recorder.
func (r *Recorder) Spans() []RecordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return nil
	}
	out := make([]RecordedSpan, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, copySpan(&r.spans[id].span))
	}
	return out
}

// SpanByName returns a copy of the first recorded span with the given
// name.
func (r *Recorder) SpanByName(name string) (RecordedSpan, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if r.spans[id].span.Name == name {
			return copySpan(&r.spans[id].span), true
		}
	}
	return RecordedSpan{}, false
}

// Events returns copies of all recorded events in arrival order.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	out := make([]RecordedEvent, len(r.events))
	for i := range r.events {
		out[i] = r.events[i]
		out[i].Fields = copyFields(r.events[i].Fields)
	}
	return out
}

// Released returns the span identifiers whose final reference has been
// closed, in release order.
func (r *Recorder) Released() []probez.SpanID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.released) == 0 {
		return nil
	}
	out := make([]probez.SpanID, len(r.released))
	copy(out, r.released)
	return out
}

// Reset clears all recorded spans, events, and release notifications.
// Identifier issuance continues from where it was.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spans = make(map[probez.SpanID]*spanState)
	r.order = nil
	r.events = nil
	r.stack = nil
	r.released = nil
}

func copySpan(s *RecordedSpan) RecordedSpan {
	out := *s
	out.Fields = copyFields(s.Fields)
	if s.FollowsFrom != nil {
		out.FollowsFrom = make([]probez.SpanID, len(s.FollowsFrom))
		copy(out.FollowsFrom, s.FollowsFrom)
	}
	return out
}

func copyFields(fields []RecordedField) []RecordedField {
	if fields == nil {
		return nil
	}
	out := make([]RecordedField, len(fields))
	copy(out, fields)
	return out
}

// visitFields materializes a record's values through the visitor protocol.
func visitFields(rec probez.Record) []RecordedField {
	if rec.Len() == 0 {
		return nil
	}
	v := &fieldVisitor{out: make([]RecordedField, 0, rec.Len())}
	rec.Visit(v)
	return v.out
}

// fieldVisitor implements probez.Visitor by storing every value.
type fieldVisitor struct {
	out []RecordedField
}

func (v *fieldVisitor) VisitInt64(name string, val int64) {
	v.out = append(v.out, RecordedField{Name: name, Kind: probez.ValueInt64, Value: val})
}

func (v *fieldVisitor) VisitUint64(name string, val uint64) {
	v.out = append(v.out, RecordedField{Name: name, Kind: probez.ValueUint64, Value: val})
}

func (v *fieldVisitor) VisitFloat64(name string, val float64) {
	v.out = append(v.out, RecordedField{Name: name, Kind: probez.ValueFloat64, Value: val})
}

func (v *fieldVisitor) VisitBool(name string, val bool) {
	v.out = append(v.out, RecordedField{Name: name, Kind: probez.ValueBool, Value: val})
}

func (v *fieldVisitor) VisitString(name, val string) {
	v.out = append(v.out, RecordedField{Name: name, Kind: probez.ValueString, Value: val})
}

func (v *fieldVisitor) VisitStringer(name string, val fmt.Stringer) {
	text := "<nil>"
	if val != nil {
		text = val.String()
	}
	v.out = append(v.out, RecordedField{Name: name, Kind: probez.ValueStringer, Value: text})
}

func (v *fieldVisitor) VisitError(name string, err error) {
	v.out = append(v.out, RecordedField{Name: name, Kind: probez.ValueError, Value: err})
}
