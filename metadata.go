package probez

import (
	"runtime"
)

// Kind discriminates what a call site produces.
type Kind uint8

const (
	// KindEvent marks a call site that emits one-shot events.
	KindEvent Kind = iota
	// KindSpan marks a call site that creates spans.
	KindSpan
)

// String returns "event" or "span".
func (k Kind) String() string {
	if k == KindSpan {
		return "span"
	}
	return "event"
}

// FieldSet is the ordered set of field names a call site declares.
// Order is declaration order; names are unique within a set.
type FieldSet struct {
	names []string
}

// newFieldSet builds a FieldSet, dropping duplicate names while keeping
// the first occurrence's position.
func newFieldSet(names []string) FieldSet {
	if len(names) == 0 {
		return FieldSet{}
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		dup := false
		for _, seen := range out {
			if seen == name {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, name)
		}
	}
	return FieldSet{names: out}
}

// Len returns the number of declared fields.
func (fs FieldSet) Len() int {
	return len(fs.names)
}

// Names returns a copy of the declared field names in declaration order.
func (fs FieldSet) Names() []string {
	if len(fs.names) == 0 {
		return nil
	}
	out := make([]string, len(fs.names))
	copy(out, fs.names)
	return out
}

// Index returns the declaration position of a field name, or -1.
func (fs FieldSet) Index(name string) int {
	for i, n := range fs.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Contains reports whether the set declares the given field name.
func (fs FieldSet) Contains(name string) bool {
	return fs.Index(name) >= 0
}

// Metadata describes one call site. Instances are immutable, created once
// per call site, and live for the process lifetime; their address is the
// call site's identity.
type Metadata struct {
	name   string
	target string
	file   string
	fields FieldSet
	line   int
	level  Level
	kind   Kind
}

// NewMetadata creates the descriptor for a call site. The source file and
// line of the caller are captured automatically. Field names are recorded
// in declaration order; duplicates are dropped.
func NewMetadata(name, target string, level Level, kind Kind, fieldNames ...string) *Metadata {
	md := &Metadata{
		name:   name,
		target: target,
		level:  level,
		kind:   kind,
		fields: newFieldSet(fieldNames),
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		md.file = file
		md.line = line
	}
	return md
}

// Name returns the call site name.
func (md *Metadata) Name() string { return md.name }

// Target returns the call site's target namespace.
func (md *Metadata) Target() string { return md.target }

// Level returns the call site's severity level.
func (md *Metadata) Level() Level { return md.level }

// Kind reports whether the call site produces spans or events.
func (md *Metadata) Kind() Kind { return md.kind }

// Fields returns the ordered field names the call site declares.
func (md *Metadata) Fields() FieldSet { return md.fields }

// Source returns the file and line where the metadata was declared.
// Both are zero values if capture failed.
func (md *Metadata) Source() (file string, line int) {
	return md.file, md.line
}
