package probez

import (
	"fmt"
	"math"
)

// ValueKind discriminates the closed set of recordable value types.
type ValueKind uint8

const (
	// ValueInt64 is a signed integer value.
	ValueInt64 ValueKind = iota
	// ValueUint64 is an unsigned integer value.
	ValueUint64
	// ValueFloat64 is a floating point value.
	ValueFloat64
	// ValueBool is a boolean value.
	ValueBool
	// ValueString is a string value.
	ValueString
	// ValueStringer is an opaque value formatted on demand via fmt.Stringer.
	ValueStringer
	// ValueError is a chained fault value.
	ValueError
)

// String returns the kind's name.
func (k ValueKind) String() string {
	switch k {
	case ValueInt64:
		return "int64"
	case ValueUint64:
		return "uint64"
	case ValueFloat64:
		return "float64"
	case ValueBool:
		return "bool"
	case ValueString:
		return "string"
	case ValueStringer:
		return "stringer"
	case ValueError:
		return "error"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Field pairs a field name with one typed value. Fields are plain values;
// constructing one never allocates for numeric, boolean, or string kinds.
type Field struct {
	iface any
	name  string
	str   string
	num   uint64
	kind  ValueKind
}

// Int64 creates a signed integer field.
func Int64(name string, v int64) Field {
	return Field{name: name, kind: ValueInt64, num: uint64(v)}
}

// Uint64 creates an unsigned integer field.
func Uint64(name string, v uint64) Field {
	return Field{name: name, kind: ValueUint64, num: v}
}

// Float64 creates a floating point field.
func Float64(name string, v float64) Field {
	return Field{name: name, kind: ValueFloat64, num: math.Float64bits(v)}
}

// Bool creates a boolean field.
func Bool(name string, v bool) Field {
	var n uint64
	if v {
		n = 1
	}
	return Field{name: name, kind: ValueBool, num: n}
}

// String creates a string field.
func String(name, v string) Field {
	return Field{name: name, kind: ValueString, str: v}
}

// Stringer creates a debug-formatted field. The value is not formatted
// until a visitor asks for it, so an uninterested subscriber pays nothing.
func Stringer(name string, v fmt.Stringer) Field {
	return Field{name: name, kind: ValueStringer, iface: v}
}

// Err creates an error field.
func Err(name string, err error) Field {
	return Field{name: name, kind: ValueError, iface: err}
}

// Name returns the field's name.
func (f Field) Name() string { return f.name }

// Kind returns the field's value kind.
func (f Field) Kind() ValueKind { return f.kind }

// Visit delivers the field's value to the matching visitor method.
func (f Field) Visit(v Visitor) {
	switch f.kind {
	case ValueInt64:
		v.VisitInt64(f.name, int64(f.num))
	case ValueUint64:
		v.VisitUint64(f.name, f.num)
	case ValueFloat64:
		v.VisitFloat64(f.name, math.Float64frombits(f.num))
	case ValueBool:
		v.VisitBool(f.name, f.num != 0)
	case ValueString:
		v.VisitString(f.name, f.str)
	case ValueStringer:
		s, _ := f.iface.(fmt.Stringer)
		v.VisitStringer(f.name, s)
	case ValueError:
		err, _ := f.iface.(error)
		v.VisitError(f.name, err)
	}
}

// Visitor receives typed field values, one callback per value kind. The
// core never materializes a generic key-value container; a subscriber that
// wants storage builds it inside its visitor, and one that does not pays
// for nothing.
type Visitor interface {
	VisitInt64(name string, v int64)
	VisitUint64(name string, v uint64)
	VisitFloat64(name string, v float64)
	VisitBool(name string, v bool)
	VisitString(name, v string)
	VisitStringer(name string, v fmt.Stringer)
	VisitError(name string, err error)
}

// Record bundles a call site's metadata with the field values of one
// firing. Records are passed by value and visited, never stored, by the
// core.
type Record struct {
	metadata *Metadata
	fields   []Field
}

// NewRecord creates a record for the given call site metadata. Fields
// should be supplied in the metadata's declaration order.
func NewRecord(md *Metadata, fields ...Field) Record {
	return Record{metadata: md, fields: fields}
}

// Metadata returns the call site descriptor the record belongs to.
func (r Record) Metadata() *Metadata { return r.metadata }

// Len returns the number of recorded fields.
func (r Record) Len() int { return len(r.fields) }

// Visit delivers every field to the visitor in the order recorded.
func (r Record) Visit(v Visitor) {
	for i := range r.fields {
		r.fields[i].Visit(v)
	}
}
