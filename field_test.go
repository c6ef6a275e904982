package probez

import (
	"errors"
	"fmt"
	"testing"
)

// captureVisitor records each visit as a "name=kind:value" string.
type captureVisitor struct {
	visits []string
}

func (v *captureVisitor) VisitInt64(name string, val int64) {
	v.visits = append(v.visits, fmt.Sprintf("%s=int64:%d", name, val))
}

func (v *captureVisitor) VisitUint64(name string, val uint64) {
	v.visits = append(v.visits, fmt.Sprintf("%s=uint64:%d", name, val))
}

func (v *captureVisitor) VisitFloat64(name string, val float64) {
	v.visits = append(v.visits, fmt.Sprintf("%s=float64:%v", name, val))
}

func (v *captureVisitor) VisitBool(name string, val bool) {
	v.visits = append(v.visits, fmt.Sprintf("%s=bool:%v", name, val))
}

func (v *captureVisitor) VisitString(name, val string) {
	v.visits = append(v.visits, fmt.Sprintf("%s=string:%s", name, val))
}

func (v *captureVisitor) VisitStringer(name string, val fmt.Stringer) {
	text := "<nil>"
	if val != nil {
		text = val.String()
	}
	v.visits = append(v.visits, fmt.Sprintf("%s=stringer:%s", name, text))
}

func (v *captureVisitor) VisitError(name string, err error) {
	v.visits = append(v.visits, fmt.Sprintf("%s=error:%v", name, err))
}

// countingStringer counts how many times it has been formatted.
type countingStringer struct {
	calls int
}

func (s *countingStringer) String() string {
	s.calls++
	return "formatted"
}

func TestFieldKinds(t *testing.T) {
	cases := []struct {
		field Field
		kind  ValueKind
	}{
		{Int64("a", -1), ValueInt64},
		{Uint64("b", 1), ValueUint64},
		{Float64("c", 1.5), ValueFloat64},
		{Bool("d", true), ValueBool},
		{String("e", "x"), ValueString},
		{Stringer("f", &countingStringer{}), ValueStringer},
		{Err("g", errors.New("boom")), ValueError},
	}

	for _, c := range cases {
		if c.field.Kind() != c.kind {
			t.Errorf("Expected kind %s for field %s, got %s", c.kind, c.field.Name(), c.field.Kind())
		}
	}
}

func TestFieldVisitDispatch(t *testing.T) {
	boom := errors.New("boom")
	fields := []Field{
		Int64("i", -42),
		Uint64("u", 42),
		Float64("f", 19.99),
		Bool("b", true),
		String("s", "hello"),
		Stringer("d", &countingStringer{}),
		Err("e", boom),
	}

	v := &captureVisitor{}
	for _, f := range fields {
		f.Visit(v)
	}

	want := []string{
		"i=int64:-42",
		"u=uint64:42",
		"f=float64:19.99",
		"b=bool:true",
		"s=string:hello",
		"d=stringer:formatted",
		"e=error:boom",
	}
	if len(v.visits) != len(want) {
		t.Fatalf("Expected %d visits, got %d", len(want), len(v.visits))
	}
	for i := range want {
		if v.visits[i] != want[i] {
			t.Errorf("Expected visit %q, got %q", want[i], v.visits[i])
		}
	}
}

func TestStringerFormattedLazily(t *testing.T) {
	s := &countingStringer{}
	f := Stringer("d", s)

	if s.calls != 0 {
		t.Errorf("Expected no formatting before visit, got %d calls", s.calls)
	}

	f.Visit(&captureVisitor{})

	if s.calls != 1 {
		t.Errorf("Expected exactly one formatting call, got %d", s.calls)
	}
}

func TestStringerNil(t *testing.T) {
	v := &captureVisitor{}
	Stringer("d", nil).Visit(v)

	if len(v.visits) != 1 || v.visits[0] != "d=stringer:<nil>" {
		t.Errorf("Expected nil stringer visit, got %v", v.visits)
	}
}

func TestRecordVisitOrder(t *testing.T) {
	md := NewMetadata("op", "test", LevelInfo, KindEvent, "first", "second", "third")
	r := NewRecord(md,
		Int64("first", 1),
		Int64("second", 2),
		Int64("third", 3),
	)

	if r.Metadata() != md {
		t.Error("Expected record to carry its metadata")
	}
	if r.Len() != 3 {
		t.Errorf("Expected 3 fields, got %d", r.Len())
	}

	v := &captureVisitor{}
	r.Visit(v)

	want := []string{"first=int64:1", "second=int64:2", "third=int64:3"}
	for i := range want {
		if v.visits[i] != want[i] {
			t.Errorf("Expected visit %q at %d, got %q", want[i], i, v.visits[i])
		}
	}
}

func TestRecordEmpty(t *testing.T) {
	md := NewMetadata("op", "test", LevelInfo, KindEvent)
	r := NewRecord(md)

	v := &captureVisitor{}
	r.Visit(v)

	if len(v.visits) != 0 {
		t.Errorf("Expected no visits for empty record, got %d", len(v.visits))
	}
}

func TestValueKindString(t *testing.T) {
	kinds := map[ValueKind]string{
		ValueInt64:    "int64",
		ValueUint64:   "uint64",
		ValueFloat64:  "float64",
		ValueBool:     "bool",
		ValueString:   "string",
		ValueStringer: "stringer",
		ValueError:    "error",
	}

	for kind, want := range kinds {
		if got := kind.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}
