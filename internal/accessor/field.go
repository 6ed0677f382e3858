package accessor

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field is one named slot of a shape together with the closures that read
// and write it. Fields are declared with the typed constructors below and
// handed to Define; they are never discovered at runtime.
type Field struct {
	name  string
	kind  Kind
	shape string
	get   func(Record) any
	set   func(Record, any)
}

// Name returns the field name used for lookups.
func (f *Field) Name() string { return f.name }

// Kind returns the declared value type.
func (f *Field) Kind() Kind { return f.kind }

// Read returns the current value of the field on rec. rec must belong to
// the shape the field was looked up from.
func (f *Field) Read(rec Record) any {
	return f.get(rec)
}

// Write stores value on rec after coercing it to the field's kind.
func (f *Field) Write(rec Record, value any) error {
	v, ok := Coerce(f.kind, value)
	if !ok {
		return &TypeMismatchError{Shape: f.shape, Field: f.name, Kind: f.kind, Value: value}
	}
	f.set(rec, v)
	return nil
}

func define[R Record, V any](name string, kind Kind, get func(R) V, set func(R, V)) Field {
	f := Field{name: name, kind: kind}
	if get != nil {
		f.get = func(r Record) any { return get(r.(R)) }
	}
	if set != nil {
		f.set = func(r Record, v any) { set(r.(R), v.(V)) }
	}
	return f
}

// String declares a text field.
func String[R Record](name string, get func(R) string, set func(R, string)) Field {
	return define(name, KindString, get, set)
}

// Decimal declares a fixed-point numeric field.
func Decimal[R Record](name string, get func(R) decimal.Decimal, set func(R, decimal.Decimal)) Field {
	return define(name, KindDecimal, get, set)
}

// Date declares a calendar date field.
func Date[R Record](name string, get func(R) time.Time, set func(R, time.Time)) Field {
	return define(name, KindDate, get, set)
}

// DateTime declares a timestamp field.
func DateTime[R Record](name string, get func(R) time.Time, set func(R, time.Time)) Field {
	return define(name, KindDateTime, get, set)
}

// Int declares an integer field.
func Int[R Record](name string, get func(R) int64, set func(R, int64)) Field {
	return define(name, KindInt, get, set)
}

// Bool declares a flag field.
func Bool[R Record](name string, get func(R) bool, set func(R, bool)) Field {
	return define(name, KindBool, get, set)
}

// Embed lifts fields declared for an embedded record B onto its container
// R. project returns the embedded value inside a container instance. This
// is how a shape includes the fields of another shape.
func Embed[R Record, B Record](project func(R) B, fields ...Field) []Field {
	out := make([]Field, len(fields))
	for i, inner := range fields {
		out[i] = Field{name: inner.name, kind: inner.kind}
		if get := inner.get; get != nil {
			out[i].get = func(r Record) any { return get(project(r.(R))) }
		}
		if set := inner.set; set != nil {
			out[i].set = func(r Record, v any) { set(project(r.(R)), v) }
		}
	}
	return out
}
