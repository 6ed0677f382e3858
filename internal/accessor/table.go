package accessor

import (
	"errors"
	"fmt"
)

// Table maps the field names of one shape to their accessors. A Table is
// immutable once built and safe for concurrent use.
type Table struct {
	shape  *Shape
	fields map[string]*Field
	names  []string
}

// buildTable runs the shape's field declaration and checks it. Any failure,
// including a panic from the declaration or a probe read, becomes a
// ShapeBuildError.
func buildTable(s *Shape) (t *Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = &ShapeBuildError{Shape: s.Name(), Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	if s == nil {
		return nil, &ShapeBuildError{Shape: s.Name(), Cause: errors.New("nil shape")}
	}
	if s.declare == nil || s.newFn == nil {
		return nil, &ShapeBuildError{Shape: s.name, Cause: errors.New("shape has no constructor or field declaration")}
	}

	decl := s.declare()
	if len(decl) == 0 {
		return nil, &ShapeBuildError{Shape: s.name, Cause: errors.New("shape declares no fields")}
	}

	t = &Table{
		shape:  s,
		fields: make(map[string]*Field, len(decl)),
		names:  make([]string, 0, len(decl)),
	}
	for i, f := range decl {
		switch {
		case f.name == "":
			return nil, &ShapeBuildError{Shape: s.name, Cause: fmt.Errorf("field %d has no name", i)}
		case f.kind == KindInvalid || f.kind.String() == "invalid":
			return nil, &ShapeBuildError{Shape: s.name, Cause: fmt.Errorf("field %q has no kind", f.name)}
		case f.get == nil || f.set == nil:
			return nil, &ShapeBuildError{Shape: s.name, Cause: fmt.Errorf("field %q is missing an accessor", f.name)}
		}
		if _, dup := t.fields[f.name]; dup {
			return nil, &ShapeBuildError{Shape: s.name, Cause: fmt.Errorf("duplicate field %q", f.name)}
		}
		field := f
		field.shape = s.name
		t.fields[f.name] = &field
		t.names = append(t.names, f.name)
	}

	// Probe every getter against a fresh instance so a broken projection
	// fails here rather than on the first real record.
	probe := s.New()
	if !s.Accepts(probe) {
		return nil, &ShapeBuildError{Shape: s.name, Cause: fmt.Errorf("constructor returns %T", probe)}
	}
	if probe.Shape() != s {
		return nil, &ShapeBuildError{Shape: s.name, Cause: fmt.Errorf("constructor returns a record of shape %s", probe.Shape().Name())}
	}
	for _, name := range t.names {
		t.fields[name].get(probe)
	}

	return t, nil
}

// Shape returns the shape the table was built for.
func (t *Table) Shape() *Shape { return t.shape }

// Len returns the number of fields.
func (t *Table) Len() int { return len(t.names) }

// Names returns the field names in declaration order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Field looks up a field by name.
func (t *Table) Field(name string) (*Field, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// Has reports whether the shape declares name.
func (t *Table) Has(name string) bool {
	_, ok := t.fields[name]
	return ok
}

// Get reads the named field from rec.
func (t *Table) Get(rec Record, name string) (any, error) {
	f, ok := t.fields[name]
	if !ok {
		return nil, &UnknownFieldError{Shape: t.shape.name, Field: name}
	}
	if err := t.owns(rec); err != nil {
		return nil, err
	}
	return f.Read(rec), nil
}

// Set writes value into the named field of rec.
func (t *Table) Set(rec Record, name string, value any) error {
	f, ok := t.fields[name]
	if !ok {
		return &UnknownFieldError{Shape: t.shape.name, Field: name}
	}
	if err := t.owns(rec); err != nil {
		return err
	}
	return f.Write(rec, value)
}

func (t *Table) owns(rec Record) error {
	if !t.shape.Accepts(rec) {
		return fmt.Errorf("record %T does not belong to shape %s", rec, t.shape.name)
	}
	return nil
}
