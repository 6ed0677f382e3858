package accessor

// Record is implemented by every value the engine reads or writes. Shape
// must return the same *Shape for every instance of a type.
type Record interface {
	Shape() *Shape
}

// Shape is a named, closed set of fields describing one record flavour.
// Shapes are compared by identity; declare each one once as a package
// level variable.
type Shape struct {
	name    string
	newFn   func() Record
	accepts func(Record) bool
	declare func() []Field
}

// Define registers a shape for record type R. newFn returns a fresh zero
// instance and declare lists the fields. declare is not called until the
// shape is first used through a Cache.
func Define[R Record](name string, newFn func() R, declare func() []Field) *Shape {
	s := &Shape{
		name: name,
		accepts: func(r Record) bool {
			_, ok := r.(R)
			return ok
		},
		declare: declare,
	}
	if newFn != nil {
		s.newFn = func() Record { return newFn() }
	}
	return s
}

// Name returns the shape name.
func (s *Shape) Name() string {
	if s == nil {
		return "<nil>"
	}
	return s.name
}

func (s *Shape) String() string { return s.Name() }

// New returns a fresh zero instance of the shape's record type.
func (s *Shape) New() Record {
	return s.newFn()
}

// Accepts reports whether rec is of the shape's record type.
func (s *Shape) Accepts(rec Record) bool {
	return rec != nil && s.accepts(rec)
}
