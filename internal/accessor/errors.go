package accessor

import "fmt"

// UnknownFieldError is returned by a direct get or set of a field name the
// shape does not declare.
type UnknownFieldError struct {
	Shape string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q on shape %s", e.Field, e.Shape)
}

// TypeMismatchError is returned when a value cannot be stored in a field of
// the declared kind.
type TypeMismatchError struct {
	Shape string
	Field string
	Kind  Kind
	Value any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("field %s.%s expects %s, got %T (%v)", e.Shape, e.Field, e.Kind, e.Value, e.Value)
}

// ShapeBuildError reports that the accessor table of a shape could not be
// built. It is cached with the shape: every later use of the shape returns
// the same error.
type ShapeBuildError struct {
	Shape string
	Cause error
}

func (e *ShapeBuildError) Error() string {
	return fmt.Sprintf("build accessor table for shape %s: %v", e.Shape, e.Cause)
}

func (e *ShapeBuildError) Unwrap() error {
	return e.Cause
}
