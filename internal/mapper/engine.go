// =============================================================================
// FX Booking Transformer - Dynamic Field Engine
// =============================================================================
//
// The engine is the API handlers use to move values between records by field
// name. It sits on two caches:
//
//   - accessor.Cache: one accessor table per record shape
//   - MappingCache:   one field mapping per (source, target) shape pair
//
// Both are built lazily and never invalidated, so after warm-up every Get,
// Set and Copy is a map lookup plus a closure call.
//
// Direct Get and Set are strict: unknown names and incompatible values are
// errors. Copy and ApplyOverrides are tolerant: a requested field the
// target lacks is skipped.
//
// =============================================================================

package mapper

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
)

// Engine reads, writes and copies record fields by name. It is safe for
// concurrent use.
type Engine struct {
	tables   *accessor.Cache
	mappings *MappingCache
	logger   logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTables makes the engine use an existing accessor cache.
func WithTables(tables *accessor.Cache) Option {
	return func(e *Engine) { e.tables = tables }
}

// WithLogger sets the logger used for override diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New returns an engine with its own caches unless WithTables is given.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.tables == nil {
		e.tables = accessor.NewCache()
	}
	if e.logger == nil {
		e.logger = discard()
	}
	e.mappings = NewMappingCache(e.tables)
	return e
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the process-wide engine. It is backed by
// accessor.Default() and lives for the life of the process.
func Default() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = New(
			WithTables(accessor.Default()),
			WithLogger(logrus.StandardLogger().WithField("component", "mapper")),
		)
	})
	return defaultEngine
}

// WithLogger returns a view of e that logs to logger. The view shares e's
// caches.
func (e *Engine) WithLogger(logger logrus.FieldLogger) *Engine {
	view := *e
	view.logger = logger
	return &view
}

// Tables returns the accessor cache behind the engine.
func (e *Engine) Tables() *accessor.Cache { return e.tables }

// Table returns the accessor table for s.
func (e *Engine) Table(s *accessor.Shape) (*accessor.Table, error) {
	return e.tables.Table(s)
}

// Mapping returns the field mapping from source to target.
func (e *Engine) Mapping(source, target *accessor.Shape) (*Mapping, error) {
	return e.mappings.Mapping(source, target)
}

// Get reads the named field of rec.
func (e *Engine) Get(rec accessor.Record, name string) (any, error) {
	return e.tables.Get(rec, name)
}

// Set writes the named field of rec.
func (e *Engine) Set(rec accessor.Record, name string, value any) error {
	return e.tables.Set(rec, name, value)
}

// Copy creates a new record of the target shape and fills the fields named
// in include from src. Names that are not part of the mapping between the
// two shapes are skipped.
func (e *Engine) Copy(src accessor.Record, target *accessor.Shape, include FieldSet) (accessor.Record, error) {
	m, err := e.mappings.Mapping(src.Shape(), target)
	if err != nil {
		return nil, err
	}
	dst := target.New()
	for name := range include {
		p, ok := m.pairs[name]
		if !ok {
			continue
		}
		if err := p.Target.Write(dst, p.Source.Read(src)); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// CopyAll creates a new record of the target shape with every mapped field
// copied from src.
func (e *Engine) CopyAll(src accessor.Record, target *accessor.Shape) (accessor.Record, error) {
	m, err := e.mappings.Mapping(src.Shape(), target)
	if err != nil {
		return nil, err
	}
	dst := target.New()
	for _, name := range m.names {
		p := m.pairs[name]
		if err := p.Target.Write(dst, p.Source.Read(src)); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// Clone returns a field-by-field copy of rec.
func (e *Engine) Clone(rec accessor.Record) (accessor.Record, error) {
	return e.CopyAll(rec, rec.Shape())
}

// Map copies every mapped field of src into a new target record and then
// applies overrides on top.
func (e *Engine) Map(src accessor.Record, target *accessor.Shape, overrides map[string]any) (accessor.Record, OverrideReport, error) {
	dst, err := e.CopyAll(src, target)
	if err != nil {
		return nil, OverrideReport{}, err
	}
	return dst, e.ApplyOverrides(dst, overrides), nil
}

// GetAs reads the named field of rec and asserts its type.
func GetAs[T any](e *Engine, rec accessor.Record, name string) (T, error) {
	var zero T
	table, err := e.Table(rec.Shape())
	if err != nil {
		return zero, err
	}
	v, err := table.Get(rec, name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		field, _ := table.Field(name)
		return zero, &accessor.TypeMismatchError{Shape: rec.Shape().Name(), Field: name, Kind: field.Kind(), Value: v}
	}
	return typed, nil
}

func discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
