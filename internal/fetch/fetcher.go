// Package fetch turns raw rows from files or the staging database into
// aggregated records, one fetcher per instruction event.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
	"github.com/ginjaninja78/fx-booking-transformer/internal/mapper"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

// Fetcher produces the aggregated records of one instruction event.
type Fetcher interface {
	Supports(event model.Event) bool
	Fetch(ctx context.Context, req Request) ([]model.Aggregated, error)
}

// EventFetcher maps the rows of a RowSource onto the record shape of its
// event.
type EventFetcher struct {
	event  model.Event
	shape  *accessor.Shape
	source RowSource
	engine *mapper.Engine
	logger logrus.FieldLogger
}

// Option configures an EventFetcher.
type Option func(*EventFetcher)

func WithEngine(engine *mapper.Engine) Option {
	return func(f *EventFetcher) { f.engine = engine }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(f *EventFetcher) { f.logger = logger }
}

// NewEventFetcher returns a fetcher for event reading from source.
func NewEventFetcher(event model.Event, source RowSource, opts ...Option) (*EventFetcher, error) {
	shape, err := model.ShapeForEvent(event)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, errors.New("fetch: nil row source")
	}

	f := &EventFetcher{
		event:  event,
		shape:  shape,
		source: source,
		engine: mapper.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		f.logger = l
	}
	return f, nil
}

func (f *EventFetcher) Event() model.Event { return f.event }

func (f *EventFetcher) Supports(event model.Event) bool { return f.event.Is(event) }

// Fetch reads the source rows, writes each column into the field of the same
// name and returns the records that pass the request filters, in source
// order. Columns that match no field are ignored. A value the field cannot
// hold fails the fetch.
func (f *EventFetcher) Fetch(ctx context.Context, req Request) ([]model.Aggregated, error) {
	table, err := f.engine.Table(f.shape)
	if err != nil {
		return nil, err
	}

	rows, err := f.source.Rows(ctx, req)
	if err != nil {
		return nil, err
	}

	plan := planColumns(table, rowColumns(rows))

	records := make([]model.Aggregated, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec := f.shape.New().(model.Aggregated)
		for _, b := range plan.bindings {
			value, ok := row[b.column]
			if !ok {
				continue
			}
			if err := table.Set(rec, b.field, value); err != nil {
				return nil, fmt.Errorf("record %d: %w", i+1, err)
			}
		}

		if req.Matches(rec) {
			records = append(records, rec)
		}
	}

	if len(plan.unknown) > 0 {
		f.logger.WithFields(logrus.Fields{
			"event":   f.event,
			"columns": plan.unknown,
		}).Debug("ignoring columns with no matching field")
	}
	if len(plan.shadowed) > 0 {
		f.logger.WithFields(logrus.Fields{
			"event":   f.event,
			"columns": plan.shadowed,
		}).Warn("ignoring columns whose field is fed by a closer matching column")
	}

	f.logger.WithFields(logrus.Fields{
		"event":    f.event,
		"rows":     len(rows),
		"selected": len(records),
	}).Info("fetched aggregated records")

	return records, nil
}
