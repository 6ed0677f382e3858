// Package telemetry holds the OpenTelemetry instruments recorded around
// every pipeline run.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/ginjaninja78/fx-booking-transformer/pipeline"

// Metric names.
const (
	MetricRuns     = "pipeline.runs"
	MetricFailures = "pipeline.failures"
	MetricProduced = "pipeline.records.produced"
	MetricDuration = "pipeline.run.duration"
)

// Instruments bundles the tracer and meters of the pipeline.
type Instruments struct {
	tracer   trace.Tracer
	runs     metric.Int64Counter
	failures metric.Int64Counter
	produced metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates the instruments on meter and tracer.
func New(meter metric.Meter, tracer trace.Tracer) (*Instruments, error) {
	runs, err := meter.Int64Counter(MetricRuns,
		metric.WithDescription("Groups handed to a transformation handler"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter(MetricFailures,
		metric.WithDescription("Pipeline runs that ended in an error"))
	if err != nil {
		return nil, err
	}
	produced, err := meter.Int64Counter(MetricProduced,
		metric.WithDescription("Trade legs generated by handlers"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Time spent in a single pipeline run"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &Instruments{
		tracer:   tracer,
		runs:     runs,
		failures: failures,
		produced: produced,
		duration: duration,
	}, nil
}

// Global creates the instruments on the globally registered providers.
func Global() (*Instruments, error) {
	return New(otel.Meter(instrumentationName), otel.Tracer(instrumentationName))
}

// Noop returns instruments that record nothing.
func Noop() *Instruments {
	inst, _ := New(metricnoop.NewMeterProvider().Meter(instrumentationName), tracenoop.NewTracerProvider().Tracer(instrumentationName))
	return inst
}

// StartRun opens a span for one run. Call the returned function with the
// number of trade legs produced and the run's error.
func (i *Instruments) StartRun(ctx context.Context, event, typology string) (context.Context, func(produced int, err error)) {
	attrs := []attribute.KeyValue{
		attribute.String("event", event),
		attribute.String("typology", typology),
	}
	ctx, span := i.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(produced int, err error) {
		set := metric.WithAttributes(attrs...)
		i.runs.Add(ctx, 1, set)
		i.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, set)
		if err != nil {
			i.failures.Add(ctx, 1, set)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			i.produced.Add(ctx, int64(produced), set)
		}
		span.End()
	}
}
