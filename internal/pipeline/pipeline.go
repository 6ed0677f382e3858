// =============================================================================
// FX Booking Transformer - Transformation Pipeline
// =============================================================================
//
// The pipeline takes one group at a time:
//
//   1. Read the instruction event and typology from the context
//   2. Resolve the handler from the strategy registry
//   3. Invoke the handler
//   4. Return its result, or a PipelineError carrying the typology and the
//      original cause
//
// The pipeline does not retry. A caller that wants retries owns them.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
	"github.com/ginjaninja78/fx-booking-transformer/internal/strategy"
	"github.com/ginjaninja78/fx-booking-transformer/internal/telemetry"
)

// PipelineError wraps any failure of a pipeline run, whether from handler
// resolution or from the handler itself.
type PipelineError struct {
	Event    model.Event
	Typology model.Typology
	Key      model.GroupKey
	Cause    error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("failed to generate bookings for instruction event: %s, typology: %s: %v", e.Event, e.Typology, e.Cause)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Pipeline dispatches groups to their handlers.
type Pipeline struct {
	registry *strategy.Registry
	logger   logrus.FieldLogger
	metrics  *telemetry.Instruments
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithInstruments sets the telemetry instruments.
func WithInstruments(inst *telemetry.Instruments) Option {
	return func(p *Pipeline) { p.metrics = inst }
}

// New returns a pipeline resolving handlers from registry.
func New(registry *strategy.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{registry: registry}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		p.logger = l
	}
	if p.metrics == nil {
		p.metrics = telemetry.Noop()
	}
	return p
}

// Registry returns the registry the pipeline resolves from.
func (p *Pipeline) Registry() *strategy.Registry { return p.registry }

// Run transforms the group of tc. On success the result is never nil.
func (p *Pipeline) Run(ctx context.Context, tc *strategy.Context) (result *strategy.ProcessingResult, err error) {
	event, typology := tc.Event(), tc.Typology()
	log := p.logger.WithFields(logrus.Fields{
		"event":    event,
		"typology": typology,
		"group":    tc.Key().String(),
	})

	ctx, done := p.metrics.StartRun(ctx, string(event), string(typology))
	defer func() {
		produced := 0
		if result != nil {
			produced = len(result.Trades)
		}
		done(produced, err)
	}()

	handler, err := p.registry.Resolve(event, typology)
	if err != nil {
		log.WithError(err).Error("no handler for group")
		return nil, p.wrap(tc, err)
	}

	log = log.WithField("strategy", handler.Type())
	log.Debug("dispatching group")

	result, err = invoke(ctx, handler, tc)
	if err != nil {
		log.WithError(err).Error("handler failed")
		return nil, p.wrap(tc, err)
	}
	if result == nil {
		result = strategy.EmptyResult()
	}
	if result.External == nil {
		result.External = []*model.ExternalRecord{}
	}
	if result.Trades == nil {
		result.Trades = []*model.TradeLeg{}
	}

	log.WithFields(logrus.Fields{
		"trades":   len(result.Trades),
		"external": len(result.External),
	}).Debug("group transformed")
	return result, nil
}

func invoke(ctx context.Context, h strategy.Handler, tc *strategy.Context) (result *strategy.ProcessingResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("handler %s panicked: %v", h.Type(), r)
		}
	}()
	return h.Handle(ctx, tc)
}

func (p *Pipeline) wrap(tc *strategy.Context, cause error) error {
	return &PipelineError{
		Event:    tc.Event(),
		Typology: tc.Typology(),
		Key:      tc.Key(),
		Cause:    cause,
	}
}
