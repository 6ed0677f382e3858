package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/fx-booking-transformer/internal/grouping"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
	"github.com/ginjaninja78/fx-booking-transformer/internal/strategy"
)

// BatchRequest is one fetch worth of groups to transform.
type BatchRequest struct {
	Event  model.Event
	Groups []*grouping.GroupedRecord
	Params strategy.Params

	// Overrides returns the overrides for a group. It may be nil.
	Overrides func(model.GroupKey) map[string]any
}

// BatchOptions controls RunBatch.
type BatchOptions struct {
	// Concurrency caps the groups in flight. Zero or less means no cap.
	Concurrency int

	// ContinueOnError keeps going after a failed group. Otherwise the first
	// failure cancels the groups not yet started.
	ContinueOnError bool
}

// Outcome is the result of one group.
type Outcome struct {
	Key    model.GroupKey
	Result *strategy.ProcessingResult
	Err    error
}

// BatchResult holds one outcome per group, in group order.
type BatchResult struct {
	Outcomes []Outcome
}

// Merged concatenates the results of the successful groups in group order.
func (b *BatchResult) Merged() *strategy.ProcessingResult {
	merged := strategy.EmptyResult()
	for _, o := range b.Outcomes {
		if o.Err == nil {
			merged.Merge(o.Result)
		}
	}
	return merged
}

// Failures returns the outcomes that ended in an error.
func (b *BatchResult) Failures() []Outcome {
	var failed []Outcome
	for _, o := range b.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Err joins the errors of all failed groups.
func (b *BatchResult) Err() error {
	var errs []error
	for _, o := range b.Failures() {
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}

// RunBatch runs every group of req through the pipeline. All groups share
// one read-only batch so handlers can look across groups.
func (p *Pipeline) RunBatch(ctx context.Context, req BatchRequest, opts BatchOptions) (*BatchResult, error) {
	batch := grouping.NewBatch(req.Groups)
	outcomes := make([]Outcome, len(req.Groups))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for i, group := range req.Groups {
		g.Go(func() error {
			key := group.Key()
			if err := gctx.Err(); err != nil {
				outcomes[i] = Outcome{Key: key, Err: err}
				return nil
			}

			var overrides map[string]any
			if req.Overrides != nil {
				overrides = req.Overrides(key)
			}
			tc := strategy.NewContext(req.Event, group,
				strategy.WithOverrides(overrides),
				strategy.WithParams(req.Params),
				strategy.WithBatch(batch),
			)

			res, err := p.Run(gctx, tc)
			outcomes[i] = Outcome{Key: key, Result: res, Err: err}
			if err != nil && !opts.ContinueOnError {
				return err
			}
			return nil
		})
	}

	err := g.Wait()
	return &BatchResult{Outcomes: outcomes}, err
}
