// =============================================================================
// FX Booking Transformer - Converter Module
// =============================================================================
//
// Orchestrates one transformation job: a single input file, or a single
// database request, for one instruction event.
//
// PROCESSING STEPS:
//   1. Fetch the aggregated records of the event
//   2. Group them by (external deal id, comment, NAV type, typology)
//   3. Run every group through the pipeline with the event's overrides
//   4. Apply the event's transformation rules to the external records
//   5. Render the booking XML
//   6. Write and archive the output file
//   7. Publish the external records, when enabled
//   8. Archive the input file
//
// CONCURRENCY:
//   A Converter holds no per-job state. Jobs may run concurrently; within a
//   job the groups run concurrently up to Options.Concurrency.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
	"github.com/ginjaninja78/fx-booking-transformer/internal/fetch"
	"github.com/ginjaninja78/fx-booking-transformer/internal/grouping"
	"github.com/ginjaninja78/fx-booking-transformer/internal/mapper"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
	"github.com/ginjaninja78/fx-booking-transformer/internal/pipeline"
	"github.com/ginjaninja78/fx-booking-transformer/internal/strategy"
	"github.com/ginjaninja78/fx-booking-transformer/internal/xmlwriter"
	"github.com/ginjaninja78/fx-booking-transformer/pkg/utils"
)

// =============================================================================
// JOB AND RESULT STRUCTURES
// =============================================================================

// Job is one unit of work.
type Job struct {
	// Config is the event config the job runs under.
	Config *config.EventConfig

	// Path is the input file. Empty for database jobs.
	Path string

	// Fetcher overrides the fetcher built from Config and Path.
	Fetcher fetch.Fetcher

	// Request selects and filters the records.
	Request fetch.Request
}

// Source names where the job reads from, for logs and summaries.
func (j Job) Source() string {
	if j.Path != "" {
		return j.Path
	}
	if j.Config != nil && j.Config.Source.Kind != "" {
		return j.Config.Source.Kind
	}
	return "fetcher"
}

// Result is the outcome of a job.
type Result struct {
	Job     Job
	Event   model.Event
	Success bool
	Error   error

	// Output holds the merged bookings of the successful groups.
	Output *strategy.ProcessingResult

	// Failures are the groups that failed when ContinueOnError is set.
	Failures []pipeline.Outcome

	// Document is the rendered XML.
	Document []byte

	OutputFile  string
	ArchivePath string
	Published   int
	Stats       ProcessingStats
}

// ProcessingStats are the counts of a job.
type ProcessingStats struct {
	Records        int
	Groups         int
	Trades         int
	External       int
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER
// =============================================================================

// Publisher sends generated external records downstream.
type Publisher interface {
	Publish(ctx context.Context, event model.Event, records []*model.ExternalRecord) (int, error)
}

// Dependencies are the collaborators of a Converter.
type Dependencies struct {
	Engine   *mapper.Engine
	Pipeline *pipeline.Pipeline
	Files    *utils.FileManager

	// DB serves postgres sources. Optional.
	DB fetch.Querier

	// Publisher is used when Options.Publish is set. Optional.
	Publisher Publisher

	Logger logrus.FieldLogger
	Now    func() time.Time
}

// Options control a Converter.
type Options struct {
	// DryRun stops after rendering: nothing is written, published or
	// archived.
	DryRun bool

	// OutputFileNameFormat names output files, see utils.GenerateOutputFileName.
	OutputFileNameFormat string

	Concurrency     int
	ContinueOnError bool
	Publish         bool

	XML xmlwriter.GenerateOptions
}

// Converter runs jobs.
type Converter struct {
	deps Dependencies
	opts Options
}

// New creates a Converter. Engine, Logger and Now default when unset.
func New(deps Dependencies, opts Options) (*Converter, error) {
	if deps.Pipeline == nil {
		return nil, errors.New("converter: pipeline is required")
	}
	if deps.Files == nil && !opts.DryRun {
		return nil, errors.New("converter: file manager is required")
	}
	if deps.Engine == nil {
		deps.Engine = mapper.Default()
	}
	if deps.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		deps.Logger = l
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.OutputFileNameFormat == "" {
		opts.OutputFileNameFormat = "{event}_{uuid}.xml"
	}
	if opts.XML == (xmlwriter.GenerateOptions{}) {
		opts.XML = xmlwriter.DefaultGenerateOptions()
	}
	return &Converter{deps: deps, opts: opts}, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes one job. Failures are reported in the result, never returned.
func (c *Converter) Run(ctx context.Context, job Job) Result {
	start := c.deps.Now()
	result := Result{Job: job}

	log := c.deps.Logger.WithField("source", job.Source())

	if err := c.run(ctx, job, &result, log); err != nil {
		result.Error = err
		log.WithError(err).Error("job failed")
	} else {
		result.Success = true
	}
	result.Stats.ProcessingTime = c.deps.Now().Sub(start)
	return result
}

func (c *Converter) run(ctx context.Context, job Job, result *Result, log logrus.FieldLogger) error {
	if job.Config == nil {
		return errors.New("job has no event config")
	}
	cfg := job.Config

	event, err := model.ParseEvent(cfg.InstructionEvent)
	if err != nil {
		return err
	}
	result.Event = event
	log = log.WithField("event", event)

	// Step 1: fetch.
	fetcher, err := c.fetcherFor(event, job)
	if err != nil {
		return err
	}
	req := c.request(cfg, job.Request)

	records, err := fetcher.Fetch(ctx, req)
	if err != nil {
		return fmt.Errorf("fetch records: %w", err)
	}
	result.Stats.Records = len(records)

	// Step 2: group.
	groups, err := grouping.Group(records)
	if err != nil {
		return fmt.Errorf("group records: %w", err)
	}
	result.Stats.Groups = len(groups)
	log.WithFields(logrus.Fields{"records": len(records), "groups": len(groups)}).Info("grouped aggregated records")

	// Step 3: transform.
	batch, err := c.deps.Pipeline.RunBatch(ctx, pipeline.BatchRequest{
		Event:  event,
		Groups: groups,
		Params: strategy.Params{
			BusinessDate:  req.BusinessDate,
			InputCurrency: req.InputCurrency,
			USDCurrency:   req.USDCurrency,
			Portfolio:     req.Portfolio,
		},
		Overrides: func(key model.GroupKey) map[string]any {
			return cfg.Overrides.For(key.Typology.String())
		},
	}, pipeline.BatchOptions{
		Concurrency:     c.opts.Concurrency,
		ContinueOnError: c.opts.ContinueOnError,
	})
	if err != nil {
		return err
	}
	result.Failures = batch.Failures()
	for _, f := range result.Failures {
		log.WithField("group", f.Key.String()).WithError(f.Err).Warn("group failed, left out of the output")
	}

	output := batch.Merged()
	result.Output = output
	result.Stats.Trades = len(output.Trades)
	result.Stats.External = len(output.External)

	// Step 4: transformation rules.
	transformer, err := NewTransformer(c.deps.Engine, cfg.TransformationRules)
	if err != nil {
		return fmt.Errorf("transformation rules: %w", err)
	}
	if err := transformer.ApplyAll(output.External); err != nil {
		return fmt.Errorf("transformation rules: %w", err)
	}

	// Step 5: render.
	now := c.deps.Now()
	doc, err := xmlwriter.GenerateWithOptions(c.deps.Engine, xmlwriter.Document{
		Event:     event,
		Generated: now,
		Records:   output.External,
	}, c.opts.XML)
	if err != nil {
		return fmt.Errorf("generate XML: %w", err)
	}
	result.Document = doc

	if c.opts.DryRun {
		log.WithField("external", len(output.External)).Info("dry run, nothing written")
		return nil
	}

	// Step 6: write.
	name := utils.GenerateOutputFileName(c.opts.OutputFileNameFormat, now, map[string]string{"event": event.String()})
	path, err := c.deps.Files.WriteOutput(name, doc)
	if err != nil {
		return err
	}
	result.OutputFile = path
	if _, err := c.deps.Files.ArchiveOutputFile(path); err != nil {
		log.WithError(err).Warn("failed to archive output file")
	}

	// Step 7: publish.
	if c.opts.Publish && c.deps.Publisher != nil && len(output.External) > 0 {
		n, err := c.deps.Publisher.Publish(ctx, event, output.External)
		result.Published = n
		if err != nil {
			return err
		}
	}

	// Step 8: archive the input. A failed group keeps the input in place so
	// it can be rerun.
	if job.Path != "" && len(result.Failures) == 0 {
		archived, err := c.deps.Files.ArchiveInputFile(job.Path)
		if err != nil {
			log.WithError(err).Warn("failed to archive input file")
		} else {
			result.ArchivePath = archived
		}
	}

	log.WithFields(logrus.Fields{
		"output":   path,
		"trades":   len(output.Trades),
		"external": len(output.External),
		"failed":   len(result.Failures),
	}).Info("job complete")
	return nil
}

func (c *Converter) fetcherFor(event model.Event, job Job) (fetch.Fetcher, error) {
	if job.Fetcher != nil {
		if !job.Fetcher.Supports(event) {
			return nil, fmt.Errorf("%w for instruction event: %s", fetch.ErrNoFetcher, event)
		}
		return job.Fetcher, nil
	}
	source, err := fetch.NewSource(job.Config, job.Path, c.deps.DB)
	if err != nil {
		return nil, err
	}
	return fetch.NewEventFetcher(event, source,
		fetch.WithEngine(c.deps.Engine),
		fetch.WithLogger(c.deps.Logger),
	)
}

// request fills the currencies the job leaves empty from the event config.
func (c *Converter) request(cfg *config.EventConfig, req fetch.Request) fetch.Request {
	if req.InputCurrency == "" {
		req.InputCurrency = cfg.InputCurrency
	}
	if req.USDCurrency == "" {
		req.USDCurrency = cfg.USDCurrency
	}
	return req
}
