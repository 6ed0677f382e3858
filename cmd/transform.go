// =============================================================================
// FX Booking Transformer - Transform Command
// =============================================================================
//
// This file defines the 'transform' command, the main command of the tool.
// It orchestrates the whole run across every configured instruction event.
//
// COMMAND USAGE:
//   fxbt transform [flags]
//
// FLAGS:
//   --dry-run        : Transform and render without writing, publishing or archiving
//   --file           : Process a single input file
//   --event          : Process only one instruction event
//   --db             : Read the records of database configured events
//   --business-date  : Business date of the run (YYYY-MM-DD)
//   --trade-ids      : Colon separated external trade ids to keep
//   --typology       : Keep only one hedge instrument type
//   --currency       : Input currency, overrides the event config
//   --portfolio      : Keep only one portfolio
//   --publish        : Publish bookings to RabbitMQ
//   --dump           : Print the generated bookings
//   --metrics        : Print pipeline metrics at the end of the run
//
// PROCESSING PIPELINE:
//   1. Load the main and event configurations
//   2. Build the handler registry, the pipeline and the converter
//   3. Plan one job per matching input file, plus one per database event
//   4. Run the jobs concurrently, at most max_concurrency at a time
//   5. Write the error log and the processing summary
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
	"github.com/ginjaninja78/fx-booking-transformer/internal/converter"
	"github.com/ginjaninja78/fx-booking-transformer/internal/fetch"
	"github.com/ginjaninja78/fx-booking-transformer/internal/handlers"
	"github.com/ginjaninja78/fx-booking-transformer/internal/mapper"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
	"github.com/ginjaninja78/fx-booking-transformer/internal/pipeline"
	"github.com/ginjaninja78/fx-booking-transformer/internal/publish"
	"github.com/ginjaninja78/fx-booking-transformer/internal/telemetry"
	"github.com/ginjaninja78/fx-booking-transformer/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type transformFlags struct {
	dryRun       bool
	file         string
	event        string
	fromDB       bool
	businessDate string
	tradeIDs     string
	typology     string
	currency     string
	portfolio    string
	publish      bool
	dump         bool
	metrics      bool
}

var transformOpts transformFlags

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform aggregated FX records into booking XML",
	Long: `The transform command matches input files to the instruction event
configurations, fetches their aggregated records, groups them by deal and
runs every group through the transformation strategy of its hedge instrument
type.

Processing is done concurrently. Each job is processed independently, and
errors in one job do not affect the processing of others.

On successful processing:
  - The generated XML is placed in the output directory
  - The original input file is moved to the input archive
  - A summary report is generated

On error:
  - An error log is created in the output directory
  - The original input file remains in the input directory
  - Processing continues for other jobs`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransform(cmd.Context(), cmd.OutOrStdout(), transformOpts)
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)

	f := transformCmd.Flags()
	f.BoolVar(&transformOpts.dryRun, "dry-run", false, "Transform and render without writing, publishing or archiving")
	f.StringVar(&transformOpts.file, "file", "", "Process a single input file")
	f.StringVar(&transformOpts.event, "event", "", "Process only this instruction event")
	f.BoolVar(&transformOpts.fromDB, "db", false, "Read the records of database configured events")
	f.StringVar(&transformOpts.businessDate, "business-date", "", "Business date of the run (YYYY-MM-DD)")
	f.StringVar(&transformOpts.tradeIDs, "trade-ids", "", "Colon separated external trade ids to keep")
	f.StringVar(&transformOpts.typology, "typology", "", "Keep only this hedge instrument type")
	f.StringVar(&transformOpts.currency, "currency", "", "Input currency, overrides the event config")
	f.StringVar(&transformOpts.portfolio, "portfolio", "", "Keep only this portfolio")
	f.BoolVar(&transformOpts.publish, "publish", false, "Publish bookings to RabbitMQ")
	f.BoolVar(&transformOpts.dump, "dump", false, "Print the generated bookings")
	f.BoolVar(&transformOpts.metrics, "metrics", false, "Print pipeline metrics at the end of the run")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runTransform(ctx context.Context, out io.Writer, opts transformFlags) error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	s, err := setup()
	if err != nil {
		return err
	}
	defer s.Close()
	logger := s.logger

	req, err := buildRequest(opts)
	if err != nil {
		return err
	}

	configs, err := config.LoadEventConfigs(s.main.ConfigsDir)
	if err != nil {
		return fmt.Errorf("failed to load event configs: %w", err)
	}
	configs, err = selectConfigs(configs, opts.event)
	if err != nil {
		return err
	}
	logger.WithField("configs", len(configs)).Info("loaded event configurations")

	// =========================================================================
	// STEP 2: BUILD THE PROCESSING STACK
	// =========================================================================

	engine := mapper.New(mapper.WithLogger(component(logger, "mapper")))
	registry := handlers.NewRegistry(handlers.Deps{Engine: engine, Logger: component(logger, "handlers")})

	var collector *telemetry.Collector
	var inst *telemetry.Instruments
	if opts.metrics {
		collector = telemetry.NewCollector()
		defer func() { _ = collector.Shutdown(context.Background()) }()
		inst, err = collector.Instruments()
	} else {
		inst, err = telemetry.Global()
	}
	if err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}
	pipe := pipeline.New(registry, pipeline.WithLogger(component(logger, "pipeline")), pipeline.WithInstruments(inst))

	files := utils.NewFileManager(s.main.InputDir, s.main.OutputDir, s.main.InputArchiveDir, s.main.OutputArchiveDir)
	files.ArchiveOnSuccess = s.main.ArchiveOnSuccess
	if !opts.dryRun {
		if err := files.EnsureDirectories(); err != nil {
			return err
		}
	}

	var pool *pgxpool.Pool
	var fetchers *fetch.Registry
	if opts.fromDB {
		if s.main.Postgres.DSN == "" {
			return errors.New("--db requires postgres.dsn")
		}
		if pool, err = fetch.NewPostgresPool(ctx, s.main.Postgres); err != nil {
			return err
		}
		defer pool.Close()
		if fetchers, err = databaseFetchers(configs, pool, engine, component(logger, "fetch")); err != nil {
			return err
		}
	}

	deps := converter.Dependencies{
		Engine:   engine,
		Pipeline: pipe,
		Files:    files,
		Logger:   component(logger, "converter"),
	}
	if pool != nil {
		deps.DB = pool
	}
	if opts.publish && !opts.dryRun {
		if s.main.RabbitMQ.URL == "" {
			return errors.New("--publish requires rabbitmq.url")
		}
		publisher, err := publish.Dial(s.main.RabbitMQ, component(logger, "publish"))
		if err != nil {
			return err
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.WithError(err).Warn("failed to close publisher")
			}
		}()
		deps.Publisher = publisher
	}

	conv, err := converter.New(deps, converter.Options{
		DryRun:               opts.dryRun,
		OutputFileNameFormat: s.main.OutputFileNameFormat,
		Concurrency:          s.main.MaxConcurrency,
		ContinueOnError:      s.main.ContinueOnError,
		Publish:              opts.publish,
	})
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 3: PLAN JOBS
	// =========================================================================

	jobs, err := planJobs(configs, files, fetchers, opts.file, req)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No input files or database events to process.")
		return nil
	}
	logger.WithField("jobs", len(jobs)).Info("processing jobs")

	// =========================================================================
	// STEP 4: RUN JOBS CONCURRENTLY
	// =========================================================================

	results := make([]converter.Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(s.main.MaxConcurrency)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = conv.Run(ctx, job)
			return nil
		})
	}
	g.Wait()

	// =========================================================================
	// STEP 5: REPORT
	// =========================================================================

	summary, errorLog := summarize(results, startTime, time.Now())
	printResults(out, results, opts)
	printSummary(out, summary)

	if collector != nil {
		totals, err := collector.Totals(ctx)
		if err != nil {
			logger.WithError(err).Warn("failed to collect metrics")
		} else {
			printMetrics(out, totals)
		}
	}

	if !opts.dryRun {
		if path, err := utils.WriteSummaryLog(summary, s.main.OutputDir); err != nil {
			logger.WithError(err).Warn("failed to write summary log")
		} else {
			logger.WithField("path", path).Info("summary written")
		}
		if len(errorLog) > 0 {
			if path, err := utils.WriteErrorLog(errorLog, s.main.OutputDir); err != nil {
				logger.WithError(err).Warn("failed to write error log")
			} else {
				fmt.Fprintf(out, "\nErrors have been logged to %s\n", path)
			}
		}
	}

	if summary.FailedJobs > 0 {
		return fmt.Errorf("%d of %d job(s) failed", summary.FailedJobs, summary.TotalJobs)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func component(logger logrus.FieldLogger, name string) logrus.FieldLogger {
	return logger.WithField("component", name)
}

// buildRequest turns the filter flags into a fetch request.
func buildRequest(opts transformFlags) (fetch.Request, error) {
	req := fetch.Request{
		ExternalTradeIDs:    fetch.ParseTradeIDs(opts.tradeIDs),
		HedgeInstrumentType: model.Typology(strings.TrimSpace(opts.typology)),
		InputCurrency:       strings.ToUpper(strings.TrimSpace(opts.currency)),
		Portfolio:           strings.TrimSpace(opts.portfolio),
	}
	if opts.businessDate != "" {
		d, err := time.Parse(time.DateOnly, opts.businessDate)
		if err != nil {
			return fetch.Request{}, fmt.Errorf("invalid --business-date %q: %w", opts.businessDate, err)
		}
		req.BusinessDate = d
	}
	return req, nil
}

// selectConfigs keeps the config of event, or all configs when event is
// empty.
func selectConfigs(configs config.EventConfigs, event string) (config.EventConfigs, error) {
	if event == "" {
		return configs, nil
	}
	cfg, ok := configs.ForEvent(event)
	if !ok {
		return nil, fmt.Errorf("no event config for instruction event %q", event)
	}
	return config.EventConfigs{cfg}, nil
}

// databaseFetchers builds a fetcher for every postgres configured event.
func databaseFetchers(configs config.EventConfigs, db fetch.Querier, engine *mapper.Engine, logger logrus.FieldLogger) (*fetch.Registry, error) {
	var fetchers []fetch.Fetcher
	for _, cfg := range configs {
		if cfg.Source.Kind != config.SourcePostgres {
			continue
		}
		event, err := model.ParseEvent(cfg.InstructionEvent)
		if err != nil {
			return nil, err
		}
		f, err := fetch.NewEventFetcher(event, fetch.NewPostgresSource(db, cfg.Source.Query),
			fetch.WithEngine(engine),
			fetch.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		fetchers = append(fetchers, f)
	}
	return fetch.NewRegistry(fetchers...), nil
}

// planJobs creates one job per input file and one per database event.
//
// An input file belongs to the first config, in file name order, whose
// patterns match it. With single set only that file is planned. Database
// events are planned only when fetchers is not nil.
func planJobs(configs config.EventConfigs, files *utils.FileManager, fetchers *fetch.Registry, single string, req fetch.Request) ([]converter.Job, error) {
	var jobs []converter.Job

	if single != "" {
		cfg := matchConfig(configs, single)
		if cfg == nil {
			return nil, fmt.Errorf("no event config matches %s", filepath.Base(single))
		}
		return []converter.Job{{Config: cfg, Path: single, Request: req}}, nil
	}

	claimed := make(map[string]bool)
	for _, cfg := range configs {
		if cfg.Source.Kind == config.SourcePostgres {
			if fetchers == nil {
				continue
			}
			event, err := model.ParseEvent(cfg.InstructionEvent)
			if err != nil {
				return nil, err
			}
			f, err := fetchers.Fetcher(event)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, converter.Job{Config: cfg, Fetcher: f, Request: req})
			continue
		}

		paths, err := files.DiscoverInputFiles(cfg.FileMatchingPatterns...)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			if claimed[path] {
				continue
			}
			claimed[path] = true
			jobs = append(jobs, converter.Job{Config: cfg, Path: path, Request: req})
		}
	}
	return jobs, nil
}

// matchConfig returns the first config whose file patterns match path.
func matchConfig(configs config.EventConfigs, path string) *config.EventConfig {
	name := filepath.Base(path)
	for _, cfg := range configs {
		if cfg.Source.Kind == config.SourcePostgres {
			continue
		}
		for _, pattern := range cfg.FileMatchingPatterns {
			if ok, err := filepath.Match(pattern, name); err == nil && ok {
				return cfg
			}
		}
	}
	return nil
}

// summarize builds the processing summary and the error log entries.
func summarize(results []converter.Result, start, end time.Time) (utils.ProcessingSummary, []utils.ErrorLogEntry) {
	summary := utils.ProcessingSummary{
		StartTime: start,
		EndTime:   end,
		TotalJobs: len(results),
	}
	var entries []utils.ErrorLogEntry

	for _, r := range results {
		source := r.Job.Source()
		event := r.Event.String()
		if event == "" && r.Job.Config != nil {
			event = r.Job.Config.InstructionEvent
		}

		summary.TotalRecords += r.Stats.Records
		summary.TotalGroups += r.Stats.Groups
		summary.FailedGroups += len(r.Failures)
		summary.TotalTrades += r.Stats.Trades
		summary.TotalExternal += r.Stats.External
		summary.Published += r.Published

		for _, f := range r.Failures {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    end,
				Source:       source,
				Event:        event,
				Group:        f.Key.String(),
				ErrorType:    errorType(f.Err),
				ErrorMessage: f.Err.Error(),
			})
		}

		if !r.Success {
			summary.FailedJobs++
			summary.FailedJobsList = append(summary.FailedJobsList, utils.FailedJobInfo{
				Source:       source,
				Event:        event,
				ErrorMessage: r.Error.Error(),
			})
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    end,
				Source:       source,
				Event:        event,
				ErrorType:    errorType(r.Error),
				ErrorMessage: r.Error.Error(),
			})
			continue
		}

		summary.SuccessfulJobs++
		summary.ProcessedJobs = append(summary.ProcessedJobs, utils.ProcessedJobInfo{
			Source:       source,
			Event:        event,
			OutputFile:   r.OutputFile,
			ArchivePath:  r.ArchivePath,
			Records:      r.Stats.Records,
			Groups:       r.Stats.Groups,
			FailedGroups: len(r.Failures),
			Trades:       r.Stats.Trades,
			External:     r.Stats.External,
			ProcessTime:  r.Stats.ProcessingTime,
		})
	}
	return summary, entries
}

// errorType classifies an error for the error log.
func errorType(err error) string {
	var pipeErr *pipeline.PipelineError
	switch {
	case errors.As(err, &pipeErr):
		return "transformation"
	case errors.Is(err, fetch.ErrNoFetcher):
		return "fetch"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "processing"
}

func printResults(out io.Writer, results []converter.Result, opts transformFlags) {
	for _, r := range results {
		name := filepath.Base(r.Job.Source())
		if !r.Success {
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, r.Error)
			continue
		}
		target := r.OutputFile
		if opts.dryRun {
			target = fmt.Sprintf("%d booking(s), dry run", r.Stats.External)
		}
		fmt.Fprintf(out, "  ✓ %s -> %s\n", name, target)
		for _, f := range r.Failures {
			fmt.Fprintf(out, "      ! group %s: %v\n", f.Key, f.Err)
		}

		if opts.dump && r.Output != nil {
			spew.Fdump(out, r.Output.External)
		}
		if opts.dryRun && !opts.dump {
			fmt.Fprintf(out, "%s\n", r.Document)
		}
	}
}

func printSummary(out io.Writer, summary utils.ProcessingSummary) {
	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total jobs:      %d\n", summary.TotalJobs)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulJobs)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedJobs)
	fmt.Fprintf(out, "Groups failed:   %d\n", summary.FailedGroups)
	fmt.Fprintf(out, "Bookings:        %d\n", summary.TotalExternal)
	if summary.Published > 0 {
		fmt.Fprintf(out, "Published:       %d\n", summary.Published)
	}
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))
}

func printMetrics(out io.Writer, totals map[string]int64) {
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "\n=== Pipeline Metrics ===")
	for _, name := range names {
		fmt.Fprintf(out, "%-28s %d\n", name, totals[name])
	}
}
