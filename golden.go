// Package golden orchestrates one golden-output batch: resolve options, run
// every input file through the command, compare against the baseline, and
// persist the results when the mode calls for it.
package golden

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-golden/db"
	"github.com/ethereum-optimism/infra/op-golden/fileset"
	"github.com/ethereum-optimism/infra/op-golden/metrics"
	"github.com/ethereum-optimism/infra/op-golden/runner"
	"github.com/ethereum-optimism/infra/op-golden/types"
)

// Service runs one batch in the configured mode.
type Service struct {
	config    *Config
	log       log.Logger
	formatter ResultFormatter
}

func New(config *Config) (*Service, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	logger := config.Log
	if logger == nil {
		logger = log.Root()
	}
	return &Service{
		config:    config,
		log:       logger.New("mode", config.Mode),
		formatter: NewConsoleResultFormatter(logger),
	}, nil
}

// WithFormatter replaces the summary formatter. Used by tests to capture the
// rendered table.
func (s *Service) WithFormatter(f ResultFormatter) *Service {
	s.formatter = f
	return s
}

// Run executes the batch end to end and returns nil, a *TestFailureError or a
// *RuntimeError; the caller maps those onto exit codes.
func (s *Service) Run(ctx context.Context) error {
	database, err := s.loadDatabase()
	if err != nil {
		return NewRuntimeError(err)
	}

	var stored *types.Options
	if database != nil {
		opts := database.GlobalOptions
		stored = &opts
	}
	opts, err := s.config.ResolveOptions(stored)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("invalid options: %w", err))
	}

	files, err := s.resolveFiles(opts, database)
	if err != nil {
		return NewRuntimeError(err)
	}
	if len(files) == 0 {
		return NewRuntimeError(fmt.Errorf("no input files matched pattern %q", opts.Files))
	}

	cases := make([]types.TestCase, 0, len(files))
	for _, file := range files {
		cases = append(cases, opts.TestCase(file))
	}

	var baseline map[string]types.BaselineRecord
	if database != nil {
		baseline = database.Records
	}

	scheduler, err := runner.NewScheduler(runner.Config{
		Concurrency: s.config.Concurrency,
		Log:         s.log,
		Baseline:    baseline,
	})
	if err != nil {
		return NewRuntimeError(err)
	}

	s.log.Info("Starting batch",
		"command", opts.Command,
		"files", len(cases),
		"timeout", opts.Timeout)

	report := scheduler.Run(ctx, cases)
	if ctx.Err() != nil {
		return NewRuntimeError(fmt.Errorf("interrupted before the batch completed"))
	}

	s.recordMetrics(report)

	if !s.config.Quiet {
		if err := s.formatter.FormatResults(report); err != nil {
			s.log.Error("Failed to format results", "error", err)
		}
	}

	if err := s.persist(database, report, opts); err != nil {
		return NewRuntimeError(err)
	}

	if s.failsBatch(report) {
		return NewTestFailureError(failureSummary(report))
	}
	return nil
}

// loadDatabase reads the database according to the mode. Only update mode
// needs one; run mode resolves everything from command-line input and record
// mode always starts fresh, even when a file exists.
func (s *Service) loadDatabase() (*db.Database, error) {
	if s.config.Mode != ModeUpdate {
		return nil, nil
	}

	database, err := db.Load(s.config.DBPath)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w; run 'op-golden record' first", err)
		}
		return nil, err
	}
	return database, nil
}

// resolveFiles determines the batch's file list. A files pattern, wherever it
// came from, is resolved against the directory; update mode without an
// explicit --files override replays exactly the database's recorded files.
func (s *Service) resolveFiles(opts types.Options, database *db.Database) ([]string, error) {
	if s.config.Mode == ModeUpdate && s.config.CLI.Files == nil {
		return database.SortedFiles(), nil
	}
	files, err := fileset.Resolve(opts.Directory, opts.Files)
	if err != nil {
		return nil, fmt.Errorf("resolve files: %w", err)
	}
	return files, nil
}

// persist writes the batch results back to the database file. Run mode never
// writes; a dry run reports what would change and leaves the file alone.
func (s *Service) persist(database *db.Database, report *runner.BatchReport, opts types.Options) error {
	switch s.config.Mode {
	case ModeRun:
		return nil
	case ModeRecord:
		database = db.New(opts)
	}

	database.Merge(report, opts)

	if s.config.DryRun {
		s.log.Warn("Dry run; database not written", "path", s.config.DBPath)
		return nil
	}
	if err := database.Persist(s.config.DBPath); err != nil {
		metrics.RecordError("persist_failed")
		return fmt.Errorf("persist database: %w", err)
	}
	s.log.Info("Database written", "path", s.config.DBPath, "records", len(database.Records))
	return nil
}

// failsBatch applies the mode's failure policy. In record mode new results
// are the point, so only tasks that never ran trustworthily fail the batch.
func (s *Service) failsBatch(report *runner.BatchReport) bool {
	if s.config.Mode == ModeRecord {
		for _, res := range report.Results {
			if res.Outcome.Status.Failed() {
				return true
			}
		}
		return false
	}
	return report.Failed()
}

func (s *Service) recordMetrics(report *runner.BatchReport) {
	result := "pass"
	if s.failsBatch(report) {
		result = "fail"
	}
	failed := 0
	for _, res := range report.Results {
		if res.Failed() {
			failed++
		}
	}
	metrics.RecordBatch(report.RunID, result, len(report.Results), failed, report.Duration)
}

func failureSummary(report *runner.BatchReport) string {
	notRun := 0
	for _, res := range report.Results {
		if res.Outcome.Status.Failed() {
			notRun++
		}
	}
	return fmt.Sprintf("%d changed, %d did not run, %d missing of %d files",
		report.Count(types.ComparisonChanged),
		notRun,
		len(report.Missing),
		len(report.Results))
}

// formatDuration renders durations for the summary table.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
