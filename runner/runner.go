package runner

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/op-golden/capture"
	"github.com/ethereum-optimism/infra/op-golden/compare"
	"github.com/ethereum-optimism/infra/op-golden/metrics"
	"github.com/ethereum-optimism/infra/op-golden/types"
)

// Config holds configuration for creating a new scheduler.
type Config struct {
	// Concurrency bounds the worker pool. Zero means one worker per
	// available CPU.
	Concurrency int

	// RunID labels this batch in logs and metrics. Generated when empty.
	RunID string

	Log log.Logger

	// Sinks receive print-mode output from every task.
	Sinks capture.Sinks

	// Baseline is the read-only set of prior records, keyed by file path.
	// Nil when no database is in play (run and record modes).
	Baseline map[string]types.BaselineRecord
}

// Scheduler dispatches one task per file to a bounded pool of workers and
// aggregates the results deterministically.
type Scheduler struct {
	concurrency int
	runID       string
	log         log.Logger
	sinks       capture.Sinks
	baseline    map[string]types.BaselineRecord
}

// NewScheduler validates the config and builds a scheduler.
func NewScheduler(cfg Config) (*Scheduler, error) {
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency cannot be negative, got %d", cfg.Concurrency)
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.New().String()
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.Sinks.Stdout == nil || cfg.Sinks.Stderr == nil {
		cfg.Sinks = capture.StdSinks()
	}

	return &Scheduler{
		concurrency: cfg.Concurrency,
		runID:       cfg.RunID,
		log:         cfg.Log.New("component", "scheduler", "run_id", cfg.RunID),
		sinks:       cfg.Sinks,
		baseline:    cfg.Baseline,
	}, nil
}

// RunID returns the batch identifier.
func (s *Scheduler) RunID() string {
	return s.runID
}

type task struct {
	index int
	tc    types.TestCase
}

// Run executes every test case and returns the aggregated report. Dispatch
// follows input order; completion order is unconstrained; the report is in
// input order. Each task carries its own timeout, so one hanging test only
// occupies one worker slot.
func (s *Scheduler) Run(ctx context.Context, cases []types.TestCase) *BatchReport {
	start := time.Now()

	report := &BatchReport{
		RunID:   s.runID,
		Results: make([]TaskResult, len(cases)),
		Missing: s.missingFiles(cases),
	}

	if len(cases) == 0 {
		report.Duration = time.Since(start)
		return report
	}

	tracker := NewTracker(s.log, len(cases))
	tracker.Start()
	defer tracker.Stop()

	s.log.Info("Starting batch", "tasks", len(cases), "concurrency", s.concurrency)

	// Conservative buffering: enough to keep workers busy without holding
	// the whole batch in channels.
	bufferSize := min(s.concurrency*2, 100)
	workChan := make(chan task, bufferSize)
	resultChan := make(chan TaskResult, bufferSize)

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, workChan, resultChan, tracker)
	}

	go func() {
		defer close(workChan)
		for i, tc := range cases {
			select {
			case workChan <- task{index: i, tc: tc}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for res := range resultChan {
		report.Results[res.Index] = res
		metrics.RecordComparison(s.runID, res.File, res.Comparison.Kind)
	}

	// An interrupted batch leaves dispatched-but-never-run slots empty;
	// record them explicitly rather than reporting zero values.
	if ctx.Err() != nil {
		for i := range report.Results {
			if report.Results[i].File == "" {
				report.Results[i] = TaskResult{
					Index:      i,
					File:       cases[i].FilePath,
					Outcome:    types.ExecutionOutcome{Status: types.SpawnFailed("interrupted")},
					Comparison: types.Comparison{Kind: types.ComparisonNew},
				}
			}
		}
	}

	report.Duration = time.Since(start)
	s.log.Info("Batch finished",
		"duration", report.Duration.Truncate(time.Millisecond),
		"unchanged", report.Count(types.ComparisonUnchanged),
		"new", report.Count(types.ComparisonNew),
		"changed", report.Count(types.ComparisonChanged),
		"missing", len(report.Missing))
	return report
}

// worker processes tasks end to end: spawn, capture, compare. Task-level
// failures are outcomes, never errors, so one bad test cannot take down the
// pool.
func (s *Scheduler) worker(ctx context.Context, wg *sync.WaitGroup, workChan <-chan task, resultChan chan<- TaskResult, tracker *Tracker) {
	defer wg.Done()

	for {
		select {
		case t, ok := <-workChan:
			if !ok {
				return
			}

			tracker.TaskStarted()
			s.log.Info("Testing", "file", t.tc.FilePath)

			outcome := capture.Run(ctx, t.tc, s.sinks)
			cmp := compare.Compare(outcome, t.tc, s.baselineFor(t.tc.FilePath))

			tracker.TaskFinished()
			s.log.Info("Tested", "file", t.tc.FilePath,
				"status", outcome.Status.String(),
				"result", cmp.Kind,
				"duration", outcome.Duration.Truncate(time.Millisecond))

			select {
			case resultChan <- TaskResult{Index: t.index, File: t.tc.FilePath, Outcome: outcome, Comparison: cmp}:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) baselineFor(file string) *types.BaselineRecord {
	if s.baseline == nil {
		return nil
	}
	rec, ok := s.baseline[file]
	if !ok {
		return nil
	}
	return &rec
}

// missingFiles returns baseline keys not present in this run's file list.
func (s *Scheduler) missingFiles(cases []types.TestCase) []string {
	if len(s.baseline) == 0 {
		return nil
	}
	current := make(map[string]struct{}, len(cases))
	for _, tc := range cases {
		current[tc.FilePath] = struct{}{}
	}
	var missing []string
	for file := range s.baseline {
		if _, ok := current[file]; !ok {
			missing = append(missing, file)
		}
	}
	sort.Strings(missing)
	return missing
}
