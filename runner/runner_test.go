package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-golden/capture"
	"github.com/ethereum-optimism/infra/op-golden/types"
)

func batchOptions(dir string) types.Options {
	opts := types.DefaultOptions()
	opts.Command = "cat"
	opts.Directory = dir
	opts.StdoutMode = types.StreamModeSave
	opts.StderrMode = types.StreamModeSave
	return opts
}

func writeInput(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func quietSinks() capture.Sinks {
	return capture.NewSinks(&bytes.Buffer{}, &bytes.Buffer{})
}

func TestNewSchedulerRejectsNegativeConcurrency(t *testing.T) {
	_, err := NewScheduler(Config{Concurrency: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")
}

func TestNewSchedulerGeneratesRunID(t *testing.T) {
	s, err := NewScheduler(Config{})
	require.NoError(t, err)
	assert.NotEmpty(t, s.RunID())

	s2, err := NewScheduler(Config{RunID: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", s2.RunID())
}

func TestRunEmptyBatch(t *testing.T) {
	s, err := NewScheduler(Config{Sinks: quietSinks()})
	require.NoError(t, err)

	report := s.Run(context.Background(), nil)
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Missing)
	assert.False(t, report.Failed())
}

func TestRunResultsFollowInputOrder(t *testing.T) {
	dir := t.TempDir()
	opts := batchOptions(dir)

	var cases []types.TestCase
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("input-%02d.txt", i)
		writeInput(t, dir, name, fmt.Sprintf("payload %d\n", i))
		cases = append(cases, opts.TestCase(name))
	}

	for _, concurrency := range []int{1, 8} {
		s, err := NewScheduler(Config{Concurrency: concurrency, Sinks: quietSinks()})
		require.NoError(t, err)

		report := s.Run(context.Background(), cases)
		require.Len(t, report.Results, len(cases))
		for i, res := range report.Results {
			assert.Equal(t, cases[i].FilePath, res.File, "concurrency %d slot %d", concurrency, i)
			assert.Equal(t, fmt.Sprintf("payload %d\n", i), string(res.Outcome.Stdout))
			assert.Equal(t, types.ComparisonNew, res.Comparison.Kind)
		}
	}
}

func TestRunTimeoutOnlyOccupiesOneSlot(t *testing.T) {
	dir := t.TempDir()
	opts := batchOptions(dir)
	opts.Timeout = types.Duration(300 * time.Millisecond)

	writeInput(t, dir, "hang.txt", "x\n")
	writeInput(t, dir, "fast-a.txt", "a\n")
	writeInput(t, dir, "fast-b.txt", "b\n")

	hang := opts.TestCase("hang.txt")
	hang.Command = "sleep 30"
	cases := []types.TestCase{hang, opts.TestCase("fast-a.txt"), opts.TestCase("fast-b.txt")}

	s, err := NewScheduler(Config{Concurrency: 2, Sinks: quietSinks()})
	require.NoError(t, err)

	start := time.Now()
	report := s.Run(context.Background(), cases)
	assert.Less(t, time.Since(start), 5*time.Second, "a hanging task must not stall the batch")

	assert.Equal(t, types.ExitKindTimedOut, report.Results[0].Outcome.Status.Kind)
	assert.True(t, report.Results[1].Outcome.Status.Success())
	assert.True(t, report.Results[2].Outcome.Status.Success())
	assert.True(t, report.Failed())
}

func TestRunComparesAgainstBaseline(t *testing.T) {
	dir := t.TempDir()
	opts := batchOptions(dir)
	writeInput(t, dir, "same.txt", "stable\n")
	writeInput(t, dir, "diff.txt", "fresh\n")

	stable := "stable\n"
	stale := "stale\n"
	empty := ""
	baseline := map[string]types.BaselineRecord{
		"same.txt": {Status: types.ExitCode(0), Stdout: &stable, Stderr: &empty, Options: opts},
		"diff.txt": {Status: types.ExitCode(0), Stdout: &stale, Stderr: &empty, Options: opts},
		"gone.txt": {Status: types.ExitCode(0), Stdout: &stable, Stderr: &empty, Options: opts},
	}

	s, err := NewScheduler(Config{Concurrency: 2, Sinks: quietSinks(), Baseline: baseline})
	require.NoError(t, err)

	cases := []types.TestCase{opts.TestCase("same.txt"), opts.TestCase("diff.txt")}
	report := s.Run(context.Background(), cases)

	assert.Equal(t, types.ComparisonUnchanged, report.Results[0].Comparison.Kind)
	assert.Equal(t, types.ComparisonChanged, report.Results[1].Comparison.Kind)
	assert.Equal(t, []string{"gone.txt"}, report.Missing)
	assert.Equal(t, 1, report.Count(types.ComparisonMissing))
	assert.True(t, report.Failed())
}

func TestRunCancelledContextFillsRemainingSlots(t *testing.T) {
	dir := t.TempDir()
	opts := batchOptions(dir)
	writeInput(t, dir, "a.txt", "a\n")
	writeInput(t, dir, "b.txt", "b\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := NewScheduler(Config{Concurrency: 2, Sinks: quietSinks()})
	require.NoError(t, err)

	report := s.Run(ctx, []types.TestCase{opts.TestCase("a.txt"), opts.TestCase("b.txt")})
	require.Len(t, report.Results, 2)
	for i, res := range report.Results {
		assert.Equal(t, report.Results[i].Index, i)
		assert.NotEmpty(t, res.File, "interrupted slots must still name their file")
	}
}

func TestBatchReportCounts(t *testing.T) {
	report := &BatchReport{
		Results: []TaskResult{
			{Comparison: types.Comparison{Kind: types.ComparisonUnchanged}, Outcome: types.ExecutionOutcome{Status: types.ExitCode(0)}},
			{Comparison: types.Comparison{Kind: types.ComparisonChanged}, Outcome: types.ExecutionOutcome{Status: types.ExitCode(0)}},
			{Comparison: types.Comparison{Kind: types.ComparisonNew}, Outcome: types.ExecutionOutcome{Status: types.ExitCode(1)}},
		},
		Missing: []string{"gone.txt"},
	}
	assert.Equal(t, 1, report.Count(types.ComparisonUnchanged))
	assert.Equal(t, 1, report.Count(types.ComparisonChanged))
	assert.Equal(t, 1, report.Count(types.ComparisonNew))
	assert.Equal(t, 1, report.Count(types.ComparisonMissing))
	assert.True(t, report.Failed())
}

func TestBatchReportPassesWhenCleanIgnoresExitCodeMatches(t *testing.T) {
	// A nonzero exit code matching the baseline is not a failure; only a
	// changed comparison or an untrustworthy outcome fails the batch.
	report := &BatchReport{
		Results: []TaskResult{
			{Comparison: types.Comparison{Kind: types.ComparisonUnchanged}, Outcome: types.ExecutionOutcome{Status: types.ExitCode(3)}},
		},
	}
	assert.False(t, report.Failed())
}
