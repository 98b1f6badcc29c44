package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-golden/types"
)

func saveCase() types.TestCase {
	return types.TestCase{
		FilePath:   "a.txt",
		StdoutMode: types.StreamModeSave,
		StderrMode: types.StreamModeSave,
	}
}

func recordOf(status types.ExitStatus, stdout, stderr *string) *types.BaselineRecord {
	return &types.BaselineRecord{Status: status, Stdout: stdout, Stderr: stderr}
}

func str(s string) *string { return &s }

func TestCompareNoBaselineIsNew(t *testing.T) {
	outcome := types.ExecutionOutcome{Status: types.ExitCode(0), Stdout: []byte("hi\n")}
	cmp := Compare(outcome, saveCase(), nil)
	assert.Equal(t, types.ComparisonNew, cmp.Kind)
}

func TestCompareUnchanged(t *testing.T) {
	outcome := types.ExecutionOutcome{
		Status: types.ExitCode(0),
		Stdout: []byte("hello\n"),
		Stderr: []byte(""),
	}
	baseline := recordOf(types.ExitCode(0), str("hello\n"), str(""))

	cmp := Compare(outcome, saveCase(), baseline)
	assert.Equal(t, types.ComparisonUnchanged, cmp.Kind)
}

func TestCompareChangedStdout(t *testing.T) {
	outcome := types.ExecutionOutcome{Status: types.ExitCode(0), Stdout: []byte("goodbye\n"), Stderr: []byte("")}
	baseline := recordOf(types.ExitCode(0), str("hello\n"), str(""))

	cmp := Compare(outcome, saveCase(), baseline)
	require.Equal(t, types.ComparisonChanged, cmp.Kind)
	assert.Contains(t, cmp.Diff, "stdout")
	assert.Contains(t, cmp.Diff, "byte 0")
}

func TestCompareChangedExitStatus(t *testing.T) {
	outcome := types.ExecutionOutcome{Status: types.ExitCode(1), Stdout: []byte("hello\n"), Stderr: []byte("")}
	baseline := recordOf(types.ExitCode(0), str("hello\n"), str(""))

	cmp := Compare(outcome, saveCase(), baseline)
	require.Equal(t, types.ComparisonChanged, cmp.Kind)
	assert.Contains(t, cmp.Diff, "status")
}

func TestCompareTimedOutAlwaysChanged(t *testing.T) {
	// Even when the partial bytes happen to match the baseline.
	outcome := types.ExecutionOutcome{
		Status:   types.TimedOut(),
		Stdout:   []byte("hello\n"),
		Partial:  true,
		Duration: time.Second,
	}
	baseline := recordOf(types.ExitCode(0), str("hello\n"), str(""))

	cmp := Compare(outcome, saveCase(), baseline)
	require.Equal(t, types.ComparisonChanged, cmp.Kind)
	assert.Contains(t, cmp.Diff, "timed out")
}

func TestComparePriorTimeoutAgainstSuccessIsChanged(t *testing.T) {
	outcome := types.ExecutionOutcome{Status: types.ExitCode(0), Stdout: []byte(""), Stderr: []byte("")}
	baseline := recordOf(types.TimedOut(), nil, nil)

	tc := saveCase()
	tc.StdoutMode = types.StreamModeNone
	tc.StderrMode = types.StreamModeNone
	cmp := Compare(outcome, tc, baseline)
	assert.Equal(t, types.ComparisonChanged, cmp.Kind)
}

func TestCompareUnsavedStreamsExcluded(t *testing.T) {
	// stdout differs wildly, but neither side saved it.
	outcome := types.ExecutionOutcome{Status: types.ExitCode(0), Stderr: []byte("warn\n")}
	baseline := recordOf(types.ExitCode(0), nil, str("warn\n"))

	tc := saveCase()
	tc.StdoutMode = types.StreamModePrint
	cmp := Compare(outcome, tc, baseline)
	assert.Equal(t, types.ComparisonUnchanged, cmp.Kind)
}

func TestCompareOneSidedCaptureIsChanged(t *testing.T) {
	// Current run saves stdout, baseline never recorded it.
	outcome := types.ExecutionOutcome{Status: types.ExitCode(0), Stdout: []byte("now\n"), Stderr: []byte("")}
	baseline := recordOf(types.ExitCode(0), nil, str(""))

	cmp := Compare(outcome, saveCase(), baseline)
	require.Equal(t, types.ComparisonChanged, cmp.Kind)
	assert.Contains(t, cmp.Diff, "baseline has no recording")

	// Baseline recorded stdout, current run no longer captures it.
	tc := saveCase()
	tc.StdoutMode = types.StreamModePrint
	outcome = types.ExecutionOutcome{Status: types.ExitCode(0), Stderr: []byte("")}
	baseline = recordOf(types.ExitCode(0), str("before\n"), str(""))

	cmp = Compare(outcome, tc, baseline)
	require.Equal(t, types.ComparisonChanged, cmp.Kind)
	assert.Contains(t, cmp.Diff, "not captured this run")
}

func TestCompareEmptyVersusAbsentStdout(t *testing.T) {
	// A saved empty stream equals a recorded empty string.
	outcome := types.ExecutionOutcome{Status: types.ExitCode(0), Stdout: []byte{}, Stderr: []byte("")}
	baseline := recordOf(types.ExitCode(0), str(""), str(""))

	cmp := Compare(outcome, saveCase(), baseline)
	assert.Equal(t, types.ComparisonUnchanged, cmp.Kind)
}

func TestDescribeDiffPointsAtFirstDivergence(t *testing.T) {
	d := describeDiff("stdout", []byte("line one\nline 2\n"), []byte("line one\nline two\n"))
	assert.Contains(t, d, "byte 14")
	assert.Contains(t, d, "line 2")
}
