package runner

import (
	"time"

	"github.com/ethereum-optimism/infra/op-golden/types"
)

// TaskResult ties one file's execution outcome to its baseline
// classification.
type TaskResult struct {
	Index      int
	File       string
	Outcome    types.ExecutionOutcome
	Comparison types.Comparison
}

// Failed reports whether this task makes the batch fail: a changed
// comparison, or an outcome that never produced a trustworthy run.
func (r TaskResult) Failed() bool {
	return r.Comparison.Kind == types.ComparisonChanged || r.Outcome.Status.Failed()
}

// BatchReport is the aggregated result of one batch, in input file order.
type BatchReport struct {
	RunID string

	// Results follow the input file order, independent of completion order.
	Results []TaskResult

	// Missing lists baseline keys absent from this run's file list, sorted.
	// Missing files are reported, never pruned from the database.
	Missing []string

	Duration time.Duration
}

// Count returns how many results fall into the given comparison category.
// Missing files count under ComparisonMissing.
func (r *BatchReport) Count(kind types.ComparisonKind) int {
	if kind == types.ComparisonMissing {
		return len(r.Missing)
	}
	n := 0
	for _, res := range r.Results {
		if res.Comparison.Kind == kind {
			n++
		}
	}
	return n
}

// Failed reports the batch-level status: any changed, timed-out or
// spawn-failed task fails the batch, as does any missing baseline file.
func (r *BatchReport) Failed() bool {
	if len(r.Missing) > 0 {
		return true
	}
	for _, res := range r.Results {
		if res.Failed() {
			return true
		}
	}
	return false
}
