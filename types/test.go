package types

import "time"

// TestCase is one unit of work: a single input file run once through the
// batch command. Immutable once constructed; each worker owns its TestCase
// exclusively until the outcome is handed back to the aggregator.
type TestCase struct {
	// FilePath is the file's path relative to Directory. It is the unique
	// key within a batch and within the database.
	FilePath    string
	Command     string
	Directory   string
	Env         map[string]string
	PreserveEnv bool
	Timeout     time.Duration
	StdoutMode  StreamMode
	StderrMode  StreamMode
}

// ExecutionOutcome is the result of running one TestCase. Produced exactly
// once per TestCase per run and never mutated afterwards.
type ExecutionOutcome struct {
	Status ExitStatus

	// Stdout and Stderr hold captured bytes. They are nil unless the
	// corresponding mode retains the stream, or the run timed out and
	// partial bytes were kept for diagnostics.
	Stdout []byte
	Stderr []byte

	// Partial marks bytes captured before a forced kill. Partial bytes are
	// shown for diagnostics but never compared or persisted as a baseline.
	Partial bool

	Duration time.Duration
}

// ComparisonKind classifies one task's outcome against its baseline.
type ComparisonKind string

const (
	// ComparisonNew means the file has no prior baseline record.
	ComparisonNew ComparisonKind = "new"
	// ComparisonUnchanged means the outcome matches the baseline exactly.
	ComparisonUnchanged ComparisonKind = "unchanged"
	// ComparisonChanged means the outcome differs from the baseline.
	ComparisonChanged ComparisonKind = "changed"
	// ComparisonMissing means the baseline has a record for a file that was
	// absent from the current run's file list.
	ComparisonMissing ComparisonKind = "missing"
)

// Comparison is the derived per-task classification. Never persisted.
type Comparison struct {
	Kind ComparisonKind
	// Diff is a human-readable description of what changed. Only set for
	// ComparisonChanged.
	Diff string
}

// Timing is the per-record duration history, refreshed whenever a record is
// written with a successful outcome.
type Timing struct {
	Fastest    Duration `json:"fastest"`
	MostRecent Duration `json:"most_recent"`
}

// BaselineRecord is the persisted prior result for one file path: the
// outcome fields that were configured to be saved plus a snapshot of the
// options in effect when it was recorded.
type BaselineRecord struct {
	Status ExitStatus `json:"status"`

	// Stdout and Stderr are present only if the corresponding stream mode
	// saved them when the record was written. A present-but-empty string is
	// distinct from an absent one.
	Stdout *string `json:"stdout,omitempty"`
	Stderr *string `json:"stderr,omitempty"`

	Options Options `json:"options"`
	Timing  *Timing `json:"timing,omitempty"`
}
