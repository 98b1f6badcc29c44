// Package db persists the baseline database: the last-used global options
// plus one record per file path. The database is loaded read-only before a
// batch starts and written exactly once after it completes, so nothing here
// needs locking.
package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum-optimism/infra/op-golden/runner"
	"github.com/ethereum-optimism/infra/op-golden/types"
)

// ErrNotFound is returned by Load when no database file exists. Expected in
// record mode; fatal in update mode. Callers distinguish it from corruption.
var ErrNotFound = errors.New("database file not found")

// CorruptError means the file exists but is not a valid database. Always
// fatal: a corrupt baseline must never be silently replaced.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt database %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// IsCorrupt checks if the error is or wraps a CorruptError.
func IsCorrupt(err error) bool {
	var corruptErr *CorruptError
	return err != nil && errors.As(err, &corruptErr)
}

// Database is the persisted batch state.
type Database struct {
	GlobalOptions types.Options                   `json:"global_options"`
	Records       map[string]types.BaselineRecord `json:"records"`
}

// New creates an empty database carrying the given options.
func New(opts types.Options) *Database {
	return &Database{
		GlobalOptions: opts,
		Records:       make(map[string]types.BaselineRecord),
	}
}

// Load reads a database from disk. Returns ErrNotFound when the file is
// absent and a CorruptError when it cannot be decoded.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read database %s: %w", path, err)
	}

	var d Database
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	if err := d.validate(); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	if d.Records == nil {
		d.Records = make(map[string]types.BaselineRecord)
	}
	return &d, nil
}

func (d *Database) validate() error {
	if d.GlobalOptions.Command == "" {
		return fmt.Errorf("global_options.command is empty")
	}
	for file, rec := range d.Records {
		if file == "" {
			return fmt.Errorf("record with empty file path")
		}
		switch rec.Status.Kind {
		case types.ExitKindCode, types.ExitKindSignaled, types.ExitKindTimedOut, types.ExitKindSpawnFailed:
		default:
			return fmt.Errorf("record %s: unknown exit kind %q", file, rec.Status.Kind)
		}
	}
	return nil
}

// SortedFiles returns the record keys in deterministic order. Update mode
// uses them as the run's file list when no pattern override is given.
func (d *Database) SortedFiles() []string {
	files := make([]string, 0, len(d.Records))
	for file := range d.Records {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// Merge folds a batch report into the database under the effective options.
//
// Unchanged results leave their existing record untouched, byte for byte, so
// an update run over an unmodified program never rewrites content. New and
// changed results get fresh records snapshotting the effective options.
// Missing files are never pruned. Partial (timed-out) bytes are never
// persisted.
func (d *Database) Merge(report *runner.BatchReport, opts types.Options) {
	d.GlobalOptions = opts
	if d.Records == nil {
		d.Records = make(map[string]types.BaselineRecord)
	}

	for _, res := range report.Results {
		if res.File == "" {
			continue
		}
		if res.Comparison.Kind == types.ComparisonUnchanged {
			continue
		}
		d.Records[res.File] = d.newRecord(res, opts)
	}
}

func (d *Database) newRecord(res runner.TaskResult, opts types.Options) types.BaselineRecord {
	rec := types.BaselineRecord{
		Status:  res.Outcome.Status,
		Options: opts,
	}

	if !res.Outcome.Partial {
		if opts.StdoutMode.Saves() && res.Outcome.Stdout != nil {
			s := string(res.Outcome.Stdout)
			rec.Stdout = &s
		}
		if opts.StderrMode.Saves() && res.Outcome.Stderr != nil {
			s := string(res.Outcome.Stderr)
			rec.Stderr = &s
		}
	}

	if res.Outcome.Status.Success() {
		elapsed := types.Duration(res.Outcome.Duration)
		timing := types.Timing{Fastest: elapsed, MostRecent: elapsed}
		if prior, ok := d.Records[res.File]; ok && prior.Timing != nil && prior.Timing.Fastest < elapsed {
			timing.Fastest = prior.Timing.Fastest
		}
		rec.Timing = &timing
	}

	return rec
}

// Persist atomically writes the database: marshal, write to a temp file in
// the same directory, then rename over the target. A failure never leaves a
// half-written database; the prior file stays intact.
func (d *Database) Persist(path string) error {
	payload, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal database: %w", err)
	}
	payload = append(payload, '\n')

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s over %s: %w", tmpPath, path, err)
	}
	return nil
}
