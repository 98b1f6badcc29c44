// Package runner owns the batch's concurrency: a bounded worker pool fans
// test cases out to capture, each outcome is compared against its baseline
// record, and results are aggregated back into input order so the report is
// deterministic regardless of scheduling.
package runner
