// Package compare classifies an execution outcome against its baseline
// record. Comparison is byte-exact on the streams configured for saving;
// streams nobody saved are excluded entirely.
package compare

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum-optimism/infra/op-golden/types"
)

// snippetLen bounds how much of each side a diff description quotes.
const snippetLen = 64

// Compare classifies one task's outcome.
//
// A stream participates in the comparison when the current mode saves it or
// the baseline recorded it; a stream neither side captured is not a
// mismatch. A timed-out outcome always compares as changed regardless of the
// baseline: partial output is never trusted.
func Compare(outcome types.ExecutionOutcome, tc types.TestCase, baseline *types.BaselineRecord) types.Comparison {
	if baseline == nil {
		return types.Comparison{Kind: types.ComparisonNew}
	}

	if outcome.Status.Kind == types.ExitKindTimedOut {
		return types.Comparison{
			Kind: types.ComparisonChanged,
			Diff: fmt.Sprintf("timed out after %s (baseline: %s)", outcome.Duration.Truncate(0), baseline.Status),
		}
	}

	var diffs []string
	if !outcome.Status.Equal(baseline.Status) {
		diffs = append(diffs, fmt.Sprintf("status: %s, baseline %s", outcome.Status, baseline.Status))
	}
	if d := compareStream("stdout", tc.StdoutMode, outcome.Stdout, baseline.Stdout); d != "" {
		diffs = append(diffs, d)
	}
	if d := compareStream("stderr", tc.StderrMode, outcome.Stderr, baseline.Stderr); d != "" {
		diffs = append(diffs, d)
	}

	if len(diffs) == 0 {
		return types.Comparison{Kind: types.ComparisonUnchanged}
	}
	return types.Comparison{
		Kind: types.ComparisonChanged,
		Diff: strings.Join(diffs, "; "),
	}
}

func compareStream(name string, mode types.StreamMode, current []byte, recorded *string) string {
	saves := mode.Saves()
	if !saves && recorded == nil {
		// Neither side captured the stream; its absence is not a mismatch.
		return ""
	}
	if saves && recorded == nil {
		return fmt.Sprintf("%s: captured %d bytes, baseline has no recording", name, len(current))
	}
	if !saves && recorded != nil {
		return fmt.Sprintf("%s: baseline recorded %d bytes, stream not captured this run (mode %s)", name, len(*recorded), mode)
	}

	want := []byte(*recorded)
	if bytes.Equal(current, want) {
		return ""
	}
	return describeDiff(name, current, want)
}

// describeDiff summarizes the first divergence between two byte streams,
// enough for a human to locate the change without a semantic diff.
func describeDiff(name string, got, want []byte) string {
	offset := 0
	for offset < len(got) && offset < len(want) && got[offset] == want[offset] {
		offset++
	}
	line := 1 + bytes.Count(got[:offset], []byte{'\n'})

	return fmt.Sprintf("%s: differs at byte %d (line %d): got %s, want %s",
		name, offset, line, quoteAround(got, offset), quoteAround(want, offset))
}

func quoteAround(b []byte, offset int) string {
	if offset >= len(b) {
		return fmt.Sprintf("end of output (%d bytes)", len(b))
	}
	end := offset + snippetLen
	if end > len(b) {
		end = len(b)
	}
	snippet := string(b[offset:end])
	if end < len(b) {
		return fmt.Sprintf("%q...", snippet)
	}
	return fmt.Sprintf("%q", snippet)
}
