package compare

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ethereum-optimism/infra/op-golden/types"
)

// An outcome compared against a baseline recorded from itself must always be
// unchanged, for any exit code and any stream contents.
func TestCompareSelfBaselineUnchanged_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("self-recorded baseline compares unchanged", prop.ForAll(
		func(code int, stdout, stderr string) bool {
			outcome := types.ExecutionOutcome{
				Status: types.ExitCode(code),
				Stdout: []byte(stdout),
				Stderr: []byte(stderr),
			}
			baseline := &types.BaselineRecord{
				Status: types.ExitCode(code),
				Stdout: &stdout,
				Stderr: &stderr,
			}
			cmp := Compare(outcome, saveCase(), baseline)
			return cmp.Kind == types.ComparisonUnchanged
		},
		gen.IntRange(0, 255),
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("any stdout perturbation compares changed", prop.ForAll(
		func(stdout, extra string) bool {
			if extra == "" {
				return true
			}
			perturbed := stdout + extra
			outcome := types.ExecutionOutcome{
				Status: types.ExitCode(0),
				Stdout: []byte(perturbed),
				Stderr: []byte{},
			}
			empty := ""
			baseline := &types.BaselineRecord{
				Status: types.ExitCode(0),
				Stdout: &stdout,
				Stderr: &empty,
			}
			cmp := Compare(outcome, saveCase(), baseline)
			return cmp.Kind == types.ComparisonChanged
		},
		gen.AnyString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
