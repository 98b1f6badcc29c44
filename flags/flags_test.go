package flags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// TestUniqueFlags asserts that all flag names are unique, to avoid accidental conflicts between the many flags.
func TestUniqueFlags(t *testing.T) {
	seenCLI := make(map[string]struct{})
	for _, flag := range UpdateFlags {
		name := flag.Names()[0]
		if _, ok := seenCLI[name]; ok {
			t.Errorf("duplicate flag %s", name)
			continue
		}
		seenCLI[name] = struct{}{}
	}
}

func TestHasEnvVar(t *testing.T) {
	for _, flag := range UpdateFlags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")
		})
	}
}

func TestEnvVarFormat(t *testing.T) {
	for _, flag := range UpdateFlags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")
			assert.True(t, strings.HasPrefix(envFlags[0], EnvVarPrefix+"_"),
				"%q flag env var %q must carry the %s prefix", flagName, envFlags[0], EnvVarPrefix)
			assert.NotContains(t, envFlags[0], ".", "env vars never contain dots")
			assert.Equal(t, strings.ToUpper(envFlags[0]), envFlags[0], "env vars are uppercase")
		})
	}
}

func TestDryRunParsesInEveryMode(t *testing.T) {
	for _, modeFlags := range map[string][]cli.Flag{
		"run":    RunFlags,
		"record": RecordFlags,
		"update": UpdateFlags,
	} {
		seen := false
		app := &cli.App{
			Flags: modeFlags,
			Action: func(ctx *cli.Context) error {
				seen = ctx.Bool(DryRun.Name)
				return nil
			},
		}
		require.NoError(t, app.Run([]string{"app", "--dry-run", "--command", "cat", "--files", "*.txt"}))
		assert.True(t, seen)
	}
}

func TestCheckRequired(t *testing.T) {
	run := func(t *testing.T, args []string, fromDefaults func(string) bool) error {
		t.Helper()
		var checkErr error
		app := &cli.App{
			Flags: RecordFlags,
			Action: func(ctx *cli.Context) error {
				checkErr = CheckRequired(ctx, fromDefaults)
				return nil
			},
		}
		require.NoError(t, app.Run(append([]string{"app"}, args...)))
		return checkErr
	}

	none := func(string) bool { return false }

	t.Run("both flags set", func(t *testing.T) {
		err := run(t, []string{"--command", "cat", "--files", "*.txt"}, none)
		assert.NoError(t, err)
	})

	t.Run("missing command", func(t *testing.T) {
		err := run(t, []string{"--files", "*.txt"}, none)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "command")
	})

	t.Run("missing files", func(t *testing.T) {
		err := run(t, []string{"--command", "cat"}, none)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "files")
	})

	t.Run("defaults file can satisfy a required flag", func(t *testing.T) {
		fromDefaults := func(name string) bool { return name == "files" }
		err := run(t, []string{"--command", "cat"}, fromDefaults)
		assert.NoError(t, err)
	})
}
