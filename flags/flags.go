package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-golden/types"
)

const EnvVarPrefix = "OP_GOLDEN"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Command = &cli.StringFlag{
		Name:    "command",
		Aliases: []string{"c"},
		Value:   "",
		EnvVars: prefixEnvVars("COMMAND"),
		Usage:   "Shell command to run once per input file (eg. 'my-tool --flag')",
	}
	Files = &cli.StringFlag{
		Name:    "files",
		Aliases: []string{"f"},
		Value:   "",
		EnvVars: prefixEnvVars("FILES"),
		Usage:   "Glob pattern selecting the input files, relative to --directory (eg. 'cases/*.txt')",
	}
	Directory = &cli.StringFlag{
		Name:    "directory",
		Aliases: []string{"d"},
		Value:   "",
		EnvVars: prefixEnvVars("DIRECTORY"),
		Usage:   "Base directory for file resolution and command execution",
	}
	DB = &cli.StringFlag{
		Name:    "db",
		Value:   "golden.json",
		EnvVars: prefixEnvVars("DB"),
		Usage:   "Path to the baseline database file",
	}
	Env = &cli.StringSliceFlag{
		Name:    "env",
		Aliases: []string{"e"},
		EnvVars: prefixEnvVars("ENV"),
		Usage:   "KEY=VALUE pair set in every test's environment; repeatable",
	}
	PreserveEnv = &cli.BoolFlag{
		Name:    "preserve-env",
		Aliases: []string{"E"},
		Value:   false,
		EnvVars: prefixEnvVars("PRESERVE_ENV"),
		Usage:   "Pass the parent process environment through to tests instead of scrubbing it",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Aliases: []string{"t"},
		Value:   types.DefaultTimeout,
		EnvVars: prefixEnvVars("TIMEOUT"),
		Usage:   "Per-test wall-clock limit (eg. '10s', '2m')",
	}
	StdoutMode = &cli.StringFlag{
		Name:    "stdout-mode",
		Value:   string(types.DefaultStdoutMode),
		EnvVars: prefixEnvVars("STDOUT_MODE"),
		Usage:   "What to do with each test's stdout: none, save, print or both",
	}
	StderrMode = &cli.StringFlag{
		Name:    "stderr-mode",
		Value:   string(types.DefaultStderrMode),
		EnvVars: prefixEnvVars("STDERR_MODE"),
		Usage:   "What to do with each test's stderr: none, save, print or both",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   0,
		EnvVars: prefixEnvVars("CONCURRENCY"),
		Usage:   "Number of concurrent test workers (0 = one per CPU)",
	}
	DryRun = &cli.BoolFlag{
		Name:    "dry-run",
		Aliases: []string{"n"},
		Value:   false,
		EnvVars: prefixEnvVars("DRY_RUN"),
		Usage:   "Run and report but never write the database",
	}
	Quiet = &cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		Value:   false,
		EnvVars: prefixEnvVars("QUIET"),
		Usage:   "Suppress the summary table; exit status still reports the result",
	}
	Defaults = &cli.StringFlag{
		Name:    "defaults",
		Value:   "",
		EnvVars: prefixEnvVars("DEFAULTS"),
		Usage:   "Path to a YAML defaults file applied below command-line flags",
	}
	MetricsAddr = &cli.StringFlag{
		Name:    "metrics.addr",
		Value:   "",
		EnvVars: prefixEnvVars("METRICS_ADDR"),
		Usage:   "Address to serve Prometheus metrics on (eg. '0.0.0.0:7300'); empty disables the server",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log.level",
		Value:   "warn",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "The lowest log level that will be output: trace, debug, info, warn, error, crit",
	}
)

// Flags shared by every mode. DryRun is global: update and record honor it,
// and it is harmlessly inert in run mode, which never writes the database.
var commonFlags = []cli.Flag{
	Command,
	Files,
	Directory,
	DB,
	Env,
	PreserveEnv,
	Timeout,
	StdoutMode,
	StderrMode,
	Concurrency,
	DryRun,
	Quiet,
	Defaults,
	MetricsAddr,
	LogLevel,
}

// RunFlags configure run mode.
var RunFlags = commonFlags

// RecordFlags configure record mode.
var RecordFlags = commonFlags

// UpdateFlags configure update mode.
var UpdateFlags = commonFlags

// required are the flags run and record modes cannot derive from anywhere
// else; update mode reads them from the database instead.
var required = []cli.Flag{
	Command,
	Files,
}

// CheckRequired verifies the mode's required flags, honoring the defaults
// file as an alternative source.
func CheckRequired(ctx *cli.Context, fromDefaults func(name string) bool) error {
	for _, f := range required {
		name := f.Names()[0]
		if !ctx.IsSet(name) && !fromDefaults(name) {
			return fmt.Errorf("flag %s is required", name)
		}
	}
	return nil
}
