package golden

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-golden/capture"
	"github.com/ethereum-optimism/infra/op-golden/flags"
	"github.com/ethereum-optimism/infra/op-golden/types"
)

// Mode selects what a batch does with the database.
type Mode string

const (
	// ModeRun compares against the database and never writes it.
	ModeRun Mode = "run"
	// ModeRecord creates a fresh database from the current results.
	ModeRecord Mode = "record"
	// ModeUpdate loads the database, compares, and folds the results back in.
	ModeUpdate Mode = "update"
)

// Config holds the application configuration. Option values stay layered as
// overrides until the database's stored options are known, because stored
// options sit between the defaults file and the command line in precedence.
type Config struct {
	Mode   Mode
	DBPath string

	// CLI holds only the options explicitly set on the command line.
	CLI types.Overrides
	// FileDefaults holds the options from the --defaults YAML file, if any.
	FileDefaults types.Overrides

	Concurrency int
	DryRun      bool
	Quiet       bool

	Log log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger, mode Mode) (*Config, error) {
	cfg := &Config{
		Mode:        mode,
		DBPath:      ctx.String(flags.DB.Name),
		Concurrency: ctx.Int(flags.Concurrency.Name),
		DryRun:      ctx.Bool(flags.DryRun.Name),
		Quiet:       ctx.Bool(flags.Quiet.Name),
		Log:         logger,
	}

	if path := ctx.String(flags.Defaults.Name); path != "" {
		defaults, err := readDefaults(path)
		if err != nil {
			return nil, err
		}
		cfg.FileDefaults = defaults
	}

	overrides, err := cliOverrides(ctx)
	if err != nil {
		return nil, err
	}
	cfg.CLI = overrides

	// Update mode reads command and files from the database; run and record
	// must get them from the command line or the defaults file.
	if mode != ModeUpdate {
		err := flags.CheckRequired(ctx, func(name string) bool {
			switch name {
			case flags.Command.Name:
				return cfg.FileDefaults.Command != nil
			case flags.Files.Name:
				return cfg.FileDefaults.Files != nil
			}
			return false
		})
		if err != nil {
			return nil, fmt.Errorf("missing required flags: %w", err)
		}
	}

	return cfg, nil
}

// cliOverrides collects only the flags the user actually set, so unset flags
// never mask lower-precedence layers with their default values.
func cliOverrides(ctx *cli.Context) (types.Overrides, error) {
	var ov types.Overrides

	if ctx.IsSet(flags.Command.Name) {
		v := ctx.String(flags.Command.Name)
		ov.Command = &v
	}
	if ctx.IsSet(flags.Files.Name) {
		v := ctx.String(flags.Files.Name)
		ov.Files = &v
	}
	if ctx.IsSet(flags.Directory.Name) {
		v := ctx.String(flags.Directory.Name)
		ov.Directory = &v
	}
	if ctx.IsSet(flags.PreserveEnv.Name) {
		v := ctx.Bool(flags.PreserveEnv.Name)
		ov.PreserveEnv = &v
	}
	if ctx.IsSet(flags.Timeout.Name) {
		v := types.Duration(ctx.Duration(flags.Timeout.Name))
		ov.Timeout = &v
	}
	if ctx.IsSet(flags.StdoutMode.Name) {
		mode, err := types.ParseStreamMode(ctx.String(flags.StdoutMode.Name))
		if err != nil {
			return ov, fmt.Errorf("invalid --stdout-mode: %w", err)
		}
		ov.StdoutMode = &mode
	}
	if ctx.IsSet(flags.StderrMode.Name) {
		mode, err := types.ParseStreamMode(ctx.String(flags.StderrMode.Name))
		if err != nil {
			return ov, fmt.Errorf("invalid --stderr-mode: %w", err)
		}
		ov.StderrMode = &mode
	}
	if pairs := ctx.StringSlice(flags.Env.Name); len(pairs) > 0 {
		env, err := capture.ParseEnvPairs(pairs)
		if err != nil {
			return ov, fmt.Errorf("invalid --env: %w", err)
		}
		ov.Env = env
	}

	return ov, nil
}

// readDefaults loads the YAML defaults file. Unknown keys are rejected so a
// typoed option name fails loudly instead of silently using a default.
func readDefaults(path string) (types.Overrides, error) {
	var defaults types.Overrides
	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("read defaults file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&defaults); err != nil && !errors.Is(err, io.EOF) {
		return defaults, fmt.Errorf("parse defaults file %s: %w", path, err)
	}
	return defaults, nil
}

// ResolveOptions layers the configuration sources for this batch. Precedence,
// highest first: command-line flags, the database's stored options, the
// defaults file, built-in defaults. Stored options are a complete snapshot,
// so when a database is in play it fully covers the two layers below it.
func (c *Config) ResolveOptions(stored *types.Options) (types.Options, error) {
	base := types.DefaultOptions().Apply(c.FileDefaults)
	if stored != nil {
		base = stored.Normalize()
	}

	opts := base.Apply(c.CLI).Normalize()
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}
