package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	"github.com/urfave/cli/v2"

	golden "github.com/ethereum-optimism/infra/op-golden"
	"github.com/ethereum-optimism/infra/op-golden/exitcodes"
	"github.com/ethereum-optimism/infra/op-golden/flags"
	"github.com/ethereum-optimism/infra/op-golden/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-golden"
	app.Usage = "Golden Output Regression Tester"
	app.Description = "op-golden runs a command over a set of input files and compares the captured output, error output and exit status against a recorded baseline"
	app.Commands = []*cli.Command{
		{
			Name:   "run",
			Usage:  "Run the command over the matched files and report outcomes without touching the database",
			Flags:  flags.RunFlags,
			Action: modeAction(golden.ModeRun),
		},
		{
			Name:   "record",
			Usage:  "Run the matched files and write a fresh baseline database",
			Flags:  flags.RecordFlags,
			Action: modeAction(golden.ModeRecord),
		},
		{
			Name:   "update",
			Usage:  "Re-run the recorded files and fold changed results back into the database",
			Flags:  flags.UpdateFlags,
			Action: modeAction(golden.ModeUpdate),
		},
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			cli.HandleExitCoder(cli.Exit(err.Error(), exitCodeForError(err)))
		}
	}

	// A second signal kills the process the default way; the first one only
	// cancels the batch so the database is never half-written.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

// exitCodeForError maps batch errors onto exit codes. Anything untyped is a
// runtime error: an unexpected failure must not masquerade as a test result.
func exitCodeForError(err error) int {
	if golden.IsTestFailureError(err) {
		return exitcodes.TestFailure
	}
	return exitcodes.RuntimeErr
}

func modeAction(mode golden.Mode) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		logger, err := setupLogging(ctx)
		if err != nil {
			return golden.NewRuntimeError(err)
		}

		cfg, err := golden.NewConfig(ctx, logger, mode)
		if err != nil {
			return golden.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
		}

		if addr := ctx.String(flags.MetricsAddr.Name); addr != "" {
			metricsSvc := service.New()
			metricsSvc.Start(ctx.Context, addr)
			defer metricsSvc.Shutdown()
		}

		svc, err := golden.New(cfg)
		if err != nil {
			return golden.NewRuntimeError(err)
		}
		return svc.Run(ctx.Context)
	}
}

func setupLogging(ctx *cli.Context) (log.Logger, error) {
	lvl, err := oplog.LevelFromString(ctx.String(flags.LogLevel.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, lvl, false)
	logger := log.NewLogger(handler)
	log.SetDefault(logger)
	return logger, nil
}
