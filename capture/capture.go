// Package capture spawns one subprocess per test case, feeds it the input
// file on stdin, and drains its output streams per the configured modes with
// an independent timeout.
package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-golden/types"
)

// Commands run through a shell so a test command can use pipes and
// redirection, matching what users type interactively.
const (
	DefaultShell = "bash"
	ShellFlag    = "-c"
)

// Run executes a single test case and reports a structured outcome. Failures
// to start the process (command not found, bad working directory, unreadable
// input file) are per-task outcomes, never errors: the batch continues.
//
// The context is only consulted for batch-level interruption; each task's
// timeout is its own, starting at spawn.
func Run(ctx context.Context, tc types.TestCase, sinks Sinks) types.ExecutionOutcome {
	start := time.Now()

	inputPath := tc.FilePath
	if tc.Directory != "" {
		inputPath = filepath.Join(tc.Directory, tc.FilePath)
	}
	input, err := os.Open(inputPath)
	if err != nil {
		return types.ExecutionOutcome{
			Status:   types.SpawnFailed("open input: " + err.Error()),
			Duration: time.Since(start),
		}
	}
	defer input.Close()

	cmd := exec.Command(DefaultShell, ShellFlag, tc.Command)
	cmd.Dir = tc.Directory
	cmd.Stdin = input
	cmd.Env = BuildEnv(tc.PreserveEnv, tc.Env)
	// Each test gets its own process group so a timeout kill takes the
	// command's descendants with it, best-effort.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = streamWriter(tc.StdoutMode, &stdoutBuf, sinks.Stdout)
	cmd.Stderr = streamWriter(tc.StderrMode, &stderrBuf, sinks.Stderr)

	if err := cmd.Start(); err != nil {
		return types.ExecutionOutcome{
			Status:   types.SpawnFailed(classifyStartError(err)),
			Duration: time.Since(start),
		}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(tc.Timeout)
	defer timer.Stop()

	select {
	case waitErr := <-done:
		return finishedOutcome(tc, waitErr, &stdoutBuf, &stderrBuf, time.Since(start))

	case <-timer.C:
		killProcessGroup(cmd)
		<-done // reap; also completes stream copies
		log.Debug("Test timed out", "file", tc.FilePath, "timeout", tc.Timeout)
		return types.ExecutionOutcome{
			Status:   types.TimedOut(),
			Stdout:   partialBytes(tc.StdoutMode, &stdoutBuf),
			Stderr:   partialBytes(tc.StderrMode, &stderrBuf),
			Partial:  true,
			Duration: time.Since(start),
		}

	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		log.Debug("Test interrupted", "file", tc.FilePath)
		return types.ExecutionOutcome{
			Status:   types.Signaled(int(syscall.SIGKILL)),
			Stdout:   partialBytes(tc.StdoutMode, &stdoutBuf),
			Stderr:   partialBytes(tc.StderrMode, &stderrBuf),
			Partial:  true,
			Duration: time.Since(start),
		}
	}
}

func finishedOutcome(tc types.TestCase, waitErr error, stdoutBuf, stderrBuf *bytes.Buffer, elapsed time.Duration) types.ExecutionOutcome {
	outcome := types.ExecutionOutcome{Duration: elapsed}
	if tc.StdoutMode.Saves() {
		outcome.Stdout = stdoutBuf.Bytes()
	}
	if tc.StderrMode.Saves() {
		outcome.Stderr = stderrBuf.Bytes()
	}

	if waitErr == nil {
		outcome.Status = types.ExitCode(0)
		return outcome
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			outcome.Status = types.Signaled(int(ws.Signal()))
		} else {
			outcome.Status = types.ExitCode(exitErr.ExitCode())
		}
		return outcome
	}

	// Mid-run I/O errors draining the streams land here. They are per-task
	// failures, recorded as an outcome like everything else.
	outcome.Status = types.SpawnFailed("wait: " + waitErr.Error())
	return outcome
}

// partialBytes retains whatever a save-eligible stream buffered before the
// kill. Print-only streams were never buffered, so there is nothing to keep.
func partialBytes(mode types.StreamMode, buf *bytes.Buffer) []byte {
	if !mode.Saves() {
		return nil
	}
	return buf.Bytes()
}

// streamWriter wires one output stream per its mode: discard, retain,
// forward live, or both.
func streamWriter(mode types.StreamMode, buf *bytes.Buffer, sink io.Writer) io.Writer {
	switch {
	case mode.Saves() && mode.Prints():
		return io.MultiWriter(buf, sink)
	case mode.Saves():
		return buf
	case mode.Prints():
		return sink
	default:
		return io.Discard
	}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		// Process group may already be gone; fall back to the process itself.
		_ = cmd.Process.Kill()
	}
}

// classifyStartError distinguishes a missing command from other spawn
// failures so the report can say something actionable.
func classifyStartError(err error) string {
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return "command not found: " + execErr.Name
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Op + " " + pathErr.Path + ": " + pathErr.Err.Error()
	}
	return err.Error()
}
