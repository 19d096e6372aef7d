// Package process runs external commands with captured output, a bounded
// lifetime, and an explicit exit status. Every subprocess boundary of the
// setup pipeline goes through a Runner so the exit status is always checked.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitesetup/internal/logfields"
)

// ErrTimeout reports that a command outlived its timeout and was killed.
var ErrTimeout = errors.New("command timed out")

// ErrNonZeroExit reports that a command ran but exited with a nonzero status.
var ErrNonZeroExit = errors.New("command exited with nonzero status")

// waitDelay bounds how long Wait keeps draining output after the process is killed.
const waitDelay = 2 * time.Second

// Command describes one external invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration // zero means no timeout beyond the caller's context
	Stream  io.Writer     // optional live copy of combined output
}

// String renders the command line for logs and diagnostics.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result captures the outcome of a finished command.
type Result struct {
	ExitCode int
	Output   string // combined stdout and stderr
	Duration time.Duration
}

// Runner executes commands. Implementations must return a non-nil error for
// any outcome other than a zero exit status.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct {
	Logger *slog.Logger
}

// NewExecRunner returns an ExecRunner logging to slog.Default().
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Logger: slog.Default()}
}

// Run executes cmd and waits for it. The error wraps ErrTimeout, ErrNonZeroExit,
// context.Canceled, or the start failure; Result is filled in all cases.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	// #nosec G204 - command names are fixed by the pipeline, not user input
	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay
	var buf bytes.Buffer
	var sink io.Writer = &buf
	if cmd.Stream != nil {
		sink = io.MultiWriter(&buf, cmd.Stream)
	}
	c.Stdout = sink
	c.Stderr = sink

	logger.Debug("Running command", logfields.Command(cmd.String()), logfields.Path(cmd.Dir))
	start := time.Now()
	err := c.Run()
	res := Result{ExitCode: -1, Output: buf.String(), Duration: time.Since(start)}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}

	switch {
	case err == nil:
		logger.Debug("Command finished", logfields.Command(cmd.String()), logfields.Duration(res.Duration))
		return res, nil
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return res, fmt.Errorf("%w after %s: %s", ErrTimeout, cmd.Timeout, cmd.String())
	case ctx.Err() != nil:
		return res, fmt.Errorf("%s: %w", cmd.String(), ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logger.Debug("Command failed", logfields.Command(cmd.String()), logfields.ExitCode(res.ExitCode))
		return res, fmt.Errorf("%w (%d): %s", ErrNonZeroExit, res.ExitCode, cmd.String())
	}
	return res, fmt.Errorf("start %s: %w", cmd.Name, err)
}

// LookPath reports the absolute path of an executable on PATH.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
