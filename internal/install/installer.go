// Package install owns the optional enhanced-theme installation: the single
// confirmation prompt and the package-manager invocation.
package install

import (
	"context"
	"io"
	"log/slog"
	"time"

	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
	"git.home.luguber.info/inful/sitesetup/internal/logfields"
	"git.home.luguber.info/inful/sitesetup/internal/probe"
	"git.home.luguber.info/inful/sitesetup/internal/process"
)

// Packages is the fixed package set installed for the enhanced theme.
var Packages = []string{"mkdocs", "mkdocs-material", "pymdown-extensions"}

// DefaultTimeout bounds the package-manager invocation.
const DefaultTimeout = 10 * time.Minute

// Question is the prompt shown to the operator.
const Question = "Install the Material theme and enable the enhanced markdown extensions?"

// Decide asks the operator once and returns the explicit decision. A prompt
// read failure is treated as "no"; cancellation while waiting for the answer
// is returned as an interrupted install stage.
func Decide(ctx context.Context, c Confirmer) (Decision, error) {
	ok, err := c.Confirm(ctx, Question)
	if ctx.Err() != nil {
		return DecisionDefaultTheme, serrors.Canceled("install", ctx.Err())
	}
	if err != nil {
		slog.Warn("Could not read answer, keeping the existing theme", logfields.Error(err))
		return DecisionDefaultTheme, nil
	}
	if ok {
		return DecisionEnhancedTheme, nil
	}
	return DecisionDefaultTheme, nil
}

// Result describes a completed installation.
type Result struct {
	Command  string
	Output   string
	Duration time.Duration
}

// Installer runs the package manager through the interpreter found by the prober.
type Installer struct {
	runner  process.Runner
	timeout time.Duration
	stream  io.Writer
}

// NewInstaller creates an Installer; a non-positive timeout selects DefaultTimeout.
func NewInstaller(runner process.Runner, timeout time.Duration) *Installer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Installer{runner: runner, timeout: timeout}
}

// WithStream mirrors the package manager's output to w while it runs.
func (i *Installer) WithStream(w io.Writer) *Installer {
	i.stream = w
	return i
}

// Command returns the pip invocation for env.
func (i *Installer) Command(env probe.Environment) process.Command {
	args := append([]string{"-m", "pip", "install", "--upgrade"}, Packages...)
	return process.Command{
		Name:    env.Interpreter.Path,
		Args:    args,
		Timeout: i.timeout,
		Stream:  i.stream,
	}
}

// Install runs pip and checks its exit status. Any failure, including a
// timeout, is an install error carrying the captured output.
func (i *Installer) Install(ctx context.Context, env probe.Environment) (Result, error) {
	cmd := i.Command(env)
	slog.Info("Installing theme packages", logfields.Command(cmd.String()))

	res, err := i.runner.Run(ctx, cmd)
	out := Result{Command: cmd.String(), Output: res.Output, Duration: res.Duration}
	if err != nil {
		if ctx.Err() != nil {
			return out, serrors.Canceled("install", ctx.Err())
		}
		return out, serrors.InstallFailed(cmd.String(), res.ExitCode, res.Output, err)
	}

	slog.Info("Theme packages installed", logfields.Duration(res.Duration))
	return out, nil
}
