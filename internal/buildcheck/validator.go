// Package buildcheck runs a trial MkDocs build against a configuration file
// and reports whether it succeeded.
package buildcheck

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
	"git.home.luguber.info/inful/sitesetup/internal/logfields"
	"git.home.luguber.info/inful/sitesetup/internal/probe"
	"git.home.luguber.info/inful/sitesetup/internal/process"
)

// DefaultTimeout bounds the trial build.
const DefaultTimeout = 5 * time.Minute

// DefaultSiteDir is MkDocs' output directory when site_dir is not configured.
const DefaultSiteDir = "site"

// Result describes a trial build.
type Result struct {
	Command  string
	Output   string
	ExitCode int
	Duration time.Duration
	SiteDir  string // absolute output directory
}

// Validator invokes the site build.
type Validator struct {
	runner  process.Runner
	timeout time.Duration
	stream  io.Writer
}

// New creates a Validator; a non-positive timeout selects DefaultTimeout.
func New(runner process.Runner, timeout time.Duration) *Validator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Validator{runner: runner, timeout: timeout}
}

// WithStream mirrors build output to w while it runs.
func (v *Validator) WithStream(w io.Writer) *Validator {
	v.stream = w
	return v
}

// Command returns the build invocation: the mkdocs executable when the
// prober found one, otherwise the mkdocs module of the interpreter.
func (v *Validator) Command(env probe.Environment, configPath string) process.Command {
	dir := filepath.Dir(configPath)
	file := filepath.Base(configPath)
	cmd := process.Command{Dir: dir, Timeout: v.timeout, Stream: v.stream}
	if env.HasMkDocs() {
		cmd.Name = env.MkDocsPath
		cmd.Args = []string{"build", "--config-file", file}
	} else {
		cmd.Name = env.Interpreter.Path
		cmd.Args = []string{"-m", "mkdocs", "build", "--config-file", file}
	}
	return cmd
}

// Validate runs the build. siteDir is the configured output directory
// relative to the config file ("" for the default). backupPath is reported
// in the failure so the operator can restore the previous configuration; it
// may be empty when no backup was taken.
func (v *Validator) Validate(ctx context.Context, env probe.Environment, configPath, siteDir, backupPath string) (Result, error) {
	cmd := v.Command(env, configPath)
	slog.Info("Running trial build", logfields.Command(cmd.String()), logfields.Path(cmd.Dir))

	res, err := v.runner.Run(ctx, cmd)
	out := Result{
		Command:  cmd.String(),
		Output:   res.Output,
		ExitCode: res.ExitCode,
		Duration: res.Duration,
		SiteDir:  resolveSiteDir(cmd.Dir, siteDir),
	}
	if err != nil {
		if ctx.Err() != nil {
			return out, serrors.Canceled("build validation", ctx.Err())
		}
		slog.Error("Trial build failed", logfields.ExitCode(res.ExitCode), logfields.Error(err))
		return out, serrors.BuildValidationFailed(cmd.String(), res.ExitCode, res.Output, backupPath, err)
	}

	slog.Info("Trial build succeeded", logfields.Duration(res.Duration), logfields.Path(out.SiteDir))
	return out, nil
}

func resolveSiteDir(configDir, siteDir string) string {
	if siteDir == "" {
		siteDir = DefaultSiteDir
	}
	if !filepath.IsAbs(siteDir) {
		siteDir = filepath.Join(configDir, siteDir)
	}
	if abs, err := filepath.Abs(siteDir); err == nil {
		return abs
	}
	return siteDir
}
