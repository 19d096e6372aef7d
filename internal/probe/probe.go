// Package probe inspects the host for the tooling the setup pipeline needs:
// a Python interpreter (required) and an mkdocs executable (optional).
package probe

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
	"git.home.luguber.info/inful/sitesetup/internal/logfields"
	"git.home.luguber.info/inful/sitesetup/internal/process"
)

// DefaultInterpreters lists the interpreter names tried, in order.
var DefaultInterpreters = []string{"python3", "python"}

const versionTimeout = 10 * time.Second

var versionRegex = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?)`)

// Interpreter describes the Python interpreter that was found.
type Interpreter struct {
	Name    string
	Path    string
	Version string // empty when `--version` could not be parsed
}

// Environment is the capability report produced by the prober.
type Environment struct {
	Interpreter Interpreter
	// MkDocsPath is the mkdocs executable on PATH, or "" when absent.
	MkDocsPath string
}

// HasInterpreter reports whether a usable interpreter was found.
func (e Environment) HasInterpreter() bool { return e.Interpreter.Path != "" }

// HasMkDocs reports whether an mkdocs executable is on PATH.
func (e Environment) HasMkDocs() bool { return e.MkDocsPath != "" }

// Prober checks the ambient environment.
type Prober struct {
	runner       process.Runner
	lookPath     func(string) (string, error)
	interpreters []string
}

// New creates a Prober that runs version queries through runner.
func New(runner process.Runner) *Prober {
	return &Prober{
		runner:       runner,
		lookPath:     process.LookPath,
		interpreters: DefaultInterpreters,
	}
}

// WithLookPath replaces PATH resolution (for tests).
func (p *Prober) WithLookPath(fn func(string) (string, error)) *Prober {
	if fn != nil {
		p.lookPath = fn
	}
	return p
}

// WithInterpreters overrides the interpreter candidates.
func (p *Prober) WithInterpreters(names ...string) *Prober {
	if len(names) > 0 {
		p.interpreters = names
	}
	return p
}

// Probe locates the interpreter and reports capability flags. A missing
// interpreter is an environment error; a failing version query is not.
func (p *Prober) Probe(ctx context.Context) (Environment, error) {
	var env Environment
	for _, name := range p.interpreters {
		path, err := p.lookPath(name)
		if err != nil || path == "" {
			slog.Debug("Interpreter candidate not found", slog.String("name", name))
			continue
		}
		env.Interpreter = Interpreter{Name: name, Path: path}
		break
	}
	if !env.HasInterpreter() {
		return env, serrors.InterpreterNotFound(p.interpreters)
	}

	res, err := p.runner.Run(ctx, process.Command{
		Name:    env.Interpreter.Path,
		Args:    []string{"--version"},
		Timeout: versionTimeout,
	})
	if err != nil {
		if ctx.Err() != nil {
			return env, serrors.Canceled("probe environment", ctx.Err())
		}
		slog.Warn("Could not query interpreter version", logfields.Path(env.Interpreter.Path), logfields.Error(err))
	} else {
		env.Interpreter.Version = ParseVersion(res.Output)
	}

	if path, err := p.lookPath("mkdocs"); err == nil {
		env.MkDocsPath = path
	}

	slog.Info("Environment probed",
		slog.String("interpreter", env.Interpreter.Path),
		logfields.Version(env.Interpreter.Version),
		slog.Bool("mkdocs", env.HasMkDocs()))
	return env, nil
}

// ParseVersion extracts the version number from `python --version` output
// such as "Python 3.12.1". Returns "" when no version is present.
func ParseVersion(output string) string {
	matches := versionRegex.FindStringSubmatch(strings.TrimSpace(output))
	if len(matches) >= 2 {
		return matches[1]
	}
	return ""
}
