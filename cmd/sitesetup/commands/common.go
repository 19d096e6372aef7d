package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitesetup/internal/console"
	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
	"git.home.luguber.info/inful/sitesetup/internal/logfields"
	"git.home.luguber.info/inful/sitesetup/internal/mkdocs"
	"git.home.luguber.info/inful/sitesetup/internal/probe"
	"git.home.luguber.info/inful/sitesetup/internal/process"
	"git.home.luguber.info/inful/sitesetup/internal/version"
)

// Streams are the process' standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Global carries shared state into every command.
type Global struct {
	Ctx     context.Context
	Streams Streams
	Logger  *slog.Logger
	Console *console.Writer
	RunID   string
	// Runner executes subprocesses; nil selects the real one.
	Runner process.Runner
	// LookPath resolves executables; nil selects PATH lookup.
	LookPath func(string) (string, error)
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Path to the MkDocs configuration file" default:"mkdocs.yml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging and stream subprocess output"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Setup   SetupCmd   `cmd:"" default:"withargs" help:"Probe, optionally install the Material theme, rewrite the configuration and run a trial build (default)"`
	Probe   ProbeCmd   `cmd:"" help:"Report the interpreter and tooling found on this host"`
	Restore RestoreCmd `cmd:"" help:"Copy the backup made by the last setup run over the configuration"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(g.Streams.Err, &slog.HandlerOptions{Level: level})).
		With(logfields.RunID(g.RunID))
	slog.SetDefault(g.Logger)
	return nil
}

// store returns the configuration store selected by --config.
func (c *CLI) store() *mkdocs.Store { return mkdocs.NewStore(c.Config) }

func (g *Global) runner() process.Runner {
	if g.Runner != nil {
		return g.Runner
	}
	return process.NewExecRunner()
}

func (g *Global) prober() *probe.Prober {
	return probe.New(g.runner()).WithLookPath(g.LookPath)
}

// exitSignal carries kong's requested exit code out of Parse.
type exitSignal int

// Execute parses args, runs the selected command and returns the exit code.
func Execute(ctx context.Context, args []string, streams Streams) int {
	return execute(args, newGlobal(ctx, streams))
}

// newGlobal builds the shared state; progress text is colored only when
// stdout is a terminal.
func newGlobal(ctx context.Context, streams Streams) *Global {
	return &Global{
		Ctx:     ctx,
		Streams: streams,
		Logger:  slog.Default(),
		Console: console.NewWithWriters(streams.Out, streams.Err, console.ColorEnabled(streams.Out)),
		RunID:   uuid.NewString(),
	}
}

func execute(args []string, global *Global) (code int) {
	defer func() {
		if r := recover(); r != nil {
			sig, ok := r.(exitSignal)
			if !ok {
				panic(r)
			}
			code = int(sig)
		}
	}()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("sitesetup"),
		kong.Description("Prepare an MkDocs documentation site and prove it builds."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Writers(global.Streams.Out, global.Streams.Err),
		kong.Exit(func(c int) { panic(exitSignal(c)) }),
		kong.Bind(global),
	)
	if err != nil {
		fmt.Fprintf(global.Streams.Err, "sitesetup: %v\n", err)
		return serrors.ExitInternal
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(global.Streams.Err, "sitesetup: %v\n", err)
		return serrors.ExitUsage
	}

	if err := kctx.Run(); err != nil {
		code = serrors.ExitGeneral
		adapter := serrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).
			WithOutput(global.Streams.Err, func(c int) { code = c })
		adapter.HandleError(err)
		return code
	}
	return serrors.ExitSuccess
}
