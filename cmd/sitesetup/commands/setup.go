package commands

import (
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitesetup/internal/buildcheck"
	"git.home.luguber.info/inful/sitesetup/internal/console"
	"git.home.luguber.info/inful/sitesetup/internal/install"
	"git.home.luguber.info/inful/sitesetup/internal/logfields"
	"git.home.luguber.info/inful/sitesetup/internal/metrics"
	"git.home.luguber.info/inful/sitesetup/internal/setup"
)

// SetupCmd implements the default 'setup' command.
type SetupCmd struct {
	InstallTimeout   time.Duration `name:"install-timeout" help:"Upper bound for the package installation" default:"10m"`
	BuildTimeout     time.Duration `name:"build-timeout" help:"Upper bound for the trial build" default:"5m"`
	OnInstallFailure string        `name:"on-install-failure" help:"What to do when installation fails (abort|fallback)" enum:"abort,fallback" default:"abort"`
	AssumeYes        bool          `name:"assume-yes" short:"y" help:"Install the enhanced theme without asking" xor:"assume"`
	AssumeNo         bool          `name:"assume-no" short:"n" help:"Keep the existing theme without asking" xor:"assume"`
	MetricsFile      string        `name:"metrics-file" help:"Write run metrics in Prometheus textfile format to this path" type:"path"`
}

func (s *SetupCmd) Run(g *Global, root *CLI) error {
	opts := setup.Options{
		ConfigPath:       root.Config,
		InstallTimeout:   s.InstallTimeout,
		BuildTimeout:     s.BuildTimeout,
		OnInstallFailure: setup.InstallFailurePolicy(s.OnInstallFailure),
		AssumeYes:        s.AssumeYes,
		AssumeNo:         s.AssumeNo,
		Verbose:          root.Verbose,
	}

	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		registry *prom.Registry
	)
	if s.MetricsFile != "" {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	pipeline := setup.New(opts).
		WithRunner(g.runner()).
		WithProber(g.prober()).
		WithConfirmer(install.NewPrompter(g.Streams.In, g.Streams.Out)).
		WithConsole(g.Console).
		WithLogger(g.Logger).
		WithRecorder(recorder).
		WithRunID(g.RunID)

	rep, err := pipeline.Run(g.Ctx)
	if registry != nil {
		if werr := metrics.WriteTextfile(s.MetricsFile, registry); werr != nil {
			g.Logger.Warn("Failed to write metrics file", logfields.Path(s.MetricsFile), logfields.Error(werr))
		}
	}
	if err != nil {
		return err
	}
	printNextSteps(g.Console, rep)
	return nil
}

// printNextSteps tells the operator how to use the prepared site.
func printNextSteps(w *console.Writer, rep *setup.Report) {
	w.Println("")
	if rep.InstallFallback {
		w.Warning("the enhanced theme is not installed; the site builds with its existing theme")
	}
	siteDir := buildcheck.DefaultSiteDir
	if rep.Build != nil && rep.Build.SiteDir != "" {
		siteDir = rep.Build.SiteDir
	}
	w.Success("Site is ready.")
	w.Println("Preview it with live reload:")
	w.Println("  mkdocs serve --config-file %s", rep.ConfigPath)
	w.Println("Build it for publishing:")
	w.Println("  mkdocs build --config-file %s", rep.ConfigPath)
	w.Println("Generated pages are written to %s", siteDir)
	if rep.BackupPath != "" {
		w.Println("The previous configuration is kept at %s (restore with `sitesetup restore -c %s`).",
			rep.BackupPath, filepath.Clean(rep.ConfigPath))
	}
}
