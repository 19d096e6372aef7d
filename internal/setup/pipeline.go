// Package setup runs the site setup routine: probe the environment, offer
// the enhanced theme, rewrite the configuration document and prove the
// result with a trial build. Stages run strictly in sequence and any stage
// failure halts the run.
package setup

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitesetup/internal/buildcheck"
	"git.home.luguber.info/inful/sitesetup/internal/console"
	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
	"git.home.luguber.info/inful/sitesetup/internal/install"
	"git.home.luguber.info/inful/sitesetup/internal/logfields"
	"git.home.luguber.info/inful/sitesetup/internal/metrics"
	"git.home.luguber.info/inful/sitesetup/internal/mkdocs"
	"git.home.luguber.info/inful/sitesetup/internal/probe"
	"git.home.luguber.info/inful/sitesetup/internal/process"
	"git.home.luguber.info/inful/sitesetup/internal/vcs"
)

// EnvironmentProber locates the interpreter and tooling.
type EnvironmentProber interface {
	Probe(ctx context.Context) (probe.Environment, error)
}

// Pipeline wires the four stages together. Collaborators default to the
// real implementations and can be replaced with the With* methods.
type Pipeline struct {
	opts        Options
	runner      process.Runner
	prober      EnvironmentProber
	confirmer   install.Confirmer
	console     *console.Writer
	recorder    metrics.Recorder
	logger      *slog.Logger
	inspect     func(path string) (vcs.Status, error)
	replacement mkdocs.Replacement
	runID       string
}

// New creates a Pipeline for opts.
func New(opts Options) *Pipeline {
	return &Pipeline{
		opts:        opts,
		runner:      process.NewExecRunner(),
		console:     console.New(),
		recorder:    metrics.NoopRecorder{},
		logger:      slog.Default(),
		inspect:     vcs.Inspect,
		replacement: mkdocs.DefaultReplacement(),
	}
}

// WithRunner replaces the subprocess runner used by every stage.
func (p *Pipeline) WithRunner(r process.Runner) *Pipeline {
	p.runner = r
	return p
}

// WithProber replaces the environment prober.
func (p *Pipeline) WithProber(pr EnvironmentProber) *Pipeline {
	p.prober = pr
	return p
}

// WithConfirmer replaces the operator prompt.
func (p *Pipeline) WithConfirmer(c install.Confirmer) *Pipeline {
	p.confirmer = c
	return p
}

// WithConsole replaces the user-facing output writer.
func (p *Pipeline) WithConsole(w *console.Writer) *Pipeline {
	p.console = w
	return p
}

// WithRecorder sets the metrics recorder.
func (p *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	p.recorder = r
	return p
}

// WithLogger sets the logger for pipeline events.
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	if l != nil {
		p.logger = l
	}
	return p
}

// WithRunID fixes the run identifier instead of generating one.
func (p *Pipeline) WithRunID(id string) *Pipeline {
	p.runID = id
	return p
}

// WithVCSInspector replaces the version control lookup (for tests).
func (p *Pipeline) WithVCSInspector(fn func(string) (vcs.Status, error)) *Pipeline {
	p.inspect = fn
	return p
}

// Run executes the state machine. The report is returned even when the run
// halts, describing every state reached.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{RunID: p.runID, StartTime: start}
	if rep.RunID == "" {
		rep.RunID = uuid.NewString()
	}
	rep.enter(StateStart)

	err := p.run(ctx, rep)
	rep.Duration = time.Since(start)
	p.finish(rep, err)
	return rep, err
}

func (p *Pipeline) run(ctx context.Context, rep *Report) error {
	if err := p.opts.Normalize(); err != nil {
		return err
	}
	rep.ConfigPath = p.opts.ConfigPath
	log := p.logger.With(logfields.RunID(rep.RunID))
	log.Info("Starting site setup", logfields.Path(rep.ConfigPath))

	// Probe
	rep.enter(StateProbeEnvironment)
	p.console.Step(StageProbe)
	err := p.timed(rep, StageProbe, func() error {
		var perr error
		rep.Environment, perr = p.proberOrDefault().Probe(ctx)
		return perr
	})
	if err != nil {
		return p.halt(rep, StateMissingInterpreter, StageProbe, err)
	}
	p.console.Success("Found %s %s", rep.Environment.Interpreter.Name, rep.Environment.Interpreter.Version)

	// Prompt
	rep.enter(StateInstallPrompt)
	if err := ctx.Err(); err != nil {
		return p.halt(rep, StateInterrupted, StageInstall, serrors.Canceled(StageInstall, err))
	}
	rep.Decision, err = install.Decide(ctx, p.confirmerOrDefault())
	if err != nil {
		return p.halt(rep, StateInterrupted, StageInstall, err)
	}
	log.Info("Install decision recorded", logfields.Decision(rep.Decision.String()))

	transform := rep.Decision.Enhanced()
	if !transform {
		rep.enter(StateSkipInstall)
		rep.stage(StageInstall, metrics.ResultSkipped, 0)
		p.recorder.IncStageResult(StageInstall, metrics.ResultSkipped)
		p.console.Println("Keeping the existing theme and extensions.")
	} else {
		rep.enter(StateInstall)
		p.console.Step(StageInstall)
		err := p.timed(rep, StageInstall, func() error {
			res, ierr := p.installer().Install(ctx, rep.Environment)
			rep.Install = &res
			return ierr
		})
		switch {
		case err == nil:
			rep.enter(StateInstallOK)
			p.console.Success("Installed %d packages", len(install.Packages))
		case serrors.IsCategory(err, serrors.CategoryCanceled):
			return p.halt(rep, StateInterrupted, StageInstall, err)
		case p.opts.OnInstallFailure == InstallFailureFallback:
			rep.enter(StateInstallFailed)
			rep.InstallFallback = true
			transform = false
			log.Warn("Install failed, continuing with the existing theme", logfields.Error(err))
			p.console.Warning("installation failed; keeping the existing theme (%v)", err)
		default:
			return p.halt(rep, StateInstallFailed, StageInstall, err)
		}
	}

	// Transform
	siteDir := ""
	if transform {
		rep.enter(StateTransformConfig)
		p.console.Step(StageTransform)
		if err := ctx.Err(); err != nil {
			return p.halt(rep, StateInterrupted, StageTransform, serrors.Canceled(StageTransform, err))
		}
		err := p.timed(rep, StageTransform, func() error {
			var terr error
			siteDir, terr = p.transform(log, rep)
			return terr
		})
		if err != nil {
			return p.halt(rep, StateTransformFailed, StageTransform, err)
		}
		rep.enter(StateTransformOK)
		if rep.ConfigChanged {
			p.console.Success("Rewrote %s (backup at %s)", rep.ConfigPath, rep.BackupPath)
		} else {
			p.console.Success("%s already uses the enhanced theme (backup at %s)", rep.ConfigPath, rep.BackupPath)
		}
	} else {
		rep.enter(StateUseExistingTheme)
		rep.stage(StageTransform, metrics.ResultSkipped, 0)
		p.recorder.IncStageResult(StageTransform, metrics.ResultSkipped)
		siteDir = p.configuredSiteDir(log)
	}

	// Validate
	rep.enter(StateValidateBuild)
	p.console.Step(StageBuild)
	err = p.timed(rep, StageBuild, func() error {
		res, berr := p.validator().Validate(ctx, rep.Environment, rep.ConfigPath, siteDir, rep.BackupPath)
		rep.Build = &res
		return berr
	})
	if err != nil {
		if serrors.IsCategory(err, serrors.CategoryCanceled) {
			return p.halt(rep, StateInterrupted, StageBuild, err)
		}
		if hint := rep.VCS.RestoreHint(); hint != "" && rep.VCS.Clean {
			if se, ok := serrors.As(err); ok {
				se.WithContext(serrors.ContextGitRestore, hint)
			}
		}
		return p.halt(rep, StateBuildFailed, StageBuild, err)
	}
	rep.enter(StateBuildOK)
	p.console.Success("Trial build succeeded in %s", rep.Build.Duration.Round(time.Millisecond))
	return nil
}

// transform rewrites the configuration under the advisory lock and returns
// the configured site directory.
func (p *Pipeline) transform(log *slog.Logger, rep *Report) (string, error) {
	store := mkdocs.NewStore(rep.ConfigPath)
	release, err := store.Lock()
	if err != nil {
		return "", err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			log.Warn("Failed to release configuration lock", logfields.Error(rerr))
		}
	}()

	doc, snap, err := store.Load()
	if err != nil {
		return "", err
	}
	data, err := mkdocs.Render(doc, p.replacement)
	if err != nil {
		if se, ok := serrors.As(err); ok {
			if se.ContextString(serrors.ContextPath) == "" {
				se.WithContext(serrors.ContextPath, rep.ConfigPath)
			}
			return "", se
		}
		return "", serrors.InternalError("render configuration", err).WithContext(serrors.ContextPath, rep.ConfigPath)
	}
	siteDir, _ := doc.ScalarString(mkdocs.KeySiteDir)

	if status, verr := p.inspect(rep.ConfigPath); verr != nil {
		log.Debug("Version control lookup failed", logfields.Error(verr))
	} else {
		rep.VCS = status
	}

	if err := store.Backup(snap); err != nil {
		return "", err
	}
	rep.BackupPath = store.BackupPath()

	if bytes.Equal(data, snap.Data) {
		log.Info("Configuration already up to date", logfields.Path(rep.ConfigPath))
		return siteDir, nil
	}
	if err := store.Save(data, snap.Mode); err != nil {
		return "", err
	}
	rep.ConfigChanged = true
	return siteDir, nil
}

// configuredSiteDir reads site_dir without modifying anything. A document
// that cannot be read is left for the trial build to report.
func (p *Pipeline) configuredSiteDir(log *slog.Logger) string {
	doc, _, err := mkdocs.NewStore(p.opts.ConfigPath).Load()
	if err != nil {
		log.Debug("Could not read site_dir", logfields.Error(err))
		return ""
	}
	dir, _ := doc.ScalarString(mkdocs.KeySiteDir)
	return dir
}

// timed runs fn as stage name, recording its duration and result.
func (p *Pipeline) timed(rep *Report, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	result := metrics.ResultSuccess
	switch {
	case serrors.IsCategory(err, serrors.CategoryCanceled):
		result = metrics.ResultCanceled
	case err != nil:
		result = metrics.ResultFailed
	}
	rep.stage(name, result, d)
	p.recorder.ObserveStageDuration(name, d)
	p.recorder.IncStageResult(name, result)
	p.logger.Debug("Stage finished", logfields.RunID(rep.RunID), logfields.Stage(name),
		slog.String("result", string(result)), logfields.Duration(d))
	return err
}

// halt records the terminal state and stamps the stage on err.
func (p *Pipeline) halt(rep *Report, s State, stage string, err error) error {
	if serrors.IsCategory(err, serrors.CategoryCanceled) {
		s = StateInterrupted
	}
	rep.enter(s)
	if se, ok := serrors.As(err); ok {
		if se.Stage == "" {
			se.WithStage(stage)
		}
		return err
	}
	return serrors.InternalError("unclassified failure", err).WithStage(stage)
}

func (p *Pipeline) finish(rep *Report, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(serrors.GetCategory(err))
	}
	code := serrors.NewCLIErrorAdapter(false, p.logger).ExitCodeFor(err)
	p.recorder.ObserveRunDuration(rep.Duration)
	p.recorder.SetRunOutcome(outcome, code)
	p.logger.Info("Site setup finished",
		logfields.RunID(rep.RunID),
		logfields.State(string(rep.State())),
		logfields.ExitCode(code),
		logfields.Duration(rep.Duration))
}

func (p *Pipeline) proberOrDefault() EnvironmentProber {
	if p.prober != nil {
		return p.prober
	}
	return probe.New(p.runner)
}

func (p *Pipeline) confirmerOrDefault() install.Confirmer {
	if c := p.opts.confirmer(); c != nil {
		return c
	}
	if p.confirmer != nil {
		return p.confirmer
	}
	return install.NewPrompter(os.Stdin, p.console.Out())
}

func (p *Pipeline) installer() *install.Installer {
	i := install.NewInstaller(p.runner, p.opts.InstallTimeout)
	if p.opts.Verbose {
		i.WithStream(p.console.Out())
	}
	return i
}

func (p *Pipeline) validator() *buildcheck.Validator {
	v := buildcheck.New(p.runner, p.opts.BuildTimeout)
	if p.opts.Verbose {
		v.WithStream(p.console.Out())
	}
	return v
}
