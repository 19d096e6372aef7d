package setup

import (
	"time"

	"git.home.luguber.info/inful/sitesetup/internal/buildcheck"
	"git.home.luguber.info/inful/sitesetup/internal/install"
	"git.home.luguber.info/inful/sitesetup/internal/metrics"
	"git.home.luguber.info/inful/sitesetup/internal/probe"
	"git.home.luguber.info/inful/sitesetup/internal/vcs"
)

// StageTiming records how one stage ended.
type StageTiming struct {
	Stage    string
	Result   metrics.ResultLabel
	Duration time.Duration
}

// Report describes a completed or halted run.
type Report struct {
	RunID       string
	States      []State
	Stages      []StageTiming
	Environment probe.Environment
	Decision    install.Decision
	Install     *install.Result
	// InstallFallback is set when a failed install was tolerated by policy.
	InstallFallback bool
	ConfigPath      string
	BackupPath      string // "" when no backup was taken
	ConfigChanged   bool
	VCS             vcs.Status
	Build           *buildcheck.Result
	StartTime       time.Time
	Duration        time.Duration
}

// State returns the last state reached.
func (r *Report) State() State {
	if len(r.States) == 0 {
		return StateStart
	}
	return r.States[len(r.States)-1]
}

// Succeeded reports whether the run ended with a passing build.
func (r *Report) Succeeded() bool { return r.State() == StateBuildOK }

func (r *Report) enter(s State) { r.States = append(r.States, s) }

func (r *Report) stage(name string, result metrics.ResultLabel, d time.Duration) {
	r.Stages = append(r.Stages, StageTiming{Stage: name, Result: result, Duration: d})
}
