package setup

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitesetup/internal/buildcheck"
	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
	"git.home.luguber.info/inful/sitesetup/internal/install"
	"git.home.luguber.info/inful/sitesetup/internal/mkdocs"
)

// InstallFailurePolicy decides what happens after a failed installation.
type InstallFailurePolicy string

const (
	// InstallFailureAbort halts the run with an install error.
	InstallFailureAbort InstallFailurePolicy = "abort"
	// InstallFailureFallback keeps the existing theme and continues to the
	// trial build with the untouched configuration.
	InstallFailureFallback InstallFailurePolicy = "fallback"
)

// ParseInstallFailurePolicy normalizes a policy name; "" selects abort.
func ParseInstallFailurePolicy(s string) (InstallFailurePolicy, error) {
	switch InstallFailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", InstallFailureAbort:
		return InstallFailureAbort, nil
	case InstallFailureFallback:
		return InstallFailureFallback, nil
	default:
		return "", fmt.Errorf("unknown install failure policy %q (want abort or fallback)", s)
	}
}

// Options configures a setup run.
type Options struct {
	ConfigPath       string
	InstallTimeout   time.Duration
	BuildTimeout     time.Duration
	OnInstallFailure InstallFailurePolicy
	AssumeYes        bool
	AssumeNo         bool
	Verbose          bool // mirror subprocess output while it runs
}

// DefaultOptions returns the reference behavior.
func DefaultOptions() Options {
	return Options{
		ConfigPath:       mkdocs.DefaultPath,
		InstallTimeout:   install.DefaultTimeout,
		BuildTimeout:     buildcheck.DefaultTimeout,
		OnInstallFailure: InstallFailureAbort,
	}
}

// Normalize fills zero values with defaults and rejects contradictory settings.
func (o *Options) Normalize() error {
	if o.ConfigPath == "" {
		o.ConfigPath = mkdocs.DefaultPath
	}
	if o.InstallTimeout < 0 {
		return serrors.ValidationFailed("install-timeout", "must not be negative")
	}
	if o.BuildTimeout < 0 {
		return serrors.ValidationFailed("build-timeout", "must not be negative")
	}
	if o.InstallTimeout == 0 {
		o.InstallTimeout = install.DefaultTimeout
	}
	if o.BuildTimeout == 0 {
		o.BuildTimeout = buildcheck.DefaultTimeout
	}
	policy, err := ParseInstallFailurePolicy(string(o.OnInstallFailure))
	if err != nil {
		return serrors.ValidationFailed("on-install-failure", err.Error())
	}
	o.OnInstallFailure = policy
	if o.AssumeYes && o.AssumeNo {
		return serrors.ValidationFailed("assume-yes", "cannot be combined with --assume-no")
	}
	return nil
}

// confirmer returns the fixed answer selected by the assume flags, or nil
// when the operator must be asked.
func (o Options) confirmer() install.Confirmer {
	switch {
	case o.AssumeYes:
		return install.FixedAnswer(true)
	case o.AssumeNo:
		return install.FixedAnswer(false)
	default:
		return nil
	}
}
