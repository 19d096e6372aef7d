package setup

// State is a node of the setup state machine.
type State string

const (
	StateStart              State = "start"
	StateProbeEnvironment   State = "probe_environment"
	StateMissingInterpreter State = "missing_interpreter"
	StateInstallPrompt      State = "install_prompt"
	StateSkipInstall        State = "skip_install"
	StateInstall            State = "install"
	StateInstallFailed      State = "install_failed"
	StateInstallOK          State = "install_ok"
	StateUseExistingTheme   State = "use_existing_theme"
	StateTransformConfig    State = "transform_config"
	StateTransformFailed    State = "transform_failed"
	StateTransformOK        State = "transform_ok"
	StateValidateBuild      State = "validate_build"
	StateBuildOK            State = "build_ok"
	StateBuildFailed        State = "build_failed"
	StateInterrupted        State = "interrupted"
)

// Terminal reports whether no transition leaves s. StateInstallFailed is
// left out because the fallback policy continues from it.
func (s State) Terminal() bool {
	switch s {
	case StateMissingInterpreter, StateTransformFailed,
		StateBuildOK, StateBuildFailed, StateInterrupted:
		return true
	default:
		return false
	}
}

// Stage names reported in errors, logs and metrics.
const (
	StageProbe     = "probe environment"
	StageInstall   = "install"
	StageTransform = "transform configuration"
	StageBuild     = "build validation"
)
