package install

// Decision is the operator's theme choice, made once per run and passed
// explicitly to the later stages.
type Decision int

const (
	// DecisionDefaultTheme leaves the configuration document untouched.
	DecisionDefaultTheme Decision = iota
	// DecisionEnhancedTheme installs the enhanced theme and rewrites the document.
	DecisionEnhancedTheme
)

func (d Decision) String() string {
	switch d {
	case DecisionEnhancedTheme:
		return "enhanced_theme"
	default:
		return "default_theme"
	}
}

// Enhanced reports whether the enhanced theme was chosen.
func (d Decision) Enhanced() bool { return d == DecisionEnhancedTheme }
