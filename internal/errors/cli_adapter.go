package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Exit codes returned by the sitesetup CLI.
const (
	ExitSuccess            = 0
	ExitGeneral            = 1
	ExitUsage              = 2
	ExitMissingInterpreter = 3
	ExitInstallFailed      = 4
	ExitParseError         = 5
	ExitIOError            = 6
	ExitBuildFailed        = 7
	ExitTransformFailed    = 8
	ExitInternal           = 10
	ExitInterrupted        = 130
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// WithOutput redirects the user-facing message and replaces the exit function (for tests).
func (a *CLIErrorAdapter) WithOutput(w io.Writer, exit func(int)) *CLIErrorAdapter {
	if w != nil {
		a.out = w
	}
	if exit != nil {
		a.exit = exit
	}
	return a
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if se, ok := As(err); ok {
		return a.exitCodeFromSetup(se)
	}

	return ExitGeneral
}

// exitCodeFromSetup maps SetupError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromSetup(err *SetupError) int {
	switch err.Category {
	case CategoryValidation:
		return ExitUsage
	case CategoryEnvironment:
		return ExitMissingInterpreter
	case CategoryInstall:
		return ExitInstallFailed
	case CategoryParse:
		return ExitParseError
	case CategoryTransform:
		return ExitTransformFailed
	case CategoryIO:
		return ExitIOError
	case CategoryBuildValidation:
		return ExitBuildFailed
	case CategoryCanceled:
		return ExitInterrupted
	case CategoryInternal:
		return ExitInternal
	default:
		return ExitGeneral
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if se, ok := As(err); ok {
		return a.formatSetup(se)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatSetup renders the failing stage, the message and any captured diagnostic.
func (a *CLIErrorAdapter) formatSetup(err *SetupError) string {
	var b strings.Builder
	if err.Stage != "" {
		fmt.Fprintf(&b, "%s stage failed: ", err.Stage)
	}
	if a.verbose {
		b.WriteString(err.Error())
	} else {
		b.WriteString(err.Message)
		if err.Cause != nil {
			fmt.Fprintf(&b, ": %v", err.Cause)
		}
	}
	if p := err.ContextString(ContextPath); p != "" && !a.verbose {
		fmt.Fprintf(&b, " (%s)", p)
	}
	if out := strings.TrimSpace(err.ContextString(ContextOutput)); out != "" {
		b.WriteString("\n--- command output ---\n")
		b.WriteString(out)
	}
	if bp := err.ContextString(ContextBackupPath); bp != "" {
		fmt.Fprintf(&b, "\nThe original configuration was saved to %s; copy it back to restore the previous state.", bp)
	}
	if hint := err.ContextString(ContextGitRestore); hint != "" {
		fmt.Fprintf(&b, "\nThe file is tracked by git; `%s` also restores the committed version.", hint)
	}
	return b.String()
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(a.out, "%s\n", message)
	a.exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if se, ok := As(err); ok {
		return se.Category == CategoryInternal || se.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if se, ok := As(err); ok {
		attrs := []slog.Attr{
			slog.String("category", string(se.Category)),
		}
		if se.Stage != "" {
			attrs = append(attrs, slog.String("stage", se.Stage))
		}
		if se.Cause != nil {
			attrs = append(attrs, slog.String("error", se.Cause.Error()))
		}
		a.logger.LogAttrs(context.Background(), a.slogLevelFromSeverity(se.Severity), se.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	if severity == SeverityWarning {
		return slog.LevelWarn
	}
	return slog.LevelError
}
