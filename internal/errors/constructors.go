package errors

// Convenience functions for common error patterns

// Context keys shared by constructors and the CLI adapter.
const (
	ContextPath       = "path"
	ContextOutput     = "output"
	ContextBackupPath = "backup_path"
	ContextCommand    = "command"
	ContextExitCode   = "exit_code"
	ContextGitRestore = "git_restore"
)

// Environment errors

func InterpreterNotFound(candidates []string) *SetupError {
	return New(CategoryEnvironment, SeverityFatal, "required Python interpreter not found on PATH").
		WithContext("candidates", candidates)
}

// Install errors

func InstallFailed(command string, exitCode int, output string, cause error) *SetupError {
	return Wrap(cause, CategoryInstall, SeverityFatal, "theme installation failed").
		WithContext(ContextCommand, command).
		WithContext(ContextExitCode, exitCode).
		WithContext(ContextOutput, output)
}

// Configuration document errors

func ParseFailed(path string, cause error) *SetupError {
	return Wrap(cause, CategoryParse, SeverityFatal, "configuration document could not be parsed").
		WithContext(ContextPath, path)
}

// TransformFailed reports a well-formed document the transformer refuses to rewrite.
func TransformFailed(path string, cause error) *SetupError {
	return Wrap(cause, CategoryTransform, SeverityFatal, "configuration document cannot be rewritten").
		WithContext(ContextPath, path)
}

func IOFailed(operation, path string, cause error) *SetupError {
	return Wrap(cause, CategoryIO, SeverityFatal, operation+" failed").
		WithContext(ContextPath, path)
}

// Build validation errors

func BuildValidationFailed(command string, exitCode int, output, backupPath string, cause error) *SetupError {
	return Wrap(cause, CategoryBuildValidation, SeverityFatal, "trial build failed").
		WithContext(ContextCommand, command).
		WithContext(ContextExitCode, exitCode).
		WithContext(ContextOutput, output).
		WithContext(ContextBackupPath, backupPath)
}

// Runtime errors

func Canceled(stage string, cause error) *SetupError {
	return Wrap(cause, CategoryCanceled, SeverityFatal, "interrupted").WithStage(stage)
}

func ValidationFailed(field, reason string) *SetupError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

func InternalError(message string, cause error) *SetupError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
