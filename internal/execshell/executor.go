package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandNameMissingMessageConstant         = "shell command name not provided"
	commandInterruptedMessageConstant         = "command interrupted"
	commandStartMessageConstant               = "command execution starting"
	commandSuccessMessageConstant             = "command execution completed"
	commandFailureMessageConstant             = "command returned non-zero status"
	commandSpawnErrorMessageConstant          = "command could not be started"
	commandRunnerErrorMessageConstant         = "command execution error"
	commandNameFieldNameConstant              = "command"
	commandArgumentsFieldNameConstant         = "arguments"
	workingDirectoryFieldNameConstant         = "working_directory"
	exitCodeFieldNameConstant                 = "exit_code"
	durationFieldNameConstant                 = "duration"
	spawnErrorMessageTemplateConstant         = "unable to start %s"
)

// CommandSpec describes one external invocation. Arguments are passed to the
// executable verbatim; no shell is involved.
type CommandSpec struct {
	Executable           string
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
}

// Clone returns a deep copy of the command.
func (spec CommandSpec) Clone() CommandSpec {
	cloned := CommandSpec{
		Executable:       spec.Executable,
		WorkingDirectory: spec.WorkingDirectory,
	}
	if len(spec.Arguments) > 0 {
		cloned.Arguments = append([]string(nil), spec.Arguments...)
	}
	if len(spec.EnvironmentVariables) > 0 {
		cloned.EnvironmentVariables = make(map[string]string, len(spec.EnvironmentVariables))
		for key, value := range spec.EnvironmentVariables {
			cloned.EnvironmentVariables[key] = value
		}
	}
	return cloned
}

// String renders the invocation for human-readable output.
func (spec CommandSpec) String() string {
	if len(spec.Arguments) == 0 {
		return spec.Executable
	}
	return spec.Executable + " " + strings.Join(spec.Arguments, " ")
}

// ExecutionResult captures observable command results. Output streams are
// forwarded while the command runs and are not retained.
type ExecutionResult struct {
	ExitCode int
	Duration time.Duration
}

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(executionContext context.Context, command CommandSpec) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates the logger dependency was missing.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the command runner dependency was missing.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
	// ErrCommandNameMissing indicates the command name was not provided.
	ErrCommandNameMissing = errors.New(commandNameMissingMessageConstant)
	// ErrInterrupted indicates the command was terminated because its context ended.
	ErrInterrupted = errors.New(commandInterruptedMessageConstant)
)

// SpawnError reports an executable that could not be resolved or started.
type SpawnError struct {
	Command CommandSpec
	Cause   error
}

// Error describes the spawn failure.
func (spawnError SpawnError) Error() string {
	baseMessage := fmt.Sprintf(spawnErrorMessageTemplateConstant, spawnError.Command.Executable)
	if spawnError.Cause == nil {
		return baseMessage
	}
	return fmt.Sprintf("%s: %v", baseMessage, spawnError.Cause)
}

// Unwrap exposes the underlying error.
func (spawnError SpawnError) Unwrap() error {
	return spawnError.Cause
}

// ShellExecutor runs commands through a CommandRunner and logs lifecycle events.
type ShellExecutor struct {
	commandRunner CommandRunner
	logger        *zap.Logger
}

// NewShellExecutor builds an executor for the provided runner and logger.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{
		commandRunner: commandRunner,
		logger:        logger,
	}, nil
}

// Execute runs the provided command. A non-zero exit code is returned as part of
// the result, not as an error; errors are reserved for commands that never ran
// to completion.
func (executor *ShellExecutor) Execute(executionContext context.Context, command CommandSpec) (ExecutionResult, error) {
	return executor.ExecuteWithLogger(executionContext, executor.logger, command)
}

// ExecuteWithLogger behaves like Execute but logs through the supplied logger,
// which lets callers attach per-run fields.
func (executor *ShellExecutor) ExecuteWithLogger(executionContext context.Context, logger *zap.Logger, command CommandSpec) (ExecutionResult, error) {
	if len(strings.TrimSpace(command.Executable)) == 0 {
		return ExecutionResult{}, ErrCommandNameMissing
	}
	if logger == nil {
		logger = executor.logger
	}

	logger.Info(commandStartMessageConstant,
		zap.String(commandNameFieldNameConstant, command.Executable),
		zap.Strings(commandArgumentsFieldNameConstant, command.Arguments),
		zap.String(workingDirectoryFieldNameConstant, command.WorkingDirectory),
	)

	executionResult, runnerError := executor.commandRunner.Run(executionContext, command)
	if runnerError != nil {
		var spawnError SpawnError
		if errors.As(runnerError, &spawnError) {
			logger.Error(commandSpawnErrorMessageConstant,
				zap.String(commandNameFieldNameConstant, command.Executable),
				zap.Error(runnerError),
			)
			return executionResult, runnerError
		}
		logger.Error(commandRunnerErrorMessageConstant,
			zap.String(commandNameFieldNameConstant, command.Executable),
			zap.Error(runnerError),
		)
		return executionResult, runnerError
	}

	if executionResult.ExitCode != 0 {
		logger.Warn(commandFailureMessageConstant,
			zap.String(commandNameFieldNameConstant, command.Executable),
			zap.Int(exitCodeFieldNameConstant, executionResult.ExitCode),
			zap.Duration(durationFieldNameConstant, executionResult.Duration),
		)
		return executionResult, nil
	}

	logger.Info(commandSuccessMessageConstant,
		zap.String(commandNameFieldNameConstant, command.Executable),
		zap.Int(exitCodeFieldNameConstant, executionResult.ExitCode),
		zap.Duration(durationFieldNameConstant, executionResult.Duration),
	)
	return executionResult, nil
}
