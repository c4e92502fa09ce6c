package taskrunner

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/chores/internal/execshell"
	"github.com/tyemirov/chores/internal/tasks"
)

var (
	errRegistryMissing = errors.New("taskrunner.dependencies: task registry not provided")
	errExecutorMissing = errors.New("taskrunner: task executor not configured")
)

// DependenciesConfig captures providers required to build task dependencies.
type DependenciesConfig struct {
	LoggerProvider func() *zap.Logger
	Registry       *tasks.Registry
	CommandRunner  execshell.CommandRunner
	Recorder       tasks.Recorder
}

// DependenciesOptions allows per-command overrides when resolving task dependencies.
type DependenciesOptions struct {
	Command        *cobra.Command
	Output         io.Writer
	Errors         io.Writer
	Input          io.Reader
	FailurePolicy  tasks.FailurePolicy
	DryRun         bool
	DisableSummary bool
}

// Dependencies exposes resolved collaborators for a task run.
type Dependencies struct {
	Logger         *zap.Logger
	TaskExecutor   *tasks.Executor
	CommandRunner  execshell.CommandRunner
	Output         io.Writer
	Errors         io.Writer
	DisableSummary bool
}

// BuildDependencies resolves the logger, writers, command runner and task
// executor. Child processes write to the same streams as the step banners
// unless a command runner is supplied.
func BuildDependencies(config DependenciesConfig, options DependenciesOptions) (Dependencies, error) {
	if config.Registry == nil {
		return Dependencies{}, errRegistryMissing
	}

	logger := resolveLogger(config.LoggerProvider)
	outputWriter := resolveWriter(options.Output, options.Command, true)
	errorWriter := resolveWriter(options.Errors, options.Command, false)

	commandRunner := config.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner(outputWriter, errorWriter, resolveReader(options.Input, options.Command))
	}

	taskExecutor, executorError := tasks.NewExecutor(config.Registry, commandRunner, tasks.ExecutorOptions{
		FailurePolicy: options.FailurePolicy,
		DryRun:        options.DryRun,
		Output:        outputWriter,
		Logger:        logger,
		Recorder:      config.Recorder,
	})
	if executorError != nil {
		return Dependencies{}, fmt.Errorf("taskrunner.dependencies.executor: %w", executorError)
	}

	return Dependencies{
		Logger:         logger,
		TaskExecutor:   taskExecutor,
		CommandRunner:  commandRunner,
		Output:         outputWriter,
		Errors:         errorWriter,
		DisableSummary: options.DisableSummary,
	}, nil
}

func resolveLogger(provider func() *zap.Logger) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveWriter(provided io.Writer, command *cobra.Command, useStdout bool) io.Writer {
	if provided != nil {
		return provided
	}
	if command != nil {
		if useStdout {
			if writer := command.OutOrStdout(); writer != nil && writer != io.Discard {
				return writer
			}
		} else {
			if writer := command.ErrOrStderr(); writer != nil && writer != io.Discard {
				return writer
			}
		}
	}
	if useStdout {
		return os.Stdout
	}
	return os.Stderr
}

func resolveReader(provided io.Reader, command *cobra.Command) io.Reader {
	if provided != nil {
		return provided
	}
	if command != nil {
		return command.InOrStdin()
	}
	return os.Stdin
}
